package controllers

import (
	"coursehub/backend/config"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AnalyticsController serves the /statistics endpoints.
type AnalyticsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

// daysParam читает ?days= в пределах 1..365
func daysParam(c *fiber.Ctx, def int) int {
	days := c.QueryInt("days", def)
	if days < 1 {
		return 1
	}
	if days > 365 {
		return 365
	}
	return days
}

// GetCourseStatistics godoc
// @Summary Course statistics
// @Description Students, completion rate, average score, per-module stats and the last 7 days of activity
// @Tags statistics
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse{data=models.CourseStatistics}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /statistics/courses/{id} [get]
func (ac *AnalyticsController) GetCourseStatistics(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if course, err := requireCourseStaff(c, ac.DB, id); course == nil {
		return err
	}

	stats, err := ac.Svc.Statistics.CourseStatistics(id)
	if err != nil {
		ac.Logger.Error("course statistics", "course_id", id, "error", err)
		return utils.InternalServerError(c, "Failed to calculate statistics")
	}
	return utils.OK(c, stats)
}

// GetStudentsProgress godoc
// @Summary Progress of every student in a course
// @Tags statistics
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse{data=[]models.StudentProgress}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /statistics/courses/{id}/progress [get]
func (ac *AnalyticsController) GetStudentsProgress(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if course, err := requireCourseStaff(c, ac.DB, id); course == nil {
		return err
	}

	progress, err := ac.Svc.Statistics.StudentsProgress(id)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}
	return utils.OK(c, progress)
}

// GetCourseActivity godoc
// @Summary Daily activity in a course
// @Tags statistics
// @Produce json
// @Param id path int true "Course ID"
// @Param days query int false "Period in days (default 30)"
// @Success 200 {object} utils.SuccessResponse{data=[]models.DailyActivity}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /statistics/courses/{id}/activity [get]
func (ac *AnalyticsController) GetCourseActivity(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if course, err := requireCourseStaff(c, ac.DB, id); course == nil {
		return err
	}

	activity, err := ac.Svc.Statistics.CourseActivity(id, daysParam(c, 30))
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch activity")
	}
	return utils.OK(c, activity)
}

// GetSystemOverview godoc
// @Summary System-wide statistics
// @Tags statistics
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=models.SystemStats}
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /statistics/system/overview [get]
func (ac *AnalyticsController) GetSystemOverview(c *fiber.Ctx) error {
	stats, err := ac.Svc.Statistics.SystemStats()
	if err != nil {
		ac.Logger.Error("system statistics", "error", err)
		return utils.InternalServerError(c, "Failed to calculate statistics")
	}
	return utils.OK(c, stats)
}
