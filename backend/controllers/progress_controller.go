package controllers

import (
	"database/sql"
	"math"

	"coursehub/backend/config"
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewProgressController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type ProgressOverview struct {
	CoursesEnrolled  int64   `json:"courses_enrolled"`
	CoursesCompleted int64   `json:"courses_completed"`
	Certificates     int64   `json:"certificates"`
	AnswersSubmitted int64   `json:"answers_submitted"`
	AnswersGraded    int64   `json:"answers_graded"`
	AverageProgress  float64 `json:"average_progress"`
}

// GetProgress godoc
// @Summary Get my enrollments
// @Description Returns every course the user is enrolled in with the stored progress
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]models.Enrollment}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	enrollments := make([]models.Enrollment, 0)
	err := pc.DB.Preload("Course").
		Where("user_id = ?", user.ID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}
	return utils.OK(c, enrollments)
}

// GetProgressOverview godoc
// @Summary Get progress overview
// @Description Returns summary of user's progress
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=ProgressOverview}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/overview [get]
func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	var out ProgressOverview

	counts := []struct {
		dst   *int64
		model interface{}
		query string
	}{
		{&out.CoursesEnrolled, &models.Enrollment{}, "user_id = ?"},
		{&out.CoursesCompleted, &models.Enrollment{}, "user_id = ? AND completed_at IS NOT NULL"},
		{&out.Certificates, &models.Certificate{}, "user_id = ?"},
		{&out.AnswersSubmitted, &models.Answer{}, "student_id = ?"},
		{&out.AnswersGraded, &models.Answer{}, "student_id = ? AND score IS NOT NULL"},
	}
	for _, q := range counts {
		if err := pc.DB.Model(q.model).Where(q.query, user.ID).Count(q.dst).Error; err != nil {
			return utils.InternalServerError(c, "Failed to fetch progress")
		}
	}

	var avg sql.NullFloat64
	err := pc.DB.Model(&models.Enrollment{}).
		Select("AVG(progress)").
		Where("user_id = ?", user.ID).
		Row().Scan(&avg)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}
	if avg.Valid {
		out.AverageProgress = math.Round(avg.Float64*100) / 100
	}

	return utils.OK(c, out)
}
