package controllers

import (
	"errors"
	"strings"

	"coursehub/backend/config"
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AdminController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewAdminController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *AdminController {
	return &AdminController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type BackupRequest struct {
	IncludeData  *bool `json:"include_data" example:"true"`
	IncludeFiles *bool `json:"include_files" example:"true"`
}

type RestoreRequest struct {
	BackupPath string `json:"backup_path" validate:"required" example:"backups/backup_20240101_120000.tar.gz"`
}

type BroadcastRequest struct {
	Title   string      `json:"title" validate:"required,notblank,max=100" example:"Scheduled maintenance"`
	Message string      `json:"message" validate:"required,notblank,max=500" example:"The platform will be unavailable tonight"`
	Role    models.Role `json:"role" validate:"omitempty,oneof=admin teacher student"`
}

// GetStats godoc
// @Summary System statistics
// @Tags admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=models.SystemStats}
// @Security ApiKeyAuth
// @Router /admin/stats [get]
func (ac *AdminController) GetStats(c *fiber.Ctx) error {
	stats, err := ac.Svc.Statistics.SystemStats()
	if err != nil {
		return utils.InternalServerError(c, "Failed to calculate statistics")
	}
	return utils.OK(c, stats)
}

// GetUsersActivity godoc
// @Summary Per-user activity report
// @Tags admin
// @Produce json
// @Param days query int false "Period in days (default 30)"
// @Success 200 {object} utils.SuccessResponse{data=[]models.UserActivityReport}
// @Security ApiKeyAuth
// @Router /admin/users/activity [get]
func (ac *AdminController) GetUsersActivity(c *fiber.Ctx) error {
	report, err := ac.Svc.Statistics.UserActivity(daysParam(c, 30))
	if err != nil {
		return utils.InternalServerError(c, "Failed to build activity report")
	}
	return utils.OK(c, report)
}

// GetCoursesReport godoc
// @Summary Per-course report
// @Tags admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]models.CourseReport}
// @Security ApiKeyAuth
// @Router /admin/courses/report [get]
func (ac *AdminController) GetCoursesReport(c *fiber.Ctx) error {
	report, err := ac.Svc.Statistics.CoursesReport()
	if err != nil {
		return utils.InternalServerError(c, "Failed to build courses report")
	}
	return utils.OK(c, report)
}

// CreateBackup godoc
// @Summary Back up the database and uploads
// @Description include_data needs the postgres driver. Both flags default to true.
// @Tags admin
// @Accept json
// @Produce json
// @Param input body BackupRequest false "What to include"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/backup [post]
func (ac *AdminController) CreateBackup(c *fiber.Ctx) error {
	var input BackupRequest
	if len(c.Body()) > 0 {
		if err := utils.ParseAndValidate(c, &input); err != nil {
			return err
		}
	}
	includeData := input.IncludeData == nil || *input.IncludeData
	includeFiles := input.IncludeFiles == nil || *input.IncludeFiles
	if !includeData && !includeFiles {
		return utils.BadRequest(c, "Nothing to back up")
	}

	path, err := ac.Svc.Backups.Backup(c.UserContext(), includeData, includeFiles)
	if err != nil {
		if errors.Is(err, services.ErrDumpUnsupported) {
			return utils.BadRequest(c, err.Error())
		}
		ac.Logger.Error("backup failed", "error", err)
		return utils.InternalServerError(c, "Backup failed")
	}
	return utils.Created(c, fiber.Map{"backup_path": path})
}

// RestoreBackup godoc
// @Summary Restore a backup
// @Tags admin
// @Accept json
// @Produce json
// @Param input body RestoreRequest true "Backup archive inside BACKUP_DIR"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/restore [post]
func (ac *AdminController) RestoreBackup(c *fiber.Ctx) error {
	var input RestoreRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}

	err := ac.Svc.Backups.Restore(c.UserContext(), strings.TrimSpace(input.BackupPath))
	switch {
	case errors.Is(err, services.ErrBackupNotFound):
		return utils.NotFound(c, "Backup not found")
	case errors.Is(err, services.ErrDumpUnsupported), errors.Is(err, services.ErrInvalidBackup):
		return utils.BadRequest(c, err.Error())
	case err != nil:
		ac.Logger.Error("restore failed", "path", input.BackupPath, "error", err)
		return utils.InternalServerError(c, "Restore failed")
	}
	return utils.Message(c, "Backup restored")
}

// GetMaintenance godoc
// @Summary Maintenance mode state
// @Tags admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/maintenance [get]
func (ac *AdminController) GetMaintenance(c *fiber.Ctx) error {
	enabled, err := ac.Svc.Maintenance.Enabled(c.UserContext())
	if err != nil {
		return utils.InternalServerError(c, "Could not read maintenance mode")
	}
	return utils.OK(c, fiber.Map{"maintenance_mode": enabled})
}

// EnableMaintenance godoc
// @Summary Turn maintenance mode on
// @Tags admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/maintenance/enable [post]
func (ac *AdminController) EnableMaintenance(c *fiber.Ctx) error {
	return ac.setMaintenance(c, true)
}

// DisableMaintenance godoc
// @Summary Turn maintenance mode off
// @Tags admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/maintenance/disable [post]
func (ac *AdminController) DisableMaintenance(c *fiber.Ctx) error {
	return ac.setMaintenance(c, false)
}

func (ac *AdminController) setMaintenance(c *fiber.Ctx, enabled bool) error {
	if err := ac.Svc.Maintenance.Set(c.UserContext(), enabled); err != nil {
		return utils.InternalServerError(c, "Could not change maintenance mode")
	}
	ac.Logger.Warn("maintenance mode changed", "enabled", enabled, "by", middleware.CurrentUser(c).ID)
	return utils.OK(c, fiber.Map{"maintenance_mode": enabled})
}

// BroadcastNotification godoc
// @Summary Send a system notification to all users or one role
// @Tags admin
// @Accept json
// @Produce json
// @Param input body BroadcastRequest true "Notification"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/notifications [post]
func (ac *AdminController) BroadcastNotification(c *fiber.Ctx) error {
	var input BroadcastRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	sent, err := ac.Svc.Notifier.Broadcast(ac.DB, input.Role, strings.TrimSpace(input.Title), strings.TrimSpace(input.Message))
	if err != nil {
		return utils.InternalServerError(c, "Could not send notifications")
	}
	return utils.Created(c, fiber.Map{"recipients": sent})
}
