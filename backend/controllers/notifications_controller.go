package controllers

import (
	"coursehub/backend/config"
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewNotificationsController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *NotificationsController {
	return &NotificationsController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type UpdateNotificationRequest struct {
	IsRead *bool `json:"is_read" validate:"required" example:"true"`
}

// GetNotifications godoc
// @Summary List my notifications
// @Tags notifications
// @Produce json
// @Param skip query int false "Skip"
// @Param limit query int false "Limit"
// @Param unread_only query bool false "Only unread"
// @Success 200 {object} utils.PaginatedResponse
// @Security ApiKeyAuth
// @Router /notifications [get]
func (nc *NotificationsController) GetNotifications(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page := utils.PageFromQuery(c)

	q := nc.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if c.QueryBool("unread_only") {
		q = q.Where("is_read = ?", false)
	}
	items, total, err := repository.ListPage[models.Notification](q, page, "created_at DESC, id DESC")
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch notifications")
	}
	return utils.Paginate(c, items, total, page)
}

// CountUnread godoc
// @Summary Number of unread notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /notifications/count/unread [get]
func (nc *NotificationsController) CountUnread(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	var count int64
	err := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&count).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not count notifications")
	}
	return utils.OK(c, fiber.Map{"count": count})
}

// MarkAllAsRead godoc
// @Summary Mark all my notifications as read
// @Tags notifications
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /notifications/mark-all-as-read [put]
func (nc *NotificationsController) MarkAllAsRead(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	res := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not update notifications")
	}
	return utils.OK(c, fiber.Map{"updated": res.RowsAffected})
}

// ownNotification loads a notification of the current user; 403 for
// someone else's. A nil result means the response is already written.
func (nc *NotificationsController) ownNotification(c *fiber.Ctx) (*models.Notification, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	n, err := repository.FindByID[models.Notification](nc.DB, id)
	if err != nil {
		return nil, loadError(c, err, "Notification not found")
	}
	if n.UserID != middleware.CurrentUser(c).ID {
		return nil, utils.Forbidden(c, "Not enough permissions")
	}
	return n, nil
}

// GetNotification godoc
// @Summary Get a notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /notifications/{id} [get]
func (nc *NotificationsController) GetNotification(c *fiber.Ctx) error {
	n, err := nc.ownNotification(c)
	if n == nil {
		return err
	}
	return utils.OK(c, n)
}

// UpdateNotification godoc
// @Summary Mark a notification read or unread
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Param input body UpdateNotificationRequest true "Read flag"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /notifications/{id} [put]
func (nc *NotificationsController) UpdateNotification(c *fiber.Ctx) error {
	var input UpdateNotificationRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	n, err := nc.ownNotification(c)
	if n == nil {
		return err
	}
	n.IsRead = *input.IsRead
	if err := nc.DB.Model(n).Update("is_read", n.IsRead).Error; err != nil {
		return utils.InternalServerError(c, "Could not update notification")
	}
	return utils.OK(c, n)
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /notifications/{id} [delete]
func (nc *NotificationsController) DeleteNotification(c *fiber.Ctx) error {
	n, err := nc.ownNotification(c)
	if n == nil {
		return err
	}
	if err := nc.DB.Delete(n).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete notification")
	}
	return utils.NoContent(c)
}
