package controllers

import (
	"strings"

	"coursehub/backend/config"
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CommentsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewCommentsController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *CommentsController {
	return &CommentsController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

// AddCommentRequest defines the request body for adding a comment
type AddCommentRequest struct {
	Content   string `json:"content" validate:"required,notblank,max=1000" example:"Thanks, very clear explanation"`
	ReplyToID *uint  `json:"reply_to_id" example:"12"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,notblank,max=1000"`
}

// GetMaterialComments godoc
// @Summary Get comments of a material
// @Description Returns a page of top-level comments, each with its replies. Deleted comments keep their place with masked content.
// @Tags comments
// @Produce json
// @Param id path int true "Material ID"
// @Param skip query int false "Skip"
// @Param limit query int false "Limit"
// @Success 200 {object} utils.PaginatedResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /materials/{id}/comments [get]
func (cc *CommentsController) GetMaterialComments(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if _, err := repository.FindByID[models.LessonMaterial](cc.DB, id); err != nil {
		return loadError(c, err, "Material not found")
	}

	page := utils.PageFromQuery(c)
	q := cc.DB.Model(&models.Comment{}).Where("material_id = ? AND reply_to_id IS NULL", id)
	roots, total, err := repository.ListPage[models.Comment](q, page, "created_at, id", "Author")
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch comments")
	}

	var replies []models.Comment
	err = cc.DB.Preload("Author").
		Where("material_id = ? AND reply_to_id IS NOT NULL", id).
		Order("created_at, id").
		Find(&replies).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch comments")
	}

	return utils.Paginate(c, buildThreads(roots, replies), total, page)
}

// buildThreads attaches replies (at any depth) under their parents and masks
// deleted comments.
func buildThreads(roots, replies []models.Comment) []models.Comment {
	children := make(map[uint][]models.Comment)
	for _, r := range replies {
		children[*r.ReplyToID] = append(children[*r.ReplyToID], r)
	}
	var attach func(c models.Comment, depth int) models.Comment
	attach = func(c models.Comment, depth int) models.Comment {
		c = c.Masked()
		c.Replies = nil
		if depth > 32 {
			return c
		}
		for _, child := range children[c.ID] {
			c.Replies = append(c.Replies, attach(child, depth+1))
		}
		return c
	}

	out := make([]models.Comment, 0, len(roots))
	for _, root := range roots {
		out = append(out, attach(root, 0))
	}
	return out
}

// AddMaterialComment godoc
// @Summary Add comment to material
// @Description Enrolled students and course staff may comment. reply_to_id must point to a comment on the same material.
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Material ID"
// @Param input body AddCommentRequest true "Comment data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /materials/{id}/comments [post]
func (cc *CommentsController) AddMaterialComment(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input AddCommentRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	courseID, err := repository.CourseIDForMaterial(cc.DB, id)
	if err != nil {
		return loadError(c, err, "Material not found")
	}
	if course, err := requireCourseAccess(c, cc.DB, courseID); course == nil {
		return err
	}

	var parent *models.Comment
	if input.ReplyToID != nil {
		parent, err = repository.FindByID[models.Comment](cc.DB, *input.ReplyToID)
		if err != nil {
			if repository.IsNotFound(err) {
				return utils.BadRequest(c, "Parent comment not found")
			}
			return utils.InternalServerError(c, "Could not query database")
		}
		if parent.MaterialID != id {
			return utils.BadRequest(c, "Parent comment belongs to another material")
		}
	}

	user := middleware.CurrentUser(c)
	comment := models.Comment{
		MaterialID: id,
		AuthorID:   user.ID,
		Content:    strings.TrimSpace(input.Content),
		ReplyToID:  input.ReplyToID,
	}
	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if parent == nil || parent.AuthorID == user.ID {
			return nil
		}
		_, err := cc.Svc.Notifier.Notify(tx, services.NotificationInput{
			UserID:            parent.AuthorID,
			Title:             "New reply to your comment",
			Message:           user.FullName() + " replied: " + comment.Content,
			Type:              models.NotificationComment,
			RelatedEntityType: "comment",
			RelatedEntityID:   &comment.ID,
		})
		return err
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not create comment")
	}

	comment.Author = user
	return utils.Created(c, comment)
}

// commentForEdit loads a comment the current user may change: its author or
// the course staff. A nil comment means the response is already written.
func (cc *CommentsController) commentForEdit(c *fiber.Ctx) (*models.Comment, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	comment, err := repository.FindByID[models.Comment](cc.DB, id)
	if err != nil {
		return nil, loadError(c, err, "Comment not found")
	}
	user := middleware.CurrentUser(c)
	if comment.AuthorID == user.ID {
		return comment, nil
	}
	courseID, err := repository.CourseIDForMaterial(cc.DB, comment.MaterialID)
	if err != nil {
		return nil, loadError(c, err, "Material not found")
	}
	if course, err := requireCourseStaff(c, cc.DB, courseID); course == nil {
		return nil, err
	}
	return comment, nil
}

// UpdateComment godoc
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param input body UpdateCommentRequest true "New content"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /comments/{id} [put]
func (cc *CommentsController) UpdateComment(c *fiber.Ctx) error {
	var input UpdateCommentRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	comment, err := cc.commentForEdit(c)
	if comment == nil {
		return err
	}
	if comment.IsDeleted {
		return utils.BadRequest(c, "Comment has been deleted")
	}

	comment.Content = strings.TrimSpace(input.Content)
	if err := cc.DB.Model(comment).Update("content", comment.Content).Error; err != nil {
		return utils.InternalServerError(c, "Could not update comment")
	}
	return utils.OK(c, comment)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description Marks the comment deleted; replies stay in the thread
// @Tags comments
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /comments/{id} [delete]
func (cc *CommentsController) DeleteComment(c *fiber.Ctx) error {
	comment, err := cc.commentForEdit(c)
	if comment == nil {
		return err
	}
	if err := cc.DB.Model(comment).Update("is_deleted", true).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete comment")
	}
	return utils.NoContent(c)
}
