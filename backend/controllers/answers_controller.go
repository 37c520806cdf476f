package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"coursehub/backend/config"
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnswersController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewAnswersController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *AnswersController {
	return &AnswersController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type SubmitAnswerRequest struct {
	Content string `json:"content" validate:"required,notblank" example:"42"`
}

type GradeAnswerRequest struct {
	Score    *float64 `json:"score" validate:"required,gte=0" example:"8.5"`
	Feedback string   `json:"feedback" example:"Good job"`
}

// taskForSubmission loads the task and checks that the current user may
// answer it. A nil task means the response is already written.
func (ac *AnswersController) taskForSubmission(c *fiber.Ctx) (*models.Task, uint, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, 0, err
	}
	task, err := repository.FindByID[models.Task](ac.DB, id)
	if err != nil {
		return nil, 0, loadError(c, err, "Task not found")
	}
	courseID, err := repository.CourseIDForTask(ac.DB, task.ID)
	if err != nil {
		return nil, 0, loadError(c, err, "Course not found")
	}
	if course, err := requireCourseAccess(c, ac.DB, courseID); course == nil {
		return nil, 0, err
	}
	return task, courseID, nil
}

// refresh recomputes progress after a graded answer. Staff submissions have
// no enrollment behind them.
func (ac *AnswersController) refresh(studentID, courseID uint) {
	if _, err := ac.Svc.RefreshProgress(studentID, courseID); err != nil && !errors.Is(err, services.ErrNotEnrolled) {
		ac.Logger.Error("refresh progress", "user_id", studentID, "course_id", courseID, "error", err)
	}
}

// SubmitAnswer godoc
// @Summary Submit an answer to a task
// @Description Test tasks are graded immediately. File upload tasks only accept /answers/upload.
// @Tags answers
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param input body SubmitAnswerRequest true "Answer"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tasks/{id}/answers [post]
func (ac *AnswersController) SubmitAnswer(c *fiber.Ctx) error {
	var input SubmitAnswerRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	task, courseID, err := ac.taskForSubmission(c)
	if task == nil {
		return err
	}
	if task.TaskType == models.TaskFileUpload {
		return utils.BadRequest(c, "This task requires a file upload")
	}

	user := middleware.CurrentUser(c)
	answer := models.Answer{TaskID: task.ID, StudentID: user.ID, Content: input.Content}
	if task.TaskType == models.TaskTest {
		score, correct := services.AutoGrade(*task, input.Content)
		now := time.Now()
		answer.Score = &score
		answer.IsCorrect = &correct
		answer.GradedAt = &now
	}
	if err := ac.DB.Create(&answer).Error; err != nil {
		return utils.InternalServerError(c, "Could not save answer")
	}

	if answer.Score != nil {
		ac.refresh(user.ID, courseID)
	}
	return utils.Created(c, answer)
}

// UploadAnswer godoc
// @Summary Submit a file answer
// @Tags answers
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Task ID"
// @Param file formData file true "Answer file"
// @Param content formData string false "Optional comment"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tasks/{id}/answers/upload [post]
func (ac *AnswersController) UploadAnswer(c *fiber.Ctx) error {
	task, _, err := ac.taskForSubmission(c)
	if task == nil {
		return err
	}
	if task.TaskType != models.TaskFileUpload {
		return utils.BadRequest(c, "This task does not accept file uploads")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "File is required")
	}
	path, err := ac.Svc.Storage.Save(fh, "answers")
	if err != nil {
		return storageError(c, err)
	}

	user := middleware.CurrentUser(c)
	answer := models.Answer{TaskID: task.ID, StudentID: user.ID, Content: c.FormValue("content"), FilePath: path}
	if err := ac.DB.Create(&answer).Error; err != nil {
		_ = ac.Svc.Storage.Delete(path)
		return utils.InternalServerError(c, "Could not save answer")
	}
	return utils.Created(c, answer)
}

// GetTaskAnswers godoc
// @Summary List answers to a task
// @Description Course staff see every answer, students only their own
// @Tags answers
// @Produce json
// @Param id path int true "Task ID"
// @Param skip query int false "Skip"
// @Param limit query int false "Limit"
// @Success 200 {object} utils.PaginatedResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tasks/{id}/answers [get]
func (ac *AnswersController) GetTaskAnswers(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	courseID, err := repository.CourseIDForTask(ac.DB, id)
	if err != nil {
		return loadError(c, err, "Task not found")
	}
	course, err := repository.FindByID[models.Course](ac.DB, courseID)
	if err != nil {
		return loadError(c, err, "Course not found")
	}
	user := middleware.CurrentUser(c)
	staff, err := isCourseStaff(ac.DB, user, course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	page := utils.PageFromQuery(c)
	q := ac.DB.Model(&models.Answer{}).Where("task_id = ?", id)
	if !staff {
		q = q.Where("student_id = ?", user.ID)
	}
	answers, total, err := repository.ListPage[models.Answer](q, page, "created_at DESC, id DESC")
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch answers")
	}
	return utils.Paginate(c, answers, total, page)
}

// GetAnswer godoc
// @Summary Get an answer
// @Tags answers
// @Produce json
// @Param id path int true "Answer ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /answers/{id} [get]
func (ac *AnswersController) GetAnswer(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	answer, err := repository.FindByID[models.Answer](ac.DB, id)
	if err != nil {
		return loadError(c, err, "Answer not found")
	}

	user := middleware.CurrentUser(c)
	if answer.StudentID != user.ID {
		courseID, err := repository.CourseIDForTask(ac.DB, answer.TaskID)
		if err != nil {
			return loadError(c, err, "Task not found")
		}
		if course, err := requireCourseStaff(c, ac.DB, courseID); course == nil {
			return err
		}
	}
	return utils.OK(c, answer)
}

// GradeAnswer godoc
// @Summary Grade an answer
// @Description Course staff only. Notifies the student and recomputes their progress.
// @Tags answers
// @Accept json
// @Produce json
// @Param id path int true "Answer ID"
// @Param input body GradeAnswerRequest true "Grade"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /answers/{id}/grade [put]
func (ac *AnswersController) GradeAnswer(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input GradeAnswerRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	answer, err := repository.FindByID[models.Answer](ac.DB, id)
	if err != nil {
		return loadError(c, err, "Answer not found")
	}
	task, err := repository.FindByID[models.Task](ac.DB, answer.TaskID)
	if err != nil {
		return loadError(c, err, "Task not found")
	}
	courseID, err := repository.CourseIDForTask(ac.DB, task.ID)
	if err != nil {
		return loadError(c, err, "Course not found")
	}
	if course, err := requireCourseStaff(c, ac.DB, courseID); course == nil {
		return err
	}
	if *input.Score > task.MaxScore {
		return utils.ValidationError(c, map[string]string{
			"score": fmt.Sprintf("must be between 0 and %g", task.MaxScore),
		})
	}

	user := middleware.CurrentUser(c)
	now := time.Now()
	answer.Score = input.Score
	answer.Feedback = strings.TrimSpace(input.Feedback)
	answer.TeacherID = &user.ID
	answer.GradedAt = &now

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(answer).Updates(map[string]interface{}{
			"score":      answer.Score,
			"feedback":   answer.Feedback,
			"teacher_id": answer.TeacherID,
			"graded_at":  answer.GradedAt,
		}).Error
		if err != nil {
			return err
		}
		_, err = ac.Svc.Notifier.Notify(tx, services.NotificationInput{
			UserID:            answer.StudentID,
			Title:             "Answer graded",
			Message:           fmt.Sprintf("Your answer to %q was graded: %g of %g.", task.Title, *answer.Score, task.MaxScore),
			Type:              models.NotificationAssignment,
			RelatedEntityType: "answer",
			RelatedEntityID:   &answer.ID,
		})
		return err
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not grade answer")
	}

	ac.refresh(answer.StudentID, courseID)
	return utils.OK(c, answer)
}
