package controllers

import (
	"errors"
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

type CoursesController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=255" example:"Introduction to Go"`
	Description string `json:"description" example:"Basics of the language"`
	ImagePath   string `json:"image_path"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	ImagePath   *string `json:"image_path"`
	IsActive    *bool   `json:"is_active"`
}

type AssignTeacherRequest struct {
	TeacherID uint `json:"teacher_id" validate:"required" example:"2"`
}

// CourseDetails is a course with its content tree and, for enrolled
// users, their progress.
type CourseDetails struct {
	models.Course
	UserProgress *float64 `json:"user_progress,omitempty"`
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

// hideAnswers strips correct answers from tasks for non-staff viewers.
func hideAnswers(tasks []models.Task) {
	for i := range tasks {
		tasks[i].CorrectAnswer = ""
	}
}

// GetCourses godoc
// @Summary List courses
// @Description Public list; only active courses unless the caller is a teacher or admin
// @Tags courses
// @Produce json
// @Param skip query int false "Skip"
// @Param limit query int false "Limit"
// @Param search query string false "Title filter"
// @Success 200 {object} utils.PaginatedResponse
// @Router /courses [get]
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	page := utils.PageFromQuery(c)
	q := cc.DB.Model(&models.Course{})

	user := middleware.CurrentUser(c)
	if user == nil || !user.IsStaff() {
		q = q.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	courses, total, err := repository.ListPage[models.Course](q, page, "id", "Creator")
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch courses")
	}
	return utils.Paginate(c, courses, total, page)
}

// CreateCourse godoc
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Param input body CreateCourseRequest true "Course data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input CreateCourseRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	course := models.Course{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		ImagePath:   input.ImagePath,
		IsActive:    true,
		CreatorID:   user.ID,
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}
	if input.IsActive != nil && !*input.IsActive {
		if err := cc.DB.Model(&course).Update("is_active", false).Error; err != nil {
			return utils.InternalServerError(c, "Could not create course")
		}
		course.IsActive = false
	}

	cc.Logger.Info("course created", "course_id", course.ID, "creator_id", user.ID)
	return utils.Created(c, course)
}

// GetCourse godoc
// @Summary Get a course with modules, lessons, materials and tasks
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	var course models.Course
	err = cc.DB.
		Preload("Creator").
		Preload("Teachers.Teacher").
		Preload("Modules", orderByPosition).
		Preload("Modules.Lessons", orderByPosition).
		Preload("Modules.Lessons.Materials", orderByPosition).
		Preload("Modules.Lessons.Tasks", orderByPosition).
		First(&course, id).Error
	if err != nil {
		return loadError(c, err, "Course not found")
	}

	user := middleware.CurrentUser(c)
	staff, err := isCourseStaff(cc.DB, user, &course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !course.IsActive && !staff {
		return utils.NotFound(c, "Course not found")
	}
	if !staff {
		for i := range course.Modules {
			for j := range course.Modules[i].Lessons {
				hideAnswers(course.Modules[i].Lessons[j].Tasks)
			}
		}
	}

	details := CourseDetails{Course: course}
	if user != nil {
		if e, err := repository.FindEnrollment(cc.DB, user.ID, course.ID); err == nil {
			details.UserProgress = &e.Progress
		}
	}
	return utils.OK(c, details)
}

// UpdateCourse godoc
// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body UpdateCourseRequest true "Course fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input UpdateCourseRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	course, err := requireCourseStaff(c, cc.DB, id)
	if course == nil {
		return err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ImagePath != nil {
		updates["image_path"] = *input.ImagePath
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := cc.DB.Model(course).Updates(updates).Error; err != nil {
			return utils.InternalServerError(c, "Could not update course")
		}
	}
	if err := cc.DB.First(course, course.ID).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.OK(c, course)
}

// DeleteCourse godoc
// @Summary Delete a course
// @Description Creator or admin only. Removes all course content.
// @Tags courses
// @Param id path int true "Course ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [delete]
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	course, err := repository.FindByID[models.Course](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Course not found")
	}
	user := middleware.CurrentUser(c)
	if course.CreatorID != user.ID && !user.IsAdmin() {
		return utils.Forbidden(c, "Not enough permissions")
	}

	if err := deleteCourse(cc.DB, course.ID); err != nil {
		return utils.InternalServerError(c, "Could not delete course")
	}
	cc.Logger.Info("course deleted", "course_id", course.ID, "by", user.ID)
	return utils.NoContent(c)
}

// deleteCourse removes the course and everything below it, children first.
func deleteCourse(db *gorm.DB, courseID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		modules := tx.Model(&models.Module{}).Select("id").Where("course_id = ?", courseID)
		if err := deleteLessonsWhere(tx, "module_id IN (?)", modules); err != nil {
			return err
		}
		for _, model := range []interface{}{
			&models.Module{}, &models.Enrollment{}, &models.CourseTeacher{}, &models.Certificate{},
		} {
			if err := tx.Where("course_id = ?", courseID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Course{}, courseID).Error
	})
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	course, err := repository.FindByID[models.Course](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Course not found")
	}
	if !course.IsActive {
		return utils.BadRequest(c, "Course is not active")
	}

	user := middleware.CurrentUser(c)
	if _, err := repository.FindEnrollment(cc.DB, user.ID, course.ID); err == nil {
		return utils.BadRequest(c, "Already enrolled in this course")
	} else if !repository.IsNotFound(err) {
		return utils.InternalServerError(c, "Could not query database")
	}

	enrollment := models.Enrollment{UserID: user.ID, CourseID: course.ID, EnrolledAt: time.Now()}
	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		_, err := cc.Svc.Notifier.Notify(tx, services.NotificationInput{
			UserID:            user.ID,
			Title:             "Enrolled in course",
			Message:           "You have been enrolled in the course \"" + course.Title + "\".",
			Type:              models.NotificationCourse,
			RelatedEntityType: "course",
			RelatedEntityID:   &course.ID,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.BadRequest(c, "Already enrolled in this course")
		}
		return utils.InternalServerError(c, "Could not enroll")
	}
	return utils.Created(c, enrollment)
}

// Unenroll godoc
// @Summary Leave a course
// @Tags courses
// @Param id path int true "Course ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [delete]
func (cc *CoursesController) Unenroll(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	res := cc.DB.Where("user_id = ? AND course_id = ?", user.ID, id).Delete(&models.Enrollment{})
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not unenroll")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Enrollment not found")
	}
	return utils.NoContent(c)
}

// GetProgress godoc
// @Summary Current user's progress in a course
// @Description Recomputes progress from graded answers
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/progress [get]
func (cc *CoursesController) GetProgress(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if _, err := repository.FindByID[models.Course](cc.DB, id); err != nil {
		return loadError(c, err, "Course not found")
	}
	user := middleware.CurrentUser(c)

	progress, err := cc.Svc.RefreshProgress(user.ID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotEnrolled) {
			return utils.BadRequest(c, "Not enrolled in this course")
		}
		return utils.InternalServerError(c, "Could not calculate progress")
	}
	enrollment, err := repository.FindEnrollment(cc.DB, user.ID, id)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.OK(c, fiber.Map{
		"course_id":    id,
		"progress":     progress,
		"enrolled_at":  enrollment.EnrolledAt,
		"completed_at": enrollment.CompletedAt,
	})
}

// AddTeacher godoc
// @Summary Assign a teacher to a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body AssignTeacherRequest true "Teacher"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/teachers [post]
func (cc *CoursesController) AddTeacher(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input AssignTeacherRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	course, err := cc.ownedCourse(c, id)
	if course == nil {
		return err
	}

	teacher, err := repository.FindByID[models.User](cc.DB, input.TeacherID)
	if err != nil {
		return loadError(c, err, "User not found")
	}
	if teacher.Role != models.RoleTeacher {
		return utils.BadRequest(c, "User is not a teacher")
	}
	if ok, err := repository.IsCourseTeacher(cc.DB, course.ID, teacher.ID); err != nil {
		return utils.InternalServerError(c, "Could not query database")
	} else if ok {
		return utils.BadRequest(c, "Teacher is already assigned to this course")
	}

	link := models.CourseTeacher{CourseID: course.ID, TeacherID: teacher.ID}
	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		_, err := cc.Svc.Notifier.Notify(tx, services.NotificationInput{
			UserID:            teacher.ID,
			Title:             "Assigned to course",
			Message:           "You have been assigned as a teacher of the course \"" + course.Title + "\".",
			Type:              models.NotificationCourse,
			RelatedEntityType: "course",
			RelatedEntityID:   &course.ID,
		})
		return err
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not assign teacher")
	}
	link.Teacher = teacher
	return utils.Created(c, link)
}

// RemoveTeacher godoc
// @Summary Unassign a teacher from a course
// @Tags courses
// @Param id path int true "Course ID"
// @Param teacher_id path int true "Teacher ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/teachers/{teacher_id} [delete]
func (cc *CoursesController) RemoveTeacher(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	teacherID, err := utils.ParamID(c, "teacher_id")
	if err != nil {
		return err
	}
	course, err := cc.ownedCourse(c, id)
	if course == nil {
		return err
	}

	res := cc.DB.Where("course_id = ? AND teacher_id = ?", course.ID, teacherID).Delete(&models.CourseTeacher{})
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not remove teacher")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Teacher is not assigned to this course")
	}
	return utils.NoContent(c)
}

// ownedCourse loads a course the current user created, or any course for
// admins. A nil course means the response is already written.
func (cc *CoursesController) ownedCourse(c *fiber.Ctx, id uint) (*models.Course, error) {
	course, err := repository.FindByID[models.Course](cc.DB, id)
	if err != nil {
		return nil, loadError(c, err, "Course not found")
	}
	user := middleware.CurrentUser(c)
	if course.CreatorID != user.ID && !user.IsAdmin() {
		return nil, utils.Forbidden(c, "Not enough permissions")
	}
	return course, nil
}
