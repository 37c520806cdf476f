package controllers

import (
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// loadError maps a lookup failure to 404 or 500.
func loadError(c *fiber.Ctx, err error, notFound string) error {
	if repository.IsNotFound(err) {
		return utils.NotFound(c, notFound)
	}
	return utils.InternalServerError(c, "Could not query database")
}

// isCourseStaff reports whether user may manage the course: admins, the
// creator and assigned teachers.
func isCourseStaff(db *gorm.DB, user *models.User, course *models.Course) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() || course.CreatorID == user.ID {
		return true, nil
	}
	if user.Role != models.RoleTeacher {
		return false, nil
	}
	return repository.IsCourseTeacher(db, course.ID, user.ID)
}

// requireCourseStaff loads the course and answers 404/403 itself; a nil
// course means the response has already been written.
func requireCourseStaff(c *fiber.Ctx, db *gorm.DB, courseID uint) (*models.Course, error) {
	course, err := repository.FindByID[models.Course](db, courseID)
	if err != nil {
		return nil, loadError(c, err, "Course not found")
	}
	ok, err := isCourseStaff(db, middleware.CurrentUser(c), course)
	if err != nil {
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	if !ok {
		return nil, utils.Forbidden(c, "Not enough permissions")
	}
	return course, nil
}

// canViewCourseContent allows course staff and enrolled users.
func canViewCourseContent(db *gorm.DB, user *models.User, course *models.Course) (bool, error) {
	staff, err := isCourseStaff(db, user, course)
	if err != nil || staff {
		return staff, err
	}
	if user == nil {
		return false, nil
	}
	_, err = repository.FindEnrollment(db, user.ID, course.ID)
	if repository.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// requireCourseAccess is requireCourseStaff for read access.
func requireCourseAccess(c *fiber.Ctx, db *gorm.DB, courseID uint) (*models.Course, error) {
	course, err := repository.FindByID[models.Course](db, courseID)
	if err != nil {
		return nil, loadError(c, err, "Course not found")
	}
	ok, err := canViewCourseContent(db, middleware.CurrentUser(c), course)
	if err != nil {
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	if !ok {
		return nil, utils.Forbidden(c, "Not enough permissions")
	}
	return course, nil
}
