// Package repository holds the small set of query helpers shared by the
// controllers and services.
package repository

import (
	"errors"

	"coursehub/backend/models"
	"coursehub/backend/utils"

	"gorm.io/gorm"
)

// FindByID loads a row by primary key. Missing rows surface as gorm.ErrRecordNotFound.
func FindByID[T any](db *gorm.DB, id uint, preloads ...string) (*T, error) {
	var out T
	q := db
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&out, id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Paginate is a GORM scope applying skip/limit.
func Paginate(page utils.Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page.Skip).Limit(page.Limit)
	}
}

// ListPage counts the rows matched by q and loads one page of them. Preloads
// are applied to the page query only.
func ListPage[T any](q *gorm.DB, page utils.Page, order string, preloads ...string) ([]T, int64, error) {
	var total int64
	var model T
	if err := q.Session(&gorm.Session{}).Model(&model).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]T, 0)
	find := q.Session(&gorm.Session{})
	for _, p := range preloads {
		find = find.Preload(p)
	}
	if err := find.Order(order).Scopes(Paginate(page)).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func FindUserByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func IsCourseTeacher(db *gorm.DB, courseID, userID uint) (bool, error) {
	var n int64
	err := db.Model(&models.CourseTeacher{}).
		Where("course_id = ? AND teacher_id = ?", courseID, userID).
		Count(&n).Error
	return n > 0, err
}

func FindEnrollment(db *gorm.DB, userID, courseID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// CourseIDForModule and the helpers below resolve the owning course of a
// content row so permission checks can run against it.
func CourseIDForModule(db *gorm.DB, moduleID uint) (uint, error) {
	var m models.Module
	if err := db.Select("course_id").First(&m, moduleID).Error; err != nil {
		return 0, err
	}
	return m.CourseID, nil
}

func CourseIDForLesson(db *gorm.DB, lessonID uint) (uint, error) {
	var courseID uint
	err := db.Model(&models.Lesson{}).
		Select("modules.course_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("lessons.id = ?", lessonID).
		Limit(1).
		Scan(&courseID).Error
	if err != nil {
		return 0, err
	}
	if courseID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return courseID, nil
}

func CourseIDForMaterial(db *gorm.DB, materialID uint) (uint, error) {
	var courseID uint
	err := db.Model(&models.LessonMaterial{}).
		Select("modules.course_id").
		Joins("JOIN lessons ON lessons.id = lesson_materials.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("lesson_materials.id = ?", materialID).
		Limit(1).
		Scan(&courseID).Error
	if err != nil {
		return 0, err
	}
	if courseID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return courseID, nil
}

func CourseIDForTask(db *gorm.DB, taskID uint) (uint, error) {
	var courseID uint
	err := db.Model(&models.Task{}).
		Select("modules.course_id").
		Joins("JOIN lessons ON lessons.id = tasks.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("tasks.id = ?", taskID).
		Limit(1).
		Scan(&courseID).Error
	if err != nil {
		return 0, err
	}
	if courseID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return courseID, nil
}

// CourseTaskIDs lists every task id in the course.
func CourseTaskIDs(db *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&models.Task{}).
		Joins("JOIN lessons ON lessons.id = tasks.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID).
		Pluck("tasks.id", &ids).Error
	return ids, err
}
