package services

import (
	"path/filepath"
	"testing"
	"time"

	"coursehub/backend/config"
	"coursehub/backend/models"
	"coursehub/backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ProjectName:       "Online Courses Platform",
		APIPrefix:         "/api/v1",
		DBDriver:          "sqlite",
		SQLitePath:        "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		JWTSecret:         "testsecret",
		UploadDir:         filepath.Join(dir, "uploads"),
		MaxFileSize:       1024,
		AllowedExtensions: []string{".txt", ".pdf"},
		CertificatesDir:   filepath.Join(dir, "certificates"),
		BackupDir:         filepath.Join(dir, "backups"),
	}
}

func testDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	db, err := utils.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	Course  models.Course
	Module  models.Module
	Lesson  models.Lesson
	Tasks   []models.Task
	Student models.User
}

// newFixture creates a course with two tasks (10 and 30 points) and an
// enrolled student.
func newFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{}
	teacher := models.User{Email: "teacher@example.com", PasswordHash: "x", Role: models.RoleTeacher, IsActive: true}
	require.NoError(t, db.Create(&teacher).Error)
	f.Student = models.User{Email: "student@example.com", PasswordHash: "x", FirstName: "Ivan", LastName: "Petrov", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(&f.Student).Error)

	f.Course = models.Course{Title: "Go Basics", CreatorID: teacher.ID, IsActive: true}
	require.NoError(t, db.Create(&f.Course).Error)
	f.Module = models.Module{CourseID: f.Course.ID, Title: "Module 1"}
	require.NoError(t, db.Create(&f.Module).Error)
	f.Lesson = models.Lesson{ModuleID: f.Module.ID, Title: "Lesson 1"}
	require.NoError(t, db.Create(&f.Lesson).Error)

	f.Tasks = []models.Task{
		{LessonID: f.Lesson.ID, Title: "Quiz", TaskType: models.TaskTest, MaxScore: 10, CorrectAnswer: "yes"},
		{LessonID: f.Lesson.ID, Title: "Essay", TaskType: models.TaskText, MaxScore: 30},
	}
	require.NoError(t, db.Create(&f.Tasks).Error)
	require.NoError(t, db.Create(&models.Enrollment{UserID: f.Student.ID, CourseID: f.Course.ID, EnrolledAt: time.Now()}).Error)
	return f
}

func (f *fixture) answer(t *testing.T, db *gorm.DB, task models.Task, score *float64) {
	t.Helper()
	require.NoError(t, db.Create(&models.Answer{TaskID: task.ID, StudentID: f.Student.ID, Content: "a", Score: score}).Error)
}

func ptr[T any](v T) *T { return &v }
