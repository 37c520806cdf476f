package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coursehub/backend/config"
	"coursehub/backend/models"
	"coursehub/backend/routes"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "password123"

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
	svc *services.Services
}

// newTestEnv builds the full application over a private in-memory sqlite
// database and temporary directories.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		ProjectName:              "Online Courses Platform",
		APIPrefix:                "/api/v1",
		CORSOrigins:              "*",
		DBDriver:                 "sqlite",
		SQLitePath:               "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		JWTSecret:                "testsecret",
		AccessTokenExpireMinutes: 60,
		UploadDir:                filepath.Join(dir, "uploads"),
		MaxFileSize:              1024,
		AllowedExtensions:        []string{".txt", ".pdf", ".png"},
		CertificatesDir:          filepath.Join(dir, "certificates"),
		BackupDir:                filepath.Join(dir, "backups"),
		FrontendBaseURL:          "http://localhost:3000",
	}

	db, err := utils.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := utils.NewNopLogger()
	svc, err := services.New(db, cfg, logger)
	require.NoError(t, err)

	return &testEnv{app: routes.NewApp(db, cfg, svc, logger), db: db, cfg: cfg, svc: svc}
}

func (e *testEnv) createUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(*user, e.cfg)
	require.NoError(t, err)
	return token
}

type apiResponse struct {
	Status int
	Body   map[string]interface{}
	Raw    []byte
}

// Data returns the "data" object of a success response.
func (r apiResponse) Data() map[string]interface{} {
	data, _ := r.Body["data"].(map[string]interface{})
	return data
}

// List returns the "data" array of a list response.
func (r apiResponse) List() []interface{} {
	list, _ := r.Body["data"].([]interface{})
	return list
}

func (e *testEnv) do(t *testing.T, req *http.Request, token string) apiResponse {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := apiResponse{Status: resp.StatusCode, Raw: raw}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out.Body))
	}
	return out
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, e.cfg.APIPrefix+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(t, req, token)
}

func (e *testEnv) upload(t *testing.T, path, token, filename string, content []byte) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, e.cfg.APIPrefix+path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req, token)
}

type seededCourse struct {
	Course   models.Course
	Module   models.Module
	Lesson   models.Lesson
	Material models.LessonMaterial
	Test     models.Task
	Essay    models.Task
	Upload   models.Task
}

// seedCourse creates an active course with one module, one lesson, a text
// material and three tasks worth 10 points each.
func (e *testEnv) seedCourse(t *testing.T, creator *models.User) *seededCourse {
	t.Helper()
	s := &seededCourse{}
	s.Course = models.Course{Title: "Go Basics", Description: "Intro", IsActive: true, CreatorID: creator.ID}
	require.NoError(t, e.db.Create(&s.Course).Error)

	s.Module = models.Module{CourseID: s.Course.ID, Title: "Module 1"}
	require.NoError(t, e.db.Create(&s.Module).Error)

	s.Lesson = models.Lesson{ModuleID: s.Module.ID, Title: "Lesson 1"}
	require.NoError(t, e.db.Create(&s.Lesson).Error)

	s.Material = models.LessonMaterial{LessonID: s.Lesson.ID, Content: "Hello", MaterialType: models.MaterialText}
	require.NoError(t, e.db.Create(&s.Material).Error)

	s.Test = models.Task{LessonID: s.Lesson.ID, Title: "Quiz", TaskType: models.TaskTest, MaxScore: 10, CorrectAnswer: "Gopher", Order: 1}
	s.Essay = models.Task{LessonID: s.Lesson.ID, Title: "Essay", TaskType: models.TaskText, MaxScore: 10, Order: 2}
	s.Upload = models.Task{LessonID: s.Lesson.ID, Title: "Homework", TaskType: models.TaskFileUpload, MaxScore: 10, Order: 3}
	for _, task := range []*models.Task{&s.Test, &s.Essay, &s.Upload} {
		require.NoError(t, e.db.Create(task).Error)
	}
	return s
}

func (e *testEnv) enroll(t *testing.T, user *models.User, courseID uint) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Enrollment{UserID: user.ID, CourseID: courseID, EnrolledAt: time.Now()}).Error)
}

func idOf(m map[string]interface{}) uint {
	f, _ := m["id"].(float64)
	return uint(f)
}
