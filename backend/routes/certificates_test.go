package routes_test

import (
	"fmt"
	"net/http"
	"testing"

	"coursehub/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) grade(t *testing.T, task models.Task, student *models.User, score float64) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Answer{TaskID: task.ID, StudentID: student.ID, Content: "x", Score: &score}).Error)
}

func TestGenerateCertificate(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	token := env.token(t, student)
	path := fmt.Sprintf("/certificates/courses/%d/generate", seed.Course.ID)

	resp := env.request(t, http.MethodPost, path, token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "Not enrolled in this course", resp.Body["detail"])

	env.enroll(t, student, seed.Course.ID)
	env.grade(t, seed.Test, student, 10)
	env.grade(t, seed.Essay, student, 10)

	resp = env.request(t, http.MethodPost, path, token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "Course progress must be at least 80%", resp.Body["detail"])

	env.grade(t, seed.Upload, student, 4)
	resp = env.request(t, http.MethodPost, path, token, nil)
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Raw))
	certID := idOf(resp.Data())
	assert.InDelta(t, 80, resp.Data()["score"], 0.001)

	// a second call returns the same certificate
	resp = env.request(t, http.MethodPost, path, token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, certID, idOf(resp.Data()))

	resp = env.request(t, http.MethodGet, "/certificates", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	require.Len(t, resp.List(), 1)
	course := resp.List()[0].(map[string]interface{})["course"].(map[string]interface{})
	assert.Equal(t, "Go Basics", course["title"])

	resp = env.request(t, http.MethodPost, "/certificates/courses/9999/generate", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestDownloadCertificate(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	peer := env.createUser(t, "peer@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	env.enroll(t, student, seed.Course.ID)
	for _, task := range []models.Task{seed.Test, seed.Essay, seed.Upload} {
		env.grade(t, task, student, 10)
	}
	_, err := env.svc.RefreshProgress(student.ID, seed.Course.ID)
	require.NoError(t, err)

	var cert models.Certificate
	require.NoError(t, env.db.Where("user_id = ?", student.ID).First(&cert).Error)
	path := fmt.Sprintf("/certificates/%d", cert.ID)

	resp := env.request(t, http.MethodGet, path, env.token(t, student), nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "%PDF", string(resp.Raw[:4]))

	resp = env.request(t, http.MethodGet, path, env.token(t, teacher), nil)
	assert.Equal(t, fiber.StatusOK, resp.Status)

	resp = env.request(t, http.MethodGet, path, env.token(t, peer), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	var enrollment models.Enrollment
	require.NoError(t, env.db.Where("user_id = ?", student.ID).First(&enrollment).Error)
	assert.NotNil(t, enrollment.CompletedAt)
}
