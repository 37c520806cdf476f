package routes_test

import (
	"net/http"
	"testing"

	"coursehub/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressOverview(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	token := env.token(t, student)

	resp := env.request(t, http.MethodGet, "/progress/overview", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.EqualValues(t, 0, resp.Data()["courses_enrolled"])
	assert.EqualValues(t, 0, resp.Data()["average_progress"])

	env.enroll(t, student, seed.Course.ID)
	env.grade(t, seed.Test, student, 10)
	require.NoError(t, env.db.Create(&models.Answer{TaskID: seed.Essay.ID, StudentID: student.ID, Content: "pending"}).Error)
	_, err := env.svc.RefreshProgress(student.ID, seed.Course.ID)
	require.NoError(t, err)

	resp = env.request(t, http.MethodGet, "/progress/overview", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.EqualValues(t, 1, resp.Data()["courses_enrolled"])
	assert.EqualValues(t, 0, resp.Data()["courses_completed"])
	assert.EqualValues(t, 2, resp.Data()["answers_submitted"])
	assert.EqualValues(t, 1, resp.Data()["answers_graded"])
	assert.InDelta(t, 33.33, resp.Data()["average_progress"], 0.001)

	resp = env.request(t, http.MethodGet, "/progress", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	list := resp.Body["data"].([]interface{})
	require.Len(t, list, 1)
	course := list[0].(map[string]interface{})["course"].(map[string]interface{})
	assert.Equal(t, "Go Basics", course["title"])
}
