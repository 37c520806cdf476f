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

func TestUpdateMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "me@example.com", models.RoleStudent)
	token := env.token(t, user)

	resp := env.request(t, http.MethodPut, "/users/me", token, map[string]interface{}{"first_name": "Anna", "phone": "+7 900"})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.Equal(t, "Anna", resp.Data()["first_name"])
	assert.Equal(t, "student", resp.Data()["last_name"], "untouched fields keep their value")

	resp = env.request(t, http.MethodPut, "/users/me/password", token, map[string]string{"old_password": "nope", "new_password": "new-password"})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodPut, "/users/me/password", token, map[string]string{"old_password": testPassword, "new_password": "new-password"})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))

	resp = env.request(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "me@example.com", "password": "new-password"})
	assert.Equal(t, fiber.StatusOK, resp.Status)
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "me@example.com", models.RoleStudent)
	token := env.token(t, user)

	resp := env.upload(t, "/users/me/avatar", token, "face.png", []byte("\x89PNG"))
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	first, _ := resp.Data()["profile_image_path"].(string)
	assert.Regexp(t, `^avatars/.+\.png$`, first)

	// the previous image is removed
	resp = env.upload(t, "/users/me/avatar", token, "face2.png", []byte("\x89PNG"))
	require.Equal(t, fiber.StatusOK, resp.Status)
	resp = env.request(t, http.MethodGet, "/files/download/"+first, token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.upload(t, "/users/me/avatar", token, "notes.txt", []byte("text"))
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	token := env.token(t, admin)

	resp := env.request(t, http.MethodGet, "/users", env.token(t, student), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	resp = env.request(t, http.MethodPost, "/users", token, map[string]interface{}{
		"email": "Created@Example.com", "password": "password123", "is_active": false,
	})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Raw))
	assert.Equal(t, "created@example.com", resp.Data()["email"])
	assert.Equal(t, false, resp.Data()["is_active"])
	createdID := idOf(resp.Data())

	resp = env.request(t, http.MethodPost, "/users", token, map[string]interface{}{
		"email": "t@example.com", "password": "password123", "role": "teacher",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodGet, "/users?role=student", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.EqualValues(t, 2, resp.Body["total"])

	resp = env.request(t, http.MethodGet, "/users?role=wizard", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodPut, fmt.Sprintf("/users/%d/activate", createdID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, true, resp.Data()["is_active"])

	resp = env.request(t, http.MethodPut, fmt.Sprintf("/users/%d/deactivate", student.ID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	resp = env.request(t, http.MethodGet, "/users/me", env.token(t, student), nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status, "inactive users are rejected")

	resp = env.request(t, http.MethodPut, fmt.Sprintf("/users/%d", createdID), token, map[string]interface{}{"email": "admin@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodGet, "/users/9999", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestPromoteToTeacherNeedsProfile(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	user := env.createUser(t, "future@example.com", models.RoleStudent)
	other := env.createUser(t, "other@example.com", models.RoleStudent)
	token := env.token(t, admin)
	rolePath := fmt.Sprintf("/users/%d/role", user.ID)
	profilePath := fmt.Sprintf("/users/%d/teacher-profile", user.ID)

	resp := env.request(t, http.MethodPut, rolePath, token, map[string]string{"role": "teacher"})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "Teacher profile must be created first", resp.Body["detail"])

	resp = env.request(t, http.MethodPut, profilePath, env.token(t, other), map[string]string{"specialization": "Math"})
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	resp = env.request(t, http.MethodPut, profilePath, env.token(t, user), map[string]string{"specialization": "Math", "experience": "5 years"})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))

	resp = env.request(t, http.MethodPut, rolePath, token, map[string]string{"role": "teacher"})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.Equal(t, "teacher", resp.Data()["role"])

	resp = env.request(t, http.MethodGet, profilePath, env.token(t, other), nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "Math", resp.Data()["specialization"])

	// the new teacher can create courses
	resp = env.request(t, http.MethodPost, "/courses", env.token(t, user), map[string]string{"title": "Algebra"})
	assert.Equal(t, fiber.StatusCreated, resp.Status)

	resp = env.request(t, http.MethodGet, fmt.Sprintf("/users/%d/courses", user.ID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Len(t, resp.Body["data"], 1)
}
