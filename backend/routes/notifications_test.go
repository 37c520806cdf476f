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

func (e *testEnv) notify(t *testing.T, user *models.User, title string) models.Notification {
	t.Helper()
	n := models.Notification{UserID: user.ID, Title: title, Message: title, NotificationType: models.NotificationSystem}
	require.NoError(t, e.db.Create(&n).Error)
	return n
}

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "user@example.com", models.RoleStudent)
	other := env.createUser(t, "other@example.com", models.RoleStudent)
	first := env.notify(t, user, "first")
	env.notify(t, user, "second")
	env.notify(t, other, "not yours")
	token := env.token(t, user)

	resp := env.request(t, http.MethodGet, "/notifications", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.EqualValues(t, 2, resp.Body["total"])

	resp = env.request(t, http.MethodGet, "/notifications/count/unread", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.EqualValues(t, 2, resp.Data()["count"])

	resp = env.request(t, http.MethodPut, fmt.Sprintf("/notifications/%d", first.ID), token, map[string]interface{}{"is_read": true})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.Equal(t, true, resp.Data()["is_read"])

	resp = env.request(t, http.MethodGet, "/notifications?unread_only=true", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	require.Len(t, resp.List(), 1)
	assert.Equal(t, "second", resp.List()[0].(map[string]interface{})["title"])

	resp = env.request(t, http.MethodPut, "/notifications/mark-all-as-read", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.EqualValues(t, 1, resp.Data()["updated"])

	resp = env.request(t, http.MethodGet, "/notifications/count/unread", env.token(t, other), nil)
	assert.EqualValues(t, 1, resp.Data()["count"])
}

func TestNotificationOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com", models.RoleStudent)
	intruder := env.createUser(t, "intruder@example.com", models.RoleAdmin)
	n := env.notify(t, owner, "private")
	path := fmt.Sprintf("/notifications/%d", n.ID)

	resp := env.request(t, http.MethodGet, path, env.token(t, intruder), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
	resp = env.request(t, http.MethodDelete, path, env.token(t, intruder), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	resp = env.request(t, http.MethodPut, path, env.token(t, owner), map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodDelete, path, env.token(t, owner), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.Status)
	resp = env.request(t, http.MethodGet, path, env.token(t, owner), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}
