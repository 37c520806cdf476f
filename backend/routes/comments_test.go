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

func TestCommentThreads(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	env.enroll(t, student, seed.Course.ID)
	path := fmt.Sprintf("/materials/%d/comments", seed.Material.ID)

	resp := env.request(t, http.MethodPost, path, env.token(t, student), map[string]interface{}{"content": "Question?"})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Raw))
	rootID := idOf(resp.Data())

	resp = env.request(t, http.MethodPost, path, env.token(t, teacher), map[string]interface{}{"content": "Answer", "reply_to_id": rootID})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Raw))
	replyID := idOf(resp.Data())

	// replying to yourself does not notify
	resp = env.request(t, http.MethodPost, path, env.token(t, teacher), map[string]interface{}{"content": "P.S.", "reply_to_id": replyID})
	require.Equal(t, fiber.StatusCreated, resp.Status)

	var notes []models.Notification
	require.NoError(t, env.db.Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, student.ID, notes[0].UserID)
	assert.Equal(t, models.NotificationComment, notes[0].NotificationType)

	resp = env.request(t, http.MethodGet, path, env.token(t, student), nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.EqualValues(t, 1, resp.Body["total"])
	root := resp.List()[0].(map[string]interface{})
	replies := root["replies"].([]interface{})
	require.Len(t, replies, 1)
	nested := replies[0].(map[string]interface{})["replies"].([]interface{})
	assert.Len(t, nested, 1)
}

func TestReplyMustStayOnMaterial(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	seed := env.seedCourse(t, teacher)
	other := models.LessonMaterial{LessonID: seed.Lesson.ID, MaterialType: models.MaterialText, Content: "Other"}
	require.NoError(t, env.db.Create(&other).Error)
	foreign := models.Comment{MaterialID: other.ID, AuthorID: teacher.ID, Content: "elsewhere"}
	require.NoError(t, env.db.Create(&foreign).Error)
	path := fmt.Sprintf("/materials/%d/comments", seed.Material.ID)

	resp := env.request(t, http.MethodPost, path, env.token(t, teacher), map[string]interface{}{"content": "x", "reply_to_id": foreign.ID})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodPost, path, env.token(t, teacher), map[string]interface{}{"content": "x", "reply_to_id": 9999})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodPost, "/materials/9999/comments", env.token(t, teacher), map[string]interface{}{"content": "x"})
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestCommentPermissions(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	author := env.createUser(t, "author@example.com", models.RoleStudent)
	peer := env.createUser(t, "peer@example.com", models.RoleStudent)
	stranger := env.createUser(t, "stranger@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	env.enroll(t, author, seed.Course.ID)
	env.enroll(t, peer, seed.Course.ID)

	resp := env.request(t, http.MethodPost, fmt.Sprintf("/materials/%d/comments", seed.Material.ID), env.token(t, stranger), map[string]interface{}{"content": "hi"})
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	comment := models.Comment{MaterialID: seed.Material.ID, AuthorID: author.ID, Content: "original"}
	require.NoError(t, env.db.Create(&comment).Error)
	path := fmt.Sprintf("/comments/%d", comment.ID)

	resp = env.request(t, http.MethodPut, path, env.token(t, peer), map[string]interface{}{"content": "vandalised"})
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	resp = env.request(t, http.MethodPut, path, env.token(t, author), map[string]interface{}{"content": "edited"})
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "edited", resp.Data()["content"])

	resp = env.request(t, http.MethodDelete, path, env.token(t, peer), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	// course staff moderate
	resp = env.request(t, http.MethodDelete, path, env.token(t, teacher), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.Status)
}

func TestDeletedCommentKeepsReplies(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	env.enroll(t, student, seed.Course.ID)

	root := models.Comment{MaterialID: seed.Material.ID, AuthorID: student.ID, Content: "secret"}
	require.NoError(t, env.db.Create(&root).Error)
	reply := models.Comment{MaterialID: seed.Material.ID, AuthorID: teacher.ID, Content: "reply", ReplyToID: &root.ID}
	require.NoError(t, env.db.Create(&reply).Error)

	token := env.token(t, student)
	resp := env.request(t, http.MethodDelete, fmt.Sprintf("/comments/%d", root.ID), token, nil)
	require.Equal(t, fiber.StatusNoContent, resp.Status)

	resp = env.request(t, http.MethodGet, fmt.Sprintf("/materials/%d/comments", seed.Material.ID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	require.Len(t, resp.List(), 1)
	first := resp.List()[0].(map[string]interface{})
	assert.Equal(t, models.DeletedCommentText, first["content"])
	assert.Equal(t, true, first["is_deleted"])
	assert.Len(t, first["replies"], 1)
	assert.NotContains(t, string(resp.Raw), "secret")

	resp = env.request(t, http.MethodPut, fmt.Sprintf("/comments/%d", root.ID), token, map[string]interface{}{"content": "back"})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}

func TestBlankCommentRejected(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	env.enroll(t, student, seed.Course.ID)
	token := env.token(t, student)
	path := fmt.Sprintf("/materials/%d/comments", seed.Material.ID)

	resp := env.request(t, http.MethodPost, path, token, map[string]interface{}{"content": "   \n\t"})
	require.Equal(t, fiber.StatusBadRequest, resp.Status, string(resp.Raw))
	details := resp.Body["details"].(map[string]interface{})
	assert.Equal(t, "must not be blank", details["content"])

	resp = env.request(t, http.MethodPost, path, token, map[string]interface{}{"content": "  Real question  "})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Raw))
	assert.Equal(t, "Real question", resp.Data()["content"])
	commentID := idOf(resp.Data())
	commentPath := fmt.Sprintf("/comments/%d", commentID)

	resp = env.request(t, http.MethodPut, commentPath, token, map[string]interface{}{"content": "  "})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	var stored models.Comment
	require.NoError(t, env.db.First(&stored, commentID).Error)
	assert.Equal(t, "Real question", stored.Content)
}
