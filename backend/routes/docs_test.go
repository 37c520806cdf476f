package routes_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerDocument(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/docs/doc.json", "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.Equal(t, "/api/v1", resp.Body["basePath"])

	paths, ok := resp.Body["paths"].(map[string]interface{})
	require.True(t, ok)
	for _, op := range []struct{ path, method string }{
		{"/auth/login", "post"},
		{"/courses/{id}/enroll", "post"},
		{"/tasks/{id}/answers", "post"},
		{"/answers/{id}/grade", "put"},
		{"/certificates/courses/{course_id}/generate", "post"},
		{"/admin/backup", "post"},
	} {
		ops, ok := paths[op.path].(map[string]interface{})
		if assert.True(t, ok, op.path) {
			assert.Contains(t, ops, op.method, op.path)
		}
	}

	definitions, ok := resp.Body["definitions"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, definitions, "controllers.LoginRequest")
	assert.Contains(t, definitions, "models.Course")
}
