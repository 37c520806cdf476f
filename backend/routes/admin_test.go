package routes_test

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"coursehub/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)

	for _, path := range []string{"/admin/stats", "/admin/users/activity", "/admin/courses/report", "/admin/maintenance", "/statistics/system/overview"} {
		resp := env.request(t, http.MethodGet, path, env.token(t, teacher), nil)
		assert.Equal(t, fiber.StatusForbidden, resp.Status, path)
		resp = env.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.Status, path)
	}
}

func TestAdminReports(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	env.enroll(t, student, seed.Course.ID)
	env.grade(t, seed.Test, student, 10)
	token := env.token(t, admin)

	resp := env.request(t, http.MethodGet, "/admin/stats", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.EqualValues(t, 3, resp.Data()["total_users"])
	assert.EqualValues(t, 1, resp.Data()["total_enrollments"])
	byRole := resp.Data()["users_by_role"].(map[string]interface{})
	assert.EqualValues(t, 1, byRole["student"])

	resp = env.request(t, http.MethodGet, "/admin/users/activity?days=7", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))

	resp = env.request(t, http.MethodGet, "/admin/courses/report", token, nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	report := resp.Body["data"].([]interface{})
	require.Len(t, report, 1)
	assert.EqualValues(t, 1, report[0].(map[string]interface{})["enrollments"])

	resp = env.request(t, http.MethodGet, "/statistics/system/overview", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.Status)
}

func TestCourseStatisticsAccess(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher@example.com", models.RoleTeacher)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	seed := env.seedCourse(t, teacher)
	env.enroll(t, student, seed.Course.ID)
	env.grade(t, seed.Test, student, 10)
	base := fmt.Sprintf("/statistics/courses/%d", seed.Course.ID)

	resp := env.request(t, http.MethodGet, base, env.token(t, teacher), nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.EqualValues(t, 1, resp.Data()["total_students"])

	resp = env.request(t, http.MethodGet, base+"/progress", env.token(t, teacher), nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	students := resp.Body["data"].([]interface{})
	require.Len(t, students, 1)
	assert.Equal(t, "student@example.com", students[0].(map[string]interface{})["email"])

	resp = env.request(t, http.MethodGet, base+"/activity?days=7", env.token(t, teacher), nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))

	for _, path := range []string{base, base + "/progress", base + "/activity"} {
		resp = env.request(t, http.MethodGet, path, env.token(t, student), nil)
		assert.Equal(t, fiber.StatusForbidden, resp.Status, path)
	}

	resp = env.request(t, http.MethodGet, "/statistics/courses/9999", env.token(t, teacher), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestMaintenanceMode(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	adminToken := env.token(t, admin)

	resp := env.request(t, http.MethodPost, "/admin/maintenance/enable", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.Equal(t, true, resp.Data()["maintenance_mode"])

	resp = env.request(t, http.MethodGet, "/courses", env.token(t, student), nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.Status)
	resp = env.request(t, http.MethodGet, "/courses", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.Status)

	// admins keep working and everyone can still log in
	resp = env.request(t, http.MethodGet, "/courses", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	resp = env.request(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "student@example.com", "password": testPassword})
	assert.Equal(t, fiber.StatusOK, resp.Status)

	resp = env.request(t, http.MethodGet, "/admin/maintenance", adminToken, nil)
	assert.Equal(t, true, resp.Data()["maintenance_mode"])

	resp = env.request(t, http.MethodPost, "/admin/maintenance/disable", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	resp = env.request(t, http.MethodGet, "/courses", env.token(t, student), nil)
	assert.Equal(t, fiber.StatusOK, resp.Status)
}

func TestBroadcastNotification(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	env.createUser(t, "s1@example.com", models.RoleStudent)
	env.createUser(t, "s2@example.com", models.RoleStudent)
	inactive := env.createUser(t, "s3@example.com", models.RoleStudent)
	require.NoError(t, env.db.Model(inactive).Update("is_active", false).Error)
	env.createUser(t, "teacher@example.com", models.RoleTeacher)
	token := env.token(t, admin)

	resp := env.request(t, http.MethodPost, "/admin/notifications", token, map[string]interface{}{
		"title": "Downtime", "message": "Tonight", "role": "student",
	})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Raw))
	assert.EqualValues(t, 2, resp.Data()["recipients"])

	resp = env.request(t, http.MethodPost, "/admin/notifications", token, map[string]interface{}{
		"title": "Hello", "message": "Everyone",
	})
	require.Equal(t, fiber.StatusCreated, resp.Status)
	assert.EqualValues(t, 4, resp.Data()["recipients"])

	resp = env.request(t, http.MethodPost, "/admin/notifications", token, map[string]interface{}{"title": "no message"})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}

func TestBackupAndRestoreFiles(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	token := env.token(t, admin)

	resp := env.upload(t, "/files/upload", token, "keep.txt", []byte("precious"))
	require.Equal(t, fiber.StatusCreated, resp.Status)
	stored := resp.Data()["file_path"].(string)

	// sqlite has no dump tool
	resp = env.request(t, http.MethodPost, "/admin/backup", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodPost, "/admin/backup", token, map[string]interface{}{"include_data": false, "include_files": false})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.request(t, http.MethodPost, "/admin/backup", token, map[string]interface{}{"include_data": false})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Raw))
	archive := resp.Data()["backup_path"].(string)
	assert.FileExists(t, archive)

	full := filepath.Join(env.cfg.UploadDir, filepath.FromSlash(stored))
	require.NoError(t, os.Remove(full))

	resp = env.request(t, http.MethodPost, "/admin/restore", token, map[string]string{"backup_path": filepath.Base(archive)})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	content, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(content))

	resp = env.request(t, http.MethodPost, "/admin/restore", token, map[string]string{"backup_path": "backup_19700101_000000.tar.gz"})
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.request(t, http.MethodPost, "/admin/restore", token, map[string]string{"backup_path": "../../etc/passwd"})
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}
