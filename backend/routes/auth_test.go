package routes_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"coursehub/backend/models"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{
		"email":      "NewUser@Example.com",
		"password":   testPassword,
		"first_name": "Ivan",
	}
	resp := env.request(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Raw))
	assert.Equal(t, true, resp.Body["success"])
	assert.Equal(t, "newuser@example.com", resp.Data()["email"])
	assert.Equal(t, "student", resp.Data()["role"])
	assert.NotContains(t, string(resp.Raw), "password_hash")

	// duplicate email
	resp = env.request(t, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "The user with this email already exists", resp.Body["detail"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.Status)
	details, ok := resp.Body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "test@example.com", models.RoleStudent)

	resp := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "test@example.com",
		"password": testPassword,
	})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.Equal(t, "bearer", resp.Body["token_type"])
	token, _ := resp.Body["access_token"].(string)
	require.NotEmpty(t, token)

	claims, err := utils.ParseJWTToken(token, env.cfg)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	var reloaded models.User
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	assert.NotNil(t, reloaded.LastLoginAt)
}

func TestLoginForm(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "form@example.com", models.RoleStudent)

	form := url.Values{"username": {"form@example.com"}, "password": {testPassword}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)

	resp := env.do(t, req, "")
	assert.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))
	assert.NotEmpty(t, resp.Body["access_token"])
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "test@example.com", models.RoleStudent)

	resp := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)

	resp = env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": testPassword,
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)

	require.NoError(t, env.db.Model(user).Update("is_active", false).Error)
	resp = env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": testPassword,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "Inactive user", resp.Body["detail"])
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "test@example.com", models.RoleStudent)

	resp := env.request(t, http.MethodGet, "/users/me", env.token(t, user), nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "test@example.com", resp.Data()["email"])

	resp = env.request(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)

	resp = env.request(t, http.MethodGet, "/users/me", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
}

func TestDeletedUserTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "gone@example.com", models.RoleStudent)
	token := env.token(t, user)
	require.NoError(t, env.db.Delete(user).Error)

	resp := env.request(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
}

func TestPasswordRecoveryAndReset(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reset@example.com", models.RoleStudent)

	// unknown addresses get the same answer
	resp := env.request(t, http.MethodPost, "/auth/password-recovery/nobody@example.com", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.Status)

	resp = env.request(t, http.MethodPost, "/auth/password-recovery/reset@example.com", "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status)

	mailer, ok := env.svc.Mailer.(*services.ConsoleMailer)
	require.True(t, ok)
	assert.Eventually(t, func() bool { return len(mailer.Sent()) == 1 }, time.Second, 10*time.Millisecond)

	token, err := utils.GeneratePasswordResetToken(*user, env.cfg)
	require.NoError(t, err)

	resp = env.request(t, http.MethodPost, "/auth/reset-password", "", map[string]string{
		"token":        token,
		"new_password": "brand-new-pass",
	})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Raw))

	resp = env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "reset@example.com",
		"password": "brand-new-pass",
	})
	assert.Equal(t, fiber.StatusOK, resp.Status)

	// the hash changed, so the token is single-use
	resp = env.request(t, http.MethodPost, "/auth/reset-password", "", map[string]string{
		"token":        token,
		"new_password": "another-pass",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}
