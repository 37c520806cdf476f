package utils

import (
	"net/http/httptest"
	"testing"

	"coursehub/backend/config"
	"coursehub/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "testsecret", AccessTokenExpireMinutes: 60}
}

func TestAccessToken(t *testing.T) {
	cfg := testConfig()
	user := models.User{Model: models.Model{ID: 42}, Role: models.RoleTeacher}

	token, err := GenerateJWTToken(user, cfg)
	require.NoError(t, err)

	claims, err := ParseJWTToken(token, cfg)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, models.RoleTeacher, claims.Role)

	_, err = ParseJWTToken(token, &config.Config{JWTSecret: "other"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseJWTToken("garbage", cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenExpireMinutes = -1
	token, err := GenerateJWTToken(models.User{Model: models.Model{ID: 1}}, cfg)
	require.NoError(t, err)

	_, err = ParseJWTToken(token, cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetToken(t *testing.T) {
	cfg := testConfig()
	user := models.User{Model: models.Model{ID: 7}, PasswordHash: "hash-1"}

	token, err := GeneratePasswordResetToken(user, cfg)
	require.NoError(t, err)

	// reset tokens are not access tokens
	_, err = ParseJWTToken(token, cfg)
	assert.Error(t, err)

	id, err := PasswordResetSubject(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.NoError(t, VerifyPasswordResetToken(token, user, cfg))

	user.PasswordHash = "hash-2"
	assert.ErrorIs(t, VerifyPasswordResetToken(token, user, cfg), ErrInvalidToken)

	access, err := GenerateJWTToken(user, cfg)
	require.NoError(t, err)
	_, err = PasswordResetSubject(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(BearerToken(c))
	})

	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"abc":         "abc",
		"":            "",
	}
	for header, want := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body := make([]byte, 16)
		n, _ := resp.Body.Read(body)
		resp.Body.Close()
		assert.Equal(t, want, string(body[:n]), header)
	}
}
