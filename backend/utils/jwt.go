package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"coursehub/backend/config"
	"coursehub/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	purposeAccess        = "access"
	purposePasswordReset = "password_reset"

	PasswordResetTTL = time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role    models.Role `json:"role,omitempty"`
	Purpose string      `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID reads the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

func GenerateJWTToken(user models.User, cfg *config.Config) (string, error) {
	ttl := time.Duration(cfg.AccessTokenExpireMinutes) * time.Minute
	return sign(user, purposeAccess, ttl, []byte(cfg.JWTSecret))
}

func ParseJWTToken(tokenString string, cfg *config.Config) (*Claims, error) {
	claims, err := parse(tokenString, []byte(cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purposeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func ExtractUserIDFromToken(c *fiber.Ctx, cfg *config.Config) (uint, error) {
	tokenString := BearerToken(c)
	if tokenString == "" {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Missing authorization token")
	}

	claims, err := ParseJWTToken(tokenString, cfg)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
	}

	userID, err := claims.UserID()
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}
	return userID, nil
}

// BearerToken accepts both "Bearer <token>" and a bare token.
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// GeneratePasswordResetToken signs with the user's current password hash, so
// the token stops working once the password changes.
func GeneratePasswordResetToken(user models.User, cfg *config.Config) (string, error) {
	return sign(user, purposePasswordReset, PasswordResetTTL, resetKey(user, cfg))
}

// PasswordResetSubject returns the user a reset token claims to belong to.
// The signature is not checked here; call VerifyPasswordResetToken next.
func PasswordResetSubject(tokenString string) (uint, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return 0, ErrInvalidToken
	}
	if claims.Purpose != purposePasswordReset {
		return 0, ErrInvalidToken
	}
	return claims.UserID()
}

func VerifyPasswordResetToken(tokenString string, user models.User, cfg *config.Config) error {
	claims, err := parse(tokenString, resetKey(user, cfg))
	if err != nil {
		return err
	}
	id, err := claims.UserID()
	if err != nil || id != user.ID || claims.Purpose != purposePasswordReset {
		return ErrInvalidToken
	}
	return nil
}

func resetKey(user models.User, cfg *config.Config) []byte {
	return []byte(cfg.JWTSecret + user.PasswordHash)
}

func sign(user models.User, purpose string, ttl time.Duration, key []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:    user.Role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

func parse(tokenString string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
