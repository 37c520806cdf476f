package controllers

import (
	"fmt"
	"strings"
	"time"

	"coursehub/backend/config"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type RegisterRequest struct {
	Email              string `json:"email" validate:"required,email" example:"user@example.com"`
	Password           string `json:"password" validate:"required,min=8" example:"password123"`
	FirstName          string `json:"first_name" validate:"max=100" example:"Ivan"`
	LastName           string `json:"last_name" validate:"max=100" example:"Petrov"`
	MiddleName         string `json:"middle_name" validate:"max=100"`
	Phone              string `json:"phone" validate:"max=32"`
	ProfileDescription string `json:"profile_description"`
	Gender             string `json:"gender" validate:"max=16"`
}

// LoginRequest accepts JSON or an OAuth2-style form; username is an alias for email.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates a student account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body RegisterRequest true "User registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := repository.FindUserByEmail(ac.DB, input.Email); err == nil {
		return utils.BadRequest(c, "The user with this email already exists")
	} else if !repository.IsNotFound(err) {
		return utils.InternalServerError(c, "Could not query database")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Email:              input.Email,
		PasswordHash:       hash,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		MiddleName:         input.MiddleName,
		Phone:              input.Phone,
		ProfileDescription: input.ProfileDescription,
		Gender:             input.Gender,
		IsActive:           true,
		Role:               models.RoleStudent,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not create user")
	}

	ac.Logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return utils.Created(c, user)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	email := input.Email
	if email == "" {
		email = input.Username
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return utils.ValidationError(c, map[string]string{"username": "this field is required"})
	}

	user, err := repository.FindUserByEmail(ac.DB, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return utils.Unauthorized(c, "Incorrect email or password")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if !utils.CheckPassword(user.PasswordHash, input.Password) {
		return utils.Unauthorized(c, "Incorrect email or password")
	}
	if !user.IsActive {
		return utils.BadRequest(c, "Inactive user")
	}

	token, err := utils.GenerateJWTToken(*user, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	now := time.Now()
	if err := ac.DB.Model(user).Update("last_login_at", &now).Error; err != nil {
		ac.Logger.Warn("update last login", "user_id", user.ID, "error", err)
	}

	return c.JSON(TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// RecoverPassword godoc
// @Summary Request a password reset
// @Description Emails a reset token when the address is registered. Always answers 200.
// @Tags auth
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} utils.SuccessResponse
// @Router /auth/password-recovery/{email} [post]
func (ac *AuthController) RecoverPassword(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Params("email")))

	user, err := repository.FindUserByEmail(ac.DB, email)
	if err == nil && user.IsActive {
		token, err := utils.GeneratePasswordResetToken(*user, ac.Cfg)
		if err != nil {
			ac.Logger.Error("generate reset token", "user_id", user.ID, "error", err)
		} else {
			link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(ac.Cfg.FrontendBaseURL, "/"), token)
			services.SendAsync(ac.Svc.Mailer, ac.Logger, services.EmailMessage{
				To:      user.Email,
				Name:    user.FullName(),
				Subject: "Password recovery",
				Text:    "To reset your password follow the link (valid for one hour):\n" + link,
			})
		}
	} else if err != nil && !repository.IsNotFound(err) {
		ac.Logger.Error("password recovery lookup", "error", err)
	}

	return utils.Message(c, "Password recovery email sent")
}

// ResetPassword godoc
// @Summary Reset password
// @Description Sets a new password using a token from the recovery email
// @Tags auth
// @Accept json
// @Produce json
// @Param input body ResetPasswordRequest true "Token and new password"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /auth/reset-password [post]
func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	var input ResetPasswordRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}

	userID, err := utils.PasswordResetSubject(input.Token)
	if err != nil {
		return utils.BadRequest(c, "Invalid token")
	}
	user, err := repository.FindByID[models.User](ac.DB, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return utils.BadRequest(c, "Invalid token")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if err := utils.VerifyPasswordResetToken(input.Token, *user, ac.Cfg); err != nil {
		return utils.BadRequest(c, "Invalid token")
	}
	if !user.IsActive {
		return utils.BadRequest(c, "Inactive user")
	}

	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}
	if err := ac.DB.Model(user).Update("password_hash", hash).Error; err != nil {
		return utils.InternalServerError(c, "Could not update password")
	}

	return utils.Message(c, "Password updated successfully")
}
