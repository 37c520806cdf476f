package controllers

import (
	"errors"
	"strings"

	"coursehub/backend/config"
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewUserController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *UserController {
	return &UserController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type UpdateProfileRequest struct {
	FirstName          *string `json:"first_name" validate:"omitempty,max=100" example:"Ivan"`
	LastName           *string `json:"last_name" validate:"omitempty,max=100" example:"Petrov"`
	MiddleName         *string `json:"middle_name" validate:"omitempty,max=100"`
	Phone              *string `json:"phone" validate:"omitempty,max=32"`
	ProfileDescription *string `json:"profile_description"`
	Gender             *string `json:"gender" validate:"omitempty,max=16"`
}

// AdminUpdateUserRequest adds the fields only an admin may change.
type AdminUpdateUserRequest struct {
	UpdateProfileRequest
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

type CreateUserRequest struct {
	RegisterRequest
	Role     models.Role `json:"role" validate:"omitempty,oneof=admin teacher student"`
	IsActive *bool       `json:"is_active"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required" example:"oldPassword123"`
	NewPassword string `json:"new_password" validate:"required,min=8" example:"newPassword123"`
}

type UpdateRoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=admin teacher student" example:"teacher"`
}

type TeacherProfileRequest struct {
	Specialization string `json:"specialization" validate:"max=255" example:"Mathematics"`
	Experience     string `json:"experience" validate:"max=255" example:"10 years"`
	Bio            string `json:"bio"`
}

func (r UpdateProfileRequest) apply(user *models.User) {
	if r.FirstName != nil {
		user.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		user.LastName = *r.LastName
	}
	if r.MiddleName != nil {
		user.MiddleName = *r.MiddleName
	}
	if r.Phone != nil {
		user.Phone = *r.Phone
	}
	if r.ProfileDescription != nil {
		user.ProfileDescription = *r.ProfileDescription
	}
	if r.Gender != nil {
		user.Gender = *r.Gender
	}
}

// GetMe godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/me [get]
func (uc *UserController) GetMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	var full models.User
	if err := uc.DB.Preload("TeacherProfile").First(&full, user.ID).Error; err != nil {
		return loadError(c, err, "User not found")
	}
	return utils.OK(c, full)
}

// UpdateMe godoc
// @Summary Update current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/me [put]
func (uc *UserController) UpdateMe(c *fiber.Ctx) error {
	var input UpdateProfileRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	input.apply(user)
	if err := uc.DB.Save(user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update profile")
	}
	return utils.OK(c, user)
}

// ChangePassword godoc
// @Summary Change current user's password
// @Tags users
// @Accept json
// @Produce json
// @Param input body ChangePasswordRequest true "Old and new password"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/me/password [put]
func (uc *UserController) ChangePassword(c *fiber.Ctx) error {
	var input ChangePasswordRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	if !utils.CheckPassword(user.PasswordHash, input.OldPassword) {
		return utils.BadRequest(c, "Incorrect password")
	}
	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}
	if err := uc.DB.Model(user).Update("password_hash", hash).Error; err != nil {
		return utils.InternalServerError(c, "Could not update password")
	}
	return utils.Message(c, "Password updated successfully")
}

// UploadAvatar godoc
// @Summary Upload profile image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/me/avatar [post]
func (uc *UserController) UploadAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "File is required")
	}
	path, err := uc.Svc.Storage.SaveImage(fh, "avatars")
	if err != nil {
		return storageError(c, err)
	}

	user := middleware.CurrentUser(c)
	old := user.ProfileImagePath
	if err := uc.DB.Model(user).Update("profile_image_path", path).Error; err != nil {
		_ = uc.Svc.Storage.Delete(path)
		return utils.InternalServerError(c, "Could not update profile")
	}
	if old != "" {
		if err := uc.Svc.Storage.Delete(old); err != nil && !errors.Is(err, services.ErrFileNotFound) {
			uc.Logger.Warn("remove old avatar", "path", old, "error", err)
		}
	}
	user.ProfileImagePath = path
	return utils.OK(c, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param skip query int false "Skip"
// @Param limit query int false "Limit"
// @Param role query string false "Role filter"
// @Success 200 {object} utils.PaginatedResponse
// @Security ApiKeyAuth
// @Router /users [get]
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	page := utils.PageFromQuery(c)
	q := uc.DB.Model(&models.User{})
	if role := models.Role(c.Query("role")); role != "" {
		if !role.Valid() {
			return utils.BadRequest(c, "Invalid role")
		}
		q = q.Where("role = ?", role)
	}
	users, total, err := repository.ListPage[models.User](q, page, "id")
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch users")
	}
	return utils.Paginate(c, users, total, page)
}

// CreateUser godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param input body CreateUserRequest true "User data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users [post]
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var input CreateUserRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role == "" {
		input.Role = models.RoleStudent
	}
	if input.Role == models.RoleTeacher {
		return utils.BadRequest(c, "Teacher profile must be created first")
	}

	if _, err := repository.FindUserByEmail(uc.DB, input.Email); err == nil {
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
		Role:               input.Role,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not create user")
	}
	// is_active has a database default, so false has to be written explicitly
	if input.IsActive != nil && !*input.IsActive {
		if err := uc.DB.Model(&user).Update("is_active", false).Error; err != nil {
			return utils.InternalServerError(c, "Could not create user")
		}
		user.IsActive = false
	}
	return utils.Created(c, user)
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	user, err := repository.FindByID[models.User](uc.DB, id, "TeacherProfile")
	if err != nil {
		return loadError(c, err, "User not found")
	}
	return utils.OK(c, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body AdminUpdateUserRequest true "User fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [put]
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input AdminUpdateUserRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	user, err := repository.FindByID[models.User](uc.DB, id)
	if err != nil {
		return loadError(c, err, "User not found")
	}

	input.apply(user)
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			if _, err := repository.FindUserByEmail(uc.DB, email); err == nil {
				return utils.BadRequest(c, "The user with this email already exists")
			}
			user.Email = email
		}
	}
	if input.Password != nil {
		hash, err := utils.HashPassword(*input.Password)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = hash
	}
	if err := uc.DB.Save(user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}
	return utils.OK(c, user)
}

// UpdateRole godoc
// @Summary Change a user's role
// @Description Promoting to teacher requires an existing teacher profile
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body UpdateRoleRequest true "Role"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/role [put]
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input UpdateRoleRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	user, err := repository.FindByID[models.User](uc.DB, id)
	if err != nil {
		return loadError(c, err, "User not found")
	}

	if input.Role == models.RoleTeacher {
		var n int64
		if err := uc.DB.Model(&models.TeacherProfile{}).Where("user_id = ?", user.ID).Count(&n).Error; err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}
		if n == 0 {
			return utils.BadRequest(c, "Teacher profile must be created first")
		}
	}

	if err := uc.DB.Model(user).Update("role", input.Role).Error; err != nil {
		return utils.InternalServerError(c, "Could not update role")
	}
	user.Role = input.Role
	uc.Logger.Info("user role changed", "user_id", user.ID, "role", user.Role, "by", middleware.CurrentUser(c).ID)
	return utils.OK(c, user)
}

// ActivateUser godoc
// @Summary Activate a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/activate [put]
func (uc *UserController) ActivateUser(c *fiber.Ctx) error {
	return uc.setActive(c, true)
}

// DeactivateUser godoc
// @Summary Deactivate a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/deactivate [put]
func (uc *UserController) DeactivateUser(c *fiber.Ctx) error {
	return uc.setActive(c, false)
}

func (uc *UserController) setActive(c *fiber.Ctx, active bool) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	user, err := repository.FindByID[models.User](uc.DB, id)
	if err != nil {
		return loadError(c, err, "User not found")
	}
	if err := uc.DB.Model(user).Update("is_active", active).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}
	user.IsActive = active
	return utils.OK(c, user)
}

// GetUserCourses godoc
// @Summary Courses of a user
// @Description Created or assigned courses for teachers and admins, enrolled courses for students
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/courses [get]
func (uc *UserController) GetUserCourses(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	user, err := repository.FindByID[models.User](uc.DB, id)
	if err != nil {
		return loadError(c, err, "User not found")
	}

	courses := make([]models.Course, 0)
	if user.IsStaff() {
		err = uc.DB.Where("creator_id = ? OR id IN (?)", user.ID,
			uc.DB.Model(&models.CourseTeacher{}).Select("course_id").Where("teacher_id = ?", user.ID)).
			Order("id").Find(&courses).Error
	} else {
		err = uc.DB.Where("id IN (?)",
			uc.DB.Model(&models.Enrollment{}).Select("course_id").Where("user_id = ?", user.ID)).
			Order("id").Find(&courses).Error
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch courses")
	}
	return utils.OK(c, courses)
}

// GetTeacherProfile godoc
// @Summary Get a teacher profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/teacher-profile [get]
func (uc *UserController) GetTeacherProfile(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var profile models.TeacherProfile
	if err := uc.DB.Where("user_id = ?", id).First(&profile).Error; err != nil {
		return loadError(c, err, "Teacher profile not found")
	}
	return utils.OK(c, profile)
}

// UpsertTeacherProfile godoc
// @Summary Create or update a teacher profile
// @Description Allowed for the user themself or an admin
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body TeacherProfileRequest true "Profile"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/teacher-profile [put]
func (uc *UserController) UpsertTeacherProfile(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	current := middleware.CurrentUser(c)
	if current.ID != id && !current.IsAdmin() {
		return utils.Forbidden(c, "Not enough permissions")
	}
	var input TeacherProfileRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	if _, err := repository.FindByID[models.User](uc.DB, id); err != nil {
		return loadError(c, err, "User not found")
	}

	var profile models.TeacherProfile
	err = uc.DB.Where("user_id = ?", id).First(&profile).Error
	if err != nil && !repository.IsNotFound(err) {
		return utils.InternalServerError(c, "Could not query database")
	}
	profile.UserID = id
	profile.Specialization = input.Specialization
	profile.Experience = input.Experience
	profile.Bio = input.Bio
	if err := uc.DB.Save(&profile).Error; err != nil {
		return utils.InternalServerError(c, "Could not save teacher profile")
	}
	return utils.OK(c, profile)
}
