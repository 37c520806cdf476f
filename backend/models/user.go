package models

import (
	"time"
)

// Model replaces gorm.Model: rows are hard-deleted so that database-level
// ON DELETE CASCADE constraints fire.
type Model struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type User struct {
	Model
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	MiddleName         string     `json:"middle_name"`
	Phone              string     `json:"phone"`
	ProfileDescription string     `json:"profile_description"`
	Gender             string     `json:"gender"`
	IsActive           bool       `gorm:"default:true" json:"is_active"`
	Role               Role       `gorm:"type:varchar(16);default:student;not null" json:"role"`
	ProfileImagePath   string     `json:"profile_image_path"`
	LastLoginAt        *time.Time `json:"last_login_at"`

	TeacherProfile *TeacherProfile `gorm:"constraint:OnDelete:CASCADE" json:"teacher_profile,omitempty"`
}

// FullName is used on certificates and in notification texts.
func (u User) FullName() string {
	name := u.LastName
	if u.FirstName != "" {
		if name != "" {
			name += " "
		}
		name += u.FirstName
	}
	if name == "" {
		return u.Email
	}
	return name
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsStaff reports whether the user holds the teacher or admin role.
func (u User) IsStaff() bool { return u.Role == RoleTeacher || u.Role == RoleAdmin }

type TeacherProfile struct {
	Model
	UserID         uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Specialization string `json:"specialization"`
	Experience     string `json:"experience"`
	Bio            string `json:"bio"`
}
