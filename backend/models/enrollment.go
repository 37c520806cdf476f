package models

import "time"

type Enrollment struct {
	Model
	UserID      uint       `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"user_id"`
	CourseID    uint       `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"course_id"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Progress    float64    `gorm:"default:0" json:"progress"`
	Course      *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

type Certificate struct {
	Model
	UserID   uint      `gorm:"uniqueIndex:idx_certificate_user_course;not null" json:"user_id"`
	CourseID uint      `gorm:"uniqueIndex:idx_certificate_user_course;not null" json:"course_id"`
	FilePath string    `json:"file_path"`
	Score    float64   `json:"score"`
	IssuedAt time.Time `json:"issued_at"`
	Course   *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

type NotificationType string

const (
	NotificationSystem      NotificationType = "system"
	NotificationCourse      NotificationType = "course"
	NotificationComment     NotificationType = "comment"
	NotificationAssignment  NotificationType = "assignment"
	NotificationCertificate NotificationType = "certificate"
)

type Notification struct {
	Model
	UserID            uint             `gorm:"index;not null" json:"user_id"`
	Title             string           `gorm:"size:100" json:"title"`
	Message           string           `gorm:"size:500" json:"message"`
	NotificationType  NotificationType `gorm:"type:varchar(16)" json:"notification_type"`
	IsRead            bool             `gorm:"default:false" json:"is_read"`
	RelatedEntityType string           `json:"related_entity_type,omitempty"`
	RelatedEntityID   *uint            `json:"related_entity_id,omitempty"`
}

// All lists every table for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&TeacherProfile{},
		&Course{},
		&CourseTeacher{},
		&Module{},
		&Lesson{},
		&LessonMaterial{},
		&Task{},
		&Answer{},
		&Comment{},
		&Enrollment{},
		&Certificate{},
		&Notification{},
	}
}
