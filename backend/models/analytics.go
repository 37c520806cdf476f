package models

import "time"

type ModuleStats struct {
	ModuleID       uint    `json:"module_id"`
	Title          string  `json:"title"`
	TotalStudents  int64   `json:"total_students"`
	CompletionRate float64 `json:"completion_rate"`
}

type RecentActivity struct {
	AnswersSubmitted int64  `json:"answers_submitted"`
	CommentsPosted   int64  `json:"comments_posted"`
	Period           string `json:"period"`
}

type CourseStatistics struct {
	CourseID       uint           `json:"course_id"`
	TotalStudents  int64          `json:"total_students"`
	ActiveStudents int64          `json:"active_students"`
	CompletionRate float64        `json:"completion_rate"`
	AverageScore   float64        `json:"average_score"`
	ModuleStats    []ModuleStats  `json:"module_stats"`
	RecentActivity RecentActivity `json:"recent_activity"`
}

type StudentProgress struct {
	UserID      uint       `json:"user_id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Progress    float64    `json:"progress"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Certified   bool       `json:"certified"`
}

type DailyActivity struct {
	Date     string `json:"date"`
	Answers  int64  `json:"answers"`
	Comments int64  `json:"comments"`
	Students int64  `json:"students"`
}

type SystemStats struct {
	TotalUsers         int64          `json:"total_users"`
	ActiveUsers        int64          `json:"active_users"`
	UsersByRole        map[Role]int64 `json:"users_by_role"`
	TotalCourses       int64          `json:"total_courses"`
	ActiveCourses      int64          `json:"active_courses"`
	TotalEnrollments   int64          `json:"total_enrollments"`
	CertificatesIssued int64          `json:"certificates_issued"`
	AvgCourseProgress  float64        `json:"avg_course_progress"`
}

type UserActivityReport struct {
	UserID       uint       `json:"user_id"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	Answers      int64      `json:"answers"`
	Comments     int64      `json:"comments"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastActivity *time.Time `json:"last_activity"`
}

type CourseReport struct {
	CourseID     uint    `json:"course_id"`
	Title        string  `json:"title"`
	IsActive     bool    `json:"is_active"`
	Enrollments  int64   `json:"enrollments"`
	AvgProgress  float64 `json:"avg_progress"`
	Certificates int64   `json:"certificates"`
	Modules      int64   `json:"modules"`
}
