package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskType string

const (
	TaskTest       TaskType = "test"
	TaskText       TaskType = "text"
	TaskFileUpload TaskType = "file_upload"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTest, TaskText, TaskFileUpload:
		return true
	}
	return false
}

type Task struct {
	Model
	LessonID    uint     `gorm:"index;not null" json:"lesson_id"`
	Title       string   `gorm:"size:100" json:"title"`
	Description string   `json:"description"`
	TaskType    TaskType `gorm:"type:varchar(16);not null" json:"task_type"`
	MaxScore    float64  `gorm:"not null" json:"max_score"`
	Order       int      `gorm:"column:position" json:"order"`
	// CorrectAnswer is only set for test tasks and never shown to students.
	CorrectAnswer string         `json:"correct_answer,omitempty"`
	Options       datatypes.JSON `json:"options,omitempty"`
	Answers       []Answer       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Answer struct {
	Model
	TaskID    uint       `gorm:"index;not null" json:"task_id"`
	StudentID uint       `gorm:"index;not null" json:"student_id"`
	Content   string     `json:"content"`
	FilePath  string     `json:"file_path"`
	Score     *float64   `json:"score"`
	IsCorrect *bool      `json:"is_correct"`
	TeacherID *uint      `json:"teacher_id"`
	Feedback  string     `json:"feedback"`
	GradedAt  *time.Time `json:"graded_at"`
}
