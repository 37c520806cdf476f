package services

import (
	"errors"
	"math"
	"strings"
	"time"

	"coursehub/backend/models"
	"coursehub/backend/repository"

	"gorm.io/gorm"
)

var ErrNotEnrolled = errors.New("user is not enrolled in this course")

type ProgressService struct {
	DB *gorm.DB
}

// Calculate returns the student's progress in percent: for every task in the
// course the best graded score (capped at max_score) counts toward the sum
// of all max scores.
func (s *ProgressService) Calculate(db *gorm.DB, userID, courseID uint) (float64, error) {
	var tasks []models.Task
	err := db.Select("tasks.id, tasks.max_score").
		Joins("JOIN lessons ON lessons.id = tasks.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID).
		Find(&tasks).Error
	if err != nil {
		return 0, err
	}

	var total float64
	maxByTask := make(map[uint]float64, len(tasks))
	ids := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		total += t.MaxScore
		maxByTask[t.ID] = t.MaxScore
		ids = append(ids, t.ID)
	}
	if total <= 0 {
		return 0, nil
	}

	var best []struct {
		TaskID uint
		Best   float64
	}
	err = db.Model(&models.Answer{}).
		Select("task_id, MAX(score) AS best").
		Where("student_id = ? AND task_id IN ? AND score IS NOT NULL", userID, ids).
		Group("task_id").
		Scan(&best).Error
	if err != nil {
		return 0, err
	}

	var earned float64
	for _, b := range best {
		earned += math.Min(math.Max(b.Best, 0), maxByTask[b.TaskID])
	}
	return math.Round(earned/total*10000) / 100, nil
}

// Recompute stores fresh progress on the enrollment and stamps completion
// when it reaches 100.
func (s *ProgressService) Recompute(userID, courseID uint) (*models.Enrollment, error) {
	enrollment, err := repository.FindEnrollment(s.DB, userID, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	progress, err := s.Calculate(s.DB, userID, courseID)
	if err != nil {
		return nil, err
	}

	enrollment.Progress = progress
	if progress >= 100 && enrollment.CompletedAt == nil {
		now := time.Now()
		enrollment.CompletedAt = &now
	}
	err = s.DB.Model(enrollment).Updates(map[string]interface{}{
		"progress":     enrollment.Progress,
		"completed_at": enrollment.CompletedAt,
	}).Error
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// AutoGrade checks a test answer: trimmed, case-insensitive match against
// the task's correct answer.
func AutoGrade(task models.Task, content string) (float64, bool) {
	correct := strings.EqualFold(strings.TrimSpace(content), strings.TrimSpace(task.CorrectAnswer))
	if task.CorrectAnswer == "" {
		correct = false
	}
	if correct {
		return task.MaxScore, true
	}
	return 0, false
}
