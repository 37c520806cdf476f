package services

import (
	"testing"

	"coursehub/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoGrade(t *testing.T) {
	task := models.Task{TaskType: models.TaskTest, MaxScore: 5, CorrectAnswer: " Paris "}

	tests := []struct {
		answer  string
		score   float64
		correct bool
	}{
		{"Paris", 5, true},
		{"  paris\n", 5, true},
		{"PARIS", 5, true},
		{"London", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		score, correct := AutoGrade(task, tt.answer)
		assert.Equal(t, tt.score, score, tt.answer)
		assert.Equal(t, tt.correct, correct, tt.answer)
	}

	// a test task without a reference answer never matches
	score, correct := AutoGrade(models.Task{MaxScore: 5}, "")
	assert.Zero(t, score)
	assert.False(t, correct)
}

func TestCalculateProgress(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)
	svc := &ProgressService{DB: db}

	progress, err := svc.Calculate(db, f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.Zero(t, progress)

	// ungraded answers do not count, the best graded attempt does
	f.answer(t, db, f.Tasks[1], nil)
	f.answer(t, db, f.Tasks[1], ptr(6.0))
	f.answer(t, db, f.Tasks[1], ptr(12.0))
	progress, err = svc.Calculate(db, f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, progress)

	// scores above max_score are capped
	f.answer(t, db, f.Tasks[0], ptr(50.0))
	progress, err = svc.Calculate(db, f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, 55.0, progress)
}

func TestCalculateProgressWithoutTasks(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)
	require.NoError(t, db.Where("lesson_id = ?", f.Lesson.ID).Delete(&models.Task{}).Error)

	progress, err := (&ProgressService{DB: db}).Calculate(db, f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.Zero(t, progress)
}

func TestRecompute(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)
	svc := &ProgressService{DB: db}

	_, err := svc.Recompute(f.Student.ID+100, f.Course.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	f.answer(t, db, f.Tasks[0], ptr(10.0))
	enrollment, err := svc.Recompute(f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, enrollment.Progress)
	assert.Nil(t, enrollment.CompletedAt)

	f.answer(t, db, f.Tasks[1], ptr(30.0))
	enrollment, err = svc.Recompute(f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, enrollment.Progress)
	require.NotNil(t, enrollment.CompletedAt)
	completed := *enrollment.CompletedAt

	// completion is stamped once
	enrollment, err = svc.Recompute(f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.True(t, completed.Equal(*enrollment.CompletedAt))

	var stored models.Enrollment
	require.NoError(t, db.First(&stored, enrollment.ID).Error)
	assert.Equal(t, 100.0, stored.Progress)
}
