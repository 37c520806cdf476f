package services

import (
	"testing"
	"time"

	"coursehub/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseStatistics(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)
	svc := &StatisticsService{DB: db}

	f.answer(t, db, f.Tasks[0], ptr(10.0))
	f.answer(t, db, f.Tasks[1], ptr(20.0))
	require.NoError(t, db.Model(&models.Enrollment{}).Where("user_id = ?", f.Student.ID).Update("progress", 75).Error)

	stats, err := svc.CourseStatistics(f.Course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalStudents)
	assert.EqualValues(t, 1, stats.ActiveStudents)
	assert.Equal(t, 75.0, stats.CompletionRate)
	assert.Equal(t, 15.0, stats.AverageScore)
	assert.EqualValues(t, 2, stats.RecentActivity.AnswersSubmitted)
	require.Len(t, stats.ModuleStats, 1)
	assert.EqualValues(t, 1, stats.ModuleStats[0].TotalStudents)
	assert.Equal(t, 100.0, stats.ModuleStats[0].CompletionRate)
}

func TestModuleStatsCountsEnrolledStudentsOnly(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)
	svc := &StatisticsService{DB: db}

	dropout := models.User{Email: "dropout@example.com", PasswordHash: "x", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(&dropout).Error)
	for _, student := range []models.User{f.Student, dropout} {
		for _, task := range f.Tasks {
			score := task.MaxScore
			require.NoError(t, db.Create(&models.Answer{TaskID: task.ID, StudentID: student.ID, Content: "x", Score: &score}).Error)
		}
	}

	stats, err := svc.CourseStatistics(f.Course.ID)
	require.NoError(t, err)
	require.Len(t, stats.ModuleStats, 1)
	assert.EqualValues(t, 1, stats.ModuleStats[0].TotalStudents)
	assert.Equal(t, 100.0, stats.ModuleStats[0].CompletionRate)
}

func TestCourseStatisticsEmpty(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	teacher := models.User{Email: "t@example.com", PasswordHash: "x", Role: models.RoleTeacher}
	require.NoError(t, db.Create(&teacher).Error)
	course := models.Course{Title: "Empty", CreatorID: teacher.ID, IsActive: true}
	require.NoError(t, db.Create(&course).Error)

	stats, err := (&StatisticsService{DB: db}).CourseStatistics(course.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalStudents)
	assert.Zero(t, stats.CompletionRate)
	assert.Empty(t, stats.ModuleStats)
}

func TestStudentsProgress(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)
	require.NoError(t, db.Create(&models.Certificate{UserID: f.Student.ID, CourseID: f.Course.ID, Score: 90, IssuedAt: time.Now()}).Error)

	rows, err := (&StatisticsService{DB: db}).StudentsProgress(f.Course.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "student@example.com", rows[0].Email)
	assert.Equal(t, "Petrov Ivan", rows[0].FullName)
	assert.True(t, rows[0].Certified)
}

func TestCourseActivity(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)
	f.answer(t, db, f.Tasks[0], nil)
	f.answer(t, db, f.Tasks[1], nil)
	old := models.Answer{TaskID: f.Tasks[0].ID, StudentID: f.Student.ID}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&old).UpdateColumn("created_at", time.Now().AddDate(0, 0, -10)).Error)

	days, err := (&StatisticsService{DB: db}).CourseActivity(f.Course.ID, 3)
	require.NoError(t, err)
	require.Len(t, days, 3)
	today := days[2]
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), today.Date)
	assert.EqualValues(t, 2, today.Answers)
	assert.EqualValues(t, 1, today.Students)
	assert.Zero(t, days[0].Answers)
}

func TestSystemStatsAndReports(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)
	f.answer(t, db, f.Tasks[0], ptr(10.0))
	svc := &StatisticsService{DB: db}

	stats, err := svc.SystemStats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.ActiveUsers)
	assert.EqualValues(t, 1, stats.UsersByRole[models.RoleTeacher])
	assert.EqualValues(t, 1, stats.TotalEnrollments)

	activity, err := svc.UserActivity(7)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.EqualValues(t, 1, activity[1].Answers)
	assert.NotNil(t, activity[1].LastActivity)

	report, err := svc.CoursesReport()
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.EqualValues(t, 1, report[0].Enrollments)
	assert.EqualValues(t, 1, report[0].Modules)
}
