package services

import (
	"database/sql"
	"time"

	"coursehub/backend/models"

	"gorm.io/gorm"
)

const (
	activeWindow = 30 * 24 * time.Hour
	recentWindow = 7 * 24 * time.Hour
)

type StatisticsService struct {
	DB *gorm.DB
}

// answersInCourse selects answers belonging to the course's tasks.
func answersInCourse(db *gorm.DB, courseID uint) *gorm.DB {
	return db.Model(&models.Answer{}).
		Joins("JOIN tasks ON tasks.id = answers.task_id").
		Joins("JOIN lessons ON lessons.id = tasks.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID)
}

func commentsInCourse(db *gorm.DB, courseID uint) *gorm.DB {
	return db.Model(&models.Comment{}).
		Joins("JOIN lesson_materials ON lesson_materials.id = comments.material_id").
		Joins("JOIN lessons ON lessons.id = lesson_materials.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID)
}

// CompletionRate is the mean enrollment progress of the course, 0 without enrollments.
func (s *StatisticsService) CompletionRate(courseID uint) (float64, error) {
	var avg sql.NullFloat64
	err := s.DB.Model(&models.Enrollment{}).
		Select("AVG(progress)").
		Where("course_id = ?", courseID).
		Row().Scan(&avg)
	return avg.Float64, err
}

func (s *StatisticsService) CourseStatistics(courseID uint) (*models.CourseStatistics, error) {
	stats := &models.CourseStatistics{CourseID: courseID, ModuleStats: []models.ModuleStats{}}
	now := time.Now()

	// Всего студентов на курсе
	if err := s.DB.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&stats.TotalStudents).Error; err != nil {
		return nil, err
	}

	// Активные студенты: отвечали за последние 30 дней
	err := answersInCourse(s.DB, courseID).
		Where("answers.created_at >= ?", now.Add(-activeWindow)).
		Distinct("answers.student_id").
		Count(&stats.ActiveStudents).Error
	if err != nil {
		return nil, err
	}

	if stats.CompletionRate, err = s.CompletionRate(courseID); err != nil {
		return nil, err
	}

	var avgScore sql.NullFloat64
	if err := answersInCourse(s.DB, courseID).Select("AVG(answers.score)").Row().Scan(&avgScore); err != nil {
		return nil, err
	}
	stats.AverageScore = avgScore.Float64

	if stats.ModuleStats, err = s.moduleStats(courseID, stats.TotalStudents); err != nil {
		return nil, err
	}

	since := now.Add(-recentWindow)
	stats.RecentActivity.Period = "7 days"
	if err := answersInCourse(s.DB, courseID).Where("answers.created_at >= ?", since).Count(&stats.RecentActivity.AnswersSubmitted).Error; err != nil {
		return nil, err
	}
	if err := commentsInCourse(s.DB, courseID).Where("comments.created_at >= ?", since).Count(&stats.RecentActivity.CommentsPosted).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// moduleStats reports, per module, how many enrolled students answered any of
// its tasks and the share of enrolled students with a graded answer on every one.
func (s *StatisticsService) moduleStats(courseID uint, enrolled int64) ([]models.ModuleStats, error) {
	var modules []models.Module
	err := s.DB.Where("course_id = ?", courseID).
		Order("position, id").
		Preload("Lessons.Tasks").
		Find(&modules).Error
	if err != nil {
		return nil, err
	}

	var rows []struct {
		StudentID uint
		TaskID    uint
		Graded    int
	}
	// staff and unenrolled students are left out
	err = answersInCourse(s.DB, courseID).
		Joins("JOIN enrollments ON enrollments.user_id = answers.student_id AND enrollments.course_id = modules.course_id").
		Select("answers.student_id, answers.task_id, MAX(CASE WHEN answers.score IS NOT NULL THEN 1 ELSE 0 END) AS graded").
		Group("answers.student_id, answers.task_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	answered := make(map[uint]map[uint]bool) // task -> student -> graded
	for _, r := range rows {
		if answered[r.TaskID] == nil {
			answered[r.TaskID] = make(map[uint]bool)
		}
		answered[r.TaskID][r.StudentID] = r.Graded > 0
	}

	out := make([]models.ModuleStats, 0, len(modules))
	for _, m := range modules {
		students := make(map[uint]struct{})
		completed := make(map[uint]int)
		taskCount := 0
		for _, l := range m.Lessons {
			for _, t := range l.Tasks {
				taskCount++
				for student, graded := range answered[t.ID] {
					students[student] = struct{}{}
					if graded {
						completed[student]++
					}
				}
			}
		}

		ms := models.ModuleStats{ModuleID: m.ID, Title: m.Title, TotalStudents: int64(len(students))}
		if taskCount > 0 && enrolled > 0 {
			var done int64
			for _, n := range completed {
				if n == taskCount {
					done++
				}
			}
			ms.CompletionRate = float64(done) / float64(enrolled) * 100
		}
		out = append(out, ms)
	}
	return out, nil
}

// StudentsProgress lists every enrolled student with their progress.
func (s *StatisticsService) StudentsProgress(courseID uint) ([]models.StudentProgress, error) {
	var enrollments []models.Enrollment
	if err := s.DB.Where("course_id = ?", courseID).Order("progress DESC, id").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return []models.StudentProgress{}, nil
	}

	userIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		userIDs = append(userIDs, e.UserID)
	}
	var users []models.User
	if err := s.DB.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	var certified []uint
	if err := s.DB.Model(&models.Certificate{}).Where("course_id = ?", courseID).Pluck("user_id", &certified).Error; err != nil {
		return nil, err
	}
	hasCert := make(map[uint]bool, len(certified))
	for _, id := range certified {
		hasCert[id] = true
	}

	out := make([]models.StudentProgress, 0, len(enrollments))
	for _, e := range enrollments {
		u := byID[e.UserID]
		out = append(out, models.StudentProgress{
			UserID:      e.UserID,
			Email:       u.Email,
			FullName:    u.FullName(),
			Progress:    e.Progress,
			EnrolledAt:  e.EnrolledAt,
			CompletedAt: e.CompletedAt,
			Certified:   hasCert[e.UserID],
		})
	}
	return out, nil
}

// CourseActivity buckets answers, comments and distinct active students by
// day for the last days days, oldest first. Grouping happens in Go so the
// same code runs on postgres and sqlite.
func (s *StatisticsService) CourseActivity(courseID uint, days int) ([]models.DailyActivity, error) {
	if days <= 0 {
		days = 30
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	var answers []struct {
		StudentID uint
		CreatedAt time.Time
	}
	err := answersInCourse(s.DB, courseID).
		Select("answers.student_id, answers.created_at").
		Where("answers.created_at >= ?", since).
		Scan(&answers).Error
	if err != nil {
		return nil, err
	}
	var comments []struct {
		AuthorID  uint
		CreatedAt time.Time
	}
	err = commentsInCourse(s.DB, courseID).
		Select("comments.author_id, comments.created_at").
		Where("comments.created_at >= ?", since).
		Scan(&comments).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.DailyActivity, days)
	index := make(map[string]int, days)
	students := make([]map[uint]struct{}, days)
	for i := range out {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		out[i].Date = day
		index[day] = i
		students[i] = make(map[uint]struct{})
	}
	for _, a := range answers {
		if i, ok := index[a.CreatedAt.UTC().Format("2006-01-02")]; ok {
			out[i].Answers++
			students[i][a.StudentID] = struct{}{}
		}
	}
	for _, c := range comments {
		if i, ok := index[c.CreatedAt.UTC().Format("2006-01-02")]; ok {
			out[i].Comments++
			students[i][c.AuthorID] = struct{}{}
		}
	}
	for i := range out {
		out[i].Students = int64(len(students[i]))
	}
	return out, nil
}

func (s *StatisticsService) SystemStats() (*models.SystemStats, error) {
	stats := &models.SystemStats{UsersByRole: map[models.Role]int64{}}
	since := time.Now().Add(-activeWindow)

	if err := s.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	// активные: отвечали или заходили за последние 30 дней
	err := s.DB.Model(&models.User{}).
		Where("last_login_at >= ? OR id IN (?)", since,
			s.DB.Model(&models.Answer{}).Select("student_id").Where("created_at >= ?", since)).
		Count(&stats.ActiveUsers).Error
	if err != nil {
		return nil, err
	}

	var roles []struct {
		Role  models.Role
		Count int64
	}
	if err := s.DB.Model(&models.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&roles).Error; err != nil {
		return nil, err
	}
	for _, r := range roles {
		stats.UsersByRole[r.Role] = r.Count
	}

	if err := s.DB.Model(&models.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Course{}).Where("is_active = ?", true).Count(&stats.ActiveCourses).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Enrollment{}).Count(&stats.TotalEnrollments).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Certificate{}).Count(&stats.CertificatesIssued).Error; err != nil {
		return nil, err
	}
	var avg sql.NullFloat64
	if err := s.DB.Model(&models.Enrollment{}).Select("AVG(progress)").Row().Scan(&avg); err != nil {
		return nil, err
	}
	stats.AvgCourseProgress = avg.Float64
	return stats, nil
}

// UserActivity reports per-user answer and comment counts over the last days days.
func (s *StatisticsService) UserActivity(days int) ([]models.UserActivityReport, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var users []models.User
	if err := s.DB.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	type event struct {
		UserID    uint
		CreatedAt time.Time
	}
	var answers, comments []event
	err := s.DB.Model(&models.Answer{}).
		Select("student_id AS user_id, created_at").
		Where("created_at >= ?", since).
		Scan(&answers).Error
	if err != nil {
		return nil, err
	}
	err = s.DB.Model(&models.Comment{}).
		Select("author_id AS user_id, created_at").
		Where("created_at >= ?", since).
		Scan(&comments).Error
	if err != nil {
		return nil, err
	}

	reports := make(map[uint]*models.UserActivityReport, len(users))
	out := make([]models.UserActivityReport, len(users))
	for i, u := range users {
		out[i] = models.UserActivityReport{UserID: u.ID, Email: u.Email, Role: u.Role, LastLoginAt: u.LastLoginAt}
		reports[u.ID] = &out[i]
	}
	touch := func(r *models.UserActivityReport, t time.Time) {
		if t.IsZero() {
			return
		}
		if r.LastActivity == nil || t.After(*r.LastActivity) {
			t := t
			r.LastActivity = &t
		}
	}
	for _, a := range answers {
		if r, ok := reports[a.UserID]; ok {
			r.Answers++
			touch(r, a.CreatedAt)
		}
	}
	for _, c := range comments {
		if r, ok := reports[c.UserID]; ok {
			r.Comments++
			touch(r, c.CreatedAt)
		}
	}
	return out, nil
}

func (s *StatisticsService) CoursesReport() ([]models.CourseReport, error) {
	var courses []models.Course
	if err := s.DB.Order("id").Find(&courses).Error; err != nil {
		return nil, err
	}

	type enrollAgg struct {
		CourseID uint
		Count    int64
		Avg      float64
	}
	type countAgg struct {
		CourseID uint
		Count    int64
	}
	var enrolls []enrollAgg
	if err := s.DB.Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS count, AVG(progress) AS avg").
		Group("course_id").Scan(&enrolls).Error; err != nil {
		return nil, err
	}
	var certs, modules []countAgg
	if err := s.DB.Model(&models.Certificate{}).
		Select("course_id, COUNT(*) AS count").
		Group("course_id").Scan(&certs).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Module{}).
		Select("course_id, COUNT(*) AS count").
		Group("course_id").Scan(&modules).Error; err != nil {
		return nil, err
	}

	byCourse := make(map[uint]*models.CourseReport, len(courses))
	out := make([]models.CourseReport, len(courses))
	for i, c := range courses {
		out[i] = models.CourseReport{CourseID: c.ID, Title: c.Title, IsActive: c.IsActive}
		byCourse[c.ID] = &out[i]
	}
	for _, e := range enrolls {
		if r, ok := byCourse[e.CourseID]; ok {
			r.Enrollments = e.Count
			r.AvgProgress = e.Avg
		}
	}
	for _, c := range certs {
		if r, ok := byCourse[c.CourseID]; ok {
			r.Certificates = c.Count
		}
	}
	for _, m := range modules {
		if r, ok := byCourse[m.CourseID]; ok {
			r.Modules = m.Count
		}
	}
	return out, nil
}
