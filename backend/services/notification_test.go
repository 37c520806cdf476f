package services

import (
	"strings"
	"testing"

	"coursehub/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "Прив", truncate("Привет", 4))
}

func TestNotify(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	f := newFixture(t, db)

	n, err := Notifier{}.Notify(db, NotificationInput{
		UserID:  f.Student.ID,
		Title:   strings.Repeat("t", 150),
		Message: strings.Repeat("m", 600),
		Type:    models.NotificationCourse,
	})
	require.NoError(t, err)
	assert.Len(t, n.Title, 100)
	assert.Len(t, n.Message, 500)
	assert.False(t, n.IsRead)

	var stored models.Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.Equal(t, models.NotificationCourse, stored.NotificationType)
}

func TestBroadcast(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t, cfg)
	newFixture(t, db) // one teacher, one student
	inactive := models.User{Email: "gone@example.com", PasswordHash: "x", Role: models.RoleStudent}
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	sent, err := Notifier{}.Broadcast(db, models.RoleStudent, "Hi", "Students only")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = Notifier{}.Broadcast(db, "", "Hi", "Everyone")
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	sent, err = Notifier{}.Broadcast(db, models.RoleAdmin, "Hi", "Nobody")
	require.NoError(t, err)
	assert.Zero(t, sent)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("notification_type = ?", models.NotificationSystem).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}
