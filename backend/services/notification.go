package services

import (
	"coursehub/backend/models"

	"gorm.io/gorm"
)

const (
	maxNotificationTitle   = 100
	maxNotificationMessage = 500
)

// Notifier writes notification rows. Pass a transaction as db when the
// notification must commit together with another write.
type Notifier struct{}

type NotificationInput struct {
	UserID            uint
	Title             string
	Message           string
	Type              models.NotificationType
	RelatedEntityType string
	RelatedEntityID   *uint
}

func (Notifier) Notify(db *gorm.DB, in NotificationInput) (*models.Notification, error) {
	n := models.Notification{
		UserID:            in.UserID,
		Title:             truncate(in.Title, maxNotificationTitle),
		Message:           truncate(in.Message, maxNotificationMessage),
		NotificationType:  in.Type,
		RelatedEntityType: in.RelatedEntityType,
		RelatedEntityID:   in.RelatedEntityID,
	}
	if n.NotificationType == "" {
		n.NotificationType = models.NotificationSystem
	}
	if err := db.Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// Broadcast sends the same system notification to every active user, or
// only to users with the given role. It returns how many were written.
func (nt Notifier) Broadcast(db *gorm.DB, role models.Role, title, message string) (int, error) {
	q := db.Model(&models.User{}).Where("is_active = ?", true)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var ids []uint
	if err := q.Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	rows := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.Notification{
			UserID:           id,
			Title:            truncate(title, maxNotificationTitle),
			Message:          truncate(message, maxNotificationMessage),
			NotificationType: models.NotificationSystem,
		})
	}
	if err := db.CreateInBatches(&rows, 100).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
