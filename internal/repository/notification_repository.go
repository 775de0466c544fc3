package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	notificationDomain "github.com/easyride/service-booking/internal/domain/notification"
	"github.com/easyride/service-booking/internal/platform/database"
)

// NotificationModel is the GORM model for the notifications table.
type NotificationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Message   string    `gorm:"type:text;not null"`
	Type      string    `gorm:"type:varchar(40);not null"`
	Read      bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (NotificationModel) TableName() string { return "notifications" }

// GormNotificationRepository implements notification.Repository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Save persists a new notification.
func (r *GormNotificationRepository) Save(ctx context.Context, n *notificationDomain.Notification) error {
	model := NotificationModel{
		ID:        n.ID(),
		UserID:    n.UserID(),
		Message:   n.Message(),
		Type:      string(n.Type()),
		Read:      n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
	if err := database.Conn(ctx, r.db).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// FindByUserID returns a user's notifications, newest first.
func (r *GormNotificationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*notificationDomain.Notification, int64, error) {
	var total int64
	if err := database.Conn(ctx, r.db).Model(&NotificationModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var models []NotificationModel
	if err := database.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	items := make([]*notificationDomain.Notification, len(models))
	for i, m := range models {
		items[i] = notificationDomain.Reconstruct(m.ID, m.UserID, m.Message, notificationDomain.Type(m.Type), m.Read, m.CreatedAt)
	}
	return items, total, nil
}

// MarkRead flags a notification owned by userID as read.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result := database.Conn(ctx, r.db).
		Model(&NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notificationDomain.ErrNotificationNotFound
	}
	return nil
}

// Delete removes a notification owned by userID.
func (r *GormNotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := database.Conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&NotificationModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notificationDomain.ErrNotificationNotFound
	}
	return nil
}

