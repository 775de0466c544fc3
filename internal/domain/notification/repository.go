package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for notifications. Mutations
// are scoped to the owning user and return ErrNotificationNotFound when no
// row matches.
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
