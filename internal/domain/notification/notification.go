package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easyride/service-booking/internal/platform/domain"
)

// Type classifies a notification for the inbox UI.
type Type string

const (
	TypeBookingCreated        Type = "booking_created"
	TypeBookingCompleted      Type = "booking_completed"
	TypeBookingCancelled      Type = "booking_cancelled"
	TypeCancellationRequested Type = "cancellation_requested"
	TypeRefundPending         Type = "refund_pending"
	TypeRefundNotEligible     Type = "refund_not_eligible"
	TypeRefundCompleted       Type = "refund_completed"
	TypeGeneral               Type = "general"
)

var ErrNotificationNotFound = domain.New(domain.KindNotFound, "NOTIFICATION_NOT_FOUND", "notification not found")

// Notification is a message addressed to one user.
type Notification struct {
	id        uuid.UUID
	userID    uuid.UUID
	message   string
	nType     Type
	read      bool
	createdAt time.Time
}

// NewNotification creates an unread notification.
func NewNotification(userID uuid.UUID, message string, nType Type, now time.Time) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, domain.NewValidationError("message is required")
	}
	if nType == "" {
		nType = TypeGeneral
	}
	return &Notification{
		id:        uuid.New(),
		userID:    userID,
		message:   message,
		nType:     nType,
		createdAt: now.UTC(),
	}, nil
}

// Reconstruct rebuilds a Notification from persistence.
func Reconstruct(id, userID uuid.UUID, message string, nType Type, read bool, createdAt time.Time) *Notification {
	return &Notification{
		id:        id,
		userID:    userID,
		message:   message,
		nType:     nType,
		read:      read,
		createdAt: createdAt,
	}
}

func (n *Notification) ID() uuid.UUID { return n.id }
func (n *Notification) UserID() uuid.UUID { return n.userID }
func (n *Notification) Message() string { return n.message }
func (n *Notification) Type() Type { return n.nType }
func (n *Notification) IsRead() bool { return n.read }
func (n *Notification) CreatedAt() time.Time { return n.createdAt }
