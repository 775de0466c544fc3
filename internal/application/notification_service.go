package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easyride/service-booking/internal/domain/notification"
	"github.com/easyride/service-booking/internal/platform/domain"
)

// CreateNotificationRequest is the admin request DTO for messaging a user.
type CreateNotificationRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	Message string    `json:"message" binding:"required"`
	Type    string    `json:"type"`
}

// NotificationDTO is the API response representation of a notification.
type NotificationDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationService persists user notifications and serves the inbox.
type NotificationService struct {
	repo   notification.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo notification.Repository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Send stores a notification. Failures are logged and dropped so callers
// never roll back a lifecycle transition over a notification.
func (s *NotificationService) Send(ctx context.Context, userID uuid.UUID, message string, nType notification.Type) {
	n, err := notification.NewNotification(userID, message, nType, s.now())
	if err == nil {
		err = s.repo.Save(ctx, n)
	}
	if err != nil {
		s.logger.Error("failed to send notification",
			zap.String("user_id", userID.String()),
			zap.String("type", string(nType)),
			zap.Error(err),
		)
	}
}

// CreateNotification sends an ad-hoc message to a user (admin).
func (s *NotificationService) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*NotificationDTO, error) {
	n, err := notification.NewNotification(req.UserID, req.Message, notification.Type(req.Type), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}
	result := toNotificationDTO(n)
	return &result, nil
}

// ListNotifications returns a page of the user's notifications.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[NotificationDTO], error) {
	items, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]NotificationDTO, len(items))
	for i, n := range items {
		dtos[i] = toNotificationDTO(n)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// DeleteNotification removes one of the user's notifications.
func (s *NotificationService) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

func toNotificationDTO(n *notification.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID(),
		UserID:    n.UserID(),
		Message:   n.Message(),
		Type:      string(n.Type()),
		Read:      n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
}
