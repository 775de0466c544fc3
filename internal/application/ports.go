package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/easyride/service-booking/internal/domain/notification"
	"github.com/easyride/service-booking/internal/platform/kafka"
)

// Transactor runs fn atomically. Repositories called with the ctx passed to
// fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// Notifier delivers a message to a user. It never fails the caller.
type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, message string, nType notification.Type)
}

const eventSource = "service-booking"
