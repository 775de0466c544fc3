package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/easyride/service-booking/internal/application"
	bookingDomain "github.com/easyride/service-booking/internal/domain/booking"
	"github.com/easyride/service-booking/internal/platform/kafka"
	"github.com/easyride/service-booking/internal/proto/events"
)

// RefundCompleter marks a booking's pending refund as paid.
type RefundCompleter interface {
	CompleteRefund(ctx context.Context, bookingID uuid.UUID) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and settles refunds.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  RefundCompleter
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service RefundCompleter,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentRefundPaid:
		return c.handleRefundPaid(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handleRefundPaid(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.RefundPaidEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse RefundPaidEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing refund paid event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
		zap.Int64("amount_cents", evt.AmountCents),
	)

	_, err := c.service.CompleteRefund(ctx, evt.BookingID)
	switch {
	case err == nil:
	case errors.Is(err, bookingDomain.ErrNoPendingRefund):
		// Redelivery of an event we already applied.
		c.logger.Warn("refund already settled, skipping",
			zap.String("booking_id", evt.BookingID.String()),
		)
		return nil
	case errors.Is(err, bookingDomain.ErrBookingNotFound):
		c.logger.Warn("refund paid for unknown booking",
			zap.String("booking_id", evt.BookingID.String()),
		)
		return nil
	default:
		c.logger.Error("failed to complete refund",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("refund completed from payment event",
		zap.String("booking_id", evt.BookingID.String()),
	)
	return nil
}
