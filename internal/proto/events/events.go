// Package events defines the Kafka topics, CloudEvent types and payloads
// exchanged between the booking service and its neighbours.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types.
const (
	BookingCreated               = "booking.created"
	BookingCompleted             = "booking.completed"
	BookingCancelled             = "booking.cancelled"
	BookingCancellationRequested = "booking.cancellation_requested"
	BookingRefundCompleted       = "booking.refund_completed"
)

// Payment event types.
const (
	PaymentRefundPaid = "payment.refund_paid"
)

// BookingCreatedEvent is published after a booking is reserved.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	UserID          uuid.UUID `json:"user_id"`
	PickUpDate      time.Time `json:"pick_up_date"`
	ReturnDate      time.Time `json:"return_date"`
	NoOfDays        int       `json:"no_of_days"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is published when a rental is returned.
type BookingCompletedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	UserID          uuid.UUID `json:"user_id"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking reaches CANCELED, either
// directly or by approval of a request.
type BookingCancelledEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	VehicleID         uuid.UUID `json:"vehicle_id"`
	UserID            uuid.UUID `json:"user_id"`
	Reason            string    `json:"reason"`
	RefundAmountCents int64     `json:"refund_amount_cents"`
	RefundStatus      string    `json:"refund_status"`
	Currency          string    `json:"currency"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// CancellationRequestedEvent is published when a renter asks to cancel.
type CancellationRequestedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RefundCompletedEvent is published once a pending refund is paid out.
type RefundCompletedEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	UserID            uuid.UUID `json:"user_id"`
	RefundAmountCents int64     `json:"refund_amount_cents"`
	Currency          string    `json:"currency"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// RefundPaidEvent is consumed from the payment service.
type RefundPaidEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}
