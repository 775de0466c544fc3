package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easyride/service-booking/internal/domain/refund"
	"github.com/easyride/service-booking/internal/platform/domain"
)

var (
	ErrBookingNotFound  = domain.New(domain.KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrInvalidDateRange = domain.New(domain.KindValidation, "INVALID_DATE_RANGE", "invalid date range")
	ErrAlreadyCompleted = domain.New(domain.KindInvalidState, "ALREADY_COMPLETED", "booking is already completed")
	ErrNoPendingRefund  = domain.New(domain.KindInvalidState, "NO_PENDING_REFUND", "no pending refund for this booking")
)

// Booking is the aggregate root for a vehicle reservation.
type Booking struct {
	id          uuid.UUID
	vehicleID   uuid.UUID
	userID      uuid.UUID
	name        string
	phoneNumber string
	notes       string
	receipt     []byte

	period          RentalPeriod
	noOfDays        int
	totalPriceCents int64

	status            BookingStatus
	refundAmountCents int64
	refundStatus      refund.Status
	cancelReason      string
	cancelledAt       *time.Time
	completedAt       *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=PENDING.
func NewBooking(
	userID uuid.UUID,
	vehicleID uuid.UUID,
	name string,
	phoneNumber string,
	notes string,
	receipt []byte,
	period RentalPeriod,
	totalPriceCents int64,
	now time.Time,
) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if vehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("renter name is required")
	}
	if strings.TrimSpace(phoneNumber) == "" {
		return nil, domain.NewValidationError("phone number is required")
	}
	if !period.Return.After(period.PickUp) {
		return nil, ErrInvalidDateRange.WithMessage("return date must be after pick-up date")
	}
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}

	now = now.UTC()
	return &Booking{
		id:              uuid.New(),
		vehicleID:       vehicleID,
		userID:          userID,
		name:            strings.TrimSpace(name),
		phoneNumber:     strings.TrimSpace(phoneNumber),
		notes:           notes,
		receipt:         receipt,
		period:          period,
		noOfDays:        period.Days(),
		totalPriceCents: totalPriceCents,
		status:          StatusPending,
		refundStatus:    refund.StatusNone,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	vehicleID uuid.UUID,
	userID uuid.UUID,
	name string,
	phoneNumber string,
	notes string,
	receipt []byte,
	period RentalPeriod,
	noOfDays int,
	totalPriceCents int64,
	status BookingStatus,
	refundAmountCents int64,
	refundStatus refund.Status,
	cancelReason string,
	cancelledAt *time.Time,
	completedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                id,
		vehicleID:         vehicleID,
		userID:            userID,
		name:              name,
		phoneNumber:       phoneNumber,
		notes:             notes,
		receipt:           receipt,
		period:            period,
		noOfDays:          noOfDays,
		totalPriceCents:   totalPriceCents,
		status:            status,
		refundAmountCents: refundAmountCents,
		refundStatus:      refundStatus,
		cancelReason:      cancelReason,
		cancelledAt:       cancelledAt,
		completedAt:       completedAt,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// VehicleID returns the reserved vehicle.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// UserID returns the renter's user ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// Name returns the renter's display name.
func (b *Booking) Name() string { return b.name }

// PhoneNumber returns the renter's contact number.
func (b *Booking) PhoneNumber() string { return b.phoneNumber }

// Notes returns free-text notes.
func (b *Booking) Notes() string { return b.notes }

// Receipt returns the opaque payment receipt blob.
func (b *Booking) Receipt() []byte { return b.receipt }

// Period returns the pick-up/return window.
func (b *Booking) Period() RentalPeriod { return b.period }

// NoOfDays returns the number of billed days.
func (b *Booking) NoOfDays() int { return b.noOfDays }

// TotalPriceCents returns the total price in cents.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// RefundAmountCents returns the refund owed or paid, in cents.
func (b *Booking) RefundAmountCents() int64 { return b.refundAmountCents }

// RefundStatus returns the refund state.
func (b *Booking) RefundStatus() refund.Status { return b.refundStatus }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

// CancelledAt returns when the booking was canceled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CompletedAt returns when the booking was completed.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsOwnedBy reports whether userID made the booking.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool { return b.userID == userID }

// --- Behavior ---

// Complete transitions the booking from PENDING to COMPLETED.
func (b *Booking) Complete(now time.Time) error {
	if b.status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	now = now.UTC()
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel cancels a PENDING booking immediately and records the refund decision.
func (b *Booking) Cancel(reason string, decision refund.Decision, now time.Time) error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), string(StatusCanceled))
	}
	b.applyCancellation(reason, decision, now)
	return nil
}

// RequestCancellation moves a PENDING booking to CANCELLATION_REQUESTED. The
// vehicle stays held and no refund is applied yet.
func (b *Booking) RequestCancellation(reason string, now time.Time) error {
	if !b.status.CanTransitionTo(StatusCancellationRequested) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancellationRequested))
	}
	b.status = StatusCancellationRequested
	b.cancelReason = reason
	b.updatedAt = now.UTC()
	return nil
}

// ApproveCancellation resolves a requested cancellation with the refund
// decision evaluated at approval time.
func (b *Booking) ApproveCancellation(decision refund.Decision, now time.Time) error {
	if b.status != StatusCancellationRequested {
		return domain.NewInvalidStateError(string(b.status), string(StatusCanceled))
	}
	b.applyCancellation(b.cancelReason, decision, now)
	return nil
}

func (b *Booking) applyCancellation(reason string, decision refund.Decision, now time.Time) {
	now = now.UTC()
	b.status = StatusCanceled
	b.cancelReason = reason
	b.cancelledAt = &now
	b.refundAmountCents = decision.AmountCents
	b.refundStatus = decision.Eligibility
	b.updatedAt = now
}

// CompleteRefund marks a pending refund as paid out.
func (b *Booking) CompleteRefund(now time.Time) error {
	if b.refundStatus != refund.StatusPending {
		return ErrNoPendingRefund
	}
	b.refundStatus = refund.StatusRefunded
	b.updatedAt = now.UTC()
	return nil
}

// Reschedule replaces the rental period and its price. Only PENDING bookings
// can be rescheduled.
func (b *Booking) Reschedule(period RentalPeriod, totalPriceCents int64, now time.Time) error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), string(b.status)).
			WithMessage("only pending bookings can be changed")
	}
	if !period.Return.After(period.PickUp) {
		return ErrInvalidDateRange.WithMessage("return date must be after pick-up date")
	}
	b.period = period
	b.noOfDays = period.Days()
	b.totalPriceCents = totalPriceCents
	b.updatedAt = now.UTC()
	return nil
}

// UpdateContact changes the renter details of a PENDING booking. Nil fields
// are left unchanged.
func (b *Booking) UpdateContact(name, phoneNumber, notes *string, now time.Time) error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), string(b.status)).
			WithMessage("only pending bookings can be changed")
	}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return domain.NewValidationError("renter name cannot be empty")
		}
		b.name = strings.TrimSpace(*name)
	}
	if phoneNumber != nil {
		if strings.TrimSpace(*phoneNumber) == "" {
			return domain.NewValidationError("phone number cannot be empty")
		}
		b.phoneNumber = strings.TrimSpace(*phoneNumber)
	}
	if notes != nil {
		b.notes = *notes
	}
	b.updatedAt = now.UTC()
	return nil
}

// CanBeDeleted reports whether the booking may be physically removed.
func (b *Booking) CanBeDeleted() bool {
	return b.status.IsTerminal()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
