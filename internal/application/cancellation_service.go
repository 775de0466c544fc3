package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/easyride/service-booking/internal/domain/booking"
	"github.com/easyride/service-booking/internal/domain/cancellation"
	"github.com/easyride/service-booking/internal/domain/notification"
	"github.com/easyride/service-booking/internal/domain/refund"
	"github.com/easyride/service-booking/internal/platform/domain"
	"github.com/easyride/service-booking/internal/proto/events"
)

// CancelBookingRequest holds the reason for a direct cancellation.
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancellationRequest is a renter's request to cancel, with the account the
// refund should be paid into.
type CancellationRequest struct {
	Reason      string                   `json:"reason" binding:"required"`
	BankDetails cancellation.BankDetails `json:"bank_details"`
}

// CancellationDTO is the response representation of a cancellation record.
type CancellationDTO struct {
	ID                uuid.UUID                `json:"id"`
	BookingID         uuid.UUID                `json:"booking_id"`
	RequesterID       uuid.UUID                `json:"requester_id"`
	Reason            string                   `json:"reason"`
	BankDetails       cancellation.BankDetails `json:"bank_details"`
	Status            string                   `json:"status"`
	RefundAmountCents int64                    `json:"refund_amount_cents"`
	ApprovedAt        *time.Time               `json:"approved_at,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

// CancelBooking cancels a PENDING booking immediately. The refund is decided
// now and an APPROVED cancellation record is written alongside.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool, reason string) (*BookingDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("cancellation reason is required")
	}

	now := s.now()
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !isAdmin && !bk.IsOwnedBy(requesterID) {
			return domain.NewForbiddenError("booking does not belong to this user")
		}
		if err := s.ensureNoCancellation(ctx, bk); err != nil {
			return err
		}

		decision := s.policy.Compute(bk.CreatedAt(), bk.TotalPriceCents(), now)
		if err := bk.Cancel(reason, decision, now); err != nil {
			return err
		}

		record, err := cancellation.NewDirect(bk.ID(), requesterID, reason, decision.AmountCents, now)
		if err != nil {
			return err
		}
		if err := s.cancellations.Save(ctx, record); err != nil {
			return err
		}

		bk.IncrementVersion()
		if err := s.repo.Update(ctx, bk); err != nil {
			return err
		}
		return s.vehicles.Release(ctx, bk.VehicleID())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("refund_status", string(bk.RefundStatus())),
		zap.Int64("refund_amount_cents", bk.RefundAmountCents()),
	)

	s.notifier.Send(ctx, bk.UserID(),
		fmt.Sprintf("Your booking #%s has been successfully canceled. Refund of %s is %s.",
			bk.ID(), formatCents(bk.RefundAmountCents()), refundWording(bk.RefundStatus())),
		notification.TypeBookingCancelled)
	s.publishCancelled(ctx, bk, now)

	result := toBookingDTO(bk)
	return &result, nil
}

// RequestCancellation records a renter's cancellation request. The vehicle
// stays held until an admin approves it.
func (s *BookingService) RequestCancellation(ctx context.Context, bookingID, requesterID uuid.UUID, req CancellationRequest) (*CancellationDTO, error) {
	now := s.now()
	var (
		bk     *bookingDomain.Booking
		record *cancellation.Record
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.IsOwnedBy(requesterID) {
			return domain.NewForbiddenError("booking does not belong to this user")
		}
		if err := s.ensureNoCancellation(ctx, bk); err != nil {
			return err
		}
		if bk.Status() != bookingDomain.StatusPending {
			return domain.NewInvalidStateError(string(bk.Status()), string(bookingDomain.StatusCancellationRequested)).
				WithMessage("only pending bookings can be cancelled")
		}

		// Provisional; recomputed on approval.
		decision := s.policy.Compute(bk.CreatedAt(), bk.TotalPriceCents(), now)
		record, err = cancellation.NewRequest(bk.ID(), requesterID, req.Reason, req.BankDetails, decision.AmountCents, now)
		if err != nil {
			return err
		}
		if err := bk.RequestCancellation(record.Reason(), now); err != nil {
			return err
		}
		if err := s.cancellations.Save(ctx, record); err != nil {
			return err
		}

		bk.IncrementVersion()
		return s.repo.Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cancellation requested", zap.String("booking_id", bk.ID().String()))

	s.notifier.Send(ctx, bk.UserID(),
		fmt.Sprintf("Your cancellation request for booking #%s has been received and is awaiting approval.", bk.ID()),
		notification.TypeCancellationRequested)

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancellationRequested, bk.ID().String(), events.CancellationRequestedEvent{
		BookingID:  bk.ID(),
		UserID:     bk.UserID(),
		Reason:     record.Reason(),
		OccurredAt: now,
	})

	result := toCancellationDTO(record)
	return &result, nil
}

// ApproveCancellation resolves a pending cancellation request (admin). The
// refund is evaluated at approval time, not at request time.
func (s *BookingService) ApproveCancellation(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	now := s.now()
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err := s.cancellations.FindByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !record.IsPending() {
			return cancellation.ErrAlreadyProcessed
		}
		bk, err = s.repo.FindByID(ctx, bookingID)
		if errors.Is(err, bookingDomain.ErrBookingNotFound) {
			return cancellation.ErrCancellationNotFound
		}
		if err != nil {
			return err
		}

		decision := s.policy.Compute(bk.CreatedAt(), bk.TotalPriceCents(), now)
		if err := record.Approve(decision.AmountCents, now); err != nil {
			return err
		}
		if err := s.cancellations.MarkApproved(ctx, record); err != nil {
			return err
		}
		if err := bk.ApproveCancellation(decision, now); err != nil {
			return err
		}

		bk.IncrementVersion()
		if err := s.repo.Update(ctx, bk); err != nil {
			return err
		}
		return s.vehicles.Release(ctx, bk.VehicleID())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cancellation approved",
		zap.String("booking_id", bk.ID().String()),
		zap.String("refund_status", string(bk.RefundStatus())),
		zap.Int64("refund_amount_cents", bk.RefundAmountCents()),
	)

	if bk.RefundStatus() == refund.StatusPending {
		s.notifier.Send(ctx, bk.UserID(),
			fmt.Sprintf("Your cancellation request for booking #%s has been approved. Refund of %s is pending.",
				bk.ID(), formatCents(bk.RefundAmountCents())),
			notification.TypeRefundPending)
	} else {
		s.notifier.Send(ctx, bk.UserID(),
			fmt.Sprintf("Your cancellation request for booking #%s has been approved. The booking is not eligible for a refund.", bk.ID()),
			notification.TypeRefundNotEligible)
	}
	s.publishCancelled(ctx, bk, now)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteRefund marks a pending refund as paid.
func (s *BookingService) CompleteRefund(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	now := s.now()
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := bk.CompleteRefund(now); err != nil {
			return err
		}
		bk.IncrementVersion()
		return s.repo.Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund completed",
		zap.String("booking_id", bk.ID().String()),
		zap.Int64("refund_amount_cents", bk.RefundAmountCents()),
	)

	s.notifier.Send(ctx, bk.UserID(),
		fmt.Sprintf("Your refund of %s for booking #%s has been completed.", formatCents(bk.RefundAmountCents()), bk.ID()),
		notification.TypeRefundCompleted)

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRefundCompleted, bk.ID().String(), events.RefundCompletedEvent{
		BookingID:         bk.ID(),
		UserID:            bk.UserID(),
		RefundAmountCents: bk.RefundAmountCents(),
		Currency:          domain.CurrencyUSD,
		OccurredAt:        now,
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetCancellation returns the cancellation record of a booking visible to
// the requester.
func (s *BookingService) GetCancellation(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool) (*CancellationDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !bk.IsOwnedBy(requesterID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	record, err := s.cancellations.FindByBookingID(ctx, bk.ID())
	if err != nil {
		return nil, err
	}
	result := toCancellationDTO(record)
	return &result, nil
}

// ListCancellations returns cancellation records, optionally filtered by
// status (admin).
func (s *BookingService) ListCancellations(ctx context.Context, status string, page, limit int) ([]CancellationDTO, int64, error) {
	var st cancellation.Status
	if status != "" {
		st = cancellation.Status(strings.ToUpper(status))
		if !st.IsValid() {
			return nil, 0, domain.NewValidationError(fmt.Sprintf("invalid cancellation status: %s", status))
		}
	}

	records, total, err := s.cancellations.List(ctx, st, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cancellations: %w", err)
	}

	dtos := make([]CancellationDTO, len(records))
	for i, r := range records {
		dtos[i] = toCancellationDTO(r)
	}
	return dtos, total, nil
}

// ensureNoCancellation rejects a second cancellation record for a booking.
func (s *BookingService) ensureNoCancellation(ctx context.Context, bk *bookingDomain.Booking) error {
	existing, err := s.cancellations.FindByBookingID(ctx, bk.ID())
	switch {
	case errors.Is(err, cancellation.ErrCancellationNotFound):
		return nil
	case err != nil:
		return err
	case existing.IsPending():
		return cancellation.ErrDuplicatePendingCancellation
	default:
		return cancellation.ErrAlreadyCancelled
	}
}

func (s *BookingService) publishCancelled(ctx context.Context, bk *bookingDomain.Booking, now time.Time) {
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), events.BookingCancelledEvent{
		BookingID:         bk.ID(),
		VehicleID:         bk.VehicleID(),
		UserID:            bk.UserID(),
		Reason:            bk.CancelReason(),
		RefundAmountCents: bk.RefundAmountCents(),
		RefundStatus:      string(bk.RefundStatus()),
		Currency:          domain.CurrencyUSD,
		OccurredAt:        now,
	})
}

func refundWording(status refund.Status) string {
	if status == refund.StatusPending {
		return "pending"
	}
	return "not eligible"
}

func toCancellationDTO(r *cancellation.Record) CancellationDTO {
	return CancellationDTO{
		ID:                r.ID(),
		BookingID:         r.BookingID(),
		RequesterID:       r.RequesterID(),
		Reason:            r.Reason(),
		BankDetails:       r.BankDetails(),
		Status:            string(r.Status()),
		RefundAmountCents: r.RefundAmountCents(),
		ApprovedAt:        r.ApprovedAt(),
		CreatedAt:         r.CreatedAt(),
	}
}
