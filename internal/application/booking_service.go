package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/easyride/service-booking/internal/domain/booking"
	"github.com/easyride/service-booking/internal/domain/cancellation"
	"github.com/easyride/service-booking/internal/domain/notification"
	"github.com/easyride/service-booking/internal/domain/refund"
	vehicleDomain "github.com/easyride/service-booking/internal/domain/vehicle"
	"github.com/easyride/service-booking/internal/platform/domain"
	"github.com/easyride/service-booking/internal/platform/kafka"
	"github.com/easyride/service-booking/internal/proto/events"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	VehicleID   uuid.UUID `json:"vehicle_id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	PickUpDate  time.Time `json:"pick_up_date" binding:"required"`
	ReturnDate  time.Time `json:"return_date" binding:"required"`
	PhoneNumber string    `json:"phone_number" binding:"required"`
	Notes       string    `json:"notes"`
	Receipt     []byte    `json:"receipt"`
}

// UpdateBookingRequest holds the editable fields of a PENDING booking. Nil
// fields are left unchanged.
type UpdateBookingRequest struct {
	PickUpDate  *time.Time `json:"pick_up_date"`
	ReturnDate  *time.Time `json:"return_date"`
	Name        *string    `json:"name"`
	PhoneNumber *string    `json:"phone_number"`
	Notes       *string    `json:"notes"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                uuid.UUID  `json:"id"`
	VehicleID         uuid.UUID  `json:"vehicle_id"`
	UserID            uuid.UUID  `json:"user_id"`
	Name              string     `json:"name"`
	PhoneNumber       string     `json:"phone_number"`
	Notes             string     `json:"notes,omitempty"`
	PickUpDate        time.Time  `json:"pick_up_date"`
	ReturnDate        time.Time  `json:"return_date"`
	NoOfDays          int        `json:"no_of_days"`
	TotalPriceCents   int64      `json:"total_price_cents"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	RefundAmountCents int64      `json:"refund_amount_cents"`
	RefundStatus      string     `json:"refund_status"`
	CancelReason      string     `json:"cancel_reason,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	HasReceipt        bool       `json:"has_receipt"`
	Version           int64      `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	tx            Transactor
	repo          bookingDomain.BookingRepository
	vehicles      vehicleDomain.VehicleRepository
	cancellations cancellation.Repository
	pricing       bookingDomain.PricingStrategy
	policy        refund.Policy
	notifier      Notifier
	producer      EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	tx Transactor,
	repo bookingDomain.BookingRepository,
	vehicles vehicleDomain.VehicleRepository,
	cancellations cancellation.Repository,
	pricing bookingDomain.PricingStrategy,
	policy refund.Policy,
	notifier Notifier,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:            tx,
		repo:          repo,
		vehicles:      vehicles,
		cancellations: cancellations,
		pricing:       pricing,
		policy:        policy,
		notifier:      notifier,
		producer:      producer,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking reserves an available vehicle for the given user.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	period, err := bookingDomain.NewRentalPeriod(req.PickUpDate, req.ReturnDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var bk *bookingDomain.Booking
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		v, err := s.vehicles.FindByID(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if !v.IsAvailable() {
			return vehicleDomain.ErrVehicleUnavailable
		}

		priceCents, err := s.pricing.Calculate(bookingDomain.PricingParams{
			Days:             period.Days(),
			PricePerDayCents: v.PricePerDayCents(),
		})
		if err != nil {
			return domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
		}

		bk, err = bookingDomain.NewBooking(userID, v.ID(), req.Name, req.PhoneNumber, req.Notes, req.Receipt, period, priceCents, now)
		if err != nil {
			return err
		}

		// The conditional hold is what serializes concurrent reservations.
		if err := s.vehicles.Hold(ctx, v.ID()); err != nil {
			return err
		}
		return s.repo.Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("vehicle_id", bk.VehicleID().String()),
		zap.Int64("total_price_cents", bk.TotalPriceCents()),
	)

	s.notifier.Send(ctx, bk.UserID(),
		fmt.Sprintf("Your booking #%s is confirmed from %s to %s. Total: %s.",
			bk.ID(), formatDate(period.PickUp), formatDate(period.Return), formatCents(bk.TotalPriceCents())),
		notification.TypeBookingCreated)

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), events.BookingCreatedEvent{
		BookingID:       bk.ID(),
		VehicleID:       bk.VehicleID(),
		UserID:          bk.UserID(),
		PickUpDate:      period.PickUp,
		ReturnDate:      period.Return,
		NoOfDays:        bk.NoOfDays(),
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        domain.CurrencyUSD,
		OccurredAt:      now,
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteBooking closes a PENDING booking and releases its vehicle.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	now := s.now()
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := bk.Complete(now); err != nil {
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

	s.logger.Info("booking completed", zap.String("booking_id", bk.ID().String()))

	s.notifier.Send(ctx, bk.UserID(),
		fmt.Sprintf("Your booking #%s has been completed. Thank you for riding with us!", bk.ID()),
		notification.TypeBookingCompleted)

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCompleted, bk.ID().String(), events.BookingCompletedEvent{
		BookingID:       bk.ID(),
		VehicleID:       bk.VehicleID(),
		UserID:          bk.UserID(),
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        domain.CurrencyUSD,
		OccurredAt:      now,
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBooking edits a PENDING booking. Changing either date re-prices the
// booking at the vehicle's current daily rate.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID, requesterID uuid.UUID, req UpdateBookingRequest) (*BookingDTO, error) {
	now := s.now()
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.IsOwnedBy(requesterID) {
			return domain.NewForbiddenError("booking does not belong to this user")
		}

		if req.PickUpDate != nil || req.ReturnDate != nil {
			current := bk.Period()
			pickUp, ret := current.PickUp, current.Return
			if req.PickUpDate != nil {
				pickUp = *req.PickUpDate
			}
			if req.ReturnDate != nil {
				ret = *req.ReturnDate
			}
			period, err := bookingDomain.NewRentalPeriod(pickUp, ret)
			if err != nil {
				return err
			}

			v, err := s.vehicles.FindByID(ctx, bk.VehicleID())
			if err != nil {
				return err
			}
			priceCents, err := s.pricing.Calculate(bookingDomain.PricingParams{
				Days:             period.Days(),
				PricePerDayCents: v.PricePerDayCents(),
			})
			if err != nil {
				return domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
			}
			if err := bk.Reschedule(period, priceCents, now); err != nil {
				return err
			}
		}

		if req.Name != nil || req.PhoneNumber != nil || req.Notes != nil {
			if err := bk.UpdateContact(req.Name, req.PhoneNumber, req.Notes, now); err != nil {
				return err
			}
		}

		bk.IncrementVersion()
		return s.repo.Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking visible to the requester.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !bk.IsOwnedBy(requesterID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetUserBookings retrieves paginated bookings for a user, optionally
// filtered by status.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, status string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	filter, err := parseBookingFilter(status)
	if err != nil {
		return nil, err
	}

	bookings, total, err := s.repo.FindByUserID(ctx, userID, filter, page, limit)
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, status string, page, limit int) ([]BookingDTO, int64, error) {
	filter, err := parseBookingFilter(status)
	if err != nil {
		return nil, 0, err
	}

	bookings, total, err := s.repo.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// DeleteBooking removes a COMPLETED or CANCELED booking (admin).
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		bk, err := s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.CanBeDeleted() {
			return domain.ErrInvalidState.WithMessage(
				fmt.Sprintf("cannot delete a %s booking; complete or cancel it first", bk.Status()))
		}
		return s.repo.Delete(ctx, bk.ID())
	})
}

// --- Helpers ---

func parseBookingFilter(status string) (bookingDomain.ListFilter, error) {
	if status == "" {
		return bookingDomain.ListFilter{}, nil
	}
	parsed, err := bookingDomain.ParseBookingStatus(strings.ToUpper(status))
	if err != nil {
		return bookingDomain.ListFilter{}, domain.NewValidationError(err.Error())
	}
	return bookingDomain.ListFilter{Status: parsed}, nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	period := bk.Period()
	return BookingDTO{
		ID:                bk.ID(),
		VehicleID:         bk.VehicleID(),
		UserID:            bk.UserID(),
		Name:              bk.Name(),
		PhoneNumber:       bk.PhoneNumber(),
		Notes:             bk.Notes(),
		PickUpDate:        period.PickUp,
		ReturnDate:        period.Return,
		NoOfDays:          bk.NoOfDays(),
		TotalPriceCents:   bk.TotalPriceCents(),
		Currency:          domain.CurrencyUSD,
		Status:            string(bk.Status()),
		RefundAmountCents: bk.RefundAmountCents(),
		RefundStatus:      string(bk.RefundStatus()),
		CancelReason:      bk.CancelReason(),
		CancelledAt:       bk.CancelledAt(),
		CompletedAt:       bk.CompletedAt(),
		HasReceipt:        len(bk.Receipt()) > 0,
		Version:           bk.Version(),
		CreatedAt:         bk.CreatedAt(),
		UpdatedAt:         bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = key

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// formatCents renders an amount in minor units as "USD 12.50".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s %s%d.%02d", domain.CurrencyUSD, sign, cents/100, cents%100)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

