package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/easyride/service-booking/internal/domain/booking"
	"github.com/easyride/service-booking/internal/domain/refund"
	vehicleDomain "github.com/easyride/service-booking/internal/domain/vehicle"
	"github.com/easyride/service-booking/internal/platform/database"
	"github.com/easyride/service-booking/internal/platform/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VehicleID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	UserID            uuid.UUID  `gorm:"type:uuid;index;not null"`
	Name              string     `gorm:"not null;size:200"`
	PhoneNumber       string     `gorm:"not null;size:30"`
	Notes             string     `gorm:"size:1000"`
	Receipt           []byte     `gorm:"type:bytea"`
	PickUpDate        time.Time  `gorm:"not null"`
	ReturnDate        time.Time  `gorm:"not null"`
	NoOfDays          int        `gorm:"not null"`
	TotalPriceCents   int64      `gorm:"not null"`
	Status            string     `gorm:"not null;size:30;index"`
	RefundAmountCents int64      `gorm:"not null;default:0"`
	RefundStatus      string     `gorm:"not null;size:20;default:'NONE'"`
	CancelReason      string     `gorm:"size:500"`
	CancelledAt       *time.Time `gorm:""`
	CompletedAt       *time.Time `gorm:""`
	Version           int64      `gorm:"not null;default:1"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.ErrBookingNotFound.WithMessage(fmt.Sprintf("booking %s not found", id))
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves bookings for a specific user with pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&BookingModel{}).Where("user_id = ?", userID)
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
		return q
	}
	return r.list(query, page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&BookingModel{})
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
		return q
	}
	return r.list(query, page, limit)
}

func (r *GormBookingRepository) list(query func() *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := database.Conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking. The partial unique index on active bookings
// per vehicle surfaces as ErrVehicleUnavailable.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return vehicleDomain.ErrVehicleUnavailable
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called by the service, so the stored row is one behind.
	expectedVersion := bk.Version() - 1
	result := database.Conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":                model.Name,
			"phone_number":        model.PhoneNumber,
			"notes":               model.Notes,
			"pick_up_date":        model.PickUpDate,
			"return_date":         model.ReturnDate,
			"no_of_days":          model.NoOfDays,
			"total_price_cents":   model.TotalPriceCents,
			"status":              model.Status,
			"refund_amount_cents": model.RefundAmountCents,
			"refund_status":       model.RefundStatus,
			"cancel_reason":       model.CancelReason,
			"cancelled_at":        model.CancelledAt,
			"completed_at":        model.CompletedAt,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrConcurrentModification.WithMessage("booking was modified concurrently")
	}

	return nil
}

// Delete removes a booking permanently.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return bookingDomain.ErrBookingNotFound
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	period := bk.Period()
	return &BookingModel{
		ID:                bk.ID(),
		VehicleID:         bk.VehicleID(),
		UserID:            bk.UserID(),
		Name:              bk.Name(),
		PhoneNumber:       bk.PhoneNumber(),
		Notes:             bk.Notes(),
		Receipt:           bk.Receipt(),
		PickUpDate:        period.PickUp,
		ReturnDate:        period.Return,
		NoOfDays:          bk.NoOfDays(),
		TotalPriceCents:   bk.TotalPriceCents(),
		Status:            string(bk.Status()),
		RefundAmountCents: bk.RefundAmountCents(),
		RefundStatus:      string(bk.RefundStatus()),
		CancelReason:      bk.CancelReason(),
		CancelledAt:       bk.CancelledAt(),
		CompletedAt:       bk.CompletedAt(),
		Version:           bk.Version(),
		CreatedAt:         bk.CreatedAt(),
		UpdatedAt:         bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	refundStatus := refund.Status(m.RefundStatus)
	if !refundStatus.IsValid() {
		return nil, fmt.Errorf("invalid refund status: %s", m.RefundStatus)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.VehicleID,
		m.UserID,
		m.Name,
		m.PhoneNumber,
		m.Notes,
		m.Receipt,
		bookingDomain.RentalPeriod{PickUp: m.PickUpDate.UTC(), Return: m.ReturnDate.UTC()},
		m.NoOfDays,
		m.TotalPriceCents,
		status,
		m.RefundAmountCents,
		refundStatus,
		m.CancelReason,
		m.CancelledAt,
		m.CompletedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
