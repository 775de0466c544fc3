package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	cancellationDomain "github.com/easyride/service-booking/internal/domain/cancellation"
	"github.com/easyride/service-booking/internal/platform/database"
)

// CancellationModel is the GORM model for the cancellations table.
type CancellationModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	RequesterID       uuid.UUID  `gorm:"type:uuid;not null"`
	Reason            string     `gorm:"type:text;not null"`
	BankName          string     `gorm:"size:100"`
	AccountNumber     string     `gorm:"size:50"`
	AccountHolder     string     `gorm:"size:200"`
	IFSCCode          string     `gorm:"column:ifsc_code;size:20"`
	Status            string     `gorm:"type:varchar(20);not null;index"`
	RefundAmountCents int64      `gorm:"not null"`
	ApprovedAt        *time.Time `gorm:""`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (CancellationModel) TableName() string { return "cancellations" }

// GormCancellationRepository implements cancellation.Repository using GORM.
type GormCancellationRepository struct {
	db *gorm.DB
}

// NewGormCancellationRepository creates a new GormCancellationRepository.
func NewGormCancellationRepository(db *gorm.DB) *GormCancellationRepository {
	return &GormCancellationRepository{db: db}
}

// Save persists a new cancellation record. A conflicting insert is skipped
// rather than failed so the transaction stays usable for reading the record
// that won.
func (r *GormCancellationRepository) Save(ctx context.Context, rec *cancellationDomain.Record) error {
	model := toCancellationModel(rec)
	result := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "booking_id"}}, DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to save cancellation: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	existing, err := r.FindByBookingID(ctx, rec.BookingID())
	if err != nil {
		return err
	}
	if existing.IsPending() {
		return cancellationDomain.ErrDuplicatePendingCancellation
	}
	return cancellationDomain.ErrAlreadyCancelled
}

// FindByBookingID returns the cancellation record of a booking.
func (r *GormCancellationRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*cancellationDomain.Record, error) {
	var model CancellationModel
	if err := database.Conn(ctx, r.db).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cancellationDomain.ErrCancellationNotFound
		}
		return nil, fmt.Errorf("failed to find cancellation: %w", err)
	}
	return toCancellationDomain(&model), nil
}

// MarkApproved writes the approval only while the stored row is still PENDING.
func (r *GormCancellationRepository) MarkApproved(ctx context.Context, rec *cancellationDomain.Record) error {
	result := database.Conn(ctx, r.db).
		Model(&CancellationModel{}).
		Where("id = ? AND status = ?", rec.ID(), string(cancellationDomain.StatusPending)).
		Updates(map[string]interface{}{
			"status":              string(rec.Status()),
			"refund_amount_cents": rec.RefundAmountCents(),
			"approved_at":         rec.ApprovedAt(),
			"updated_at":          rec.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to approve cancellation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return cancellationDomain.ErrAlreadyProcessed
	}
	return nil
}

// List returns cancellation records, newest first. An empty status matches all.
func (r *GormCancellationRepository) List(ctx context.Context, status cancellationDomain.Status, page, limit int) ([]*cancellationDomain.Record, int64, error) {
	query := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&CancellationModel{})
		if status != "" {
			q = q.Where("status = ?", string(status))
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cancellations: %w", err)
	}

	var models []CancellationModel
	if err := query().Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list cancellations: %w", err)
	}

	records := make([]*cancellationDomain.Record, len(models))
	for i := range models {
		records[i] = toCancellationDomain(&models[i])
	}
	return records, total, nil
}

func toCancellationModel(rec *cancellationDomain.Record) CancellationModel {
	bank := rec.BankDetails()
	return CancellationModel{
		ID:                rec.ID(),
		BookingID:         rec.BookingID(),
		RequesterID:       rec.RequesterID(),
		Reason:            rec.Reason(),
		BankName:          bank.BankName,
		AccountNumber:     bank.AccountNumber,
		AccountHolder:     bank.AccountHolder,
		IFSCCode:          bank.IFSCCode,
		Status:            string(rec.Status()),
		RefundAmountCents: rec.RefundAmountCents(),
		ApprovedAt:        rec.ApprovedAt(),
		CreatedAt:         rec.CreatedAt(),
		UpdatedAt:         rec.UpdatedAt(),
	}
}

func toCancellationDomain(m *CancellationModel) *cancellationDomain.Record {
	return cancellationDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.RequesterID,
		m.Reason,
		cancellationDomain.BankDetails{
			BankName:      m.BankName,
			AccountNumber: m.AccountNumber,
			AccountHolder: m.AccountHolder,
			IFSCCode:      m.IFSCCode,
		},
		cancellationDomain.Status(m.Status),
		m.RefundAmountCents,
		m.ApprovedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
