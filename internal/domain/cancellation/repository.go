package cancellation

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for cancellation records.
type Repository interface {
	// Save inserts a record. A second record for the same booking fails with
	// ErrDuplicatePendingCancellation while the stored one is PENDING and with
	// ErrAlreadyCancelled once it is APPROVED.
	Save(ctx context.Context, record *Record) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Record, error)
	// MarkApproved writes an approval only if the stored record is still
	// PENDING, returning ErrAlreadyProcessed otherwise.
	MarkApproved(ctx context.Context, record *Record) error
	List(ctx context.Context, status Status, page, limit int) ([]*Record, int64, error)
}
