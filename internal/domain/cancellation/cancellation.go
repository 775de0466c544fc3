package cancellation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easyride/service-booking/internal/platform/domain"
)

// Status is the state of a cancellation record.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
)

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved
}

var (
	ErrCancellationNotFound         = domain.New(domain.KindNotFound, "CANCELLATION_NOT_FOUND", "no cancellation request for this booking")
	ErrAlreadyProcessed             = domain.New(domain.KindInvalidState, "ALREADY_PROCESSED", "cancellation has already been processed")
	ErrDuplicatePendingCancellation = domain.New(domain.KindConflict, "DUPLICATE_PENDING_CANCELLATION", "a cancellation is already pending for this booking")
	ErrIncompleteBankDetails        = domain.New(domain.KindValidation, "INCOMPLETE_BANK_DETAILS", "bank details are incomplete")
	// ErrAlreadyCancelled matches domain.ErrInvalidState.
	ErrAlreadyCancelled = domain.ErrInvalidState.WithMessage("booking has already been cancelled")
)

// BankDetails is where an approved refund is paid.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
	IFSCCode      string `json:"ifsc_code"`
}

// Validate requires every field to be non-blank.
func (d BankDetails) Validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(d.BankName) == "" {
		missing = append(missing, "bank_name")
	}
	if strings.TrimSpace(d.AccountNumber) == "" {
		missing = append(missing, "account_number")
	}
	if strings.TrimSpace(d.AccountHolder) == "" {
		missing = append(missing, "account_holder")
	}
	if strings.TrimSpace(d.IFSCCode) == "" {
		missing = append(missing, "ifsc_code")
	}
	if len(missing) > 0 {
		return ErrIncompleteBankDetails.WithMessage("missing bank details: " + strings.Join(missing, ", "))
	}
	return nil
}

// IsZero reports whether no bank details were recorded.
func (d BankDetails) IsZero() bool {
	return d == BankDetails{}
}

// Record tracks one cancellation of a booking. A booking has at most one.
type Record struct {
	id                uuid.UUID
	bookingID         uuid.UUID
	requesterID       uuid.UUID
	reason            string
	bankDetails       BankDetails
	status            Status
	refundAmountCents int64
	approvedAt        *time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

// NewRequest creates a PENDING record for a user-initiated cancellation. The
// refund amount is provisional until approval.
func NewRequest(bookingID, requesterID uuid.UUID, reason string, bank BankDetails, refundAmountCents int64, now time.Time) (*Record, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.NewValidationError("cancellation reason is required")
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Record{
		id:                uuid.New(),
		bookingID:         bookingID,
		requesterID:       requesterID,
		reason:            strings.TrimSpace(reason),
		bankDetails:       bank,
		status:            StatusPending,
		refundAmountCents: refundAmountCents,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// NewDirect creates an already APPROVED record for a direct cancellation.
func NewDirect(bookingID, requesterID uuid.UUID, reason string, refundAmountCents int64, now time.Time) (*Record, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.NewValidationError("cancellation reason is required")
	}
	now = now.UTC()
	return &Record{
		id:                uuid.New(),
		bookingID:         bookingID,
		requesterID:       requesterID,
		reason:            strings.TrimSpace(reason),
		status:            StatusApproved,
		refundAmountCents: refundAmountCents,
		approvedAt:        &now,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// Reconstruct rebuilds a Record from persistence.
func Reconstruct(
	id, bookingID, requesterID uuid.UUID,
	reason string,
	bank BankDetails,
	status Status,
	refundAmountCents int64,
	approvedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Record {
	return &Record{
		id:                id,
		bookingID:         bookingID,
		requesterID:       requesterID,
		reason:            reason,
		bankDetails:       bank,
		status:            status,
		refundAmountCents: refundAmountCents,
		approvedAt:        approvedAt,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Getters.
func (r *Record) ID() uuid.UUID { return r.id }
func (r *Record) BookingID() uuid.UUID { return r.bookingID }
func (r *Record) RequesterID() uuid.UUID { return r.requesterID }
func (r *Record) Reason() string { return r.reason }
func (r *Record) BankDetails() BankDetails { return r.bankDetails }
func (r *Record) Status() Status { return r.status }
func (r *Record) RefundAmountCents() int64 { return r.refundAmountCents }
func (r *Record) ApprovedAt() *time.Time { return r.approvedAt }
func (r *Record) CreatedAt() time.Time { return r.createdAt }
func (r *Record) UpdatedAt() time.Time { return r.updatedAt }

// IsPending reports whether the record still awaits approval.
func (r *Record) IsPending() bool { return r.status == StatusPending }

// Approve finalizes a pending record with the refund computed at approval.
func (r *Record) Approve(refundAmountCents int64, now time.Time) error {
	if r.status != StatusPending {
		return ErrAlreadyProcessed
	}
	now = now.UTC()
	r.status = StatusApproved
	r.refundAmountCents = refundAmountCents
	r.approvedAt = &now
	r.updatedAt = now
	return nil
}
