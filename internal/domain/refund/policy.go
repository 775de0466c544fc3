package refund

import "time"

// Status is the refund state recorded on a booking.
type Status string

const (
	StatusNone        Status = "NONE"
	StatusPending     Status = "PENDING"
	StatusNotEligible Status = "NOT_ELIGIBLE"
	StatusRefunded    Status = "REFUNDED"
)

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	switch s {
	case StatusNone, StatusPending, StatusNotEligible, StatusRefunded:
		return true
	}
	return false
}

const (
	DefaultWindow  = 48 * time.Hour
	DefaultPercent = 90
)

// Decision is the outcome of evaluating the policy for one cancellation.
type Decision struct {
	AmountCents int64
	Eligibility Status
}

// Policy decides how much of a paid amount is returned on cancellation.
// Cancelling within Window of the booking's creation refunds Percent of the
// paid amount; later cancellations refund nothing.
type Policy struct {
	Window  time.Duration
	Percent int64
}

// NewStandardPolicy returns the 2 day / 90% policy.
func NewStandardPolicy() Policy {
	return Policy{Window: DefaultWindow, Percent: DefaultPercent}
}

// Compute evaluates the policy at evaluatedAt. The boundary is inclusive:
// exactly Window after creation is still eligible.
func (p Policy) Compute(createdAt time.Time, paidCents int64, evaluatedAt time.Time) Decision {
	if evaluatedAt.Sub(createdAt) > p.Window {
		return Decision{AmountCents: 0, Eligibility: StatusNotEligible}
	}
	return Decision{
		AmountCents: percentOf(paidCents, p.Percent),
		Eligibility: StatusPending,
	}
}

// percentOf returns cents*percent/100 rounded half to even.
func percentOf(cents, percent int64) int64 {
	if cents <= 0 || percent <= 0 {
		return 0
	}
	num := cents * percent
	q, r := num/100, num%100
	if r > 50 || (r == 50 && q%2 == 1) {
		q++
	}
	return q
}
