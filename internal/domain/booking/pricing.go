package booking

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// RentalPeriod is the validated pick-up/return window of a booking.
type RentalPeriod struct {
	PickUp time.Time
	Return time.Time
}

// NewRentalPeriod validates that the return date is after the pick-up date.
func NewRentalPeriod(pickUp, ret time.Time) (RentalPeriod, error) {
	if pickUp.IsZero() || ret.IsZero() {
		return RentalPeriod{}, ErrInvalidDateRange.WithMessage("pick-up and return dates are required")
	}
	if !ret.After(pickUp) {
		return RentalPeriod{}, ErrInvalidDateRange.WithMessage("return date must be after pick-up date")
	}
	return RentalPeriod{PickUp: pickUp.UTC(), Return: ret.UTC()}, nil
}

// Days returns the number of whole days billed, rounding partial days up.
func (p RentalPeriod) Days() int {
	span := p.Return.Sub(p.PickUp)
	days := int(span / day)
	if span%day != 0 {
		days++
	}
	return days
}

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price in cents for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	Days             int
	PricePerDayCents int64
}

// DailyRatePricingStrategy charges the vehicle's daily rate per billed day.
type DailyRatePricingStrategy struct{}

// NewDailyRatePricingStrategy creates a new DailyRatePricingStrategy.
func NewDailyRatePricingStrategy() *DailyRatePricingStrategy {
	return &DailyRatePricingStrategy{}
}

// Calculate computes days × daily rate.
func (s *DailyRatePricingStrategy) Calculate(params PricingParams) (int64, error) {
	if params.Days <= 0 {
		return 0, fmt.Errorf("rental must span at least one day, got %d", params.Days)
	}
	if params.PricePerDayCents <= 0 {
		return 0, fmt.Errorf("daily rate must be positive, got %d", params.PricePerDayCents)
	}
	return int64(params.Days) * params.PricePerDayCents, nil
}
