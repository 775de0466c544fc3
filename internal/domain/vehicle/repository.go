package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows ListVehicles. Name, Brand and VehicleType are
// case-insensitive substring matches; empty values match everything.
type ListFilter struct {
	AvailableOnly bool
	Name          string
	Brand         string
	VehicleType   string
}

// VehicleRepository is the persistence contract for vehicles and the
// availability ledger.
type VehicleRepository interface {
	// FindByID retrieves a vehicle or returns ErrVehicleNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// List retrieves vehicles with pagination.
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*Vehicle, int64, error)

	// Save persists a new vehicle.
	Save(ctx context.Context, v *Vehicle) error

	// UpdatePrice persists a new daily rate.
	UpdatePrice(ctx context.Context, id uuid.UUID, pricePerDayCents int64) error

	// UpdateDetails persists the descriptive fields only.
	UpdateDetails(ctx context.Context, v *Vehicle) error

	// Delete removes a vehicle only while it is available. It returns
	// ErrVehicleUnavailable when a booking holds it and ErrVehicleNotFound
	// when it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Hold marks an available vehicle as booked. It returns
	// ErrVehicleUnavailable when the vehicle is not available at write time.
	Hold(ctx context.Context, id uuid.UUID) error

	// Release marks a booked vehicle as available again.
	Release(ctx context.Context, id uuid.UUID) error

	// AdjustRating adds the deltas to the rating aggregate in one statement.
	AdjustRating(ctx context.Context, id uuid.UUID, ratingDelta, countDelta int64) error
}
