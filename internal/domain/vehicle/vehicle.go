package vehicle

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easyride/service-booking/internal/platform/domain"
)

// Status is the display status kept in lock-step with availability.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusBooked    Status = "BOOKED"
)

// StatusFor returns the display status matching an availability flag.
func StatusFor(available bool) Status {
	if available {
		return StatusAvailable
	}
	return StatusBooked
}

var (
	ErrVehicleNotFound    = domain.New(domain.KindNotFound, "VEHICLE_NOT_FOUND", "vehicle not found")
	ErrVehicleUnavailable = domain.New(domain.KindConflict, "VEHICLE_UNAVAILABLE", "vehicle is already booked")
)

// Vehicle is a rentable vehicle. Availability and the rating aggregate are
// owned by the booking and review workflows and are never set directly.
type Vehicle struct {
	id               uuid.UUID
	name             string
	brand            string
	vehicleType      string
	model            string
	year             int
	licensePlate     string
	pricePerDayCents int64
	available        bool
	totalRating      int64
	reviewCount      int64
	createdAt        time.Time
	updatedAt        time.Time
}

// NewVehicle creates an available vehicle.
func NewVehicle(name, brand, vehicleType, model string, year int, licensePlate string, pricePerDayCents int64) (*Vehicle, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("vehicle name is required")
	}
	if strings.TrimSpace(licensePlate) == "" {
		return nil, domain.NewValidationError("license plate is required")
	}
	if pricePerDayCents <= 0 {
		return nil, domain.NewValidationError("price per day must be positive")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:               uuid.New(),
		name:             name,
		brand:            brand,
		vehicleType:      vehicleType,
		model:            model,
		year:             year,
		licensePlate:     strings.ToUpper(strings.TrimSpace(licensePlate)),
		pricePerDayCents: pricePerDayCents,
		available:        true,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name, brand, vehicleType, model string,
	year int,
	licensePlate string,
	pricePerDayCents int64,
	available bool,
	totalRating, reviewCount int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:               id,
		name:             name,
		brand:            brand,
		vehicleType:      vehicleType,
		model:            model,
		year:             year,
		licensePlate:     licensePlate,
		pricePerDayCents: pricePerDayCents,
		available:        available,
		totalRating:      totalRating,
		reviewCount:      reviewCount,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (v *Vehicle) ID() uuid.UUID { return v.id }
func (v *Vehicle) Name() string { return v.name }
func (v *Vehicle) Brand() string { return v.brand }
func (v *Vehicle) VehicleType() string { return v.vehicleType }
func (v *Vehicle) Model() string { return v.model }
func (v *Vehicle) Year() int { return v.year }
func (v *Vehicle) LicensePlate() string { return v.licensePlate }
func (v *Vehicle) PricePerDayCents() int64 { return v.pricePerDayCents }
func (v *Vehicle) IsAvailable() bool { return v.available }
func (v *Vehicle) Status() Status { return StatusFor(v.available) }
func (v *Vehicle) TotalRating() int64 { return v.totalRating }
func (v *Vehicle) ReviewCount() int64 { return v.reviewCount }
func (v *Vehicle) CreatedAt() time.Time { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time { return v.updatedAt }

// AverageRating returns totalRating / reviewCount, or 0 with no reviews.
func (v *Vehicle) AverageRating() float64 {
	if v.reviewCount == 0 {
		return 0
	}
	return float64(v.totalRating) / float64(v.reviewCount)
}

// ChangePrice sets a new daily rate. Existing bookings keep their price until
// their dates are edited.
func (v *Vehicle) ChangePrice(pricePerDayCents int64) error {
	if pricePerDayCents <= 0 {
		return domain.NewValidationError("price per day must be positive")
	}
	v.pricePerDayCents = pricePerDayCents
	v.updatedAt = time.Now().UTC()
	return nil
}

// Details are the descriptive fields an admin may edit.
type Details struct {
	Name         string
	Brand        string
	VehicleType  string
	Model        string
	Year         int
	LicensePlate string
}

// Details returns the current descriptive fields.
func (v *Vehicle) Details() Details {
	return Details{
		Name:         v.name,
		Brand:        v.brand,
		VehicleType:  v.vehicleType,
		Model:        v.model,
		Year:         v.year,
		LicensePlate: v.licensePlate,
	}
}

// UpdateDetails replaces the descriptive fields. Price, availability and the
// rating aggregate are not touched.
func (v *Vehicle) UpdateDetails(d Details) error {
	if strings.TrimSpace(d.Name) == "" {
		return domain.NewValidationError("vehicle name is required")
	}
	if strings.TrimSpace(d.LicensePlate) == "" {
		return domain.NewValidationError("license plate is required")
	}
	v.name = d.Name
	v.brand = d.Brand
	v.vehicleType = d.VehicleType
	v.model = d.Model
	v.year = d.Year
	v.licensePlate = strings.ToUpper(strings.TrimSpace(d.LicensePlate))
	v.updatedAt = time.Now().UTC()
	return nil
}
