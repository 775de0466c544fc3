package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	vehicleDomain "github.com/easyride/service-booking/internal/domain/vehicle"
	"github.com/easyride/service-booking/internal/platform/domain"
)

// CreateVehicleRequest is the request DTO for adding a vehicle to the fleet.
type CreateVehicleRequest struct {
	Name             string `json:"name" binding:"required"`
	Brand            string `json:"brand"`
	VehicleType      string `json:"vehicle_type"`
	Model            string `json:"model"`
	Year             int    `json:"year"`
	LicensePlate     string `json:"license_plate" binding:"required"`
	PricePerDayCents int64  `json:"price_per_day_cents" binding:"required,gt=0"`
}

// UpdatePriceRequest is the request DTO for changing a daily rate.
type UpdatePriceRequest struct {
	PricePerDayCents int64 `json:"price_per_day_cents" binding:"required,gt=0"`
}

// UpdateVehicleRequest edits descriptive fields; nil fields are unchanged.
type UpdateVehicleRequest struct {
	Name         *string `json:"name"`
	Brand        *string `json:"brand"`
	VehicleType  *string `json:"vehicle_type"`
	Model        *string `json:"model"`
	Year         *int    `json:"year"`
	LicensePlate *string `json:"license_plate"`
}

// VehicleFilter narrows the public catalogue listing.
type VehicleFilter struct {
	AvailableOnly bool
	Name          string
	Brand         string
	VehicleType   string
}

// VehicleDTO is the API response representation of a vehicle.
type VehicleDTO struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Brand            string    `json:"brand"`
	VehicleType      string    `json:"vehicle_type"`
	Model            string    `json:"model"`
	Year             int       `json:"year"`
	LicensePlate     string    `json:"license_plate"`
	PricePerDayCents int64     `json:"price_per_day_cents"`
	Currency         string    `json:"currency"`
	Availability     bool      `json:"availability"`
	Status           string    `json:"status"`
	TotalRating      int64     `json:"total_rating"`
	ReviewCount      int64     `json:"review_count"`
	AverageRating    float64   `json:"average_rating"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// VehicleService implements the vehicle catalogue use cases.
type VehicleService struct {
	repo   vehicleDomain.VehicleRepository
	logger *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(repo vehicleDomain.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{repo: repo, logger: logger}
}

// CreateVehicle adds an available vehicle (admin).
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*VehicleDTO, error) {
	v, err := vehicleDomain.NewVehicle(req.Name, req.Brand, req.VehicleType, req.Model, req.Year, req.LicensePlate, req.PricePerDayCents)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle created",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("license_plate", v.LicensePlate()),
	)

	result := toVehicleDTO(v)
	return &result, nil
}

// UpdateVehiclePrice changes a vehicle's daily rate (admin). Existing
// bookings are re-priced only when their dates are edited.
func (s *VehicleService) UpdateVehiclePrice(ctx context.Context, vehicleID uuid.UUID, req UpdatePriceRequest) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if err := v.ChangePrice(req.PricePerDayCents); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePrice(ctx, v.ID(), v.PricePerDayCents()); err != nil {
		return nil, err
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// UpdateVehicle edits a vehicle's descriptive fields (admin).
func (s *VehicleService) UpdateVehicle(ctx context.Context, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	d := v.Details()
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Brand != nil {
		d.Brand = *req.Brand
	}
	if req.VehicleType != nil {
		d.VehicleType = *req.VehicleType
	}
	if req.Model != nil {
		d.Model = *req.Model
	}
	if req.Year != nil {
		d.Year = *req.Year
	}
	if req.LicensePlate != nil {
		d.LicensePlate = *req.LicensePlate
	}
	if err := v.UpdateDetails(d); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDetails(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle updated", zap.String("vehicle_id", v.ID().String()))

	result := toVehicleDTO(v)
	return &result, nil
}

// DeleteVehicle removes a vehicle from the catalogue (admin). A vehicle held
// by an active booking cannot be removed.
func (s *VehicleService) DeleteVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	if err := s.repo.Delete(ctx, vehicleID); err != nil {
		return err
	}
	s.logger.Info("vehicle deleted", zap.String("vehicle_id", vehicleID.String()))
	return nil
}

// GetVehicle returns a single vehicle.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID uuid.UUID) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles returns a page of vehicles matching the filter.
func (s *VehicleService) ListVehicles(ctx context.Context, filter VehicleFilter, page, limit int) (*domain.PaginatedResult[VehicleDTO], error) {
	vehicles, total, err := s.repo.List(ctx, vehicleDomain.ListFilter{
		AvailableOnly: filter.AvailableOnly,
		Name:          filter.Name,
		Brand:         filter.Brand,
		VehicleType:   filter.VehicleType,
	}, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toVehicleDTO(v *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:               v.ID(),
		Name:             v.Name(),
		Brand:            v.Brand(),
		VehicleType:      v.VehicleType(),
		Model:            v.Model(),
		Year:             v.Year(),
		LicensePlate:     v.LicensePlate(),
		PricePerDayCents: v.PricePerDayCents(),
		Currency:         domain.CurrencyUSD,
		Availability:     v.IsAvailable(),
		Status:           string(v.Status()),
		TotalRating:      v.TotalRating(),
		ReviewCount:      v.ReviewCount(),
		AverageRating:    v.AverageRating(),
		CreatedAt:        v.CreatedAt(),
		UpdatedAt:        v.UpdatedAt(),
	}
}
