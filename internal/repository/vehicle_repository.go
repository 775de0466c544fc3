package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	vehicleDomain "github.com/easyride/service-booking/internal/domain/vehicle"
	"github.com/easyride/service-booking/internal/platform/database"
	"github.com/easyride/service-booking/internal/platform/domain"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"not null;size:200"`
	Brand            string    `gorm:"size:100"`
	VehicleType      string    `gorm:"size:50"`
	Model            string    `gorm:"size:100"`
	Year             int       `gorm:""`
	LicensePlate     string    `gorm:"uniqueIndex;not null;size:20"`
	PricePerDayCents int64     `gorm:"not null"`
	Availability     bool      `gorm:"not null;index"`
	Status           string    `gorm:"not null;size:20;default:'AVAILABLE'"`
	TotalRating      int64     `gorm:"not null;default:0"`
	ReviewCount      int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (VehicleModel) TableName() string {
	return "vehicles"
}

// GormVehicleRepository is the GORM-based implementation of VehicleRepository.
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository.
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID retrieves a vehicle by its unique identifier.
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vehicleDomain.ErrVehicleNotFound.WithMessage(fmt.Sprintf("vehicle %s not found", id))
		}
		return nil, fmt.Errorf("failed to find vehicle by ID: %w", err)
	}
	return toDomainVehicle(&model), nil
}

// List retrieves vehicles with pagination.
func (r *GormVehicleRepository) List(ctx context.Context, filter vehicleDomain.ListFilter, page, limit int) ([]*vehicleDomain.Vehicle, int64, error) {
	query := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&VehicleModel{})
		if filter.AvailableOnly {
			q = q.Where("availability = ?", true)
		}
		if filter.Name != "" {
			q = q.Where("name ILIKE ?", containsPattern(filter.Name))
		}
		if filter.Brand != "" {
			q = q.Where("brand ILIKE ?", containsPattern(filter.Brand))
		}
		if filter.VehicleType != "" {
			q = q.Where("vehicle_type ILIKE ?", containsPattern(filter.VehicleType))
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	var models []VehicleModel
	if err := query().
		Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}

	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i := range models {
		vehicles[i] = toDomainVehicle(&models[i])
	}
	return vehicles, total, nil
}

// Save persists a new vehicle.
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("license plate %s is already registered", v.LicensePlate()))
		}
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

// UpdatePrice persists a new daily rate.
func (r *GormVehicleRepository) UpdatePrice(ctx context.Context, id uuid.UUID, pricePerDayCents int64) error {
	result := database.Conn(ctx, r.db).
		Model(&VehicleModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"price_per_day_cents": pricePerDayCents,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update vehicle price: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return vehicleDomain.ErrVehicleNotFound
	}
	return nil
}

// UpdateDetails writes the descriptive columns. Availability, status and the
// rating aggregate are left to their own conditional writes.
func (r *GormVehicleRepository) UpdateDetails(ctx context.Context, v *vehicleDomain.Vehicle) error {
	result := database.Conn(ctx, r.db).
		Model(&VehicleModel{}).
		Where("id = ?", v.ID()).
		Updates(map[string]interface{}{
			"name":          v.Name(),
			"brand":         v.Brand(),
			"vehicle_type":  v.VehicleType(),
			"model":         v.Model(),
			"year":          v.Year(),
			"license_plate": v.LicensePlate(),
			"updated_at":    v.UpdatedAt(),
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("license plate %s is already registered", v.LicensePlate()))
		}
		return fmt.Errorf("failed to update vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return vehicleDomain.ErrVehicleNotFound
	}
	return nil
}

// Delete removes the vehicle only while no booking holds it.
func (r *GormVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).
		Where("id = ? AND availability = ?", id, true).
		Delete(&VehicleModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete vehicle: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return vehicleDomain.ErrVehicleUnavailable.WithMessage("vehicle is held by an active booking")
}

// Hold flips availability to false only if it is still true.
func (r *GormVehicleRepository) Hold(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).
		Model(&VehicleModel{}).
		Where("id = ? AND availability = ?", id, true).
		Updates(map[string]interface{}{
			"availability": false,
			"status":       string(vehicleDomain.StatusBooked),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to hold vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return vehicleDomain.ErrVehicleUnavailable
	}
	return nil
}

// Release flips availability back to true only if it is currently false.
func (r *GormVehicleRepository) Release(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).
		Model(&VehicleModel{}).
		Where("id = ? AND availability = ?", id, false).
		Updates(map[string]interface{}{
			"availability": true,
			"status":       string(vehicleDomain.StatusAvailable),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to release vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentModification.WithMessage("vehicle was released concurrently")
	}
	return nil
}

// AdjustRating adds the deltas to the stored aggregate in a single UPDATE.
func (r *GormVehicleRepository) AdjustRating(ctx context.Context, id uuid.UUID, ratingDelta, countDelta int64) error {
	result := database.Conn(ctx, r.db).
		Model(&VehicleModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_rating": gorm.Expr("total_rating + ?", ratingDelta),
			"review_count": gorm.Expr("review_count + ?", countDelta),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to adjust vehicle rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return vehicleDomain.ErrVehicleNotFound
	}
	return nil
}

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:               v.ID(),
		Name:             v.Name(),
		Brand:            v.Brand(),
		VehicleType:      v.VehicleType(),
		Model:            v.Model(),
		Year:             v.Year(),
		LicensePlate:     v.LicensePlate(),
		PricePerDayCents: v.PricePerDayCents(),
		Availability:     v.IsAvailable(),
		Status:           string(v.Status()),
		TotalRating:      v.TotalRating(),
		ReviewCount:      v.ReviewCount(),
		CreatedAt:        v.CreatedAt(),
		UpdatedAt:        v.UpdatedAt(),
	}
}

func toDomainVehicle(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		m.ID,
		m.Name,
		m.Brand,
		m.VehicleType,
		m.Model,
		m.Year,
		m.LicensePlate,
		m.PricePerDayCents,
		m.Availability,
		m.TotalRating,
		m.ReviewCount,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term anywhere.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}
