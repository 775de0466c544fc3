package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reviewDomain "github.com/easyride/service-booking/internal/domain/review"
	"github.com/easyride/service-booking/internal/platform/database"
	"github.com/easyride/service-booking/internal/platform/domain"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_booking"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_booking;index"`
	Rating    int       `gorm:"type:smallint;not null"`
	Text      string    `gorm:"column:review_text;type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (ReviewModel) TableName() string { return "reviews" }

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reviewDomain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return toReviewDomain(&model), nil
}

func (r *GormReviewRepository) Save(ctx context.Context, rv *reviewDomain.Review) error {
	model := toReviewModel(rv)
	if err := database.Conn(ctx, r.db).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return reviewDomain.ErrDuplicateReview
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

func (r *GormReviewRepository) Update(ctx context.Context, rv *reviewDomain.Review, previousRating int) error {
	result := database.Conn(ctx, r.db).
		Model(&ReviewModel{}).
		Where("id = ? AND rating = ?", rv.ID(), previousRating).
		Updates(map[string]interface{}{
			"rating":      rv.Rating(),
			"review_text": rv.Text(),
			"updated_at":  rv.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentModification.WithMessage("review was modified concurrently")
	}
	return nil
}

func (r *GormReviewRepository) Delete(ctx context.Context, rv *reviewDomain.Review) error {
	result := database.Conn(ctx, r.db).
		Where("id = ? AND rating = ?", rv.ID(), rv.Rating()).
		Delete(&ReviewModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentModification.WithMessage("review was modified concurrently")
	}
	return nil
}

// ListByVehicle returns a page of a vehicle's reviews, optionally filtered
// to one star rating.
func (r *GormReviewRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID, filter reviewDomain.ListFilter, page, limit int) ([]*reviewDomain.Review, int64, error) {
	query := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&ReviewModel{}).Where("vehicle_id = ?", vehicleID)
		if filter.Rating > 0 {
			q = q.Where("rating = ?", filter.Rating)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	order := "created_at DESC"
	switch filter.Sort {
	case reviewDomain.SortHighest:
		order = "rating DESC, created_at DESC"
	case reviewDomain.SortLowest:
		order = "rating ASC, created_at DESC"
	}

	var models []ReviewModel
	if err := query().Order(order).Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return toReviewDomains(models), total, nil
}

func (r *GormReviewRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := database.Conn(ctx, r.db).Where("booking_id = ?", bookingID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list booking reviews: %w", err)
	}
	return toReviewDomains(models), nil
}

func (r *GormReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := database.Conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list user reviews: %w", err)
	}
	return toReviewDomains(models), nil
}

func toReviewModel(rv *reviewDomain.Review) ReviewModel {
	return ReviewModel{
		ID:        rv.ID(),
		UserID:    rv.UserID(),
		VehicleID: rv.VehicleID(),
		BookingID: rv.BookingID(),
		Rating:    rv.Rating(),
		Text:      rv.Text(),
		CreatedAt: rv.CreatedAt(),
		UpdatedAt: rv.UpdatedAt(),
	}
}

func toReviewDomain(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(m.ID, m.UserID, m.VehicleID, m.BookingID, m.Rating, m.Text, m.CreatedAt, m.UpdatedAt)
}

func toReviewDomains(models []ReviewModel) []*reviewDomain.Review {
	reviews := make([]*reviewDomain.Review, len(models))
	for i := range models {
		reviews[i] = toReviewDomain(&models[i])
	}
	return reviews
}
