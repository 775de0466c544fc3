package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/easyride/service-booking/internal/domain/booking"
	reviewDomain "github.com/easyride/service-booking/internal/domain/review"
	vehicleDomain "github.com/easyride/service-booking/internal/domain/vehicle"
	"github.com/easyride/service-booking/internal/platform/domain"
)

// AddReviewRequest is the request DTO for reviewing a completed booking.
type AddReviewRequest struct {
	VehicleID  uuid.UUID `json:"vehicle_id" binding:"required"`
	BookingID  uuid.UUID `json:"booking_id" binding:"required"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
}

// EditReviewRequest is the request DTO for editing a review.
type EditReviewRequest struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// ReviewDTO is the API response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReviewService implements the review gate and keeps each vehicle's rating
// aggregate in step with its reviews.
type ReviewService struct {
	tx       Transactor
	reviews  reviewDomain.ReviewRepository
	bookings bookingDomain.BookingRepository
	vehicles vehicleDomain.VehicleRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	tx Transactor,
	reviews reviewDomain.ReviewRepository,
	bookings bookingDomain.BookingRepository,
	vehicles vehicleDomain.VehicleRepository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		tx:       tx,
		reviews:  reviews,
		bookings: bookings,
		vehicles: vehicles,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddReview records a review for a booking the user has completed.
func (s *ReviewService) AddReview(ctx context.Context, userID uuid.UUID, req AddReviewRequest) (*ReviewDTO, error) {
	if err := reviewDomain.ValidateContent(req.Rating, req.ReviewText); err != nil {
		return nil, err
	}

	var rv *reviewDomain.Review
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		bk, err := s.bookings.FindByID(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if !bk.IsOwnedBy(userID) || bk.VehicleID() != req.VehicleID || bk.Status() != bookingDomain.StatusCompleted {
			return reviewDomain.ErrBookingNotEligible
		}

		rv, err = reviewDomain.NewReview(userID, bk.VehicleID(), bk.ID(), req.Rating, req.ReviewText, s.now())
		if err != nil {
			return err
		}
		if err := s.reviews.Save(ctx, rv); err != nil {
			return err
		}
		return s.vehicles.AdjustRating(ctx, rv.VehicleID(), int64(rv.Rating()), 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review added",
		zap.String("review_id", rv.ID().String()),
		zap.String("vehicle_id", rv.VehicleID().String()),
		zap.Int("rating", rv.Rating()),
	)

	result := toReviewDTO(rv)
	return &result, nil
}

// EditReview changes the rating and text of the requester's own review.
func (s *ReviewService) EditReview(ctx context.Context, reviewID, requesterID uuid.UUID, req EditReviewRequest) (*ReviewDTO, error) {
	if err := reviewDomain.ValidateContent(req.Rating, req.ReviewText); err != nil {
		return nil, err
	}

	var rv *reviewDomain.Review
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		rv, err = s.reviews.FindByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if !rv.IsOwnedBy(requesterID) {
			return reviewDomain.ErrNotOwner
		}

		previous := rv.Rating()
		delta, err := rv.Edit(req.Rating, req.ReviewText, s.now())
		if err != nil {
			return err
		}
		if err := s.reviews.Update(ctx, rv, previous); err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		return s.vehicles.AdjustRating(ctx, rv.VehicleID(), delta, 0)
	})
	if err != nil {
		return nil, err
	}

	result := toReviewDTO(rv)
	return &result, nil
}

// DeleteReview removes a review and reverses its contribution to the
// vehicle's rating. Owners and admins may delete.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, requesterID uuid.UUID, isAdmin bool) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rv, err := s.reviews.FindByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if !isAdmin && !rv.IsOwnedBy(requesterID) {
			return reviewDomain.ErrNotOwner
		}
		if err := s.reviews.Delete(ctx, rv); err != nil {
			return err
		}
		return s.vehicles.AdjustRating(ctx, rv.VehicleID(), -int64(rv.Rating()), -1)
	})
}

// ListVehicleReviews returns a page of a vehicle's reviews.
func (s *ReviewService) ListVehicleReviews(ctx context.Context, vehicleID uuid.UUID, sort string, rating, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	if rating != 0 && (rating < reviewDomain.MinRating || rating > reviewDomain.MaxRating) {
		return nil, reviewDomain.ErrInvalidRating
	}
	if _, err := s.vehicles.FindByID(ctx, vehicleID); err != nil {
		return nil, err
	}

	filter := reviewDomain.ListFilter{Sort: reviewDomain.ParseSortOrder(sort), Rating: rating}
	reviews, total, err := s.reviews.ListByVehicle(ctx, vehicleID, filter, page, limit)
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(toReviewDTOs(reviews), total, page, limit)
	return &result, nil
}

// ListBookingReviews returns the reviews left for a booking.
func (s *ReviewService) ListBookingReviews(ctx context.Context, bookingID uuid.UUID) ([]ReviewDTO, error) {
	reviews, err := s.reviews.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return toReviewDTOs(reviews), nil
}

// ListUserReviews returns the reviews written by a user.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID) ([]ReviewDTO, error) {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toReviewDTOs(reviews), nil
}

func toReviewDTO(rv *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
		ID:         rv.ID(),
		UserID:     rv.UserID(),
		VehicleID:  rv.VehicleID(),
		BookingID:  rv.BookingID(),
		Rating:     rv.Rating(),
		ReviewText: rv.Text(),
		CreatedAt:  rv.CreatedAt(),
		UpdatedAt:  rv.UpdatedAt(),
	}
}

func toReviewDTOs(reviews []*reviewDomain.Review) []ReviewDTO {
	dtos := make([]ReviewDTO, len(reviews))
	for i, rv := range reviews {
		dtos[i] = toReviewDTO(rv)
	}
	return dtos
}
