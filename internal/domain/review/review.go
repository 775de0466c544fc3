package review

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easyride/service-booking/internal/platform/domain"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrReviewNotFound     = domain.New(domain.KindNotFound, "REVIEW_NOT_FOUND", "review not found")
	ErrInvalidRating      = domain.New(domain.KindValidation, "INVALID_RATING", "rating must be between 1 and 5")
	ErrEmptyReviewText    = domain.New(domain.KindValidation, "EMPTY_REVIEW_TEXT", "review text cannot be empty")
	ErrNotOwner           = domain.New(domain.KindForbidden, "NOT_OWNER", "you can only change your own review")
	ErrBookingNotEligible = domain.New(domain.KindForbidden, "BOOKING_NOT_ELIGIBLE", "only users who have completed this booking can leave a review")
	ErrDuplicateReview    = domain.New(domain.KindConflict, "DUPLICATE_REVIEW", "this booking has already been reviewed")
)

// ValidateContent checks the rating range and that the text is not blank.
func ValidateContent(rating int, text string) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyReviewText
	}
	return nil
}

// Review is a user's rating of a vehicle for one completed booking.
type Review struct {
	id        uuid.UUID
	userID    uuid.UUID
	vehicleID uuid.UUID
	bookingID uuid.UUID
	rating    int
	text      string
	createdAt time.Time
	updatedAt time.Time
}

// NewReview creates a review after validating its content.
func NewReview(userID, vehicleID, bookingID uuid.UUID, rating int, text string, now time.Time) (*Review, error) {
	if err := ValidateContent(rating, text); err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Review{
		id:        uuid.New(),
		userID:    userID,
		vehicleID: vehicleID,
		bookingID: bookingID,
		rating:    rating,
		text:      strings.TrimSpace(text),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Review from persistence data (no validation).
func Reconstruct(id, userID, vehicleID, bookingID uuid.UUID, rating int, text string, createdAt, updatedAt time.Time) *Review {
	return &Review{
		id:        id,
		userID:    userID,
		vehicleID: vehicleID,
		bookingID: bookingID,
		rating:    rating,
		text:      text,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

func (r *Review) ID() uuid.UUID { return r.id }
func (r *Review) UserID() uuid.UUID { return r.userID }
func (r *Review) VehicleID() uuid.UUID { return r.vehicleID }
func (r *Review) BookingID() uuid.UUID { return r.bookingID }
func (r *Review) Rating() int { return r.rating }
func (r *Review) Text() string { return r.text }
func (r *Review) CreatedAt() time.Time { return r.createdAt }
func (r *Review) UpdatedAt() time.Time { return r.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the review was written by userID.
func (r *Review) IsOwnedBy(userID uuid.UUID) bool {
	return r.userID == userID
}

// Edit replaces rating and text and returns the rating delta to apply to the
// vehicle aggregate.
func (r *Review) Edit(rating int, text string, now time.Time) (int64, error) {
	if err := ValidateContent(rating, text); err != nil {
		return 0, err
	}
	delta := int64(rating - r.rating)
	r.rating = rating
	r.text = strings.TrimSpace(text)
	r.updatedAt = now.UTC()
	return delta, nil
}
