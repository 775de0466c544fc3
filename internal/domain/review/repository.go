package review

import (
	"context"

	"github.com/google/uuid"
)

// SortOrder selects the ordering of vehicle review listings.
type SortOrder string

const (
	SortLatest  SortOrder = "latest"
	SortHighest SortOrder = "highest"
	SortLowest  SortOrder = "lowest"
)

// ParseSortOrder maps a query value to a SortOrder, defaulting to latest.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortHighest:
		return SortHighest
	case SortLowest:
		return SortLowest
	}
	return SortLatest
}

// ListFilter narrows a vehicle's review listing. Rating 0 matches all.
type ListFilter struct {
	Sort   SortOrder
	Rating int
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	// Save inserts a review; a second review for the same user and booking
	// fails with ErrDuplicateReview.
	Save(ctx context.Context, review *Review) error
	// Update writes rating and text only while the stored rating still equals
	// previousRating. Delete removes the review only while the stored rating
	// equals review.Rating(). Both fail with domain.ErrConcurrentModification
	// otherwise, so the vehicle aggregate is adjusted at most once per change.
	Update(ctx context.Context, review *Review, previousRating int) error
	Delete(ctx context.Context, review *Review) error
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID, filter ListFilter, page, limit int) ([]*Review, int64, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Review, error)
}
