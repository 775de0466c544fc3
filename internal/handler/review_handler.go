package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/easyride/service-booking/internal/application"
	"github.com/easyride/service-booking/internal/platform/auth"
	"github.com/easyride/service-booking/internal/platform/domain"
	"github.com/easyride/service-booking/internal/platform/middleware"
	"github.com/easyride/service-booking/internal/platform/response"
)

// ReviewService is the review gate the HTTP layer drives.
type ReviewService interface {
	AddReview(ctx context.Context, userID uuid.UUID, req application.AddReviewRequest) (*application.ReviewDTO, error)
	EditReview(ctx context.Context, reviewID, requesterID uuid.UUID, req application.EditReviewRequest) (*application.ReviewDTO, error)
	DeleteReview(ctx context.Context, reviewID, requesterID uuid.UUID, isAdmin bool) error
	ListVehicleReviews(ctx context.Context, vehicleID uuid.UUID, sort string, rating, page, limit int) (*domain.PaginatedResult[application.ReviewDTO], error)
	ListBookingReviews(ctx context.Context, bookingID uuid.UUID) ([]application.ReviewDTO, error)
	ListUserReviews(ctx context.Context, userID uuid.UUID) ([]application.ReviewDTO, error)
}

// ReviewHandler handles HTTP requests for vehicle reviews.
type ReviewHandler struct {
	service ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers review routes. Listing by vehicle or booking is
// public; writing requires a token.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	r.GET("/api/v1/vehicles/:id/reviews", h.ListVehicleReviews)
	r.GET("/api/v1/bookings/:id/reviews", h.ListBookingReviews)

	reviews := r.Group("/api/v1/reviews")
	reviews.Use(authMW)
	{
		reviews.POST("", h.AddReview)
		reviews.GET("/me", h.ListMyReviews)
		reviews.PUT("/:id", h.EditReview)
		reviews.DELETE("/:id", h.DeleteReview)
	}
}

// AddReview handles POST /api/v1/reviews.
func (h *ReviewHandler) AddReview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AddReview(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// EditReview handles PUT /api/v1/reviews/:id.
func (h *ReviewHandler) EditReview(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid review ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.EditReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.EditReview(c.Request.Context(), reviewID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteReview handles DELETE /api/v1/reviews/:id.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid review ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.DeleteReview(c.Request.Context(), reviewID, userID, middleware.IsAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": reviewID})
}

// ListMyReviews handles GET /api/v1/reviews/me.
func (h *ReviewHandler) ListMyReviews(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.ListUserReviews(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListVehicleReviews handles GET /api/v1/vehicles/:id/reviews?sort=&rating=.
func (h *ReviewHandler) ListVehicleReviews(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	rating := 0
	if raw := c.Query("rating"); raw != "" {
		rating, err = strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "rating must be a number")
			return
		}
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListVehicleReviews(c.Request.Context(), vehicleID, c.Query("sort"), rating, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListBookingReviews handles GET /api/v1/bookings/:id/reviews.
func (h *ReviewHandler) ListBookingReviews(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.ListBookingReviews(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
