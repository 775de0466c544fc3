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

// BookingService is the booking lifecycle the HTTP layer drives.
type BookingService interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, status string, page, limit int) (*domain.PaginatedResult[application.BookingDTO], error)
	GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool) (*application.BookingDTO, error)
	UpdateBooking(ctx context.Context, bookingID, requesterID uuid.UUID, req application.UpdateBookingRequest) (*application.BookingDTO, error)
	CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*application.BookingDTO, error)
	CancelBooking(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool, reason string) (*application.BookingDTO, error)
	RequestCancellation(ctx context.Context, bookingID, requesterID uuid.UUID, req application.CancellationRequest) (*application.CancellationDTO, error)
	ApproveCancellation(ctx context.Context, bookingID uuid.UUID) (*application.BookingDTO, error)
	CompleteRefund(ctx context.Context, bookingID uuid.UUID) (*application.BookingDTO, error)
	GetCancellation(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool) (*application.CancellationDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.PUT("/:id/complete", adminRole, h.CompleteBooking)
		bookings.PUT("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/cancel-request", h.RequestCancellation)
		bookings.POST("/:id/cancel-approve", adminRole, h.ApproveCancellation)
		bookings.POST("/:id/refund-complete", adminRole, h.CompleteRefund)
		bookings.GET("/:id/cancellation", h.GetCancellation)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings?status=.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.GetUserBookings(c.Request.Context(), userID, c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, userID, ok := bookingAndCaller(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID, middleware.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateBooking handles PUT /api/v1/bookings/:id.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	bookingID, userID, ok := bookingAndCaller(c)
	if !ok {
		return
	}

	var req application.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBooking(c.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteBooking handles PUT /api/v1/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.CompleteBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles PUT /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, userID, ok := bookingAndCaller(c)
	if !ok {
		return
	}

	var req application.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID, middleware.IsAdmin(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RequestCancellation handles POST /api/v1/bookings/:id/cancel-request.
func (h *BookingHandler) RequestCancellation(c *gin.Context) {
	bookingID, userID, ok := bookingAndCaller(c)
	if !ok {
		return
	}

	var req application.CancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RequestCancellation(c.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ApproveCancellation handles POST /api/v1/bookings/:id/cancel-approve.
func (h *BookingHandler) ApproveCancellation(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.ApproveCancellation(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteRefund handles POST /api/v1/bookings/:id/refund-complete.
func (h *BookingHandler) CompleteRefund(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.CompleteRefund(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetCancellation handles GET /api/v1/bookings/:id/cancellation.
func (h *BookingHandler) GetCancellation(c *gin.Context) {
	bookingID, userID, ok := bookingAndCaller(c)
	if !ok {
		return
	}

	result, err := h.service.GetCancellation(c.Request.Context(), bookingID, userID, middleware.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// bookingAndCaller parses the :id param and the authenticated user, writing
// the error response itself when either is missing.
func bookingAndCaller(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, uuid.Nil, false
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	return bookingID, userID, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
