package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/easyride/service-booking/internal/application"
	"github.com/easyride/service-booking/internal/platform/auth"
	"github.com/easyride/service-booking/internal/platform/domain"
	"github.com/easyride/service-booking/internal/platform/middleware"
	"github.com/easyride/service-booking/internal/platform/response"
)

// NotificationService is the user inbox.
type NotificationService interface {
	CreateNotification(ctx context.Context, req application.CreateNotificationRequest) (*application.NotificationDTO, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[application.NotificationDTO], error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	DeleteNotification(ctx context.Context, id, userID uuid.UUID) error
}

// NotificationHandler handles HTTP requests for user notifications.
type NotificationHandler struct {
	service NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterRoutes registers inbox routes and the admin send route.
func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	inbox := r.Group("/api/v1/notifications")
	inbox.Use(authMW)
	{
		inbox.GET("", h.List)
		inbox.PATCH("/:id/read", h.MarkRead)
		inbox.DELETE("/:id", h.Delete)
	}

	r.POST("/api/v1/admin/notifications", authMW, middleware.RequireRole(auth.RoleAdmin), h.Create)
}

// List handles GET /api/v1/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListNotifications(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// MarkRead handles PATCH /api/v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, userID, ok := notificationAndCaller(c)
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "read": true})
}

// Delete handles DELETE /api/v1/notifications/:id.
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, userID, ok := notificationAndCaller(c)
	if !ok {
		return
	}

	if err := h.service.DeleteNotification(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": id})
}

// Create handles POST /api/v1/admin/notifications.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req application.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateNotification(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

func notificationAndCaller(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification ID")
		return uuid.Nil, uuid.Nil, false
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	return id, userID, true
}
