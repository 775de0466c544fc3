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

// VehicleService is the vehicle catalogue.
type VehicleService interface {
	CreateVehicle(ctx context.Context, req application.CreateVehicleRequest) (*application.VehicleDTO, error)
	UpdateVehiclePrice(ctx context.Context, vehicleID uuid.UUID, req application.UpdatePriceRequest) (*application.VehicleDTO, error)
	UpdateVehicle(ctx context.Context, vehicleID uuid.UUID, req application.UpdateVehicleRequest) (*application.VehicleDTO, error)
	DeleteVehicle(ctx context.Context, vehicleID uuid.UUID) error
	GetVehicle(ctx context.Context, vehicleID uuid.UUID) (*application.VehicleDTO, error)
	ListVehicles(ctx context.Context, filter application.VehicleFilter, page, limit int) (*domain.PaginatedResult[application.VehicleDTO], error)
}

// VehicleHandler handles HTTP requests for the vehicle catalogue.
type VehicleHandler struct {
	service VehicleService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(service VehicleService) *VehicleHandler {
	return &VehicleHandler{service: service}
}

// RegisterRoutes registers public catalogue routes and admin fleet routes.
func (h *VehicleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	vehicles := r.Group("/api/v1/vehicles")
	{
		vehicles.GET("", h.ListVehicles)
		vehicles.GET("/:id", h.GetVehicle)
	}

	admin := r.Group("/api/v1/admin/vehicles")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("", h.CreateVehicle)
		admin.PUT("/:id", h.UpdateVehicle)
		admin.PUT("/:id/price", h.UpdatePrice)
		admin.DELETE("/:id", h.DeleteVehicle)
	}
}

// ListVehicles handles GET /api/v1/vehicles?available=&name=&brand=&vehicle_type=.
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	availableOnly, _ := strconv.ParseBool(c.DefaultQuery("available", "false"))
	filter := application.VehicleFilter{
		AvailableOnly: availableOnly,
		Name:          c.Query("name"),
		Brand:         c.Query("brand"),
		VehicleType:   c.Query("vehicle_type"),
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListVehicles(c.Request.Context(), filter, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetVehicle handles GET /api/v1/vehicles/:id.
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	result, err := h.service.GetVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateVehicle handles POST /api/v1/admin/vehicles.
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req application.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdatePrice handles PUT /api/v1/admin/vehicles/:id/price.
func (h *VehicleHandler) UpdatePrice(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	var req application.UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateVehiclePrice(c.Request.Context(), vehicleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateVehicle handles PUT /api/v1/admin/vehicles/:id.
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	var req application.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateVehicle(c.Request.Context(), vehicleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteVehicle handles DELETE /api/v1/admin/vehicles/:id.
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	if err := h.service.DeleteVehicle(c.Request.Context(), vehicleID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": vehicleID})
}
