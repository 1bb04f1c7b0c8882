package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/response"
	"github.com/nekogravitycat/parts-market-backend/internal/vehicle"
)

type Handler struct {
	service vehicle.Service
}

func NewHandler(service vehicle.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListBrands(c *gin.Context) {
	brands, err := h.service.ListBrands(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BrandResponse, len(brands))
	for i, b := range brands {
		items[i] = NewBrandResponse(b)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) ListModels(c *gin.Context) {
	var req ListModelsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	models, err := h.service.ListModels(c.Request.Context(), req.BrandID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ModelResponse, len(models))
	for i, m := range models {
		items[i] = NewModelResponse(m)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) CreateBrand(c *gin.Context) {
	var body CreateBrandRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.CreateBrand(c.Request.Context(), body.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBrandResponse(b))
}

func (h *Handler) CreateModel(c *gin.Context) {
	var body CreateModelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	m, err := h.service.CreateModel(c.Request.Context(), body.BrandID, body.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewModelResponse(m))
}
