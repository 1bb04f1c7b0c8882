package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/parts-market-backend/internal/auth"
	"github.com/nekogravitycat/parts-market-backend/internal/order"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/request"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/response"
)

type Handler struct {
	service order.Service
}

func NewHandler(service order.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	f := order.Filter{
		Search:    req.Query,
		Status:    order.Status(req.Status),
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}

	// Scoping: sellers list a store they own, admins may list everything,
	// everyone else sees their own purchases. Store ownership is verified in
	// the service layer when the store filter narrows results.
	switch {
	case req.All && auth.IsAdmin(c):
	case req.StoreID != "":
		f.StoreID = req.StoreID
	default:
		f.BuyerID = auth.GetUserID(c)
	}

	result, err := h.service.List(c.Request.Context(), f, auth.GetUserID(c), auth.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]OrderResponse, len(result.Page.Items))
	for i, o := range result.Page.Items {
		items[i] = NewResponse(o)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, result.Page.PageIndex, req.PageSize, result.Total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), req.ID, auth.GetUserID(c), auth.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(o))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	o, err := h.service.Create(c.Request.Context(), order.CreateRequest{
		BuyerID:   auth.GetUserID(c),
		ProductID: body.ProductID,
		Quantity:  body.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewResponse(o))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), uri.ID, auth.GetUserID(c), auth.IsAdmin(c), order.Status(body.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(o))
}
