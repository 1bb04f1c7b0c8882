package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/parts-market-backend/internal/auth"
	"github.com/nekogravitycat/parts-market-backend/internal/catalog"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/request"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/response"
	"github.com/nekogravitycat/parts-market-backend/internal/product"
	"github.com/nekogravitycat/parts-market-backend/internal/vehicle"
)

type Handler struct {
	service  product.Service
	vehicles vehicle.Service
}

func NewHandler(service product.Service, vehicles vehicle.Service) *Handler {
	return &Handler{service: service, vehicles: vehicles}
}

// audience derives the query audience from the request's (optional) identity.
func audience(c *gin.Context) catalog.Audience {
	if auth.IsAdmin(c) {
		return catalog.AudienceAdmin
	}
	return catalog.AudiencePublic
}

func (h *Handler) List(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	brandName, modelName, err := h.vehicles.ResolveNames(c.Request.Context(), req.BrandID, req.ModelID)
	if err != nil {
		response.Error(c, err)
		return
	}

	f := catalog.Filter{
		SearchTerm:   req.Query,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
		HideArchived: req.HideArchived,
		BrandName:    brandName,
		ModelName:    modelName,
		Audience:     audience(c),
		Page:         req.Page,
		PageSize:     req.PageSize,
	}
	f.Normalize()

	result, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ProductResponse, len(result.Page.Items))
	for i, p := range result.Page.Items {
		items[i] = NewResponse(p)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, f.Page, f.PageSize, result.Total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), req.ID, audience(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(p))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := h.service.Create(c.Request.Context(), auth.GetUserID(c), auth.IsAdmin(c), product.CreateRequest{
		StoreID:     body.StoreID,
		Title:       body.Title,
		Description: body.Description,
		BrandName:   body.BrandName,
		ModelName:   body.ModelName,
		LotNumber:   body.LotNumber,
		PriceCents:  body.PriceCents,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewResponse(p))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := h.service.Update(c.Request.Context(), uri.ID, auth.GetUserID(c), auth.IsAdmin(c), product.UpdateRequest{
		Title:       body.Title,
		Description: body.Description,
		BrandName:   body.BrandName,
		ModelName:   body.ModelName,
		LotNumber:   body.LotNumber,
		PriceCents:  body.PriceCents,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(p))
}

func (h *Handler) SetStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body SetStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := h.service.SetStatus(c.Request.Context(), uri.ID, auth.GetUserID(c), auth.IsAdmin(c), catalog.Status(body.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(p))
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID, auth.GetUserID(c), auth.IsAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UploadImage(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field", "details": err.Error()})
		return
	}

	img, err := h.service.UploadImage(c.Request.Context(), uri.ID, auth.GetUserID(c), auth.IsAdmin(c), header)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewImageResponse(img))
}

func (h *Handler) SetPrimaryImage(c *gin.Context) {
	var uri ImageByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.service.SetPrimaryImage(c.Request.Context(), uri.ID, uri.ImageID, auth.GetUserID(c), auth.IsAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.service.DeleteImage(c.Request.Context(), req.ID, auth.GetUserID(c), auth.IsAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DownloadImage(c *gin.Context) {
	h.serveImage(c, false)
}

func (h *Handler) DownloadThumbnail(c *gin.Context) {
	h.serveImage(c, true)
}

func (h *Handler) serveImage(c *gin.Context, thumbnail bool) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	stream, _, err := h.service.OpenImage(c.Request.Context(), req.ID, thumbnail)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, stream)
}
