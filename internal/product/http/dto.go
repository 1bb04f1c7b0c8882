package http

import (
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/product"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/request"
)

type ListProductsRequest struct {
	request.ListParams
	Query        string `form:"q" binding:"omitempty,max=200"`
	BrandID      string `form:"brand_id" binding:"omitempty,uuid"`
	ModelID      string `form:"model_id" binding:"omitempty,uuid"`
	SortBy       string `form:"sort_by" binding:"omitempty,oneof=created_at price title"`
	HideArchived bool   `form:"hide_archived"`
}

type ImageResponse struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	StoreName   string          `json:"store_name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	BrandName   string          `json:"brand_name,omitempty"`
	ModelName   string          `json:"model_name,omitempty"`
	LotNumber   int64           `json:"lot_number,omitempty"`
	PriceCents  int64           `json:"price_cents"`
	Status      string          `json:"status"`
	Images      []ImageResponse `json:"images"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewResponse(p *product.Product) ProductResponse {
	images := make([]ImageResponse, len(p.Images))
	for i, img := range p.Images {
		images[i] = NewImageResponse(&img)
	}
	return ProductResponse{
		ID:          p.ID,
		StoreID:     p.StoreID,
		StoreName:   p.StoreName,
		Title:       p.Title,
		Description: p.Description,
		BrandName:   p.BrandName,
		ModelName:   p.ModelName,
		LotNumber:   p.LotNumber,
		PriceCents:  p.PriceCents,
		Status:      string(p.Status),
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewImageResponse(img *product.Image) ImageResponse {
	return ImageResponse{
		ID:           img.ID,
		URL:          img.URL,
		ThumbnailURL: img.ThumbnailURL,
		IsPrimary:    img.IsPrimary,
		CreatedAt:    img.CreatedAt,
	}
}

type CreateRequest struct {
	StoreID     string `json:"store_id" binding:"required,uuid"`
	Title       string `json:"title" binding:"required,min=1,max=300"`
	Description string `json:"description" binding:"omitempty,max=5000"`
	BrandName   string `json:"brand_name" binding:"omitempty,max=100"`
	ModelName   string `json:"model_name" binding:"omitempty,max=100"`
	LotNumber   int64  `json:"lot_number" binding:"omitempty,min=0"`
	PriceCents  int64  `json:"price_cents" binding:"required,min=0"`
}

type UpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=300"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	BrandName   *string `json:"brand_name" binding:"omitempty,max=100"`
	ModelName   *string `json:"model_name" binding:"omitempty,max=100"`
	LotNumber   *int64  `json:"lot_number" binding:"omitempty,min=0"`
	PriceCents  *int64  `json:"price_cents" binding:"omitempty,min=0"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active sold pending archived"`
}

type ImageByIDRequest struct {
	ID      string `uri:"id" binding:"required,uuid"`
	ImageID string `uri:"imageID" binding:"required,uuid"`
}
