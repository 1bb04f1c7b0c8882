package http

import (
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/vehicle"
)

type BrandResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBrandResponse(b *vehicle.Brand) BrandResponse {
	return BrandResponse{ID: b.ID, Name: b.Name, CreatedAt: b.CreatedAt}
}

type ModelResponse struct {
	ID        string    `json:"id"`
	BrandID   string    `json:"brand_id"`
	BrandName string    `json:"brand_name"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewModelResponse(m *vehicle.Model) ModelResponse {
	return ModelResponse{
		ID:        m.ID,
		BrandID:   m.BrandID,
		BrandName: m.BrandName,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

type ListModelsRequest struct {
	BrandID string `form:"brand_id" binding:"omitempty,uuid"`
}

type CreateBrandRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

type CreateModelRequest struct {
	BrandID string `json:"brand_id" binding:"required,uuid"`
	Name    string `json:"name" binding:"required,min=1,max=100"`
}
