package http

import (
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/order"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/request"
)

type ListOrdersRequest struct {
	request.ListParams
	Query   string `form:"q" binding:"omitempty,max=200"`
	Status  string `form:"status" binding:"omitempty,oneof=new confirmed shipped completed cancelled"`
	StoreID string `form:"store_id" binding:"omitempty,uuid"`
	SortBy  string `form:"sort_by" binding:"omitempty,oneof=created_at total status"`
	// All requests every order; admin only.
	All bool `form:"all"`
}

type OrderResponse struct {
	ID           string    `json:"id"`
	Number       string    `json:"number"`
	ProductID    string    `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	StoreID      string    `json:"store_id"`
	StoreName    string    `json:"store_name"`
	BuyerID      string    `json:"buyer_id"`
	BuyerName    string    `json:"buyer_name"`
	Quantity     int       `json:"quantity"`
	PriceCents   int64     `json:"price_cents"`
	TotalCents   int64     `json:"total_cents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		Number:       o.Number,
		ProductID:    o.ProductID,
		ProductTitle: o.ProductTitle,
		StoreID:      o.StoreID,
		StoreName:    o.StoreName,
		BuyerID:      o.BuyerID,
		BuyerName:    o.BuyerName,
		Quantity:     o.Quantity,
		PriceCents:   o.PriceCents,
		TotalCents:   o.TotalCents,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

type CreateRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new confirmed shipped completed cancelled"`
}
