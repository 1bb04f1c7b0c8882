package http

import (
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/request"
	"github.com/nekogravitycat/parts-market-backend/internal/store"
)

type ListStoresRequest struct {
	request.ListParams
	OwnerID string `form:"owner_id" binding:"omitempty,uuid"`
}

type StoreResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Phone       *string   `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewResponse(s *store.Store) StoreResponse {
	return StoreResponse{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Name:        s.Name,
		Description: s.Description,
		Phone:       s.Phone,
		CreatedAt:   s.CreatedAt,
	}
}

type CreateRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
}

type UpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
}
