package store

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "store not found")
	ErrNameRequired = apperror.New(http.StatusBadRequest, "store name is required")
	ErrNotOwner     = apperror.New(http.StatusForbidden, "user does not own this store")
)

// Store is a seller's storefront. Products belong to exactly one store and
// carry its name as the seller column the catalog search matches against.
type Store struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Phone       *string
	IsActive    bool
	CreatedAt   time.Time
}

// Filter defines parameters for listing stores.
type Filter struct {
	OwnerID  string
	Page     int
	PageSize int
}
