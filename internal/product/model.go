package product

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/catalog"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "product not found")
	ErrImageNotFound = apperror.New(http.StatusNotFound, "product image not found")
	ErrTitleRequired = apperror.New(http.StatusBadRequest, "product title is required")
	ErrNotStoreOwner = apperror.New(http.StatusForbidden, "user does not own the product's store")
	ErrInvalidStatus = apperror.New(http.StatusBadRequest, "invalid product status")
	ErrNotAnImage    = apperror.New(http.StatusBadRequest, "uploaded file is not an image")
	ErrTooManyImages = apperror.New(http.StatusConflict, "product image limit reached")
)

// MaxImages caps how many images a product may carry.
const MaxImages = 12

// Product is a parts listing. BrandName/ModelName/StoreName are denormalized
// display names: the catalog search and filters match against them directly.
type Product struct {
	ID          string
	StoreID     string
	StoreName   string
	Title       string
	Description string
	BrandName   string
	ModelName   string
	LotNumber   int64
	PriceCents  int64
	Status      catalog.Status
	Images      []Image
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Image is one photo of a product. At most one image per product is primary;
// listings embed the primary image first.
type Image struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	StoragePath  string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail_url"`
	URL          string    `json:"url"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidStatus reports whether s is a known product status.
func ValidStatus(s catalog.Status) bool {
	switch s {
	case catalog.StatusActive, catalog.StatusSold, catalog.StatusPending, catalog.StatusArchived:
		return true
	}
	return false
}
