package vehicle

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
)

var (
	ErrBrandNotFound = apperror.New(http.StatusNotFound, "brand not found")
	ErrModelNotFound = apperror.New(http.StatusNotFound, "model not found")
	ErrNameRequired  = apperror.New(http.StatusBadRequest, "name is required")
)

// Brand is a vehicle manufacturer (e.g. Kamaz, Volvo).
type Brand struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Model is a vehicle model belonging to a brand. Products reference brands and
// models by display name, so Name is what the catalog filter matches against.
type Model struct {
	ID        string
	BrandID   string
	BrandName string
	Name      string
	CreatedAt time.Time
}
