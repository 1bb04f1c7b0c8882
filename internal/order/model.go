package order

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "order not found")
	ErrInvalidQuantity   = apperror.New(http.StatusBadRequest, "quantity must be at least 1")
	ErrProductNotForSale = apperror.New(http.StatusConflict, "product is not available for purchase")
	ErrInvalidTransition = apperror.New(http.StatusConflict, "order status transition not allowed")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
)

type Status string

const (
	StatusNew       Status = "new"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the forward path new -> confirmed -> shipped -> completed.
// Cancellation is possible until the order ships.
var transitions = map[Status][]Status{
	StatusNew:       {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusCompleted},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusConfirmed, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order snapshots the product and buyer at purchase time: later edits to the
// product must not rewrite order history.
type Order struct {
	ID           string
	Number       string
	ProductID    string
	ProductTitle string
	StoreID      string
	StoreName    string
	BuyerID      string
	BuyerName    string
	Quantity     int
	PriceCents   int64
	TotalCents   int64
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter defines the query state for an order listing. Search goes through
// the catalog predicate builder over number, buyer name and product title;
// status and ownership scoping are exact clauses on top.
type Filter struct {
	Search    string
	Status    Status
	BuyerID   string
	StoreID   string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
