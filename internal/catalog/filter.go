// Package catalog turns user-facing search/filter/sort state into SQL
// predicates. The same Build call backs both the row query and the count
// query of a listing, which keeps "has more pages" behavior consistent:
// the two must never be constructed independently.
package catalog

// Audience determines which status set and backing table apply to a query.
type Audience string

const (
	AudienceAdmin  Audience = "admin"
	AudiencePublic Audience = "public"
)

// Status is the lifecycle state of a catalog record.
type Status string

const (
	StatusActive   Status = "active"
	StatusSold     Status = "sold"
	StatusPending  Status = "pending"
	StatusArchived Status = "archived"
)

// publicStatuses is the reduced set visible to non-admin callers.
var publicStatuses = []Status{StatusActive, StatusSold}

// Filter is the user-controlled query state for a catalog listing.
type Filter struct {
	SearchTerm string // raw, unescaped user input

	SortBy    string
	SortOrder string

	HideArchived bool
	BrandName    string // resolved display name, empty if unset
	ModelName    string

	Audience Audience

	Page     int // zero-based page index
	PageSize int
}

// Reset clears the search term and brand/model selections.
// Sorting is intentionally preserved.
func (f *Filter) Reset() {
	f.SearchTerm = ""
	f.BrandName = ""
	f.ModelName = ""
}

// Normalize applies pagination defaults in place.
func (f *Filter) Normalize() {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
}

// Offset returns the row offset for the filter's page.
func (f Filter) Offset() uint64 {
	return uint64(f.Page) * uint64(f.PageSize)
}

// VisibleStatuses returns the status set the filter's audience may see.
// HideArchived restricts to active listings for every audience; otherwise
// admins see all statuses and the public sees the reduced set.
func (f Filter) VisibleStatuses() []Status {
	if f.HideArchived {
		return []Status{StatusActive}
	}
	if f.Audience == AudienceAdmin {
		return nil // no restriction
	}
	return publicStatuses
}

// Page is one immutable page of a listing.
// HasMore is inferred from the returned row count, not from the advisory
// total, so it stays correct even when the count query degraded to zero.
type Page[T any] struct {
	Items     []T  `json:"items"`
	PageIndex int  `json:"page_index"`
	HasMore   bool `json:"has_more"`
}

// NewPage builds a Page, inferring HasMore from the page being full.
func NewPage[T any](items []T, pageIndex, pageSize int) Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return Page[T]{
		Items:     items,
		PageIndex: pageIndex,
		HasMore:   pageSize > 0 && len(items) == pageSize,
	}
}
