package catalog

import (
	"github.com/Masterminds/squirrel"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/searchtext"
)

// Columns maps filter concepts onto the concrete columns of one listing.
// Products and orders share the engine but differ in their searchable fields.
type Columns struct {
	// Text columns matched by substring for every search word.
	Text []string
	// LotNumber is the numeric identifier column OR-ed in for purely
	// numeric words. Empty disables the clause.
	LotNumber string
	// Status column for visibility filtering. Empty disables the clause.
	Status string
	// Brand and Model are equality-filtered by resolved display name.
	Brand string
	Model string
}

// Build translates a Filter into a predicate expression tree.
//
// Search semantics: the normalized term is split into words; each word forms
// an OR group over the text columns (plus an exact lot-number clause when the
// word is numeric) and the groups are AND-ed together. Every word must match
// somewhere, but each word may match a different field, so word order never
// changes the result set.
//
// Build is deterministic: the same Filter and Columns always produce an
// identical tree, and therefore identical SQL for the row and count queries.
func Build(f Filter, cols Columns) squirrel.Sqlizer {
	pred := squirrel.And{}

	for _, word := range searchtext.Words(f.SearchTerm) {
		group := squirrel.Or{}
		pattern := "%" + searchtext.EscapeLike(word) + "%"
		for _, col := range cols.Text {
			group = append(group, squirrel.ILike{col: pattern})
		}
		if cols.LotNumber != "" {
			if n, ok := searchtext.NumericValue(word); ok {
				group = append(group, squirrel.Eq{cols.LotNumber: n})
			}
		}
		pred = append(pred, group)
	}

	if cols.Status != "" {
		if statuses := f.VisibleStatuses(); statuses != nil {
			pred = append(pred, squirrel.Eq{cols.Status: statuses})
		}
	}

	if cols.Brand != "" && f.BrandName != "" {
		pred = append(pred, squirrel.Eq{cols.Brand: f.BrandName})
	}
	if cols.Model != "" && f.ModelName != "" {
		pred = append(pred, squirrel.Eq{cols.Model: f.ModelName})
	}

	return pred
}

// OrderBy returns the ORDER BY expressions for the filter: the requested
// sort column (whitelisted through allowed) plus a stable tiebreak.
func OrderBy(f Filter, allowed map[string]string, fallback, tiebreak string) []string {
	col, ok := allowed[f.SortBy]
	if !ok {
		col = fallback
	}

	dir := "DESC"
	if f.SortOrder == "asc" || f.SortOrder == "ASC" {
		dir = "ASC"
	}

	order := []string{col + " " + dir}
	if tiebreak != "" && tiebreak != col {
		order = append(order, tiebreak+" DESC")
	}
	return order
}
