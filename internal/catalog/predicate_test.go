package catalog

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCols = Columns{
	Text:      []string{"p.title", "p.brand_name"},
	LotNumber: "p.lot_number",
	Status:    "p.status",
	Brand:     "p.brand_name",
	Model:     "p.model_name",
}

func mustSQL(t *testing.T, pred squirrel.Sqlizer) (string, []any) {
	t.Helper()
	sql, args, err := pred.ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestBuildIsDeterministic(t *testing.T) {
	f := Filter{
		SearchTerm:   "Nissan бампер 482",
		Audience:     AudiencePublic,
		BrandName:    "Nissan",
		HideArchived: false,
	}

	sql1, args1 := mustSQL(t, Build(f, testCols))
	sql2, args2 := mustSQL(t, Build(f, testCols))

	assert.Equal(t, sql1, sql2)
	assert.Equal(t, args1, args2)
}

func TestBuildMultiWordSemantics(t *testing.T) {
	f := Filter{SearchTerm: " Nissan  БАМПЕР ", Audience: AudienceAdmin}

	sql, args := mustSQL(t, Build(f, testCols))

	// One OR group per word over all text columns, AND-ed together:
	// a record with title "бампер" and brand "Nissan" matches even though
	// no single field contains both words.
	assert.Equal(t,
		"((p.title ILIKE ? OR p.brand_name ILIKE ?) AND (p.title ILIKE ? OR p.brand_name ILIKE ?))",
		sql)
	assert.Equal(t, []any{"%nissan%", "%nissan%", "%бампер%", "%бампер%"}, args)
}

func TestBuildNumericWordMatchesLotNumber(t *testing.T) {
	f := Filter{SearchTerm: "482", Audience: AudienceAdmin}

	sql, args := mustSQL(t, Build(f, testCols))

	assert.Equal(t,
		"((p.title ILIKE ? OR p.brand_name ILIKE ? OR p.lot_number = ?))",
		sql)
	assert.Equal(t, []any{"%482%", "%482%", int64(482)}, args)
}

func TestBuildEscapesWildcards(t *testing.T) {
	f := Filter{SearchTerm: "100%", Audience: AudienceAdmin}

	_, args := mustSQL(t, Build(f, testCols))
	assert.Contains(t, args, `%100\%%`)
}

func TestBuildStatusVisibility(t *testing.T) {
	t.Run("public sees reduced status set", func(t *testing.T) {
		f := Filter{Audience: AudiencePublic}
		sql, args := mustSQL(t, Build(f, testCols))
		assert.Equal(t, "(p.status IN (?,?))", sql)
		assert.Equal(t, []any{StatusActive, StatusSold}, args)
	})

	t.Run("admin sees all statuses", func(t *testing.T) {
		f := Filter{Audience: AudienceAdmin}
		sql, _ := mustSQL(t, Build(f, testCols))
		// Empty conjunction serializes to a tautology: no restriction.
		assert.Equal(t, "(1=1)", sql)
	})

	t.Run("hide archived restricts everyone to active", func(t *testing.T) {
		for _, aud := range []Audience{AudienceAdmin, AudiencePublic} {
			f := Filter{Audience: aud, HideArchived: true}
			sql, args := mustSQL(t, Build(f, testCols))
			assert.Equal(t, "(p.status IN (?))", sql)
			assert.Equal(t, []any{StatusActive}, args)
		}
	})
}

func TestBuildBrandModelEquality(t *testing.T) {
	f := Filter{
		Audience:  AudienceAdmin,
		BrandName: "Nissan",
		ModelName: "Teana",
	}

	sql, args := mustSQL(t, Build(f, testCols))
	assert.Equal(t, "(p.brand_name = ? AND p.model_name = ?)", sql)
	assert.Equal(t, []any{"Nissan", "Teana"}, args)
}

func TestResetClearsSearchKeepsSort(t *testing.T) {
	f := Filter{
		SearchTerm: "бампер",
		BrandName:  "Nissan",
		ModelName:  "Teana",
		SortBy:     "price",
		SortOrder:  "asc",
		Audience:   AudienceAdmin,
	}
	f.Reset()

	assert.Empty(t, f.SearchTerm)
	assert.Empty(t, f.BrandName)
	assert.Empty(t, f.ModelName)
	assert.Equal(t, "price", f.SortBy)
	assert.Equal(t, "asc", f.SortOrder)

	// After reset the predicate equals the unfiltered one.
	fresh := Filter{SortBy: "price", SortOrder: "asc", Audience: AudienceAdmin}
	sqlReset, argsReset := mustSQL(t, Build(f, testCols))
	sqlFresh, argsFresh := mustSQL(t, Build(fresh, testCols))
	assert.Equal(t, sqlFresh, sqlReset)
	assert.Equal(t, argsFresh, argsReset)
}

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{
		"price":      "p.price",
		"created_at": "p.created_at",
		"title":      "p.title",
	}

	f := Filter{SortBy: "price", SortOrder: "asc"}
	assert.Equal(t,
		[]string{"p.price ASC", "p.created_at DESC"},
		OrderBy(f, allowed, "p.created_at", "p.created_at"))

	// Unknown sort column falls back; tiebreak is skipped when redundant.
	f = Filter{SortBy: "drop table", SortOrder: "desc"}
	assert.Equal(t,
		[]string{"p.created_at DESC"},
		OrderBy(f, allowed, "p.created_at", "p.created_at"))
}

func TestPageBoundaries(t *testing.T) {
	// 20 matching records, page size 8: pages of 8, 8, 4.
	records := make([]int, 20)

	pageOf := func(page, size int) []int {
		start := page * size
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		if start > len(records) {
			start = len(records)
		}
		return records[start:end]
	}

	p0 := NewPage(pageOf(0, 8), 0, 8)
	assert.Len(t, p0.Items, 8)
	assert.True(t, p0.HasMore)

	p2 := NewPage(pageOf(2, 8), 2, 8)
	assert.Len(t, p2.Items, 4)
	assert.False(t, p2.HasMore)
}

func TestFilterNormalizeAndOffset(t *testing.T) {
	f := Filter{Page: -1}
	f.Normalize()
	assert.Equal(t, 0, f.Page)
	assert.Equal(t, 20, f.PageSize)

	f = Filter{Page: 3, PageSize: 8}
	assert.Equal(t, uint64(24), f.Offset())
}
