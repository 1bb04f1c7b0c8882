package product

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/parts-market-backend/internal/catalog"
)

func TestListAndCountShareThePredicate(t *testing.T) {
	f := catalog.Filter{
		SearchTerm: "насос 482",
		BrandName:  "Kamaz",
		Audience:   catalog.AudiencePublic,
	}
	f.Normalize()

	listSQL, listArgs, err := listQuery(f).ToSql()
	require.NoError(t, err)
	countSQL, countArgs, err := countQuery(f).ToSql()
	require.NoError(t, err)

	// Same predicate means same argument list in the same order.
	assert.Equal(t, countArgs, listArgs)

	// The WHERE clause of the count query appears verbatim in the row query.
	idx := strings.Index(countSQL, "WHERE ")
	require.GreaterOrEqual(t, idx, 0)
	assert.Contains(t, listSQL, countSQL[idx:])
}

func TestAudienceSelectsBackingTable(t *testing.T) {
	assert.Equal(t, "public.products AS p", tableFor(catalog.AudienceAdmin))
	assert.Equal(t, "public.products_public AS p", tableFor(catalog.AudiencePublic))
	assert.Equal(t, "public.products_public AS p", tableFor(""))
}

func TestListQueryAppliesPagination(t *testing.T) {
	f := catalog.Filter{Page: 2, PageSize: 8, Audience: catalog.AudiencePublic}
	f.Normalize()

	sql, _, err := listQuery(f).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT 8")
	assert.Contains(t, sql, "OFFSET 16")
}

func TestTransientPgErrorClassification(t *testing.T) {
	assert.True(t, transientPgError(&pgconn.PgError{Code: "08006"}), "connection failure is transient")
	assert.True(t, transientPgError(&pgconn.PgError{Code: "40001"}), "serialization failure is transient")
	assert.True(t, transientPgError(&net.DNSError{IsTimeout: true}), "network errors are transient")

	assert.False(t, transientPgError(&pgconn.PgError{Code: "23505"}), "unique violation is permanent")
	assert.False(t, transientPgError(&pgconn.PgError{Code: "42601"}), "syntax error is permanent")
	assert.False(t, transientPgError(errors.New("scan failed")))
}
