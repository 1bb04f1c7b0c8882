package order

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusNew, StatusConfirmed},
		{StatusNew, StatusCancelled},
		{StatusConfirmed, StatusShipped},
		{StatusConfirmed, StatusCancelled},
		{StatusShipped, StatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to Status }{
		{StatusNew, StatusShipped},
		{StatusNew, StatusCompleted},
		{StatusShipped, StatusCancelled},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusConfirmed},
		{StatusCompleted, StatusNew},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestListAndCountShareThePredicate(t *testing.T) {
	f := Filter{
		Search:  "ORD-1A2B иванов",
		Status:  StatusConfirmed,
		StoreID: "11111111-1111-1111-1111-111111111111",
	}

	listSQL, listArgs, err := listQuery(f).ToSql()
	require.NoError(t, err)
	countSQL, countArgs, err := countQuery(f).ToSql()
	require.NoError(t, err)

	assert.Equal(t, countArgs, listArgs)

	idx := strings.Index(countSQL, "WHERE ")
	require.GreaterOrEqual(t, idx, 0)
	assert.Contains(t, listSQL, countSQL[idx:])
}

func TestSearchMatchesNumberAndBuyer(t *testing.T) {
	sql, args, err := countQuery(Filter{Search: "иванов"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "o.number ILIKE")
	assert.Contains(t, sql, "o.buyer_name ILIKE")
	assert.Contains(t, sql, "o.product_title ILIKE")
	assert.Contains(t, args, "%иванов%")
}

func TestGenerateNumberShape(t *testing.T) {
	n := generateNumber()
	assert.True(t, strings.HasPrefix(n, "ORD-"))
	assert.Len(t, n, len("ORD-")+8)
	assert.NotEqual(t, n, generateNumber())
}
