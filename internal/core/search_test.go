package core

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchQuery_WithDefaults(t *testing.T) {
	q := SearchQuery{State: " ny ", SortBy: "ssn; DROP TABLE", SortOrder: "sideways"}.withDefaults(50, 500)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 50, q.Limit)
	assert.Equal(t, DefaultSortColumn, q.SortBy)
	assert.Equal(t, "ASC", q.SortOrder)
	assert.Equal(t, "NY", q.State)

	q = SearchQuery{Page: 3, Limit: 10000, SortBy: "last_name", SortOrder: "desc"}.withDefaults(50, 500)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 500, q.Limit)
	assert.Equal(t, "last_name", q.SortBy)
	assert.Equal(t, "DESC", q.SortOrder)
}

func TestBuildSearchSQL(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		q := SearchQuery{}.withDefaults(50, 500)
		countSQL, pageSQL, args := buildSearchSQL(q)

		assert.Equal(t, "SELECT COUNT(*) FROM demographic_records", countSQL)
		assert.Equal(t, "SELECT "+searchColumns+" FROM demographic_records ORDER BY id ASC LIMIT $1 OFFSET $2", pageSQL)
		assert.Empty(t, args)
	})

	t.Run("all filters", func(t *testing.T) {
		q := SearchQuery{
			FirstName:   "jo",
			LastName:    "do",
			City:        "spring",
			State:       "il",
			ZipCode:     "62701",
			SSN:         "123-45-6789",
			DateOfBirth: "1/2/1980",
			Search:      "main street",
			SortBy:      "city",
			SortOrder:   "DESC",
		}.withDefaults(50, 500)

		countSQL, pageSQL, args := buildSearchSQL(q)

		where := " WHERE first_name ILIKE $1 AND last_name ILIKE $2 AND city ILIKE $3" +
			" AND state = $4 AND zip_code = $5 AND ssn = $6 AND date_of_birth = $7" +
			" AND search_vector @@ plainto_tsquery('english', $8)"
		assert.Equal(t, "SELECT COUNT(*) FROM demographic_records"+where, countSQL)
		assert.Equal(t, "SELECT "+searchColumns+" FROM demographic_records"+where+" ORDER BY city DESC LIMIT $9 OFFSET $10", pageSQL)

		require.Len(t, args, 8)
		assert.Equal(t, "%jo%", args[0])
		assert.Equal(t, "IL", args[3])
		assert.Equal(t, pgtype.Date{Time: time.Date(1980, 1, 2, 0, 0, 0, 0, time.UTC), Valid: true}, args[6])
		assert.Equal(t, "main street", args[7])
	})

	t.Run("iso date filter", func(t *testing.T) {
		q := SearchQuery{DateOfBirth: "1980-01-02"}.withDefaults(50, 500)
		_, _, args := buildSearchSQL(q)
		require.Len(t, args, 1)
		assert.Equal(t, pgtype.Date{Time: time.Date(1980, 1, 2, 0, 0, 0, 0, time.UTC), Valid: true}, args[0])
	})
}

func TestWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()
	where, args := wb.Build()
	assert.Equal(t, "", where)
	assert.Empty(t, args)
	assert.Equal(t, 1, wb.NextArgIndex())

	wb.Contains("city", "")
	wb.Contains("city", "x")
	wb.Equals("state", "NY")
	where, args = wb.Build()

	assert.Equal(t, " WHERE city ILIKE $1 AND state = $2", where)
	assert.Equal(t, []any{"%x%", "NY"}, args)
	assert.Equal(t, 3, wb.NextArgIndex())
}

func TestParseSearchDate(t *testing.T) {
	for _, in := range []string{"1/2/1980", "01/02/1980", "1980-01-02"} {
		got, ok := parseSearchDate(in)
		assert.True(t, ok, in)
		assert.Equal(t, time.Date(1980, 1, 2, 0, 0, 0, 0, time.UTC), got, in)
	}
	for _, in := range []string{"02/30/2020", "2020-02-30", "13/1/2000", "yesterday"} {
		_, ok := parseSearchDate(in)
		assert.False(t, ok, in)
	}
}

func TestService_Search(t *testing.T) {
	store := newFakeStore()
	svc := NewServiceWithRepository(store, testConfig())

	t.Run("applies defaults", func(t *testing.T) {
		res, err := svc.Search(context.Background(), SearchQuery{State: "ca"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Pagination.Page)
		assert.Equal(t, 50, res.Pagination.Limit)
		assert.Equal(t, SearchSort{SortBy: "id", SortOrder: "ASC"}, res.Sort)
		require.NotEmpty(t, store.queries)
		assert.Equal(t, "CA", store.queries[len(store.queries)-1].State)
	})

	t.Run("rejects invalid parameters", func(t *testing.T) {
		tests := []SearchQuery{
			{State: "NEW"},
			{ZipCode: "abcde"},
			{DateOfBirth: "02/30/2020"},
			{Page: -1},
			{Page: 1000001},
			{Page: math.MaxInt},
		}
		for _, q := range tests {
			_, err := svc.Search(context.Background(), q)
			assert.ErrorIs(t, err, ErrInvalidSearch, "%+v", q)
		}
	})
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 50, Total: 0, TotalPages: 0}, newPagination(1, 50, 0))
	assert.Equal(t, Pagination{Page: 2, Limit: 50, Total: 101, TotalPages: 3}, newPagination(2, 50, 101))
}
