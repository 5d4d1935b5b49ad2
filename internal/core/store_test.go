package core

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	db "github.com/JonMunkholm/demoimport/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DATABASE_URL, applies the schema, and empties
// the tables. Tests using it are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE demographic_records, import_runs")
	require.NoError(t, err)
	return pool
}

func TestUpsertParams_EmptyOptionalFields(t *testing.T) {
	parsed := ParseDemographicFile("Jane:Roe: : :IL: :987-65-4321")
	require.Len(t, parsed.Records, 1)

	p := upsertParams(parsed.Records[0])
	for name, col := range map[string]pgtype.Text{"address": p.Address, "city": p.City, "zip_code": p.ZipCode} {
		assert.True(t, col.Valid, "%s bound as NULL", name)
		assert.Equal(t, "", col.String, name)
	}
	assert.Equal(t, pgtype.Text{String: "IL", Valid: true}, p.State)
	assert.False(t, p.DateOfBirth.Valid)
}

func TestPostgresStore_UpsertIdempotent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	inserter := NewBatchInserter(NewPostgresStore(pool), discardLogger())
	q := db.New(pool)

	dob := "02/30/2020"
	rec := DemographicRecord{
		FirstName: "John", LastName: "Doe", City: "Springfield",
		State: "IL", ZipCode: "62701", SSN: "123-45-6789", DateOfBirth: &dob,
	}

	result, err := inserter.InsertBatches(ctx, []DemographicRecord{rec}, 10, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)

	first, err := q.GetDemographicRecordBySSN(ctx, rec.SSN)
	require.NoError(t, err)
	assert.False(t, first.DateOfBirth.Valid, "impossible date stored as NULL")
	assert.True(t, first.Address.Valid, "empty address stored as empty string")
	assert.Equal(t, "", first.Address.String)

	rec.LastName = "Smith"
	result, err = inserter.InsertBatches(ctx, []DemographicRecord{rec}, 10, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)

	count, err := q.CountDemographicRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	second, err := q.GetDemographicRecordBySSN(ctx, rec.SSN)
	require.NoError(t, err)
	assert.Equal(t, "Smith", second.LastName)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt.Time, second.CreatedAt.Time)
	assert.False(t, second.UpdatedAt.Time.Before(first.UpdatedAt.Time))
}

func TestPostgresStore_RecordFailureDoesNotAbortChunk(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	inserter := NewBatchInserter(NewPostgresStore(pool), discardLogger())

	recs := makeRecords(3)
	// Violates CHAR(2) inside the chunk transaction.
	recs[1].State = "TOO LONG"

	result, err := inserter.InsertBatches(ctx, recs, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)

	count, err := db.New(pool).CountDemographicRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPostgresStore_SearchAndHistory(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	svc := NewServiceWithRepository(NewPostgresStore(pool), testConfig())

	content := "John:Doe:1 Main St:Springfield:IL:62701:123-45-6789:1/2/1980\n" +
		"Jane:Roe:2 Oak Ave:Chicago:IL:60601:987-65-4321\n" +
		"Jim:Poe:3 Elm St:Austin:TX:73301:555-55-5555\n"

	summary, err := svc.Import(ctx, strings.NewReader(content), ImportRequest{FileName: "people.txt"})
	require.NoError(t, err)
	require.Equal(t, 3, summary.InsertedRecords)

	res, err := svc.Search(ctx, SearchQuery{State: "il", SortBy: "last_name", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Pagination.Total)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "Roe", res.Results[0].LastName)

	res, err = svc.Search(ctx, SearchQuery{DateOfBirth: "1980-01-02"})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.NotNil(t, res.Results[0].DateOfBirth)
	assert.Equal(t, "1980-01-02", *res.Results[0].DateOfBirth)

	res, err = svc.Search(ctx, SearchQuery{Search: "oak"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Pagination.Total)

	runs, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.ImportID, runs[0].ID)
	assert.Equal(t, RunCompleted, runs[0].Status)

	deleted, err := NewPostgresStore(pool).PruneImportRuns(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted, "fresh runs are kept")
}
