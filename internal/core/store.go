package core

import (
	"context"
	"errors"
	"fmt"

	db "github.com/JonMunkholm/demoimport/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the record store written by the batch inserter.
type Store interface {
	// Ping reports whether the store can be reached at all.
	Ping(ctx context.Context) error
	// BeginChunk opens the transaction that holds one chunk of upserts.
	BeginChunk(ctx context.Context) (ChunkTx, error)
}

// ChunkTx is one open chunk transaction. A failed Upsert leaves the
// transaction usable for the remaining records of the chunk.
type ChunkTx interface {
	Upsert(ctx context.Context, rec DemographicRecord) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository is everything the Service needs from persistence.
type Repository interface {
	Store
	SaveImportRun(ctx context.Context, run ImportRun) error
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)
	PruneImportRuns(ctx context.Context, olderThanDays int) (int64, error)
	SearchRecords(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

// PostgresStore implements Repository on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool. The caller owns the pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// BeginChunk starts a transaction on a pooled connection. The connection
// returns to the pool on Commit or Rollback.
func (s *PostgresStore) BeginChunk(ctx context.Context) (ChunkTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgChunkTx{tx: tx, q: db.New(tx)}, nil
}

// pgChunkTx guards every upsert with a savepoint so a failing row does not
// abort the enclosing transaction.
type pgChunkTx struct {
	tx pgx.Tx
	q  *db.Queries
	n  int
}

func (c *pgChunkTx) Upsert(ctx context.Context, rec DemographicRecord) error {
	c.n++
	sp := fmt.Sprintf("sp_%d", c.n)

	if _, err := c.tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := c.q.UpsertDemographicRecord(ctx, upsertParams(rec)); err != nil {
		_, _ = c.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp)
		return err
	}

	_, _ = c.tx.Exec(ctx, "RELEASE SAVEPOINT "+sp)
	return nil
}

func (c *pgChunkTx) Commit(ctx context.Context) error {
	return c.tx.Commit(ctx)
}

func (c *pgChunkTx) Rollback(ctx context.Context) error {
	err := c.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// upsertParams maps a record onto the upsert query. Absent address, city
// and zip code are stored as empty strings, never NULL.
func upsertParams(rec DemographicRecord) db.UpsertDemographicRecordParams {
	return db.UpsertDemographicRecordParams{
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Address:     pgText(rec.Address),
		City:        pgText(rec.City),
		State:       pgText(rec.State),
		ZipCode:     pgText(rec.ZipCode),
		Ssn:         rec.SSN,
		DateOfBirth: DateOfBirthValue(rec.DateOfBirth),
	}
}

func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

// toPgText maps "" to NULL, for columns where empty means unknown.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// SaveImportRun stores the outcome of one import.
func (s *PostgresStore) SaveImportRun(ctx context.Context, run ImportRun) error {
	var id pgtype.UUID
	if err := id.Scan(run.ID); err != nil {
		return fmt.Errorf("invalid import ID: %w", err)
	}

	return db.New(s.pool).InsertImportRun(ctx, db.InsertImportRunParams{
		ID:              id,
		FileName:        run.FileName,
		FileSize:        run.FileSize,
		Status:          string(run.Status),
		TotalLines:      int32(run.TotalLines),
		ParsedRecords:   int32(run.ParsedRecords),
		InsertedRecords: int32(run.InsertedRecords),
		SkippedRecords:  int32(run.SkippedRecords),
		ParseErrors:     int32(run.ParseErrors),
		InsertErrors:    int32(run.InsertErrors),
		Error:           toPgText(run.Error),
		DurationMs:      int32(run.DurationMs),
	})
}

// ListImportRuns returns the most recent runs first.
func (s *PostgresStore) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	rows, err := db.New(s.pool).ListImportRuns(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}

	runs := make([]ImportRun, 0, len(rows))
	for _, row := range rows {
		var id string
		if row.ID.Valid {
			id = uuid.UUID(row.ID.Bytes).String()
		}
		runs = append(runs, ImportRun{
			ID:              id,
			FileName:        row.FileName,
			FileSize:        row.FileSize,
			Status:          RunStatus(row.Status),
			TotalLines:      int(row.TotalLines),
			ParsedRecords:   int(row.ParsedRecords),
			InsertedRecords: int(row.InsertedRecords),
			SkippedRecords:  int(row.SkippedRecords),
			ParseErrors:     int(row.ParseErrors),
			InsertErrors:    int(row.InsertErrors),
			Error:           row.Error.String,
			DurationMs:      int64(row.DurationMs),
			CreatedAt:       row.CreatedAt.Time,
		})
	}
	return runs, nil
}

// PruneImportRuns deletes runs created more than olderThanDays days ago.
func (s *PostgresStore) PruneImportRuns(ctx context.Context, olderThanDays int) (int64, error) {
	n, err := db.New(s.pool).PruneImportRuns(ctx, int32(olderThanDays))
	if err != nil {
		return 0, fmt.Errorf("prune import runs: %w", err)
	}
	return n, nil
}
