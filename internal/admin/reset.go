// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"fmt"
	"time"

	db "github.com/JonMunkholm/demoimport/internal/database"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// Resetter is the subset of generated queries a reset needs.
type Resetter interface {
	ResetDemographicRecords(ctx context.Context) error
	ResetImportRuns(ctx context.Context) error
}

var _ Resetter = (*db.Queries)(nil)

// ResetDbs handles database reset operations.
type ResetDbs struct {
	DB Resetter
}

type dbResetFn func(ctx context.Context) error

// ResetAll truncates the record table and the import history.
// This is a destructive operation - use with caution.
func (r *ResetDbs) ResetAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	return r.runResets(ctx, []namedReset{
		{"demographic_records", r.DB.ResetDemographicRecords},
		{"import_runs", r.DB.ResetImportRuns},
	})
}

// ResetHistory clears only the import history.
func (r *ResetDbs) ResetHistory(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	return r.runResets(ctx, []namedReset{{"import_runs", r.DB.ResetImportRuns}})
}

type namedReset struct {
	table string
	fn    dbResetFn
}

func (r *ResetDbs) runResets(ctx context.Context, resets []namedReset) error {
	for _, reset := range resets {
		if err := reset.fn(ctx); err != nil {
			return fmt.Errorf("reset %s: %w", reset.table, err)
		}
	}
	return nil
}
