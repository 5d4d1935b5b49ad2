package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImportRun(t *testing.T) {
	tests := []struct {
		name       string
		summary    *ImportSummary
		err        error
		wantStatus RunStatus
		wantError  string
	}{
		{
			name:       "clean import",
			summary:    &ImportSummary{TotalLines: 3, ParsedRecords: 3, InsertedRecords: 3},
			wantStatus: RunCompleted,
		},
		{
			name:       "parse errors",
			summary:    &ImportSummary{TotalLines: 3, ParsedRecords: 2, InsertedRecords: 2, ParseErrors: 1},
			wantStatus: RunCompletedWithErrors,
		},
		{
			name:       "skipped records",
			summary:    &ImportSummary{ParsedRecords: 2, InsertedRecords: 1, SkippedRecords: 1},
			wantStatus: RunCompletedWithErrors,
		},
		{
			name:       "no valid records keeps counts",
			summary:    &ImportSummary{TotalLines: 2, ParseErrors: 2},
			err:        ErrNoValidRecords,
			wantStatus: RunFailed,
			wantError:  "no valid records found in file",
		},
		{
			name:       "store unavailable",
			err:        ErrStoreUnavailable,
			wantStatus: RunFailed,
			wantError:  "record store unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := newImportRun("id-1", "people.txt", 42, tt.summary, tt.err, 1500*time.Millisecond)

			assert.Equal(t, "id-1", run.ID)
			assert.Equal(t, "people.txt", run.FileName)
			assert.Equal(t, int64(42), run.FileSize)
			assert.Equal(t, int64(1500), run.DurationMs)
			assert.Equal(t, tt.wantStatus, run.Status)
			assert.Equal(t, tt.wantError, run.Error)
			if tt.summary != nil {
				assert.Equal(t, tt.summary.ParseErrors, run.ParseErrors)
				assert.Equal(t, tt.summary.InsertedRecords, run.InsertedRecords)
			}
		})
	}
}

func TestService_History(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 30; i++ {
		store.runs = append(store.runs, ImportRun{ID: string(rune('a' + i))})
	}
	svc := NewServiceWithRepository(store, testConfig())

	runs, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, DefaultHistoryLimit)
	assert.Equal(t, store.runs[29].ID, runs[0].ID, "newest first")

	runs, err = svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestService_RecordRunFailureIsLogged(t *testing.T) {
	store := newFakeStore()
	store.saveRunErr = errors.New("relation \"import_runs\" does not exist")
	svc := NewServiceWithRepository(store, testConfig())
	svc.logger = discardLogger()

	svc.recordRun(context.Background(), ImportRun{ID: "x"})

	assert.Empty(t, store.savedRuns())
}

func TestService_StartHistoryPruner(t *testing.T) {
	t.Run("disabled returns immediately", func(t *testing.T) {
		store := newFakeStore()
		cfg := testConfig()
		cfg.History.RetentionDays = 0
		svc := NewServiceWithRepository(store, cfg)
		svc.logger = discardLogger()

		svc.StartHistoryPruner(context.Background())

		assert.Empty(t, store.prunes)
	})

	t.Run("prunes on start and on tick", func(t *testing.T) {
		store := newFakeStore()
		cfg := testConfig()
		cfg.History.RetentionDays = 30
		cfg.History.PruneInterval = 10 * time.Millisecond
		svc := NewServiceWithRepository(store, cfg)
		svc.logger = discardLogger()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			svc.StartHistoryPruner(ctx)
			close(done)
		}()

		assert.Eventually(t, func() bool {
			store.mu.Lock()
			defer store.mu.Unlock()
			return len(store.prunes) >= 2
		}, 5*time.Second, 5*time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("pruner did not stop after cancel")
		}

		store.mu.Lock()
		assert.Equal(t, 30, store.prunes[0])
		store.mu.Unlock()
	})
}
