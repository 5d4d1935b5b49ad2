package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// fakeStore is an in-memory Repository. Records are keyed by SSN so
// repeated imports exercise upsert semantics.
type fakeStore struct {
	mu sync.Mutex

	pingErr     error
	beginErrOn  map[int]error // chunk number (1-based) -> error
	commitErrOn map[int]error
	failSSN     map[string]error
	saveRunErr  error

	chunks  int
	sizes   []int
	records map[string]DemographicRecord
	runs    []ImportRun
	queries []SearchQuery
	prunes  []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		beginErrOn:  map[int]error{},
		commitErrOn: map[int]error{},
		failSSN:     map[string]error{},
		records:     map[string]DemographicRecord{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) BeginChunk(ctx context.Context) (ChunkTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.chunks++
	if err := f.beginErrOn[f.chunks]; err != nil {
		return nil, err
	}
	return &fakeTx{store: f, n: f.chunks, staged: map[string]DemographicRecord{}}, nil
}

func (f *fakeStore) SaveImportRun(ctx context.Context, run ImportRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveRunErr != nil {
		return f.saveRunErr
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]ImportRun, 0, limit)
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.runs[i])
	}
	return out, nil
}

func (f *fakeStore) PruneImportRuns(ctx context.Context, olderThanDays int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunes = append(f.prunes, olderThanDays)
	return int64(len(f.runs)), nil
}

func (f *fakeStore) SearchRecords(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return &SearchResult{
		Results:    []SearchRecord{},
		Pagination: newPagination(q.Page, q.Limit, 0),
		Sort:       SearchSort{SortBy: q.SortBy, SortOrder: q.SortOrder},
	}, nil
}

func (f *fakeStore) stored() map[string]DemographicRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]DemographicRecord, len(f.records))
	for k, v := range f.records {
		out[k] = v
	}
	return out
}

func (f *fakeStore) savedRuns() []ImportRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ImportRun(nil), f.runs...)
}

type fakeTx struct {
	store  *fakeStore
	n      int
	staged map[string]DemographicRecord
	size   int
	done   bool
}

func (tx *fakeTx) Upsert(ctx context.Context, rec DemographicRecord) error {
	tx.size++
	tx.store.mu.Lock()
	err := tx.store.failSSN[rec.SSN]
	tx.store.mu.Unlock()
	if err != nil {
		return err
	}
	tx.staged[rec.SSN] = rec
	return nil
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	tx.store.sizes = append(tx.store.sizes, tx.size)
	if err := tx.store.commitErrOn[tx.n]; err != nil {
		return err
	}
	for k, v := range tx.staged {
		tx.store.records[k] = v
	}
	tx.done = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if tx.done {
		return errors.New("rollback after commit")
	}
	tx.staged = nil
	return nil
}

func makeRecords(n int) []DemographicRecord {
	recs := make([]DemographicRecord, n)
	for i := range recs {
		recs[i] = DemographicRecord{
			FirstName: "First",
			LastName:  fmt.Sprintf("Last%d", i),
			State:     "NY",
			SSN:       fmt.Sprintf("%03d-%02d-%04d", i/1000000, (i/10000)%100, i%10000),
		}
	}
	return recs
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
