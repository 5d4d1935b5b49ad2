package core

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultBatchSize is the chunk size used when none is configured.
const DefaultBatchSize = 1000

// BatchInserter writes records to a Store in sequential chunks, one
// transaction per chunk.
type BatchInserter struct {
	store  Store
	logger *slog.Logger
}

// NewBatchInserter creates an inserter over store. A nil logger falls back
// to slog.Default().
func NewBatchInserter(store Store, logger *slog.Logger) *BatchInserter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchInserter{store: store, logger: logger}
}

// InsertBatches upserts records in chunks of batchSize, in input order.
//
// A record whose upsert fails is logged and skipped; the rest of its chunk
// still commits. A chunk whose transaction cannot be opened or committed is
// rolled back, contributes nothing, and adds one "Batch N: ..." error; later
// chunks still run. onProgress, if set, is called after every chunk.
//
// The only returned error is ErrStoreUnavailable, when the store cannot be
// reached before the first chunk.
func (b *BatchInserter) InsertBatches(ctx context.Context, records []DemographicRecord, batchSize int, onProgress ProgressFunc) (BatchInsertResult, error) {
	var result BatchInsertResult
	if len(records) == 0 {
		return result, nil
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	if err := b.store.Ping(ctx); err != nil {
		return result, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	total := len(records)
	totalBatches := (total + batchSize - 1) / batchSize

	for start := 0; start < total; start += batchSize {
		end := min(start+batchSize, total)
		batchNum := start/batchSize + 1

		inserted, skipped, err := b.insertChunk(ctx, records[start:end])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Batch %d: %v", batchNum, err))
			b.logger.Warn("batch failed",
				"batch", batchNum,
				"total_batches", totalBatches,
				"records", end-start,
				"error", err,
			)
		} else {
			result.Inserted += inserted
			result.Skipped += skipped
		}

		if onProgress != nil {
			onProgress(ProgressSnapshot{
				Processed:    end,
				Inserted:     result.Inserted,
				Total:        total,
				CurrentBatch: batchNum,
				TotalBatches: totalBatches,
				Errors:       len(result.Errors),
			})
		}
	}

	return result, nil
}

// insertChunk runs one chunk transaction. The transaction is finished on
// every path so its connection goes back to the pool before the next chunk.
func (b *BatchInserter) insertChunk(ctx context.Context, chunk []DemographicRecord) (inserted, skipped int, err error) {
	tx, err := b.store.BeginChunk(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, rec := range chunk {
		if err := tx.Upsert(ctx, rec); err != nil {
			skipped++
			b.logger.Warn("record upsert failed",
				"ssn", MaskSSN(rec.SSN),
				"error", err,
			)
			continue
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			b.logger.Warn("rollback after failed commit", "error", rbErr)
		}
		return 0, 0, fmt.Errorf("commit: %w", err)
	}

	return inserted, skipped, nil
}

// MaskSSN hides all but the last four digits.
func MaskSSN(ssn string) string {
	if len(ssn) < 4 {
		return "***"
	}
	return "***-**-" + ssn[len(ssn)-4:]
}
