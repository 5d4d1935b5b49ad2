package core

import (
	"context"
	"time"
)

// RunStatus is the outcome recorded for an import run.
type RunStatus string

const (
	RunCompleted           RunStatus = "completed"
	RunCompletedWithErrors RunStatus = "completed_with_errors"
	RunFailed              RunStatus = "failed"
)

// DefaultHistoryLimit is how many runs History returns when asked for none.
const DefaultHistoryLimit = 20

// MaxHistoryLimit caps a single History request.
const MaxHistoryLimit = 500

// ImportRun is one row of import history.
type ImportRun struct {
	ID              string    `json:"id"`
	FileName        string    `json:"fileName"`
	FileSize        int64     `json:"fileSize"`
	Status          RunStatus `json:"status"`
	TotalLines      int       `json:"totalLines"`
	ParsedRecords   int       `json:"parsedRecords"`
	InsertedRecords int       `json:"insertedRecords"`
	SkippedRecords  int       `json:"skippedRecords"`
	ParseErrors     int       `json:"parseErrors"`
	InsertErrors    int       `json:"insertErrors"`
	Error           string    `json:"error,omitempty"`
	DurationMs      int64     `json:"durationMs"`
	CreatedAt       time.Time `json:"createdAt"`
}

// newImportRun derives the history row from an import's outcome.
func newImportRun(id, fileName string, size int64, summary *ImportSummary, err error, elapsed time.Duration) ImportRun {
	run := ImportRun{
		ID:         id,
		FileName:   fileName,
		FileSize:   size,
		Status:     RunCompleted,
		DurationMs: elapsed.Milliseconds(),
	}

	if summary != nil {
		run.TotalLines = summary.TotalLines
		run.ParsedRecords = summary.ParsedRecords
		run.InsertedRecords = summary.InsertedRecords
		run.SkippedRecords = summary.SkippedRecords
		run.ParseErrors = summary.ParseErrors
		run.InsertErrors = summary.InsertErrors
		if summary.ParseErrors > 0 || summary.InsertErrors > 0 || summary.SkippedRecords > 0 {
			run.Status = RunCompletedWithErrors
		}
	}

	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
	}
	return run
}

// History returns the most recent import runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.repo.ListImportRuns(ctx, limit)
}

// recordRun persists the run. Import outcomes never depend on it, so
// failures are only logged, and a cancelled request still gets its row.
func (s *Service) recordRun(ctx context.Context, run ImportRun) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repo.SaveImportRun(saveCtx, run); err != nil {
		s.logger.Warn("import history not recorded",
			"import_id", run.ID,
			"error", err,
		)
	}
}
