package core

// scheduler.go runs background maintenance for import history.
//
// The pruner deletes import_runs rows past the retention window. It is
// long-running and context-aware for graceful shutdown, and a failed pass
// is logged without stopping the server.

import (
	"context"
	"time"
)

// StartHistoryPruner deletes old import runs now and then every
// History.PruneInterval until ctx is cancelled. It returns immediately when
// retention is disabled.
func (s *Service) StartHistoryPruner(ctx context.Context) {
	days := s.cfg.History.RetentionDays
	if days <= 0 {
		s.logger.Info("history pruning disabled")
		return
	}

	s.logger.Info("history pruner started",
		"retention_days", days,
		"interval", s.cfg.History.PruneInterval,
	)

	s.pruneHistory(ctx, days)

	ticker := time.NewTicker(s.cfg.History.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.pruneHistory(ctx, days)
		}
	}
}

// pruneHistory performs one deletion pass.
func (s *Service) pruneHistory(ctx context.Context, days int) {
	start := time.Now()
	deleted, err := s.repo.PruneImportRuns(ctx, days)
	if err != nil {
		s.logger.Error("history prune failed", "error", err)
		return
	}
	s.logger.Info("pruned import history",
		"runs_deleted", deleted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
