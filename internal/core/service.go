package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/demoimport/internal/config"
	"github.com/JonMunkholm/demoimport/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service runs imports and queries over the demographic record store.
type Service struct {
	repo     Repository
	inserter *BatchInserter
	limiter  *ImportLimiter
	cfg      *config.Config
	logger   *slog.Logger

	mu      sync.RWMutex
	imports map[string]*activeImport
}

// activeImport tracks a background import started with StartImport.
type activeImport struct {
	ID       string
	FileName string
	Done     chan struct{}

	mu        sync.Mutex
	progress  ProgressSnapshot
	finished  bool
	summary   *ImportSummary
	err       error
	listeners []chan ProgressSnapshot
}

// NewService wires a Service to a Postgres pool. The pool is owned by the
// caller and shared by every import.
func NewService(pool *pgxpool.Pool, cfg *config.Config) (*Service, error) {
	if pool == nil {
		return nil, fmt.Errorf("new service: nil pool")
	}
	return NewServiceWithRepository(NewPostgresStore(pool), cfg), nil
}

// NewServiceWithRepository builds a Service over any Repository.
func NewServiceWithRepository(repo Repository, cfg *config.Config) *Service {
	logger := slog.Default().With("component", "import")
	return &Service{
		repo:     repo,
		inserter: NewBatchInserter(repo, logger),
		limiter:  NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		cfg:      cfg,
		logger:   logger,
		imports:  make(map[string]*activeImport),
	}
}

// Import reads, parses and stores one file, blocking until every chunk has
// been attempted.
//
// ErrNoValidRecords is returned together with a summary carrying the parse
// errors. ErrStoreUnavailable, ErrFileTooLarge and ErrTooManyImports are
// returned with a nil summary.
func (s *Service) Import(ctx context.Context, r io.Reader, req ImportRequest) (*ImportSummary, error) {
	if err := s.checkSize(req.Size); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return s.runImport(ctx, uuid.NewString(), r, req)
}

// checkSize rejects a declared size over the limit before anything is read.
func (s *Service) checkSize(size int64) error {
	if max := s.cfg.Import.MaxFileSize; max > 0 && size > max {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrFileTooLarge, size, max)
	}
	return nil
}

// runImport is the pipeline shared by Import and StartImport.
func (s *Service) runImport(ctx context.Context, id string, r io.Reader, req ImportRequest) (summary *ImportSummary, err error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "import_id", id, "file", req.FileName)
	if ip := ClientIPFromContext(ctx); ip != "" {
		logger = logger.With("client_ip", ip)
	}
	logger.Info("import started", "size", req.Size)

	defer func() {
		elapsed := time.Since(start)
		if summary != nil {
			summary.Duration = elapsed
		}
		s.recordRun(ctx, newImportRun(id, req.FileName, req.Size, summary, err, elapsed))
		if err != nil {
			logger.Warn("import failed", "error", err, "duration", elapsed)
			return
		}
		logger.Info("import completed",
			"inserted", summary.InsertedRecords,
			"skipped", summary.SkippedRecords,
			"parse_errors", summary.ParseErrors,
			"insert_errors", summary.InsertErrors,
			"duration", elapsed,
		)
	}()

	content, err := ReadContent(r, s.cfg.Import.MaxFileSize)
	if err != nil {
		return nil, err
	}

	parsed := ParseDemographicFile(content)
	// The text is no longer needed and may be hundreds of megabytes.
	content = ""

	summary = &ImportSummary{
		ImportID:      id,
		FileName:      req.FileName,
		TotalLines:    parsed.TotalLines,
		ParsedRecords: len(parsed.Records),
		ParseErrors:   len(parsed.Errors),
		Errors: ImportErrors{
			Parse:  nonNil(parsed.Errors),
			Insert: []string{},
		},
	}

	if len(parsed.Records) == 0 {
		return summary, ErrNoValidRecords
	}

	if req.OnParsed != nil {
		req.OnParsed(parsed)
	}

	batchSize := req.BatchSize
	if batchSize < 1 {
		batchSize = s.cfg.Import.BatchSize
	}

	inserted, err := s.inserter.InsertBatches(ctx, parsed.Records, batchSize, req.OnProgress)
	if err != nil {
		return nil, err
	}

	summary.Success = true
	summary.InsertedRecords = inserted.Inserted
	summary.SkippedRecords = inserted.Skipped
	summary.InsertErrors = len(inserted.Errors)
	summary.Errors.Insert = nonNil(inserted.Errors)
	return summary, nil
}

// StartImport runs an import in the background and returns its ID.
// The import keeps running when ctx is cancelled; ctx only bounds the wait
// for an import slot and supplies request-scoped logging fields.
func (s *Service) StartImport(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := s.checkSize(int64(len(data))); err != nil {
		return "", err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	id := uuid.NewString()
	imp := &activeImport{
		ID:       id,
		FileName: fileName,
		Done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.imports[id] = imp
	s.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in import", "import_id", id, "panic", r)
				imp.finish(nil, fmt.Errorf("internal error: %v", r))
			}
			close(imp.Done)
			s.cleanup(id, s.cfg.Import.ResultRetention)
		}()

		summary, err := s.runImport(runCtx, id, bytes.NewReader(data), ImportRequest{
			FileName:   fileName,
			Size:       int64(len(data)),
			OnProgress: imp.notifyProgress,
		})
		imp.finish(summary, err)
	}()

	return id, nil
}

// SubscribeProgress returns a channel of progress snapshots for a
// background import. The current snapshot is sent first. The channel is
// closed when the import finishes; slow readers miss intermediate snapshots.
func (s *Service) SubscribeProgress(id string) (<-chan ProgressSnapshot, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan ProgressSnapshot, 16)

	imp.mu.Lock()
	defer imp.mu.Unlock()

	ch <- imp.progress
	if imp.finished {
		close(ch)
		return ch, nil
	}
	imp.listeners = append(imp.listeners, ch)
	return ch, nil
}

// ImportProgress returns the latest snapshot without blocking.
func (s *Service) ImportProgress(id string) (ProgressSnapshot, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return ProgressSnapshot{}, err
	}
	imp.mu.Lock()
	defer imp.mu.Unlock()
	return imp.progress, nil
}

// ImportResult waits for a background import to finish, or for ctx.
func (s *Service) ImportResult(ctx context.Context, id string) (*ImportSummary, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	select {
	case <-imp.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	imp.mu.Lock()
	defer imp.mu.Unlock()
	return imp.summary, imp.err
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) lookup(id string) (*activeImport, error) {
	s.mu.RLock()
	imp, ok := s.imports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	return imp, nil
}

// cleanup forgets a finished import after a delay so late readers can
// still fetch its result.
func (s *Service) cleanup(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.imports, id)
		s.mu.Unlock()
	})
}

// notifyProgress records the snapshot and offers it to every listener.
func (imp *activeImport) notifyProgress(p ProgressSnapshot) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	imp.progress = p
	for _, ch := range imp.listeners {
		select {
		case ch <- p:
		default:
		}
	}
}

// finish stores the outcome and closes listener channels. Only the first
// call has an effect.
func (imp *activeImport) finish(summary *ImportSummary, err error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	if imp.finished {
		return
	}
	imp.finished = true
	imp.summary = summary
	imp.err = err
	if err == nil && summary == nil {
		imp.err = errors.New("import finished without a result")
	}

	for _, ch := range imp.listeners {
		close(ch)
	}
	imp.listeners = nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
