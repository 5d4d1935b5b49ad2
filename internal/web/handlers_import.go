package web

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/demoimport/internal/core"
	"github.com/JonMunkholm/demoimport/internal/logging"
)

// uploadField is the multipart form field holding the import file.
const uploadField = "file"

// multipartOverhead allows for boundaries and part headers on top of the
// file itself when capping the request body.
const multipartOverhead = 1 << 20

// readUpload opens the uploaded file. The body is capped slightly above the
// file size limit so an oversized upload fails without being buffered.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	limit := s.cfg.Import.MaxFileSize
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig), strings.Contains(err.Error(), "request body too large"):
			return nil, nil, &requestError{
				msg: fmt.Sprintf("File too large. Maximum size is %s.", formatMB(limit)),
				err: core.ErrFileTooLarge,
			}
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil, &requestError{msg: "No file provided", err: core.ErrNoFile}
		default:
			return nil, nil, &requestError{msg: "Invalid multipart upload", err: fmt.Errorf("%w: %v", core.ErrNoFile, err)}
		}
	}

	if limit > 0 && header.Size > limit {
		file.Close()
		return nil, nil, &requestError{
			msg: fmt.Sprintf("File too large. Maximum size is %s. File size: %.2fMB",
				formatMB(limit), float64(header.Size)/1024/1024),
			err: core.ErrFileTooLarge,
		}
	}
	return file, header, nil
}

func formatMB(n int64) string {
	return strconv.FormatInt(n/1024/1024, 10) + "MB"
}

// handleImport imports a file and answers with the summary once every chunk
// has been attempted.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	// A started import finishes even if the client goes away.
	ctx := context.WithoutCancel(r.Context())

	summary, err := s.service.Import(ctx, file, core.ImportRequest{
		FileName:  header.Filename,
		Size:      header.Size,
		BatchSize: s.cfg.Import.BatchSize,
	})
	if err != nil {
		s.respondImportError(w, r, summary, err)
		return
	}

	writeJSON(w, r, summary)
}

// respondImportError writes a failed import. A file without valid records
// is reported with its line errors.
func (s *Server) respondImportError(w http.ResponseWriter, r *http.Request, summary *core.ImportSummary, err error) {
	if errors.Is(err, core.ErrNoValidRecords) && summary != nil {
		respondErrorWithDetails(w, r, err, http.StatusBadRequest, summary.Errors.Parse)
		return
	}
	if errors.Is(err, core.ErrTooManyImports) {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Import.MaxWaitTime.Seconds())))
	}
	respondError(w, r, err, statusFor(err))
}

// importOutcome is the result of an import run on another goroutine.
type importOutcome struct {
	summary *core.ImportSummary
	err     error
}

// handleImportStream imports a file and reports progress as server-sent
// events: start, parsing, parsed counts, throttled chunk progress, then
// complete or error. Upload problems are answered as plain JSON errors
// before the stream begins.
//
// When the client disconnects the import still runs to completion; the
// handler keeps waiting so the uploaded file outlives the import.
func (s *Server) handleImportStream(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer file.Close()

	logger := logging.WithFields(r.Context(), "file", header.Filename)
	events := newEventWriter(w)

	connected := true
	send := func(v any) {
		if !connected {
			return
		}
		if err := events.send(v); err != nil {
			logger.Info("import stream closed by client", "error", err)
			connected = false
		}
	}

	send(startEvent{Type: eventStart, Message: "Reading file..."})
	send(parsingEvent())

	parsedCh := make(chan core.ParseResult, 1)
	progressCh := make(chan core.ProgressSnapshot, 64)
	done := make(chan importOutcome, 1)

	ctx := context.WithoutCancel(r.Context())
	go func() {
		summary, err := s.service.Import(ctx, file, core.ImportRequest{
			FileName:   header.Filename,
			Size:       header.Size,
			BatchSize:  s.cfg.Import.StreamBatchSize,
			OnParsed:   func(p core.ParseResult) { parsedCh <- p },
			OnProgress: core.ThrottleProgress(s.cfg.Import.ProgressInterval, core.ChannelProgress(progressCh)),
		})
		done <- importOutcome{summary: summary, err: err}
	}()

	// The parsed event is queued before the first chunk starts, so flushing
	// it ahead of every other event keeps the stream in order.
	flushParsed := func() {
		select {
		case p := <-parsedCh:
			send(parsedEvent(p))
		default:
		}
	}

	clientGone := r.Context().Done()
	for {
		select {
		case p := <-parsedCh:
			send(parsedEvent(p))

		case snap := <-progressCh:
			flushParsed()
			send(chunkEvent(snap))

		case out := <-done:
			flushParsed()
			for drained := false; !drained; {
				select {
				case snap := <-progressCh:
					send(chunkEvent(snap))
				default:
					drained = true
				}
			}
			send(terminalEvent(out.summary, out.err))
			return

		case <-clientGone:
			connected = false
			clientGone = nil
		}
	}
}
