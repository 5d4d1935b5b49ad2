package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/demoimport/internal/logging"
	"github.com/go-chi/chi/v5"
)

// startedImport is the response to POST /api/imports.
type startedImport struct {
	ImportID string `json:"importId"`
	FileName string `json:"fileName"`
	Progress string `json:"progress"`
	Result   string `json:"result"`
}

// handleStartImport reads the upload into memory, starts a background
// import and answers 202 with the URLs to follow it.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	id, err := s.service.StartImport(r.Context(), header.Filename, data)
	if err != nil {
		s.respondImportError(w, r, nil, err)
		return
	}

	base := "/api/imports/" + id
	w.Header().Set("Location", base)
	writeJSONStatus(w, r, http.StatusAccepted, startedImport{
		ImportID: id,
		FileName: header.Filename,
		Progress: base + "/progress",
		Result:   base + "/result",
	})
}

// handleImportProgress streams a background import's progress as
// server-sent events and ends with its complete or error event.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")

	updates, err := s.service.SubscribeProgress(id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	events := newEventWriter(w)
	logger := logging.WithFields(r.Context(), "import_id", id)

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				summary, err := s.service.ImportResult(r.Context(), id)
				if r.Context().Err() != nil {
					return
				}
				if err := events.send(terminalEvent(summary, err)); err != nil {
					logger.Debug("progress stream closed", "error", err)
				}
				return
			}
			if snap.Total == 0 {
				continue // nothing written yet
			}
			if err := events.send(chunkEvent(snap)); err != nil {
				logger.Debug("progress stream closed", "error", err)
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

// handleImportResult waits for a background import and returns its summary.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")

	summary, err := s.service.ImportResult(r.Context(), id)
	if err != nil {
		s.respondImportError(w, r, summary, err)
		return
	}
	writeJSON(w, r, summary)
}
