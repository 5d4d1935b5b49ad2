package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/demoimport/internal/core"
)

// handleHealth reports liveness without touching the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// handleImportStatus reports import slot usage.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.LimiterStatus())
}

// handleSearch filters, sorts and pages stored records.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := searchQueryFrom(r.URL.Query())
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	result, err := s.service.Search(r.Context(), q)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, result)
}

// searchQueryFrom reads search parameters from the query string. Sort and
// filter values are validated by the service.
func searchQueryFrom(v url.Values) (core.SearchQuery, error) {
	q := core.SearchQuery{
		FirstName:   v.Get("firstName"),
		LastName:    v.Get("lastName"),
		City:        v.Get("city"),
		State:       v.Get("state"),
		ZipCode:     v.Get("zipCode"),
		SSN:         v.Get("ssn"),
		DateOfBirth: v.Get("dateOfBirth"),
		Search:      v.Get("search"),
		SortBy:      v.Get("sortBy"),
		SortOrder:   v.Get("sortOrder"),
	}

	var err error
	if q.Page, err = intParam(v, "page"); err != nil {
		return core.SearchQuery{}, err
	}
	if q.Limit, err = intParam(v, "limit"); err != nil {
		return core.SearchQuery{}, err
	}
	return q, nil
}

// intParam returns 0 for a missing parameter.
func intParam(v url.Values, name string) (int, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrInvalidSearch, name)
	}
	return n, nil
}

// handleHistory lists recent import runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	runs, err := s.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, map[string]any{"imports": runs})
}
