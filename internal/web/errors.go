package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with full technical detail and the request ID, and
// returned to the client as JSON carrying a user-facing message, a
// suggested action, and a support code from core.MapError.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/demoimport/internal/core"
	"github.com/JonMunkholm/demoimport/internal/logging"
)

var errRateLimited = errors.New("rate limit exceeded")

// requestError carries the exact text to show the client while still
// matching the wrapped error for status and code mapping.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.err }

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrNoValidRecords),
		errors.Is(err, core.ErrInvalidSearch):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStoreUnavailable),
		errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes it as an ErrorResponse. The error field
// holds the mapped message, so driver text never reaches the client, unless
// err is a requestError or a search validation failure.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	writeErrorResponse(w, r, err, status, nil)
}

// respondErrorWithDetails is respondError plus a list of line-level errors.
func respondErrorWithDetails(w http.ResponseWriter, r *http.Request, err error, status int, details []string) {
	writeErrorResponse(w, r, err, status, details)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error, status int, details []string) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Errors:  details,
	}
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		resp.Error = reqErr.msg
	case errors.Is(err, core.ErrInvalidSearch):
		resp.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("json encode error", "error", err)
	}
}

// writeJSON encodes v as JSON with a 200 status.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	writeJSONStatus(w, r, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
