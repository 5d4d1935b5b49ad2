package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/demoimport/internal/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Event types sent on import streams.
const (
	eventStart    = "start"
	eventProgress = "progress"
	eventComplete = "complete"
	eventError    = "error"
)

type startEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// parsedCounts is attached to the progress event sent once parsing is done.
type parsedCounts struct {
	TotalRecords  int `json:"totalRecords"`
	ParsedRecords int `json:"parsedRecords"`
	ParseErrors   int `json:"parseErrors"`
}

// progressEvent carries either parse counts or chunk counters, never both.
type progressEvent struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
	*parsedCounts
	*core.ProgressSnapshot
}

type completeEvent struct {
	Type string `json:"type"`
	*core.ImportSummary
}

type errorEvent struct {
	Type   string   `json:"type"`
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

var counts = message.NewPrinter(language.English)

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return counts.Sprintf("%d", n)
}

func parsingEvent() progressEvent {
	return progressEvent{Type: eventProgress, Message: "Parsing file...", Progress: 10}
}

func parsedEvent(p core.ParseResult) progressEvent {
	return progressEvent{
		Type:     eventProgress,
		Message:  fmt.Sprintf("Parsed %s records. Starting import...", formatCount(len(p.Records))),
		Progress: 20,
		parsedCounts: &parsedCounts{
			TotalRecords:  len(p.Records),
			ParsedRecords: len(p.Records),
			ParseErrors:   len(p.Errors),
		},
	}
}

func chunkEvent(snap core.ProgressSnapshot) progressEvent {
	return progressEvent{
		Type:             eventProgress,
		Message:          fmt.Sprintf("Importing: %s records inserted...", formatCount(snap.Inserted)),
		Progress:         snap.Percent(),
		ProgressSnapshot: &snap,
	}
}

// terminalEvent is the last event of a stream: the summary on success,
// otherwise the mapped error. A file without valid records also carries
// its line errors.
func terminalEvent(summary *core.ImportSummary, err error) any {
	if err == nil {
		return completeEvent{Type: eventComplete, ImportSummary: summary}
	}
	msg := core.MapError(err)
	ev := errorEvent{Type: eventError, Error: msg.Message, Code: msg.Code}
	if summary != nil {
		ev.Errors = summary.Errors.Parse
	}
	return ev
}

// eventWriter writes server-sent events as "data: {json}" frames and
// flushes after each one.
type eventWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// newEventWriter commits the response as an event stream. Errors must be
// reported before this point; afterwards only events can be sent.
func newEventWriter(w http.ResponseWriter) *eventWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	return &eventWriter{w: w, rc: http.NewResponseController(w)}
}

func (e *eventWriter) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return e.rc.Flush()
}
