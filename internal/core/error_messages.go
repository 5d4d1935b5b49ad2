// Error codes
//
// Every failure an import, search or history call can surface is mapped to
// a UserMessage carrying a code that users can quote to support staff.
//
//	DB001   record store unavailable       ErrStoreUnavailable
//	DB002   duplicate SSN                  SQLSTATE 23505, "duplicate key"
//	DB003   connection refused             "connection refused"
//	DB004   connection reset               "connection reset"
//	DB005   operation timed out            SQLSTATE 57014, "timeout"
//	DB006   deadlock                       SQLSTATE 40P01, "deadlock"
//	VAL001  invalid search parameters      ErrInvalidSearch
//	VAL002  invalid date                   "invalid date"
//	VAL003  invalid SSN                    "invalid ssn"
//	FILE001 file too large                 ErrFileTooLarge
//	FILE002 no file provided               ErrNoFile
//	FILE003 no valid records               ErrNoValidRecords
//	IMP001  too many imports               ErrTooManyImports
//	IMP002  import not found               ErrImportNotFound
//	IMP003  request cancelled              context.Canceled
//	IMP004  request timed out              context.DeadlineExceeded
//	RATE001 rate limited                   "rate limit"
//	ERR000  anything else
//
// Sentinels are matched with errors.Is, then Postgres errors by SQLSTATE,
// then the error text case-insensitively. The first match wins.

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgStoreUnavailable = UserMessage{"The database could not be reached", "Please try again in a few moments", "DB001"}
	msgDuplicateSSN     = UserMessage{"A record with this SSN conflicted during import", "Check the file for repeated SSNs", "DB002"}
	msgConnRefused      = UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB003"}
	msgConnReset        = UserMessage{"Database connection was interrupted", "Please try again", "DB004"}
	msgStoreTimeout     = UserMessage{"Operation timed out", "Try importing a smaller file or try again later", "DB005"}
	msgDeadlock         = UserMessage{"Database was busy with conflicting operations", "Please try again", "DB006"}

	msgInvalidSearch = UserMessage{"Search parameters are invalid", "Check the filter values and try again", "VAL001"}
	msgInvalidDate   = UserMessage{"Invalid date format detected", "Use MM/DD/YYYY or YYYY-MM-DD", "VAL002"}
	msgInvalidSSN    = UserMessage{"SSN is not in a recognised format", "Use XXX-XX-XXXX or 9 digits", "VAL003"}

	msgFileTooLarge   = UserMessage{"File exceeds the maximum size limit", "Split the file into smaller files", "FILE001"}
	msgNoFile         = UserMessage{"No file was provided", "Please select a file to import", "FILE002"}
	msgNoValidRecords = UserMessage{"No valid records found in file", "Review the line errors and fix the file", "FILE003"}

	msgBusy            = UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "IMP001"}
	msgImportNotFound  = UserMessage{"Import not found", "The import may have expired. Please start a new import", "IMP002"}
	msgCancelled       = UserMessage{"Request was cancelled", "Please try again", "IMP003"}
	msgRequestTimedOut = UserMessage{"Request timed out", "Try importing a smaller file or check your connection", "IMP004"}

	msgRateLimited = UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}

	// defaultMessage is returned when nothing matches (ERR000).
	defaultMessage = UserMessage{"An unexpected error occurred", "Please try again or contact support", "ERR000"}
)

// sentinelMessages is checked first. ErrStoreUnavailable precedes the
// context errors because a failed ping often wraps a deadline.
var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrStoreUnavailable, msgStoreUnavailable},
	{ErrNoValidRecords, msgNoValidRecords},
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrNoFile, msgNoFile},
	{ErrInvalidSearch, msgInvalidSearch},
	{ErrTooManyImports, msgBusy},
	{ErrImportNotFound, msgImportNotFound},
	{context.DeadlineExceeded, msgRequestTimedOut},
	{context.Canceled, msgCancelled},
}

// sqlStateMessages maps Postgres error codes.
var sqlStateMessages = map[string]UserMessage{
	"23505": msgDuplicateSSN,
	"40P01": msgDeadlock,
	"57014": msgStoreTimeout,
}

// textPatterns catches errors that lost their type on the way, such as
// driver messages flattened with %v. Order matters: a driver timeout often
// ends in "context deadline exceeded".
var textPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"record store unavailable", msgStoreUnavailable},
	{"duplicate key", msgDuplicateSSN},
	{"violates unique", msgDuplicateSSN},
	{"connection refused", msgConnRefused},
	{"connection reset", msgConnReset},
	{"context deadline exceeded", msgRequestTimedOut},
	{"timeout", msgStoreTimeout},
	{"deadlock", msgDeadlock},
	{"invalid search parameters", msgInvalidSearch},
	{"invalid date", msgInvalidDate},
	{"invalid ssn", msgInvalidSSN},
	{"file too large", msgFileTooLarge},
	{"no file provided", msgNoFile},
	{"no valid records", msgNoValidRecords},
	{"too many concurrent imports", msgBusy},
	{"import not found", msgImportNotFound},
	{"context canceled", msgCancelled},
	{"rate limit", msgRateLimited},
}

// MapError converts a technical error to a user-friendly message. If
// nothing matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := sqlStateMessages[pgErr.Code]; ok {
			return msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, p := range textPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a known message rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
