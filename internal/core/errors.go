package core

import "errors"

var (
	// ErrNoValidRecords means parsing produced zero records. The import is
	// rejected before the store is touched.
	ErrNoValidRecords = errors.New("no valid records found in file")

	// ErrStoreUnavailable means the record store could not be reached.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrFileTooLarge means the input exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile means the request carried no file to import.
	ErrNoFile = errors.New("no file provided")

	// ErrInvalidSearch wraps search parameter validation failures.
	ErrInvalidSearch = errors.New("invalid search parameters")

	// ErrImportNotFound means no import with the given ID is tracked.
	ErrImportNotFound = errors.New("import not found")
)
