package core

import "time"

// DemographicRecord is one validated line of an import file.
// DateOfBirth keeps the raw M/D/YYYY text; it is normalized only when the
// record is written to the store.
type DemographicRecord struct {
	FirstName   string  `json:"firstName" csv:"first_name"`
	LastName    string  `json:"lastName" csv:"last_name"`
	Address     string  `json:"address" csv:"address"`
	City        string  `json:"city" csv:"city"`
	State       string  `json:"state" csv:"state"`
	ZipCode     string  `json:"zipCode" csv:"zip_code"`
	SSN         string  `json:"ssn" csv:"ssn"`
	DateOfBirth *string `json:"dateOfBirth" csv:"date_of_birth"`
}

// ParseResult is the outcome of parsing a whole file.
type ParseResult struct {
	Records []DemographicRecord
	// Errors holds one "Line N: reason" entry per rejected line, in line order.
	Errors []string
	// TotalLines counts the non-blank lines of the input.
	TotalLines int
}

// BatchInsertResult is the outcome of writing all chunks.
type BatchInsertResult struct {
	Inserted int
	// Skipped counts individual records whose upsert failed inside an
	// otherwise committed chunk. They are logged, not listed in Errors.
	Skipped int
	// Errors holds one "Batch N: reason" entry per failed chunk.
	Errors []string
}

// ProgressSnapshot carries cumulative counters after a chunk completes.
type ProgressSnapshot struct {
	Processed    int `json:"processed"`
	Inserted     int `json:"inserted"`
	Total        int `json:"total"`
	CurrentBatch int `json:"currentBatch"`
	TotalBatches int `json:"totalBatches"`
	Errors       int `json:"errors"`
}

// Percent maps the snapshot onto the 20-100 band of an import's overall
// progress; reading and parsing account for the first 20 points.
func (p ProgressSnapshot) Percent() int {
	if p.Total <= 0 {
		return 100
	}
	return 20 + p.Processed*80/p.Total
}

// ImportErrors groups the error lists reported back to the caller.
type ImportErrors struct {
	Parse  []string `json:"parse"`
	Insert []string `json:"insert"`
}

// ImportSummary is the terminal report of one import.
type ImportSummary struct {
	ImportID        string        `json:"importId,omitempty"`
	FileName        string        `json:"fileName,omitempty"`
	Success         bool          `json:"success"`
	TotalLines      int           `json:"totalLines"`
	ParsedRecords   int           `json:"parsedRecords"`
	InsertedRecords int           `json:"insertedRecords"`
	SkippedRecords  int           `json:"skippedRecords"`
	ParseErrors     int           `json:"parseErrors"`
	InsertErrors    int           `json:"insertErrors"`
	Errors          ImportErrors  `json:"errors"`
	Duration        time.Duration `json:"-"`
}

// ImportRequest describes one file to import.
type ImportRequest struct {
	FileName string
	// Size is the declared size in bytes; 0 when unknown. A positive size
	// above the configured limit is rejected before any byte is read.
	Size int64
	// BatchSize overrides the configured chunk size when positive.
	BatchSize int
	// OnProgress receives a snapshot after every chunk.
	OnProgress ProgressFunc
	// OnParsed, if set, is called once parsing finishes and before the
	// first chunk is written.
	OnParsed func(ParseResult)
}
