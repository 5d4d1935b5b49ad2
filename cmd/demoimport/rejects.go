package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// rejectRow is one line of the rejects report.
type rejectRow struct {
	File   string `csv:"file"`
	Line   int    `csv:"line"`
	Reason string `csv:"reason"`
}

// collectRejects turns the "Line N: reason" parse errors of every file into
// report rows, in file then line order.
func collectRejects(results []fileResult) []rejectRow {
	var rows []rejectRow
	for _, r := range results {
		if r.Summary == nil {
			continue
		}
		for _, e := range r.Summary.Errors.Parse {
			line, reason := splitLineError(e)
			rows = append(rows, rejectRow{File: filepath.Base(r.Path), Line: line, Reason: reason})
		}
	}
	return rows
}

// splitLineError separates "Line 12: reason". Entries in another shape are
// kept whole with line 0.
func splitLineError(s string) (int, string) {
	rest, ok := strings.CutPrefix(s, "Line ")
	if !ok {
		return 0, s
	}
	num, reason, ok := strings.Cut(rest, ": ")
	if !ok {
		return 0, s
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, s
	}
	return n, reason
}

func writeRejects(w io.Writer, rows []rejectRow) error {
	if rows == nil {
		rows = []rejectRow{}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write rejects: %w", err)
	}
	return nil
}

// writeRejectsFile writes the report to path and returns the row count.
func writeRejectsFile(path string, results []fileResult) (int, error) {
	rows := collectRejects(results)

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create rejects file: %w", err)
	}
	if err := writeRejects(f, rows); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close rejects file: %w", err)
	}
	return len(rows), nil
}
