package core

import (
	"bytes"
	"context"
	"testing"
)

// ============================================================================
// Parsing Benchmarks
// ============================================================================

// BenchmarkParseLine benchmarks validation of a single well-formed line.
func BenchmarkParseLine(b *testing.B) {
	line := "John:Doe:123 Main St:Springfield:IL:62701:123-45-6789:1/2/1980"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = parseLine(line)
	}
}

// BenchmarkParseDemographicFile benchmarks a 10k line file.
func BenchmarkParseDemographicFile(b *testing.B) {
	content := demographicLines(10000)

	b.ReportAllocs()
	b.SetBytes(int64(len(content)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseDemographicFile(content)
	}
}

// BenchmarkNormalizeDate benchmarks the insert-time date conversion.
func BenchmarkNormalizeDate(b *testing.B) {
	dob := "12/31/1999"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DateOfBirthValue(&dob)
	}
}

// ============================================================================
// Reader Benchmarks
// ============================================================================

// BenchmarkReadContent benchmarks BOM stripping and UTF-8 repair.
func BenchmarkReadContent(b *testing.B) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(demographicLines(10000))...)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ReadContent(bytes.NewReader(data), 0); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Insert Benchmarks
// ============================================================================

// BenchmarkInsertBatches measures chunking overhead against an in-memory store.
func BenchmarkInsertBatches(b *testing.B) {
	records := makeRecords(10000)
	inserter := NewBatchInserter(newFakeStore(), discardLogger())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := inserter.InsertBatches(context.Background(), records, DefaultBatchSize, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Search Benchmarks
// ============================================================================

// BenchmarkBuildSearchSQL benchmarks query rendering with every filter set.
func BenchmarkBuildSearchSQL(b *testing.B) {
	q := SearchQuery{
		FirstName:   "jo",
		LastName:    "do",
		City:        "spring",
		State:       "IL",
		ZipCode:     "62701",
		DateOfBirth: "1/2/1980",
		Search:      "main",
	}.withDefaults(50, 500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buildSearchSQL(q)
	}
}

func BenchmarkThrottleProgressParallel(b *testing.B) {
	fn := ThrottleProgress(0, func(ProgressSnapshot) {})

	b.RunParallel(func(pb *testing.PB) {
		p := ProgressSnapshot{Processed: 1, Total: 2}
		for pb.Next() {
			fn(p)
		}
	})
}
