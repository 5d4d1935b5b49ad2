// Package core provides the business logic for demographic record imports.
//
// The package holds all domain logic independent of any transport. It is
// used by the web handlers, the CLI, and tests without modification.
//
// # Pipeline
//
// An import moves through four stages:
//
//  1. [ReadContent] reads the file, dropping a UTF-8 BOM and replacing
//     invalid bytes, and enforces the size limit.
//  2. [ParseDemographicFile] splits the text into lines and validates each
//     colon-delimited line, collecting one "Line N: reason" per rejection.
//  3. [BatchInserter.InsertBatches] upserts the records keyed on SSN, one
//     transaction per chunk, reporting a [ProgressSnapshot] after each.
//  4. [Service.Import] ties the stages together and returns an
//     [ImportSummary].
//
// A file that yields no records fails with [ErrNoValidRecords] and never
// touches the store. A store that cannot be reached fails with
// [ErrStoreUnavailable]. A failing chunk is rolled back and reported in
// the summary while later chunks still run.
//
// # Background Imports
//
// [Service.StartImport] runs the same pipeline in a goroutine. Callers
// follow it with [Service.SubscribeProgress] and collect the outcome with
// [Service.ImportResult]. At most Import.MaxConcurrent imports run at once;
// see [ImportLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has its own code prefix for support reference:
//
//   - DB: database reachability and conflicts
//   - VAL: search and field validation
//   - FILE: size, missing file, nothing to import
//   - IMP: concurrency limits, unknown imports, cancellation
package core
