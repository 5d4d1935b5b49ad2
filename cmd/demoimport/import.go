package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/demoimport/internal/core"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// fileImporter is the part of core.Service the import command drives.
type fileImporter interface {
	Import(ctx context.Context, r io.Reader, req core.ImportRequest) (*core.ImportSummary, error)
}

type importOptions struct {
	parallel   int
	batchSize  int
	rejects    string
	noProgress bool
}

// fileResult is the outcome of importing one file.
type fileResult struct {
	Path    string
	Summary *core.ImportSummary
	Err     error
}

func newImportCmd(a *app) *cobra.Command {
	opts := importOptions{}

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import one or more demographic record files",
		Long: `Import parses each file, upserts its valid records in chunked transactions
keyed on SSN, and prints a summary per file. Files are imported concurrently,
at most --parallel at a time. Rejected lines can be written to a CSV report.`,
		Example: `  demoimport import people.txt
  demoimport import --parallel 4 --rejects rejects.csv data/*.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.parallel < 1 {
				return fmt.Errorf("--parallel must be at least 1")
			}

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			progressOut := cmd.ErrOrStderr()
			if opts.noProgress {
				progressOut = io.Discard
			}

			results := importFiles(cmd.Context(), svc, args, opts, progressOut)
			printResults(cmd.OutOrStdout(), results)

			if opts.rejects != "" {
				n, err := writeRejectsFile(opts.rejects, results)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d rejected lines written to %s\n", n, opts.rejects)
			}

			return failedFiles(results)
		},
	}

	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 1, "number of files to import at once")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "records per transaction (default IMPORT_BATCH_SIZE)")
	cmd.Flags().StringVar(&opts.rejects, "rejects", "", "write rejected lines to this CSV file")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "do not draw a progress bar")
	return cmd
}

// importFiles imports every path, at most opts.parallel at a time. A
// failing file does not stop the others; results keep the order of paths.
func importFiles(ctx context.Context, imp fileImporter, paths []string, opts importOptions, progressOut io.Writer) []fileResult {
	results := make([]fileResult, len(paths))
	bar := newImportBar(progressOut, len(paths))
	defer bar.Finish()

	var g errgroup.Group
	g.SetLimit(opts.parallel)

	for i, path := range paths {
		g.Go(func() error {
			summary, err := importFile(ctx, imp, path, opts.batchSize, bar)
			results[i] = fileResult{Path: path, Summary: summary, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func importFile(ctx context.Context, imp fileImporter, path string, batchSize int, bar *progressbar.ProgressBar) (*core.ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// The bar is shared by every file: each file grows its max once parsed
	// and advances it by the records it has processed since the last chunk.
	var (
		mu        sync.Mutex
		processed int
	)
	advance := func(snap core.ProgressSnapshot) {
		mu.Lock()
		delta := snap.Processed - processed
		processed = snap.Processed
		mu.Unlock()
		_ = bar.Add(delta)
	}

	name := filepath.Base(path)
	return imp.Import(ctx, f, core.ImportRequest{
		FileName:  name,
		Size:      info.Size(),
		BatchSize: batchSize,
		OnParsed: func(p core.ParseResult) {
			bar.AddMax(len(p.Records))
		},
		OnProgress: core.MultiProgress(advance, logChunk(name)),
	})
}

// logChunk logs each finished chunk at debug level, visible with -v.
func logChunk(file string) core.ProgressFunc {
	return func(snap core.ProgressSnapshot) {
		slog.Debug("chunk finished",
			"file", file,
			"batch", snap.CurrentBatch,
			"batches", snap.TotalBatches,
			"inserted", snap.Inserted,
		)
	}
}

func newImportBar(w io.Writer, files int) *progressbar.ProgressBar {
	desc := "importing"
	if files > 1 {
		desc = fmt.Sprintf("importing %d files", files)
	}
	return progressbar.NewOptions(0,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// printResults writes one row per file.
func printResults(w io.Writer, results []fileResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINES\tPARSED\tINSERTED\tSKIPPED\tPARSE ERRORS\tINSERT ERRORS\tRESULT")
	for _, r := range results {
		s := r.Summary
		if s == nil {
			s = &core.ImportSummary{}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			filepath.Base(r.Path), s.TotalLines, s.ParsedRecords, s.InsertedRecords,
			s.SkippedRecords, s.ParseErrors, s.InsertErrors, resultText(r))
	}
	_ = tw.Flush()

	for _, r := range results {
		if r.Summary == nil {
			continue
		}
		for _, e := range r.Summary.Errors.Insert {
			fmt.Fprintf(w, "%s: %s\n", filepath.Base(r.Path), e)
		}
	}
}

func resultText(r fileResult) string {
	switch {
	case r.Err != nil:
		return core.FormatUserError(r.Err)
	case r.Summary.InsertErrors > 0 || r.Summary.SkippedRecords > 0:
		return "completed with errors"
	default:
		return "ok"
	}
}

// failedFiles reports how many files did not import at all.
func failedFiles(results []fileResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Path, core.NewUserError(r.Err)))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d files failed: %w", len(errs), len(results), errors.Join(errs...))
}
