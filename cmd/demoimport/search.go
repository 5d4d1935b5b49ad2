package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/JonMunkholm/demoimport/internal/core"
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		q      core.SearchQuery
		desc   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search [TEXT]",
		Short: "Search stored records",
		Long: `Search filters stored records by field and by full text, then prints one
page of results. Name and city filters match substrings; state, ZIP, SSN and
date of birth match exactly. Dates may be MM/DD/YYYY or YYYY-MM-DD.`,
		Example: `  demoimport search --last-name smith --state IL
  demoimport search "oak street" --sort last_name --desc --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.Search = args[0]
			}
			if desc {
				q.SortOrder = "DESC"
			}

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			result, err := svc.Search(cmd.Context(), q)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printSearch(cmd.OutOrStdout(), result)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.FirstName, "first-name", "", "first name contains")
	f.StringVar(&q.LastName, "last-name", "", "last name contains")
	f.StringVar(&q.City, "city", "", "city contains")
	f.StringVar(&q.State, "state", "", "two-letter state code")
	f.StringVar(&q.ZipCode, "zip", "", "ZIP code")
	f.StringVar(&q.SSN, "ssn", "", "SSN as stored")
	f.StringVar(&q.DateOfBirth, "dob", "", "date of birth")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.Limit, "limit", 0, "results per page (default SEARCH_DEFAULT_LIMIT)")
	f.StringVar(&q.SortBy, "sort", core.DefaultSortColumn, "column to sort by")
	f.BoolVar(&desc, "desc", false, "sort descending")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printSearch(w io.Writer, result *core.SearchResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFIRST\tLAST\tCITY\tSTATE\tZIP\tSSN\tDOB")
	for _, r := range result.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.FirstName, r.LastName, deref(r.City), deref(r.State),
			deref(r.ZipCode), r.SSN, deref(r.DateOfBirth))
	}
	_ = tw.Flush()

	p := result.Pagination
	fmt.Fprintf(w, "\npage %d of %d, %d records (sorted by %s %s)\n",
		p.Page, p.TotalPages, p.Total, result.Sort.SortBy, result.Sort.SortOrder)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
