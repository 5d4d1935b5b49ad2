package main

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/demoimport/internal/admin"
	db "github.com/JonMunkholm/demoimport/internal/database"
	"github.com/spf13/cobra"
)

var errResetNotConfirmed = errors.New("reset deletes data; pass --yes to confirm")

func newResetCmd(a *app) *cobra.Command {
	var (
		yes         bool
		historyOnly bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored records and import history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errResetNotConfirmed
			}

			pool, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			r := &admin.ResetDbs{DB: db.New(pool)}
			if historyOnly {
				if err := r.ResetHistory(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "import history cleared")
				return nil
			}

			if err := r.ResetAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "records and import history cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	cmd.Flags().BoolVar(&historyOnly, "history-only", false, "clear only the import history")
	return cmd
}
