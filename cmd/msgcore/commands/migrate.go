package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <pn> <lid>",
		Short: "Copy a contact's phone-number sessions to its LID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := openAccount()
			if err != nil {
				return err
			}
			res, err := acc.Repo.MigrateSession(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated=%d skipped=%d total=%d\n", res.Migrated, res.Skipped, res.Total)
			return nil
		},
	}
}
