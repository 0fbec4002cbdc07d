package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored sessions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate <jid>",
			Short: "Check that a usable session exists for jid",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				acc, err := openAccount()
				if err != nil {
					return err
				}
				ok, reason, err := acc.Repo.ValidateSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], reason)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <jid>...",
			Short: "Delete the sessions of the given JIDs",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				acc, err := openAccount()
				if err != nil {
					return err
				}
				if err := acc.Repo.DeleteSessions(cmd.Context(), args); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d session(s)\n", len(args))
				return nil
			},
		},
	)
	return cmd
}
