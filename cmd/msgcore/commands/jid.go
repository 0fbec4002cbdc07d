package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"msgcore/internal/jid"
)

func jidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jid <id>...",
		Short: "Decode identifiers and print their parts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INPUT\tUSER\tSERVER\tDOMAIN\tDEVICE\tAGENT\tCHAT\tADDRESS")
			for _, s := range args {
				j, ok := jid.Parse(s)
				if !ok {
					fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\tinvalid\n", s)
					continue
				}
				addr := "-"
				if a, err := jid.ToAddress(s); err == nil {
					addr = a.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					s, j.User, j.Server, j.Domain, j.Device, j.Agent, jid.Kind(s), addr)
			}
			return tw.Flush()
		},
	}
}
