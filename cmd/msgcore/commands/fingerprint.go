package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func fingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := wire.Identity.Fingerprint(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
	return cmd
}

func bundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle",
		Short: "Print the local X3DH bundle as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := wire.PreKeys.Bundle(cmd.Context(), passphrase)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(b)
		},
	}
}
