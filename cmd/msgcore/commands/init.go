package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var prekeys int
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and pre-keys and store them securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			_, fp, err := wire.Identity.GenerateCredentials(passphrase)
			if err != nil {
				return err
			}
			if prekeys > 0 {
				if _, err := wire.PreKeys.GeneratePreKeys(cmd.Context(), passphrase, prekeys); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created.\nFingerprint: %s\nPre-keys: %d\n", fp, prekeys)
			return nil
		},
	}
	cmd.Flags().IntVar(&prekeys, "prekeys", 20, "number of one-time pre-keys to generate")
	return cmd
}
