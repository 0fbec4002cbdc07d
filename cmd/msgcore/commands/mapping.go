package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"msgcore/internal/domain"
)

func mappingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect and update LID/PN mappings",
	}
	cmd.AddCommand(mappingStoreCmd(), mappingResolveCmd())
	return cmd
}

func mappingStoreCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "store <lid> <pn>",
		Short: "Remember a LID/PN pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := domain.LIDMapping{LID: args[0], PN: args[1]}
			wire.Mapping.StoreMany(cmd.Context(), []domain.LIDMapping{m})
			if publish {
				if wire.Directory == nil {
					return fmt.Errorf("no directory configured. use --directory")
				}
				if err := wire.Directory.Publish(cmd.Context(), []domain.LIDMapping{m}); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", m.LID, m.PN)
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "also publish the pair to the directory")
	return cmd
}

func mappingResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <lid>...",
		Short: "Resolve LIDs to phone-number JIDs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found := make(map[string]string, len(args))
			for _, m := range wire.Mapping.ResolveMany(cmd.Context(), args) {
				found[m.LID] = m.PN
			}
			for _, lid := range args {
				pn, ok := found[lid]
				if !ok {
					pn = "(unknown)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", lid, pn)
			}
			return nil
		},
	}
}
