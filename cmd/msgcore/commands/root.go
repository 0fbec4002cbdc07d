package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"msgcore/internal/app"
)

var (
	configPath string
	home       string
	passphrase string
	keyStore   string
	dirURL     string
	meID       string
	meLID      string

	wire *app.Wire
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "msgcore",
		Short:         "Decode end-to-end encrypted envelopes and manage LID/PN identities",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if keyStore != "" {
				cfg.KeyStore.Backend = keyStore
			}
			if dirURL != "" {
				cfg.Directory.URL = dirURL
			}
			wire, err = app.NewWire(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.msgcore)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&keyStore, "key-store", "", "key store backend: memory, file or redis")
	root.PersistentFlags().StringVar(&dirURL, "directory", "", "directory base URL (e.g. http://127.0.0.1:8081)")
	root.PersistentFlags().StringVar(&meID, "me", "", "own phone-number JID, e.g. 5522@s.whatsapp.net")
	root.PersistentFlags().StringVar(&meLID, "me-lid", "", "own LID, e.g. 222@lid")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		bundleCmd(),
		jidCmd(),
		decodeCmd(),
		mappingCmd(),
		migrateCmd(),
		sessionCmd(),
	)
	return root
}

// openAccount unlocks the credentials for commands that touch sessions.
func openAccount() (*app.App, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase required (-p)")
	}
	return wire.Open(passphrase, meID, meLID)
}
