package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"msgcore/internal/directory"
)

func main() {
	var addr, level string
	log := logrus.New()

	root := &cobra.Command{
		Use:          "directory",
		Short:        "In-memory LID directory for development",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(level)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)

			srv := &http.Server{
				Addr:              addr,
				Handler:           directory.NewServer(log),
				ReadHeaderTimeout: 5 * time.Second,
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdown)
			}()

			log.WithField("addr", addr).Info("directory listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	root.Flags().StringVar(&addr, "addr", ":8081", "listen address")
	root.Flags().StringVar(&level, "log-level", "info", "log level")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
