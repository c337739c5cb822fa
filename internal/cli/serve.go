package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taskgraph/internal/api"
)

func newServeCmd() *cobra.Command {
	var (
		listen      string
		withHistory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("listen") {
				listen = settings.Listen
			}
			if !cmd.Flags().Changed("history") {
				withHistory = settings.History.Enabled
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg := api.Config{Listen: listen, MaxBodyBytes: settings.MaxBodyBytes}
			if withHistory {
				store, err := openHistory(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				if _, err := store.Prune(ctx, settings.History.Retain); err != nil {
					return err
				}
				cfg.Store = store
			}

			srv := api.New(cfg)
			addr, err := srv.Start()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)

			<-ctx.Done()
			if err := srv.Stop(); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8080", "address to listen on")
	cmd.Flags().BoolVar(&withHistory, "history", false, "store validated reports and serve /api/reports")

	return cmd
}
