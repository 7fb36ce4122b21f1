package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/siherrmann/agrimarket/core/indexer"
	"github.com/siherrmann/agrimarket/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API with scheduled indexing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		structuredOnly, _ := cmd.Flags().GetBool("no-search")
		a, err := open(cmd, structuredOnly)
		if err != nil {
			return err
		}
		defer a.Close()

		deps := server.Dependencies{
			Answerer:  a.Dispatcher,
			Summaries: a.Summaries,
			Prices:    a.Prices,
			Health:    a.DB,
		}

		if a.Indexer != nil {
			deps.Sync = func(ctx context.Context) (int, error) {
				return a.IndexNew(ctx)
			}

			scheduler := indexer.NewScheduler(a.Indexer, a.Loader, a.Logger())
			if cfg.Indexer.OnStart {
				go scheduler.RunNow()
			}
			if cfg.Indexer.Schedule != "" {
				err = scheduler.Start(cfg.Indexer.Schedule)
				if err != nil {
					return err
				}
				defer scheduler.Stop()
			}
		} else {
			a.Logger().Warn("Document search disabled, serving structured data and calculations only")
		}

		srv := server.NewServer(cfg.API, deps, version, a.Logger())
		err = srv.ListenAndServe(ctx)
		if err != nil {
			a.Logger().Error("HTTP server stopped", slog.String("error", err.Error()))
		}
		return err
	},
}

func init() {
	serveCmd.Flags().Bool("no-search", false, "skip loading the embedding model, document search and indexing are disabled")
}
