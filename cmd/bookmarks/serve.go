package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/server"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ui"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ingestion and read endpoints over HTTP",
	Long: `Start an HTTP server on top of the database.

Endpoints:
  POST /api/ingest               JSON array or NDJSON body
  GET  /api/stats                post and group counts
  GET  /api/groups               groups with post counts
  GET  /api/groups/{slug}/posts  posts in one group
  GET  /api/posts/{id}           one post
  GET  /healthz                  database liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default 127.0.0.1:3000)")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "database path (default ./data/bookmarks.db)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"db":   dbPath,
		"addr": serveAddr,
	})
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	ui.PrintInfo("Database", cfg.Storage.DatabasePath)
	ui.PrintInfo("Listening", "http://"+cfg.Server.Address)

	return server.New(st, cfg.Server, log).Run(ctx)
}
