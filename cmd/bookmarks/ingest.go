package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/checkpoint"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/config"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ingest"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/store"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ui"
)

// Database flag shared by ingest, serve and stats
var dbPath string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [file|-]",
	Short: "Load captured posts into the database",
	Long: `Load a capture file into the SQLite database.

The input may be a JSON array of posts or newline-delimited JSON, one post
per line. Use "-" to read from stdin. Without an argument the configured
capture output is used.

Ingestion is idempotent: loading the same file twice leaves the database
unchanged, and a post that is loaded again replaces its stored copy. A batch
is all or nothing; one invalid record rejects the whole batch.`,
	Example: `  # Load the default capture output
  bookmarks ingest

  # Load a file into a specific database
  bookmarks ingest ./captures/bookmarks.ndjson --db ./data/archive.db

  # Read from stdin
  cat bookmarks.json | bookmarks ingest -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&dbPath, "db", "", "database path (default ./data/bookmarks.db)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"db": dbPath})
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := cfg.OutputPath()
	if len(args) == 1 {
		source = args[0]
	}

	var in io.Reader = os.Stdin
	if source != "-" {
		warnIfIncomplete(source, log)
		f, err := os.Open(source)
		if err != nil {
			return fmt.Errorf("open %s: %w", source, err)
		}
		defer f.Close()
		in = f
	}

	posts, err := ingest.Decode(in)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Ingest(ctx, posts)
	if err != nil {
		return err
	}

	log.InfoWithFields("Ingest complete", map[string]interface{}{
		"source":   source,
		"ingested": n,
		"db":       cfg.Storage.DatabasePath,
	})
	ui.PrintSuccess(fmt.Sprintf("Ingested %d posts into %s", n, cfg.Storage.DatabasePath))
	return nil
}

// warnIfIncomplete flags capture files whose session never reached idle
// termination. They are still ingested.
func warnIfIncomplete(path string, log logger.Logger) {
	cp, err := checkpoint.NewManager(path, log).Load()
	switch {
	case err != nil:
		log.WithError(err).Warn("Could not read capture manifest")
	case cp == nil:
		ui.PrintWarning("No capture manifest found; the file may come from an interrupted capture")
	case !cp.Complete():
		ui.PrintWarning(fmt.Sprintf("Capture manifest reports state %q; the file may be incomplete", cp.State))
	}
}

func openStore(cfg *config.Config, log logger.Logger) (*store.Store, error) {
	return store.Open(cfg.Storage.DatabasePath,
		store.WithBusyTimeout(cfg.Storage.BusyTimeout),
		store.WithLogger(log),
	)
}
