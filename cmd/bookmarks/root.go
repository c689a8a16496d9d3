package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/config"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Capture saved posts from a browser session and load them into SQLite",
	Long: `bookmarks records the saved posts your browser loads while you scroll,
then loads the captured records into a local SQLite database.

Typical flow:
  1. bookmarks capture      open the browser, sign in, press ENTER, wait for idle
  2. bookmarks ingest       load out/bookmarks.ndjson into the database
  3. bookmarks serve        expose ingestion and listings over HTTP
  4. bookmarks stats        print what is stored`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetNoColor(true)
		}

		// Don't show logo for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Parent() == rootCmd {
			ui.PrintLogo()
		}
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.bookmarks.yaml or ~/.config/bookmarks/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and one line per captured post")

	rootCmd.SetVersionTemplate(`bookmarks {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the global flags into flags, loads the configuration
// and initializes the global logger from it.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = map[string]interface{}{}
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if verbose {
		flags["log-level"] = "debug"
	}
	flags["quiet"] = quiet

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("Configuration loaded")
	return cfg, nil
}
