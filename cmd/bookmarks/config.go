package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/config"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ui"
)

const defaultConfigFile = ".bookmarks.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage bookmarks configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (BOOKMARKS_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration with every option to a file.

The file is created in the current directory as '.bookmarks.yaml' unless a
different path is given with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it.

This command checks:
  - YAML syntax
  - Required fields
  - Value ranges
  - Output, database and log directories can be created`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = defaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the capture and storage sections")
	fmt.Println("2. Run 'bookmarks config validate' to check the configuration")
	fmt.Println("3. Start with 'bookmarks capture'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (BOOKMARKS_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var problems []string
	for _, dir := range []string{
		cfg.Capture.OutputDirectory,
		filepath.Dir(cfg.Storage.DatabasePath),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s: %v", dir, err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("%d configuration errors", len(problems))
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Target: %s\n", cfg.Capture.TargetURL)
	fmt.Printf("  Output: %s\n", cfg.OutputPath())
	fmt.Printf("  Idle threshold: %s\n", cfg.Capture.IdleThreshold)
	fmt.Printf("  Database: %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("  Server: %s\n", cfg.Server.Address)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
