package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ui"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print post and group counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&dbPath, "db", "", "database path (default ./data/bookmarks.db)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"db": dbPath})
	if err != nil {
		return err
	}

	st, err := openStore(cfg, logger.GetLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	groups, err := st.Groups(ctx)
	if err != nil {
		return err
	}

	ui.PrintInfo("Posts", strconv.Itoa(stats.Total))
	ui.PrintInfo("Assigned", strconv.Itoa(stats.Assigned))
	ui.PrintInfo("Unassigned", strconv.Itoa(stats.Unassigned))
	ui.PrintInfo("Groups", strconv.Itoa(stats.Groups))
	for _, g := range groups {
		ui.PrintInfo("  "+g.Label, fmt.Sprintf("%d (%s)", g.Count, g.Slug))
	}
	return nil
}
