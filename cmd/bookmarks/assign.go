package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/store"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ui"
)

// assignCmd represents the assign command
var assignCmd = &cobra.Command{
	Use:   "assign <post-id> <label>",
	Short: "Put a stored post into a group",
	Long: `Put a stored post into the group named by label, creating the group if
needed. A post belongs to at most one group; assigning again moves it.
Re-ingesting a post keeps its group.`,
	Example: `  bookmarks assign 1790000000000000001 "Go tooling"`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)
	assignCmd.Flags().StringVar(&dbPath, "db", "", "database path (default ./data/bookmarks.db)")
}

func runAssign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"db": dbPath})
	if err != nil {
		return err
	}

	st, err := openStore(cfg, logger.GetLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	id := args[0]
	label := strings.Join(args[1:], " ")
	if err := st.Assign(context.Background(), id, label); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Assigned %s to %q (%s)", id, label, store.Slug(label)))
	return nil
}
