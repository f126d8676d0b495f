package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Query the cross-reference graph",
	Long:  `Answers questions about how guides link to each other.`,
}

var graphBacklinksCmd = &cobra.Command{
	Use:   "backlinks [path]",
	Short: "List guides linking to a guide",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphBacklinks,
}

var graphOrphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List guides nothing links to",
	Long: `Lists markdown guides with no inbound prose links or extends
declarations. The index document does not count as a linker, so a
guide reachable only through the generated table is still an orphan.`,
	RunE: runGraphOrphans,
}

func init() {
	graphCmd.AddCommand(graphBacklinksCmd)
	graphCmd.AddCommand(graphOrphansCmd)
	rootCmd.AddCommand(graphCmd)
}

func runGraphBacklinks(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	path := args[0]
	ctx := context.Background()

	backlinks, err := graphService.Backlinks(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to get backlinks: %w", err)
	}

	if len(backlinks) == 0 {
		cmd.Printf("Nothing links to %s\n", path)
		return nil
	}

	cmd.Printf("Linked from %d locations:\n\n", len(backlinks))
	for i := range backlinks {
		cmd.Printf("  %s:%d\n", backlinks[i].FromPath, backlinks[i].Line)
		if backlinks[i].FromTitle != "" {
			cmd.Printf("    Guide: %s\n", backlinks[i].FromTitle)
		}
		if backlinks[i].Text != "" {
			cmd.Printf("    Text:  %s\n", backlinks[i].Text)
		}
	}
	return nil
}

func runGraphOrphans(cmd *cobra.Command, _ []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	ctx := context.Background()
	orphans, err := graphService.Orphans(ctx)
	if err != nil {
		return fmt.Errorf("failed to find orphans: %w", err)
	}

	if len(orphans) == 0 {
		cmd.Println("No orphaned guides.")
		return nil
	}

	cmd.Printf("Orphaned guides (%d):\n\n", len(orphans))
	for i := range orphans {
		cmd.Printf("  %s\n", orphans[i].Path)
		if orphans[i].Title != "" {
			cmd.Printf("    Title: %s\n", orphans[i].Title)
		}
	}
	return nil
}
