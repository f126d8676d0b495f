package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var tocSourceID string

var tocCmd = &cobra.Command{
	Use:   "toc",
	Short: "Maintain per-guide tables of contents",
	Long: `Generates the table of contents between the <!-- doctrine:toc -->
markers in guides that carry them. Guides without markers are left
alone.`,
}

var tocWriteCmd = &cobra.Command{
	Use:   "write [guide-path]",
	Short: "Rewrite tables of contents from guide headings",
	Long: `Rewrites the table of contents in every marked guide, or in one
guide when a path is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTOCWrite,
}

var tocCheckCmd = &cobra.Command{
	Use:   "check [guide-path]",
	Short: "Report which tables of contents are stale",
	Long: `Compares tables of contents against guide headings without
writing. Exits 1 when any is stale, for use in CI.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTOCCheck,
}

func init() {
	tocCmd.PersistentFlags().StringVar(&tocSourceID, "source", "", "source to operate on (default: the sole configured source)")
	tocCmd.AddCommand(tocWriteCmd)
	tocCmd.AddCommand(tocCheckCmd)
	rootCmd.AddCommand(tocCmd)
}

// tocTarget resolves the source and optional guide path arguments.
func tocTarget(ctx context.Context, args []string) (sourceID, guidePath string, err error) {
	if tocSourceID != "" {
		sourceID = tocSourceID
	} else {
		sourceID, err = resolveSourceArg(ctx, nil)
		if err != nil {
			return "", "", err
		}
	}
	if len(args) > 0 {
		guidePath = args[0]
	}
	return sourceID, guidePath, nil
}

func runTOCWrite(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	ctx := context.Background()
	sourceID, guidePath, err := tocTarget(ctx, args)
	if err != nil {
		return err
	}

	results, err := catalogService.WriteTOCs(ctx, sourceID, guidePath)
	if err != nil {
		return fmt.Errorf("failed to write tables of contents: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No guides carry toc markers.")
		return nil
	}

	changed := 0
	for i := range results {
		if results[i].Changed {
			cmd.Printf("Updated %s\n", results[i].GuidePath)
			changed++
		}
	}
	if changed == 0 {
		cmd.Printf("All %d tables of contents are up to date\n", len(results))
	} else {
		cmd.Printf("Updated %d of %d tables of contents\n", changed, len(results))
	}
	return nil
}

func runTOCCheck(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	ctx := context.Background()
	sourceID, guidePath, err := tocTarget(ctx, args)
	if err != nil {
		return err
	}

	results, err := catalogService.CheckTOCs(ctx, sourceID, guidePath)
	if err != nil {
		return fmt.Errorf("failed to check tables of contents: %w", err)
	}

	stale := 0
	for i := range results {
		if results[i].Changed {
			cmd.Printf("%s is stale\n", results[i].GuidePath)
			stale++
		}
	}
	if stale > 0 {
		cmd.Println("Run 'doctrine toc write' to update.")
		return fmt.Errorf("%w: %d stale tables of contents", ErrFindings, stale)
	}
	cmd.Printf("All %d tables of contents are up to date\n", len(results))
	return nil
}
