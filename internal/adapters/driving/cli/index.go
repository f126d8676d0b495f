package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the frameworks index table",
	Long: `Generates the frameworks table in the index document, between the
<!-- doctrine:frameworks --> markers. Prose outside the markers is
left alone.`,
}

var indexWriteCmd = &cobra.Command{
	Use:   "write [source-id]",
	Short: "Rewrite the index table from the corpus",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndexWrite,
}

var indexCheckCmd = &cobra.Command{
	Use:   "check [source-id]",
	Short: "Report whether the index table is stale",
	Long: `Compares the index table against the corpus without writing.
Exits 1 when the table is stale, for use in CI.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndexCheck,
}

func init() {
	indexCmd.AddCommand(indexWriteCmd)
	indexCmd.AddCommand(indexCheckCmd)
	rootCmd.AddCommand(indexCmd)
}

// resolveSourceArg picks the source to operate on: the argument when
// given, the sole configured source otherwise.
func resolveSourceArg(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if sourceService == nil {
		return "", errors.New("source service not configured")
	}
	sources, err := sourceService.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list sources: %w", err)
	}
	switch len(sources) {
	case 0:
		return "", errors.New("no configured sources. Add one with 'doctrine source add'")
	case 1:
		return sources[0].ID, nil
	default:
		return "", errors.New("multiple sources configured; specify a source id")
	}
}

func runIndexWrite(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	ctx := context.Background()
	sourceID, err := resolveSourceArg(ctx, args)
	if err != nil {
		return err
	}

	result, err := catalogService.WriteIndex(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	if result.Changed {
		cmd.Printf("Updated %s\n", result.Path)
	} else {
		cmd.Printf("%s is up to date\n", result.Path)
	}
	return nil
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	ctx := context.Background()
	sourceID, err := resolveSourceArg(ctx, args)
	if err != nil {
		return err
	}

	result, err := catalogService.CheckIndex(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}

	if result.Changed {
		cmd.Printf("%s is stale. Run 'doctrine index write' to update it.\n", result.Path)
		return fmt.Errorf("%w: index table is stale", ErrFindings)
	}
	cmd.Printf("%s is up to date\n", result.Path)
	return nil
}
