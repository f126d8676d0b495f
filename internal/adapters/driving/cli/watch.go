package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

var watchScheduler bool

var watchCmd = &cobra.Command{
	Use:   "watch [source-id]",
	Short: "Watch sources and re-scan on change",
	Long: `Watches filesystem sources for live edits, re-cataloguing guides as
they change. Blocks until interrupted.

With --scheduler, background tasks (periodic corpus scans and external
link probing) run alongside the watch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchScheduler, "scheduler", false, "run scheduled background tasks while watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if scanOrchestrator == nil {
		return errors.New("scan service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	group, ctx := errgroup.WithContext(ctx)

	if watchScheduler {
		if scheduler == nil {
			return errors.New("scheduler not configured")
		}
		group.Go(func() error {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
		defer func() {
			if err := scheduler.Stop(); err != nil {
				cmd.PrintErrf("scheduler stop error: %v\n", err)
			}
		}()
		cmd.Println("Scheduler running.")
	}

	watched, err := startWatches(ctx, cmd, group, args)
	if err != nil {
		return err
	}
	if watched == 0 && !watchScheduler {
		return errors.New("no watchable sources (filesystem sources only)")
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("\nWatch stopped.")
	return nil
}

// startWatches launches a watch per requested source and reports how
// many actually started. Sources that cannot be watched are skipped
// when watching everything, but an explicitly named one errors.
func startWatches(ctx context.Context, cmd *cobra.Command, group *errgroup.Group, args []string) (int, error) {
	if len(args) > 0 {
		sourceID := args[0]
		cmd.Printf("Watching source: %s (Ctrl+C to stop)\n", sourceID)
		group.Go(func() error {
			return scanOrchestrator.Watch(ctx, sourceID)
		})
		return 1, nil
	}

	if sourceService == nil {
		return 0, errors.New("source service not configured")
	}
	sources, err := sourceService.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sources: %w", err)
	}

	watched := 0
	for i := range sources {
		if sources[i].ConnectorType != domain.ConnectorFilesystem {
			cmd.Printf("Skipping %s: %s sources cannot be watched\n",
				sources[i].ID, sources[i].ConnectorType)
			continue
		}
		sourceID := sources[i].ID
		cmd.Printf("Watching source: %s\n", sourceID)
		group.Go(func() error {
			return scanOrchestrator.Watch(ctx, sourceID)
		})
		watched++
	}
	if watched > 0 {
		cmd.Println("Press Ctrl+C to stop.")
	}
	return watched, nil
}
