package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

var scanFull bool

var scanCmd = &cobra.Command{
	Use:   "scan [source-id]",
	Short: "Scan sources for guides",
	Long: `Scans configured sources and catalogues their guides.
If a source ID is provided, only that source is scanned.
Otherwise, all sources are scanned.

--full ignores saved scan state and re-reads everything, which also
prunes guides whose files have been deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanFull, "full", false, "force a full re-scan")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanOrchestrator == nil {
		return errors.New("scan service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		sourceID := args[0]
		cmd.Printf("Scanning source: %s...\n", sourceID)

		if err := scanWithProgress(ctx, cmd, scanOrchestrator, sourceID, scanFull); err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		cmd.Printf("Source %s scanned successfully.\n", sourceID)
		return nil
	}

	if scanFull {
		return runFullScanAll(ctx, cmd)
	}

	cmd.Println("Scanning all sources...")
	if err := scanOrchestrator.ScanAll(ctx); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	cmd.Println("All sources scanned successfully.")
	return nil
}

// runFullScanAll forces a full re-scan of every configured source.
func runFullScanAll(ctx context.Context, cmd *cobra.Command) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sources) == 0 {
		cmd.Println("No configured sources. Add one with 'doctrine source add'.")
		return nil
	}

	cmd.Println("Full scan of all sources...")
	var errs []error
	for i := range sources {
		cmd.Printf("Scanning source: %s...\n", sources[i].ID)
		if err := scanWithProgress(ctx, cmd, scanOrchestrator, sources[i].ID, true); err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", sources[i].ID, err))
			continue
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("scan failed: %w", errors.Join(errs...))
	}
	cmd.Println("All sources scanned successfully.")
	return nil
}

// scanWithProgress runs a scan while displaying progress updates.
func scanWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.ScanOrchestrator,
	sourceID string,
	full bool,
) error {
	errCh := make(chan error, 1)
	go func() {
		if full {
			errCh <- orch.FullScan(ctx, sourceID)
			return
		}
		errCh <- orch.Scan(ctx, sourceID)
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case err := <-errCh:
			// Print final status (ignore status error - best effort)
			status, statusErr := orch.Status(ctx, sourceID)
			if statusErr == nil && status != nil && status.GuidesProcessed > 0 {
				cmd.Printf("\rProcessed %d guides (%d errors)\n",
					status.GuidesProcessed, status.ErrorCount)
			}
			return err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := orch.Status(ctx, sourceID)
			if statusErr == nil && status != nil && status.GuidesProcessed > lastCount {
				cmd.Printf("\rProcessing... %d guides", status.GuidesProcessed)
				lastCount = status.GuidesProcessed
			}
		}
	}
}
