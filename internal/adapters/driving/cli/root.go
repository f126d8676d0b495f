// Package cli implements the doctrine command-line interface.
//
// Commands run against driving-port services held in package-level
// vars. The composition root in cmd/doctrine installs a Bootstrap
// that builds the services once the global flags are parsed, so
// --data-dir and --config-dir can steer where stores live.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/welshwandering/doctrine/internal/core/ports/driving"
	"github.com/welshwandering/doctrine/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// ErrFindings reports that a check command found problems. Callers map
// it to exit status 1, distinct from operational failures.
var ErrFindings = errors.New("findings reported")

// Global flags.
var (
	verbose   bool
	dataDir   string
	configDir string
)

// Services the commands run against. Tests swap these directly.
var (
	sourceService    driving.SourceService
	guideService     driving.GuideService
	searchService    driving.SearchService
	scanOrchestrator driving.ScanOrchestrator
	catalogService   driving.CatalogService
	lintService      driving.LintService
	graphService     driving.GraphService
	settingsService  driving.SettingsService
	actionService    driving.GuideActionService
	scheduler        driving.Scheduler
)

// Services bundles the driving-port implementations the CLI needs.
type Services struct {
	Source    driving.SourceService
	Guide     driving.GuideService
	Search    driving.SearchService
	Scan      driving.ScanOrchestrator
	Catalog   driving.CatalogService
	Lint      driving.LintService
	Graph     driving.GraphService
	Settings  driving.SettingsService
	Actions   driving.GuideActionService
	Scheduler driving.Scheduler
}

// Bootstrap builds the service set after global flags are parsed.
// The returned cleanup runs after the command finishes.
type Bootstrap func(dataDir, configDir string) (*Services, func(), error)

var (
	bootstrap Bootstrap
	cleanup   func()
	wired     bool
)

// SetBootstrap installs the wiring function the composition root
// provides.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices wires service implementations into the commands.
func SetServices(s *Services) {
	sourceService = s.Source
	guideService = s.Guide
	searchService = s.Search
	scanOrchestrator = s.Scan
	catalogService = s.Catalog
	lintService = s.Lint
	graphService = s.Graph
	settingsService = s.Settings
	actionService = s.Actions
	scheduler = s.Scheduler
	wired = true
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "doctrine",
	Short: "Style guide corpus tool",
	Long: `Doctrine catalogues a corpus of Markdown style guides, keeps the
frameworks index and per-guide tables of contents generated, validates
cross-references, and serves the corpus over search, an MCP server,
and a terminal UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		// version never needs stores or config.
		if wired || bootstrap == nil || cmd.Name() == "version" {
			return nil
		}

		services, cleanupFn, err := bootstrap(dataDir, configDir)
		if err != nil {
			return fmt.Errorf("initialise services: %w", err)
		}
		SetServices(services)
		cleanup = cleanupFn
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the data directory (default ~/.doctrine)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "override the config directory (default ~/.doctrine)")
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command. Long-running commands such as
// watch, mcp, and tui stop when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an Execute error to a process exit status: 0 clean,
// 1 findings, 2 operational failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrFindings):
		return 1
	default:
		return 2
	}
}
