// Command doctrine manages a corpus of Markdown style guides: it scans
// sources into a catalog, keeps the frameworks index and per-guide
// tables of contents generated, lints cross-references, and serves the
// corpus over search, MCP, and a terminal UI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/welshwandering/doctrine/internal/adapters/driven/auth"
	"github.com/welshwandering/doctrine/internal/adapters/driven/config/file"
	"github.com/welshwandering/doctrine/internal/adapters/driven/probe"
	"github.com/welshwandering/doctrine/internal/adapters/driven/storage/sqlite"
	"github.com/welshwandering/doctrine/internal/adapters/driving/cli"
	"github.com/welshwandering/doctrine/internal/connectors"
	"github.com/welshwandering/doctrine/internal/core/services"
	"github.com/welshwandering/doctrine/internal/logger"
	"github.com/welshwandering/doctrine/internal/parsers"
	"github.com/welshwandering/doctrine/internal/parsers/markdown"
	"github.com/welshwandering/doctrine/internal/parsers/plaintext"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(buildServices)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	os.Exit(cli.ExitCode(err))
}

// buildServices wires the stores, connectors, and core services the
// commands run against. Directories default to ~/.doctrine when the
// flags are empty.
func buildServices(dataDir, configDir string) (*cli.Services, func(), error) {
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Closing store: %v", err)
		}
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	registry := parsers.NewRegistry()
	registry.Register(markdown.New())
	registry.Register(plaintext.New())

	factory := connectors.NewDefaultFactory(auth.NewPATProvider(configStore))

	sourceStore := store.SourceStore()
	guideStore := store.GuideStore()
	syncStore := store.SyncStateStore()
	probeStore := store.ProbeStore()
	searchEngine := store.SearchEngine()

	prober := probe.NewProber(settings.ProbeTimeout)
	prober.SetConcurrency(settings.ProbeConcurrency)

	scanner := services.NewScanOrchestrator(
		sourceStore, syncStore, guideStore, factory, registry, searchEngine,
	)
	linter := services.NewLintService(
		guideStore, probeStore, prober, settings.IndexFile, settings.ProbeTTL,
	)

	return &cli.Services{
		Source:    services.NewSourceService(sourceStore, syncStore, guideStore, searchEngine),
		Guide:     services.NewGuideService(guideStore, sourceStore),
		Search:    services.NewSearchService(searchEngine),
		Scan:      scanner,
		Catalog:   services.NewCatalogService(guideStore, sourceStore, settings.IndexFile),
		Lint:      linter,
		Graph:     services.NewGraphService(guideStore, settings.IndexFile),
		Settings:  settingsService,
		Actions:   services.NewGuideActionService(sourceStore),
		Scheduler: services.NewScheduler(*settings, store.SchedulerStore(), scanner, linter, probeStore),
	}, cleanup, nil
}
