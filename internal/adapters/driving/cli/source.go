package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage corpus sources",
	Long:  `Add, list, and remove the sources guides are scanned from.`,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add [connector-type]",
	Short: "Add a new source",
	Long: `Add a corpus source of the given connector type.

Examples:
  # Local directory of guides
  doctrine source add filesystem --name corpus --path ./guides

  # GitHub repository (set DOCTRINE_GITHUB_TOKEN for private repos)
  doctrine source add github --name styleguide --owner acme --repo styleguide

  # Subdirectory of a repository, pinned to a branch
  doctrine source add github --name monorepo --owner acme --repo mono \
    --branch main --root-dir docs/guides`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSourceAdd,
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourceList,
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source and its guides",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceRemove,
}

// Flags for source add.
var (
	sourceAddName     string
	sourceAddPath     string
	sourceAddOwner    string
	sourceAddRepo     string
	sourceAddBranch   string
	sourceAddRootDir  string
	sourceAddPatterns string
)

func init() {
	sourceAddCmd.Flags().StringVar(&sourceAddName, "name", "", "source name (unique)")
	sourceAddCmd.Flags().StringVar(&sourceAddPath, "path", "", "corpus root directory (filesystem)")
	sourceAddCmd.Flags().StringVar(&sourceAddOwner, "owner", "", "repository owner (github)")
	sourceAddCmd.Flags().StringVar(&sourceAddRepo, "repo", "", "repository name (github)")
	sourceAddCmd.Flags().StringVar(&sourceAddBranch, "branch", "", "branch to scan (github, default: repository default)")
	sourceAddCmd.Flags().StringVar(&sourceAddRootDir, "root-dir", "", "restrict the scan to a repository subdirectory (github)")
	sourceAddCmd.Flags().StringVar(&sourceAddPatterns, "patterns", "", "comma-separated filename globs (default: *.md,*.markdown)")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	if len(args) == 0 {
		return fmt.Errorf("connector type required (%s or %s)",
			domain.ConnectorFilesystem, domain.ConnectorGitHub)
	}

	connectorType := domain.ConnectorType(args[0])
	if !connectorType.Valid() {
		return fmt.Errorf("unknown connector type %q (%s or %s)",
			args[0], domain.ConnectorFilesystem, domain.ConnectorGitHub)
	}

	config, err := sourceAddConfig(connectorType)
	if err != nil {
		return err
	}

	name := sourceAddName
	if name == "" {
		name = defaultSourceName(connectorType, config)
	}

	source := domain.Source{
		ID:            uuid.NewString(),
		Name:          name,
		ConnectorType: connectorType,
		Config:        config,
	}

	ctx := context.Background()
	if err := sourceService.Add(ctx, source); err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}

	cmd.Printf("Added source: %s\n", source.ID)
	cmd.Printf("  Name: %s\n", source.Name)
	cmd.Printf("  Type: %s\n", source.ConnectorType)
	cmd.Printf("\nRun 'doctrine scan %s' to catalogue its guides.\n", source.ID)
	return nil
}

// sourceAddConfig translates flags into connector config.
func sourceAddConfig(connectorType domain.ConnectorType) (map[domain.ConfigKey]string, error) {
	config := make(map[domain.ConfigKey]string)

	switch connectorType {
	case domain.ConnectorFilesystem:
		if sourceAddPath == "" {
			return nil, errors.New("--path is required for filesystem sources")
		}
		abs, err := filepath.Abs(sourceAddPath)
		if err != nil {
			return nil, fmt.Errorf("resolve path: %w", err)
		}
		config[domain.ConfigKeyPath] = abs

	case domain.ConnectorGitHub:
		if sourceAddOwner == "" || sourceAddRepo == "" {
			return nil, errors.New("--owner and --repo are required for github sources")
		}
		config[domain.ConfigKeyOwner] = sourceAddOwner
		config[domain.ConfigKeyRepo] = sourceAddRepo
		if sourceAddBranch != "" {
			config[domain.ConfigKeyBranch] = sourceAddBranch
		}
		if sourceAddRootDir != "" {
			config[domain.ConfigKeyRootDir] = sourceAddRootDir
		}
	}

	if sourceAddPatterns != "" {
		config[domain.ConfigKeyPatterns] = sourceAddPatterns
	}
	return config, nil
}

// defaultSourceName derives a name when --name is not given.
func defaultSourceName(connectorType domain.ConnectorType, config map[domain.ConfigKey]string) string {
	switch connectorType {
	case domain.ConnectorGitHub:
		return config[domain.ConfigKeyOwner] + "/" + config[domain.ConfigKeyRepo]
	default:
		return filepath.Base(strings.TrimRight(config[domain.ConfigKeyPath], "/"))
	}
}

func runSourceList(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	ctx := context.Background()
	sources, err := sourceService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No configured sources. Add one with 'doctrine source add'.")
		return nil
	}

	cmd.Println("Configured sources:")
	cmd.Println()
	for i := range sources {
		cmd.Printf("  %s\n", sources[i].ID)
		cmd.Printf("    Name: %s\n", sources[i].Name)
		cmd.Printf("    Type: %s\n", sources[i].ConnectorType)
		switch sources[i].ConnectorType {
		case domain.ConnectorFilesystem:
			cmd.Printf("    Path: %s\n", sources[i].ConfigValue(domain.ConfigKeyPath))
		case domain.ConnectorGitHub:
			cmd.Printf("    Repo: %s/%s\n",
				sources[i].ConfigValue(domain.ConfigKeyOwner),
				sources[i].ConfigValue(domain.ConfigKeyRepo))
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d sources\n", len(sources))
	return nil
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sourceID := args[0]
	ctx := context.Background()

	if err := sourceService.Remove(ctx, sourceID); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}

	cmd.Printf("Removed source: %s\n", sourceID)
	return nil
}
