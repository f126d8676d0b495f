package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure corpus defaults, scanning intervals, and
external link probing.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting",
	Long: `Set a setting by key. Known keys:

  github.token       GitHub personal access token
  index.file         index document name (default README.md)
  search.limit       default search result cap
  scan.interval      scheduled corpus scan interval
  probe.enabled      probe external URLs on schedule
  probe.timeout      per-request probe timeout
  probe.ttl          how long probe verdicts stay fresh
  probe.concurrency  probes in flight at once
  probe.interval     scheduled probe interval

Omitting the value for github.token prompts for it without echo.
DOCTRINE_GITHUB_TOKEN overrides the stored token when set.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Corpus]")
	cmd.Printf("  index.file: %s\n", settings.IndexFile)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  search.limit: %d\n", settings.SearchLimit)
	cmd.Println()

	cmd.Println("[Scan]")
	cmd.Printf("  scan.interval: %s\n", settings.ScanInterval)
	cmd.Println()

	cmd.Println("[Probe]")
	enabled := "no"
	if settings.ProbeEnabled {
		enabled = "yes"
	}
	cmd.Printf("  probe.enabled: %s\n", enabled)
	cmd.Printf("  probe.timeout: %s\n", settings.ProbeTimeout)
	cmd.Printf("  probe.ttl: %s\n", settings.ProbeTTL)
	cmd.Printf("  probe.concurrency: %d\n", settings.ProbeConcurrency)
	cmd.Printf("  probe.interval: %s\n", settings.ProbeInterval)
	cmd.Println()

	cmd.Println("[GitHub]")
	if token := settingsService.GitHubToken(); token != "" {
		cmd.Printf("  github.token: %s\n", maskToken(token))
	} else {
		cmd.Printf("  github.token: (not set)\n")
	}
	if os.Getenv("DOCTRINE_GITHUB_TOKEN") != "" {
		cmd.Println("  (resolved from DOCTRINE_GITHUB_TOKEN)")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string

	switch {
	case len(args) == 2:
		value = args[1]
	case key == "github.token":
		cmd.Print("Enter token: ")
		value = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("value required for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if key == "github.token" {
		cmd.Printf("Set %s to %s\n", key, maskToken(value))
		return nil
	}
	cmd.Printf("Set %s to %s\n", key, value)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
