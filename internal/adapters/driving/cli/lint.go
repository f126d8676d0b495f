package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// Flags for lint.
var (
	lintProbe    bool
	lintJSON     bool
	lintChecks   []string
	lintSourceID string
)

var lintCmd = &cobra.Command{
	Use:     "lint",
	Aliases: []string{"check"},
	Short:   "Validate the corpus",
	Long: `Checks the corpus for broken cross-references: unresolved relative
links, missing anchors, undefined or duplicated footnote labels,
dangling extends declarations, extends cycles, duplicate framework
claims, and a stale or incomplete frameworks index.

--probe additionally checks external URLs (reachability and anchors).
Probe verdicts are cached, so repeated runs stay cheap.

--checks narrows the report to matching issue codes. A value matches
by prefix: "link" covers link-unresolved and link-escapes-corpus,
"ref-unused" selects exactly that code.

Exit status: 0 clean, 1 error findings, 2 operational failure.
Run 'doctrine scan' first; lint reads the catalogued corpus.`,
	RunE: runLint,
}

func init() {
	lintCmd.Flags().BoolVar(&lintProbe, "probe", false, "probe external URLs")
	lintCmd.Flags().BoolVar(&lintJSON, "json", false, "output findings as JSON")
	lintCmd.Flags().StringSliceVar(&lintChecks, "checks", nil, "issue code prefixes to report (default: all)")
	lintCmd.Flags().StringVar(&lintSourceID, "source", "", "lint a single source")
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, _ []string) error {
	if lintService == nil {
		return errors.New("lint service not configured")
	}

	ctx := context.Background()
	opts := driving.LintOptions{
		SourceID:  lintSourceID,
		ProbeURLs: lintProbe,
		Checks:    lintChecks,
	}

	list, err := lintService.Lint(ctx, opts)
	if err != nil {
		return fmt.Errorf("lint failed: %w", err)
	}

	if lintJSON {
		if err := outputLintJSON(cmd, list); err != nil {
			return err
		}
	} else {
		outputLintText(cmd, list)
	}

	if list.HasErrors() {
		return fmt.Errorf("%w: %d errors", ErrFindings, list.Errors())
	}
	return nil
}

func outputLintJSON(cmd *cobra.Command, list *domain.IssueList) error {
	data, err := json.MarshalIndent(list.Issues(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputLintText(cmd *cobra.Command, list *domain.IssueList) {
	issues := list.Issues()
	if len(issues) == 0 {
		cmd.Println("Corpus is clean.")
		return
	}

	for i := range issues {
		cmd.Printf("%s: %s\n", issues[i].Severity, issues[i].Error())
	}
	cmd.Println()
	cmd.Printf("%d errors, %d warnings\n", list.Errors(), list.Warnings())
}
