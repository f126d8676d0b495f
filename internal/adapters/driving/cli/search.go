package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// Flags for search.
var (
	searchLimit     int
	searchJSON      bool
	searchFramework string
	searchSourceID  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the corpus",
	Long: `Performs full-text search over guide sections.
Results are ranked by keyword relevance (BM25) and carry the section
anchor, so a hit can be followed to its exact heading.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchFramework, "framework", "", "restrict results to one framework")
	searchCmd.Flags().StringVar(&searchSourceID, "source", "", "restrict results to one source")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	ctx := context.Background()
	opts := domain.SearchOptions{
		Query:     args[0],
		Limit:     searchLimit,
		Framework: searchFramework,
		SourceID:  searchSourceID,
	}

	results, err := searchService.Search(ctx, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		location := results[i].GuidePath
		if results[i].Anchor != "" {
			location += "#" + results[i].Anchor
		}

		title := results[i].Heading
		if title == "" {
			title = results[i].GuideTitle
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, results[i].Score)
		cmd.Printf("      %s\n", location)
		if results[i].Framework != "" {
			cmd.Printf("      Framework: %s\n", results[i].Framework)
		}
		if results[i].Snippet != "" {
			cmd.Printf("      %s\n", results[i].Snippet)
		}
		cmd.Println()
	}

	return nil
}
