package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Inspect catalogued guides",
	Long:  `List, view, and open guides in the catalogued corpus.`,
}

var guideListCmd = &cobra.Command{
	Use:   "list [source-id]",
	Short: "List catalogued guides",
	Long:  `Lists guides for a source, or the whole corpus without an argument.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGuideList,
}

var guideShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show guide metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuideShow,
}

var guideContentCmd = &cobra.Command{
	Use:   "content [path]",
	Short: "Print guide content",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuideContent,
}

var guideOpenCmd = &cobra.Command{
	Use:   "open [path]",
	Short: "Open a guide in the default application",
	Long: `Opens the guide's file for filesystem sources, or its repository
page for GitHub sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runGuideOpen,
}

func init() {
	guideCmd.AddCommand(guideListCmd)
	guideCmd.AddCommand(guideShowCmd)
	guideCmd.AddCommand(guideContentCmd)
	guideCmd.AddCommand(guideOpenCmd)
	rootCmd.AddCommand(guideCmd)
}

func runGuideList(cmd *cobra.Command, args []string) error {
	if guideService == nil {
		return errors.New("guide service not configured")
	}

	sourceID := ""
	if len(args) > 0 {
		sourceID = args[0]
	}
	ctx := context.Background()

	guides, err := guideService.List(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to list guides: %w", err)
	}

	if len(guides) == 0 {
		cmd.Println("No catalogued guides. Run 'doctrine scan' first.")
		return nil
	}

	cmd.Println("Catalogued guides:")
	cmd.Println()
	for i := range guides {
		cmd.Printf("  %s\n", guides[i].Path)
		cmd.Printf("    Title: %s\n", guides[i].Title)
		if guides[i].Framework != "" {
			framework := guides[i].Framework
			if guides[i].FrameworkVersion != "" {
				framework += " " + guides[i].FrameworkVersion
			}
			cmd.Printf("    Framework: %s\n", framework)
		}
		if guides[i].Extends != "" {
			cmd.Printf("    Extends: %s\n", guides[i].Extends)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d guides\n", len(guides))
	return nil
}

func runGuideShow(cmd *cobra.Command, args []string) error {
	if guideService == nil {
		return errors.New("guide service not configured")
	}

	path := args[0]
	ctx := context.Background()

	details, err := guideService.Details(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to get guide: %w", err)
	}

	cmd.Printf("Guide: %s\n\n", details.Path)
	cmd.Printf("  Title:      %s\n", details.Title)
	if details.Framework != "" {
		framework := details.Framework
		if details.FrameworkVersion != "" {
			framework += " " + details.FrameworkVersion
		}
		cmd.Printf("  Framework:  %s\n", framework)
	}
	if details.Extends != "" {
		cmd.Printf("  Extends:    %s\n", details.Extends)
	}
	cmd.Printf("  Source:     %s (%s)\n", details.SourceName, details.SourceType)
	cmd.Printf("  Sections:   %d\n", details.SectionCount)
	cmd.Printf("  Links:      %d\n", details.LinkCount)
	cmd.Printf("  References: %d\n", details.ReferenceCount)
	cmd.Printf("  Created:    %s\n", details.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:    %s\n", details.UpdatedAt.Format("2006-01-02 15:04:05"))

	if graphService != nil {
		backlinks, err := graphService.Backlinks(ctx, path)
		if err == nil && len(backlinks) > 0 {
			cmd.Println("\n  Linked from:")
			for i := range backlinks {
				cmd.Printf("    %s:%d (%s)\n",
					backlinks[i].FromPath, backlinks[i].Line, backlinks[i].Text)
			}
		}
	}

	return nil
}

func runGuideContent(cmd *cobra.Command, args []string) error {
	if guideService == nil {
		return errors.New("guide service not configured")
	}

	path := args[0]
	ctx := context.Background()

	content, err := guideService.Content(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to get guide content: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runGuideOpen(cmd *cobra.Command, args []string) error {
	if guideService == nil {
		return errors.New("guide service not configured")
	}
	if actionService == nil {
		return errors.New("action service not configured")
	}

	path := args[0]
	ctx := context.Background()

	guide, err := guideService.GetByPath(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to get guide: %w", err)
	}

	if err := actionService.OpenGuide(ctx, guide); err != nil {
		return fmt.Errorf("failed to open guide: %w", err)
	}

	cmd.Printf("Opened %s in default application.\n", path)
	return nil
}
