package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// SearchGuidesInput is the input schema for the search_guides tool.
type SearchGuidesInput struct {
	Query     string `json:"query" jsonschema:"the search query to run over guide sections"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Framework string `json:"framework,omitempty" jsonschema:"restrict results to guides covering one framework"`
}

// SearchGuidesOutput is the output schema for the search_guides tool.
type SearchGuidesOutput struct {
	Results []GuideHit `json:"results"`
	Count   int        `json:"count"`
}

// GuideHit represents a single search result.
type GuideHit struct {
	GuidePath  string  `json:"guide_path"`
	GuideTitle string  `json:"guide_title"`
	Framework  string  `json:"framework,omitempty"`
	Heading    string  `json:"heading,omitempty"`
	Anchor     string  `json:"anchor,omitempty"`
	Snippet    string  `json:"snippet,omitempty"`
	Score      float64 `json:"score"`
}

// GetGuideInput is the input schema for the get_guide tool.
type GetGuideInput struct {
	Path      string `json:"path,omitempty" jsonschema:"corpus-relative guide path like go/gin.md"`
	Framework string `json:"framework,omitempty" jsonschema:"framework name, used when the path is not known"`
}

// GetGuideOutput is the output schema for the get_guide tool.
type GetGuideOutput struct {
	Path             string `json:"path"`
	Title            string `json:"title"`
	Framework        string `json:"framework,omitempty"`
	FrameworkVersion string `json:"framework_version,omitempty"`
	Extends          string `json:"extends,omitempty"`
	Sections         int    `json:"sections"`
	Links            int    `json:"links"`
	References       int    `json:"references"`
	Content          string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_guides",
		Description: "Search the style-guide corpus by keyword",
	}, s.handleSearchGuides)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_guide",
		Description: "Fetch one guide's metadata and full Markdown content",
	}, s.handleGetGuide)
}

// handleSearchGuides handles the search_guides tool invocation.
func (s *Server) handleSearchGuides(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchGuidesInput,
) (*mcp.CallToolResult, SearchGuidesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{
		Query:     input.Query,
		Limit:     limit,
		Framework: input.Framework,
	}
	results, err := s.ports.Search.Search(ctx, opts)
	if err != nil {
		return nil, SearchGuidesOutput{}, err
	}

	output := SearchGuidesOutput{
		Results: make([]GuideHit, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = GuideHit{
			GuidePath:  results[i].GuidePath,
			GuideTitle: results[i].GuideTitle,
			Framework:  results[i].Framework,
			Heading:    results[i].Heading,
			Anchor:     results[i].Anchor,
			Snippet:    results[i].Snippet,
			Score:      results[i].Score,
		}
	}

	return nil, output, nil
}

// handleGetGuide handles the get_guide tool invocation.
func (s *Server) handleGetGuide(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetGuideInput,
) (*mcp.CallToolResult, GetGuideOutput, error) {
	if s.ports.Guide == nil {
		return nil, GetGuideOutput{}, errors.New("guide service not available")
	}

	path := input.Path
	if path == "" {
		if input.Framework == "" {
			return nil, GetGuideOutput{}, errors.New("path or framework is required")
		}
		resolved, err := s.guidePathForFramework(ctx, input.Framework)
		if err != nil {
			return nil, GetGuideOutput{}, err
		}
		path = resolved
	}

	guide, err := s.ports.Guide.GetByPath(ctx, path)
	if err != nil {
		return nil, GetGuideOutput{}, fmt.Errorf("getting guide: %w", err)
	}

	output := GetGuideOutput{
		Path:             guide.Path,
		Title:            guide.Title,
		Framework:        guide.Framework,
		FrameworkVersion: guide.FrameworkVersion,
		Extends:          guide.Extends,
		Sections:         len(guide.Sections),
		Links:            len(guide.Links),
		References:       len(guide.References),
		Content:          guide.Content,
	}

	return nil, output, nil
}

// guidePathForFramework resolves a framework name to its guide path.
// Fails when several guides cover the framework, since the tool cannot
// guess which one the caller wants.
func (s *Server) guidePathForFramework(ctx context.Context, framework string) (string, error) {
	guides, err := s.ports.Guide.List(ctx, "")
	if err != nil {
		return "", fmt.Errorf("listing guides: %w", err)
	}

	var matches []string
	for i := range guides {
		if strings.EqualFold(guides[i].Framework, framework) {
			matches = append(matches, guides[i].Path)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no guide covers framework %q", framework)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("framework %q has %d guides (%s); request one by path",
			framework, len(matches), strings.Join(matches, ", "))
	}
}
