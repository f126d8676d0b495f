package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for doctrine resources.
	uriScheme = "doctrine://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the frameworks catalog.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "frameworks",
		Name:        "frameworks",
		Description: "Frameworks catalog: every guide with its framework and parent",
		MIMEType:    "application/json",
	}, s.handleFrameworksResource)

	// Template for guide content. Guide paths contain slashes, so the
	// variable uses reserved expansion.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "guides/{+path}",
		Name:        "guide-content",
		Description: "Raw Markdown of a guide, addressed by corpus-relative path",
		MIMEType:    "text/markdown",
	}, s.handleGuideResource)

	// Template for a guide's heading structure.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sections/{+path}",
		Name:        "guide-sections",
		Description: "Heading structure of a guide: headings, anchors, levels",
		MIMEType:    "application/json",
	}, s.handleSectionsResource)
}

// handleFrameworksResource returns the frameworks catalog as JSON.
func (s *Server) handleFrameworksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	catalog, err := s.ports.Catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	// Build simplified catalog entries.
	type frameworkInfo struct {
		Framework string `json:"framework"`
		Version   string `json:"version,omitempty"`
		Guide     string `json:"guide"`
		Title     string `json:"title"`
		Extends   string `json:"extends,omitempty"`
	}

	infos := make([]frameworkInfo, len(catalog.Entries))
	for i, entry := range catalog.Entries {
		infos[i] = frameworkInfo{
			Framework: entry.Framework,
			Version:   entry.FrameworkVersion,
			Guide:     entry.GuidePath,
			Title:     entry.GuideTitle,
			Extends:   entry.Extends,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling catalog: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleGuideResource returns the raw Markdown of a guide.
func (s *Server) handleGuideResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Guide == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract path from URI: doctrine://guides/{path}
	path := extractGuidePath(req.Params.URI)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.ports.Guide.Content(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting guide content: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		}},
	}, nil
}

// handleSectionsResource returns the heading structure of a guide.
func (s *Server) handleSectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Guide == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract path from URI: doctrine://sections/{path}
	path := extractSectionsPath(req.Params.URI)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	guide, err := s.ports.Guide.GetByPath(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting guide: %w", err)
	}

	// Build simplified section list.
	type sectionInfo struct {
		Heading string `json:"heading"`
		Anchor  string `json:"anchor"`
		Level   int    `json:"level"`
	}

	infos := make([]sectionInfo, len(guide.Sections))
	for i := range guide.Sections {
		infos[i] = sectionInfo{
			Heading: guide.Sections[i].Heading,
			Anchor:  guide.Sections[i].Anchor,
			Level:   guide.Sections[i].Level,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sections: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractGuidePath extracts the guide path from a URI like doctrine://guides/{path}.
func extractGuidePath(uri string) string {
	const prefix = uriScheme + "guides/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}

// extractSectionsPath extracts the guide path from a URI like doctrine://sections/{path}.
func extractSectionsPath(uri string) string {
	const prefix = uriScheme + "sections/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
