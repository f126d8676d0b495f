package mcp

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	gotOpts domain.SearchOptions
	results []domain.SearchResult
	err     error
}

func (m *mockSearchService) Search(
	_ context.Context,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.gotOpts = opts
	return m.results, m.err
}

// mockGuideService is a mock implementation of driving.GuideService.
type mockGuideService struct {
	guides  []domain.Guide
	guide   *domain.Guide
	content string
	details *driving.GuideDetails
	err     error
}

func (m *mockGuideService) List(_ context.Context, _ string) ([]domain.Guide, error) {
	return m.guides, m.err
}

func (m *mockGuideService) Get(_ context.Context, _ string) (*domain.Guide, error) {
	return m.guide, m.err
}

func (m *mockGuideService) GetByPath(_ context.Context, _ string) (*domain.Guide, error) {
	return m.guide, m.err
}

func (m *mockGuideService) Content(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockGuideService) Details(_ context.Context, _ string) (*driving.GuideDetails, error) {
	return m.details, m.err
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	catalog *domain.Catalog
	table   string
	err     error
}

func (m *mockCatalogService) Catalog(_ context.Context) (*domain.Catalog, error) {
	return m.catalog, m.err
}

func (m *mockCatalogService) RenderTable(_ context.Context) (string, error) {
	return m.table, m.err
}

func (m *mockCatalogService) WriteIndex(_ context.Context, _ string) (*driving.IndexResult, error) {
	return nil, m.err
}

func (m *mockCatalogService) CheckIndex(_ context.Context, _ string) (*driving.IndexResult, error) {
	return nil, m.err
}

func (m *mockCatalogService) WriteTOCs(_ context.Context, _, _ string) ([]driving.TOCResult, error) {
	return nil, m.err
}

func (m *mockCatalogService) CheckTOCs(_ context.Context, _, _ string) ([]driving.TOCResult, error) {
	return nil, m.err
}
