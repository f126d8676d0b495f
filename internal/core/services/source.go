package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// requiredConfigKeys lists the config keys each connector type cannot
// run without. Optional keys (patterns, branch, root_dir) are not
// listed.
var requiredConfigKeys = map[domain.ConnectorType][]domain.ConfigKey{
	domain.ConnectorFilesystem: {domain.ConfigKeyPath},
	domain.ConnectorGitHub:     {domain.ConfigKeyOwner, domain.ConfigKeyRepo},
}

// SourceService manages source configurations.
type SourceService struct {
	sourceStore  driven.SourceStore
	syncStore    driven.SyncStateStore
	guideStore   driven.GuideStore
	searchEngine driven.SearchEngine
}

// NewSourceService creates a new source service. The guide store and
// search engine are used for cleanup when a source is removed.
func NewSourceService(
	sourceStore driven.SourceStore,
	syncStore driven.SyncStateStore,
	guideStore driven.GuideStore,
	searchEngine driven.SearchEngine,
) *SourceService {
	return &SourceService{
		sourceStore:  sourceStore,
		syncStore:    syncStore,
		guideStore:   guideStore,
		searchEngine: searchEngine,
	}
}

// Add creates a new source configuration.
func (s *SourceService) Add(ctx context.Context, source domain.Source) error {
	if s.sourceStore == nil {
		return domain.ErrNotImplemented
	}
	if source.ID == "" || source.Name == "" {
		return domain.ErrInvalidInput
	}
	if err := s.ValidateConfig(ctx, source.ConnectorType, source.Config); err != nil {
		return err
	}
	// Check if already exists
	existing, err := s.sourceStore.Get(ctx, source.ID)
	if err == nil && existing != nil {
		return domain.ErrAlreadyExists
	}
	if _, err := s.sourceStore.GetByName(ctx, source.Name); err == nil {
		return fmt.Errorf("%w: name %q", domain.ErrAlreadyExists, source.Name)
	}
	return s.sourceStore.Save(ctx, source)
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	if s.sourceStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.sourceStore.Get(ctx, id)
}

// GetByName retrieves a source by its user-facing name.
func (s *SourceService) GetByName(ctx context.Context, name string) (*domain.Source, error) {
	if s.sourceStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.sourceStore.GetByName(ctx, name)
}

// List returns all configured sources.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	if s.sourceStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.sourceStore.List(ctx)
}

// Update modifies an existing source configuration.
func (s *SourceService) Update(ctx context.Context, source domain.Source) error {
	if s.sourceStore == nil {
		return domain.ErrNotImplemented
	}
	if source.ID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.ValidateConfig(ctx, source.ConnectorType, source.Config); err != nil {
		return err
	}
	// Verify source exists
	if _, err := s.sourceStore.Get(ctx, source.ID); err != nil {
		return domain.ErrNotFound
	}
	return s.sourceStore.Save(ctx, source)
}

// Remove deletes a source together with its catalogued guides, their
// search index entries, and its scan state.
func (s *SourceService) Remove(ctx context.Context, id string) error {
	if s.sourceStore == nil {
		return domain.ErrNotImplemented
	}
	if _, err := s.sourceStore.Get(ctx, id); err != nil {
		return err
	}

	// The search index has no foreign key onto guides, so entries are
	// deleted guide by guide before the rows go away.
	if s.guideStore != nil {
		guides, err := s.guideStore.ListGuides(ctx, id)
		if err == nil {
			for i := range guides {
				if s.searchEngine != nil {
					//nolint:errcheck // Intentionally ignore errors to continue cleanup
					_ = s.searchEngine.Delete(ctx, guides[i].ID)
				}
				//nolint:errcheck // Intentionally ignore errors to continue cleanup
				_ = s.guideStore.DeleteGuide(ctx, guides[i].ID)
			}
		}
	}
	if s.syncStore != nil {
		//nolint:errcheck // Intentionally ignore errors to continue cleanup
		_ = s.syncStore.Delete(ctx, id)
	}
	return s.sourceStore.Delete(ctx, id)
}

// ValidateConfig validates source configuration for a connector type.
func (s *SourceService) ValidateConfig(_ context.Context, connectorType domain.ConnectorType, config map[domain.ConfigKey]string) error {
	required, ok := requiredConfigKeys[connectorType]
	if !ok {
		return fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, connectorType)
	}

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(config[key]) == "" {
			missing = append(missing, string(key))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required config keys: %v", domain.ErrInvalidInput, missing)
	}
	return nil
}
