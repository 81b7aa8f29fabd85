// Package mapper translates provider-specific concept identifiers into
// canonical knowledge-base identifiers. The mapping table is bulk loaded
// from a TSV dump and served from the database with a read-through
// cache.
package mapper

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/datastore/repository"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/logging"
)

// ErrMappingMiss is returned by ResolveOne when a provider concept ID has
// no canonical mapping. Batch resolution reports misses by omission
// instead.
var ErrMappingMiss = errors.NewStd("no canonical mapping for concept")

const (
	resolveCacheTTL     = 15 * time.Minute
	resolveCacheCleanup = 5 * time.Minute
)

// Service resolves provider concept identifiers against the mapping
// table.
type Service struct {
	repo  repository.MappingRepository
	cache *gocache.Cache
	log   *slog.Logger
}

// New creates a mapping service over the given repository.
func New(repo repository.MappingRepository) *Service {
	log := logging.ForService("mapper")
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:  repo,
		cache: gocache.New(resolveCacheTTL, resolveCacheCleanup),
		log:   log,
	}
}

// ResolveOne returns the canonical IDs for a single provider concept ID,
// or ErrMappingMiss when none exist.
func (s *Service) ResolveOne(ctx context.Context, providerConceptID string) ([]string, error) {
	if cached, ok := s.cache.Get(providerConceptID); ok {
		ids := cached.([]string)
		if len(ids) == 0 {
			return nil, ErrMappingMiss
		}
		return ids, nil
	}

	ids, err := s.repo.Resolve(ctx, providerConceptID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(providerConceptID, ids)
	if len(ids) == 0 {
		return nil, ErrMappingMiss
	}
	return ids, nil
}

// ResolveBatch resolves many provider concept IDs at once. IDs without a
// mapping are absent from the result; callers treat absence as a drop,
// not an error.
func (s *Service) ResolveBatch(ctx context.Context, providerConceptIDs []string) (map[string][]string, error) {
	resolved := make(map[string][]string, len(providerConceptIDs))
	var misses []string
	for _, id := range providerConceptIDs {
		if cached, ok := s.cache.Get(id); ok {
			if ids := cached.([]string); len(ids) > 0 {
				resolved[id] = ids
			}
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := s.repo.ResolveBatch(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, id := range misses {
			ids := fetched[id]
			s.cache.SetDefault(id, ids)
			if len(ids) > 0 {
				resolved[id] = ids
			}
		}
	}
	return resolved, nil
}

// LoadFile parses the mapping TSV at path and atomically replaces the
// mapping table with its contents. Returns the number of rows loaded.
func (s *Service) LoadFile(ctx context.Context, path string) (int, error) {
	entries, err := ParseFile(path)
	if err != nil {
		return 0, err
	}

	mappings := make([]entities.ConceptMapping, 0, len(entries))
	for _, entry := range entries {
		mappings = append(mappings, entities.ConceptMapping{
			ProviderConceptID: entry.ProviderConceptID,
			CanonicalID:       entry.CanonicalID,
		})
	}

	if err := s.repo.ReplaceAll(ctx, mappings); err != nil {
		return 0, err
	}

	s.cache.Flush()
	s.log.Info("mapping table loaded", "path", path, "rows", len(mappings))
	return len(mappings), nil
}

// Count returns the number of mapping rows currently loaded.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
