package repository

import (
	"context"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
)

// MappingRepository manages the provider-to-canonical concept identifier
// table. The table is bulk loaded offline and read-only at request time.
type MappingRepository interface {
	// ReplaceAll atomically swaps the mapping table contents for the given
	// rows. Readers never observe a half-loaded table.
	ReplaceAll(ctx context.Context, mappings []entities.ConceptMapping) error

	// Resolve returns the canonical IDs mapped from a provider concept ID,
	// in stable insertion order. An unmapped ID yields an empty slice.
	Resolve(ctx context.Context, providerConceptID string) ([]string, error)

	// ResolveBatch resolves many provider concept IDs in one query. The
	// result map only has entries for IDs with at least one mapping.
	ResolveBatch(ctx context.Context, providerConceptIDs []string) (map[string][]string, error)

	// Count returns the number of mapping rows.
	Count(ctx context.Context) (int64, error)
}
