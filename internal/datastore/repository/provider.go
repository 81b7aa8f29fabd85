package repository

import (
	"context"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
)

// ProviderRepository manages the append-only provider name registry.
type ProviderRepository interface {
	// GetOrCreate returns the provider with the given name, creating it on
	// first reference. Safe under concurrent callers racing on the same
	// name: the loser of the insert race refetches the winner's row.
	GetOrCreate(ctx context.Context, name string) (*entities.Provider, error)

	// GetByName returns the provider with the given name, or
	// ErrProviderNotFound.
	GetByName(ctx context.Context, name string) (*entities.Provider, error)

	// GetByID returns the provider with the given ID, or
	// ErrProviderNotFound.
	GetByID(ctx context.Context, id uint) (*entities.Provider, error)

	// List returns all providers ordered by name.
	List(ctx context.Context) ([]entities.Provider, error)
}
