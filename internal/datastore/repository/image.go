package repository

import (
	"context"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
)

// ImageRepository manages the image rows keyed by content sha1.
type ImageRepository interface {
	// GetOrCreate returns the image with the given sha1, creating a row
	// with the supplied uploader and priority on first reference. An
	// existing row is returned untouched.
	GetOrCreate(ctx context.Context, sha1 string, uploaderID int64, priority int) (*entities.Image, error)

	// GetBySHA1 returns the image with the given sha1, or ErrImageNotFound.
	GetBySHA1(ctx context.Context, sha1 string) (*entities.Image, error)

	// SetPriority updates the queue priority of an existing image.
	// Returns ErrImageNotFound when no row matches.
	SetPriority(ctx context.Context, sha1 string, priority int) error

	// Exists reports whether an image row exists for the given sha1.
	Exists(ctx context.Context, sha1 string) (bool, error)
}
