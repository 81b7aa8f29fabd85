package repository

import (
	"context"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
)

// SafetyRepository manages the one-row-per-image safety score table.
type SafetyRepository interface {
	// Upsert writes the safety scores for an image, overwriting any
	// existing row for the same image.
	Upsert(ctx context.Context, annotation *entities.SafetyAnnotation) error

	// GetByImage returns the safety annotation for an image, or
	// ErrSafetyAnnotationNotFound.
	GetByImage(ctx context.Context, sha1 string) (*entities.SafetyAnnotation, error)
}
