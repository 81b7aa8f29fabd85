package repository

import (
	"context"
	"time"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/review"
)

// LabelRepository manages the label suggestion rows and their review
// state transitions.
type LabelRepository interface {
	// InsertBatch inserts the given label rows, silently skipping any row
	// whose (image, provider, concept) triple already exists. Returns the
	// number of rows actually written. An empty batch is a no-op.
	InsertBatch(ctx context.Context, labels []entities.Label) (int64, error)

	// GetByImage returns all label rows for an image with their provider
	// relation preloaded, ordered by row ID ascending. An image with no
	// labels yields an empty slice, not an error.
	GetByImage(ctx context.Context, sha1 string) ([]entities.Label, error)

	// GetState returns the review state for the (image, concept) pair.
	// When several providers suggested the same concept the row with the
	// smallest ID wins. Returns ErrLabelNotFound on a miss.
	GetState(ctx context.Context, sha1, conceptID string) (review.State, error)

	// UpdateStateIf transitions every label row matching (image, concept)
	// that is currently in the from state to the to state, stamping
	// reviewer and review time. Returns the number of rows changed; zero
	// means a concurrent reviewer got there first or the pair never
	// existed.
	UpdateStateIf(ctx context.Context, sha1, conceptID string, from, to review.State, reviewerID int64, reviewedAt time.Time) (int64, error)

	// ListImagesWithStates returns the sha1s of images that have at least
	// one label in any of the given states, ordered by image priority
	// descending and then by the smallest matching label ID ascending.
	// When uploaderID is non-nil only that uploader's images are
	// considered.
	ListImagesWithStates(ctx context.Context, states []review.State, limit int, uploaderID *int64) ([]string, error)

	// CountImagesWithStates counts the distinct images an uploader has
	// with at least one label in any of the given states.
	CountImagesWithStates(ctx context.Context, states []review.State, uploaderID int64) (int64, error)

	// CountByState returns per-state label row counts across the whole
	// table.
	CountByState(ctx context.Context) (map[review.State]int64, error)
}
