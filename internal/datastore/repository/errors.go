package repository

import "github.com/vireolabs/machinevision/internal/errors"

// Sentinel errors returned by repository implementations. Callers match
// with errors.Is and translate to their own error surface.
var (
	// ErrImageNotFound is returned when no image exists for the given sha1.
	ErrImageNotFound = errors.NewStd("image not found")

	// ErrLabelNotFound is returned when no label row matches the query.
	ErrLabelNotFound = errors.NewStd("label not found")

	// ErrProviderNotFound is returned when a provider lookup misses.
	ErrProviderNotFound = errors.NewStd("provider not found")

	// ErrSafetyAnnotationNotFound is returned when an image has no safety
	// annotation row.
	ErrSafetyAnnotationNotFound = errors.NewStd("safety annotation not found")

	// ErrInvalidInput is returned when a repository method is called with
	// arguments that can never match a row (empty keys, nil batches).
	ErrInvalidInput = errors.NewStd("invalid input")
)
