// Package provider defines the client contract for external image
// labeling services and holds the concrete implementations.
package provider

import (
	"context"

	"github.com/vireolabs/machinevision/internal/review"
)

// Suggestion is a single raw concept suggestion from a provider, keyed
// by the provider's own concept identifier.
type Suggestion struct {
	ProviderConceptID string
	Confidence        float64
}

// Annotation is the full result of annotating one image: the label
// suggestions plus the image-level safety scores.
type Annotation struct {
	Suggestions []Suggestion
	Safety      review.Scores
}

// Client annotates images through an external labeling service.
// Implementations must bound each call with the supplied context.
type Client interface {
	// Name returns the stable provider name used in storage.
	Name() string

	// Annotate fetches label suggestions and safety scores for the image
	// at the given URL.
	Annotate(ctx context.Context, imageURL string) (*Annotation, error)
}
