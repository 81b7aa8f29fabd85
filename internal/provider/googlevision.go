package provider

import (
	"context"
	"log/slog"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/logging"
	"github.com/vireolabs/machinevision/internal/review"
)

// GoogleVisionName is the stable storage name for the Cloud Vision
// provider.
const GoogleVisionName = "google-cloud-vision"

// GoogleVision annotates images through the Cloud Vision API with
// LABEL_DETECTION and SAFE_SEARCH_DETECTION features.
type GoogleVision struct {
	client     *vision.ImageAnnotatorClient
	limiter    *rate.Limiter
	timeout    time.Duration
	maxResults int32
	log        *slog.Logger
}

// NewGoogleVision builds a Cloud Vision client from the configured
// credentials. With an empty credentials path the SDK falls back to
// application default credentials.
func NewGoogleVision(ctx context.Context, settings *conf.GoogleVisionSettings) (*GoogleVision, error) {
	var opts []option.ClientOption
	if settings.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(settings.CredentialsPath))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImageProvider).
			Context("operation", "vision_client_init").
			Build()
	}

	log := logging.ForService("provider.googlevision")
	if log == nil {
		log = slog.Default()
	}

	rps := settings.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	maxResults := settings.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GoogleVision{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		timeout:    timeout,
		maxResults: int32(maxResults),
		log:        log,
	}, nil
}

// Name implements Client.
func (g *GoogleVision) Name() string {
	return GoogleVisionName
}

// Annotate implements Client. Each call waits on the rate limiter and is
// bounded by the configured request timeout.
func (g *GoogleVision) Annotate(ctx context.Context, imageURL string) (*Annotation, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryTimeout).
			Context("operation", "vision_rate_wait").
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	request := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{
			Source: &visionpb.ImageSource{ImageUri: imageURL},
		},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: g.maxResults},
			{Type: visionpb.Feature_SAFE_SEARCH_DETECTION},
		},
	}

	start := time.Now()
	response, err := g.client.AnnotateImage(ctx, request)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImageProvider).
			Timing("vision_annotate", time.Since(start)).
			Context("image_url", imageURL).
			Build()
	}
	if respErr := response.GetError(); respErr != nil {
		return nil, errors.Newf("vision annotate failed: %s", respErr.GetMessage()).
			Category(errors.CategoryImageProvider).
			Context("operation", "vision_annotate").
			Context("status_code", respErr.GetCode()).
			Build()
	}

	annotation := &Annotation{}
	for _, label := range response.GetLabelAnnotations() {
		if label.GetMid() == "" {
			continue
		}
		annotation.Suggestions = append(annotation.Suggestions, Suggestion{
			ProviderConceptID: label.GetMid(),
			Confidence:        float64(label.GetScore()),
		})
	}
	if safe := response.GetSafeSearchAnnotation(); safe != nil {
		annotation.Safety = review.Scores{
			Adult:    likelihoodScore(safe.GetAdult()),
			Spoof:    likelihoodScore(safe.GetSpoof()),
			Medical:  likelihoodScore(safe.GetMedical()),
			Violence: likelihoodScore(safe.GetViolence()),
			Racy:     likelihoodScore(safe.GetRacy()),
		}
	}

	g.log.Debug("image annotated",
		"image_url", imageURL,
		"suggestions", len(annotation.Suggestions))
	return annotation, nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleVision) Close() error {
	return g.client.Close()
}

// likelihoodScore maps the Vision likelihood enum onto the 0-5 scale the
// withholding thresholds are expressed in. UNKNOWN maps to 0 so an
// unscored image is never withheld on that dimension.
func likelihoodScore(l visionpb.Likelihood) int {
	switch l {
	case visionpb.Likelihood_VERY_UNLIKELY:
		return 1
	case visionpb.Likelihood_UNLIKELY:
		return 2
	case visionpb.Likelihood_POSSIBLE:
		return 3
	case visionpb.Likelihood_LIKELY:
		return 4
	case visionpb.Likelihood_VERY_LIKELY:
		return 5
	default:
		return 0
	}
}
