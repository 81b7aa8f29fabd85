// Package labeling is the service facade over ingestion, review and
// queue listing. It owns the review concurrency discipline: every state
// change is a conditional update against the state the reviewer saw,
// retried a bounded number of times on conflict.
package labeling

import (
	"context"
	"log/slog"
	"time"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore"
	"github.com/vireolabs/machinevision/internal/datastore/repository"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/ingest"
	"github.com/vireolabs/machinevision/internal/logging"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
	"github.com/vireolabs/machinevision/internal/review"
)

// reviewRetries bounds how often a single review entry is retried when a
// concurrent reviewer changes the state between read and update.
const reviewRetries = 3

// pendingStates is the set of states that count as awaiting review for
// an uploader's own images. Unfiltered queue listings only surface
// StateUnreviewed.
var pendingStates = []review.State{review.StateUnreviewed, review.StateWithheldPopular}

// Outcome classifies what happened to one review entry.
type Outcome string

const (
	// OutcomeApplied means the requested state was written.
	OutcomeApplied Outcome = "applied"
	// OutcomeWarned means the state was written from a non-pending
	// starting state; the caller should surface a warning.
	OutcomeWarned Outcome = "warned"
	// OutcomeSuppressed means the transition was refused and the stored
	// state kept.
	OutcomeSuppressed Outcome = "suppressed"
	// OutcomeNotFound means no label row matches the entry.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeInvalid means the requested state is not a valid review
	// state.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeConflict means concurrent reviewers kept changing the row
	// and the retry budget ran out.
	OutcomeConflict Outcome = "conflict"
)

// ReviewItem is one requested state change.
type ReviewItem struct {
	ImageSHA1 string
	ConceptID string
	State     review.State
}

// ReviewResult reports the outcome of one review entry. Final is the
// state stored after processing, when known.
type ReviewResult struct {
	Item    ReviewItem
	Outcome Outcome
	Final   review.State
	Err     error
}

// LabelInfo is one label row shaped for display: provider resolved to
// its name.
type LabelInfo struct {
	ConceptID  string
	Provider   string
	Confidence float64
	State      review.State
	ReviewerID *int64
	ReviewedAt *time.Time
	CreatedAt  time.Time
}

// Stats summarizes the datastore for operational reporting.
type Stats struct {
	LabelsByState map[review.State]int64
	MappingRows   int64
	Providers     []string
}

// Service is the labeling facade.
type Service struct {
	store          *datastore.Store
	pipeline       *ingest.Pipeline
	limits         *conf.LimitsSettings
	storageTimeout time.Duration
	metrics        *metrics.LabelingMetrics
	log            *slog.Logger
}

// New wires the labeling service. The metrics argument may be nil.
func New(store *datastore.Store, pipeline *ingest.Pipeline, settings *conf.Settings, m *metrics.LabelingMetrics) *Service {
	log := logging.ForService("labeling")
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:          store,
		pipeline:       pipeline,
		limits:         &settings.Limits,
		storageTimeout: settings.StorageTimeout(),
		metrics:        m,
		log:            log,
	}
}

// IngestAnnotations runs one annotation batch through the ingestion
// pipeline under the storage timeout.
func (s *Service) IngestAnnotations(ctx context.Context, req *ingest.Request) (*ingest.Result, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.pipeline.Ingest(ctx, req)
}

// Review processes a single review entry.
func (s *Service) Review(ctx context.Context, reviewerID int64, item ReviewItem) ReviewResult {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	result := s.reviewOne(ctx, s.store, reviewerID, item)
	s.recordReview(result)
	return result
}

// ReviewBatch processes review entries independently: one entry's
// not-found, suppression or invalid state never blocks the others. All
// applied entries commit in a single transaction; a storage error rolls
// the whole batch back. Returns one result per entry in input order.
func (s *Service) ReviewBatch(ctx context.Context, reviewerID int64, items []ReviewItem) ([]ReviewResult, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if max := s.limits.MaxReviewBatchSize; max > 0 && len(items) > max {
		return nil, errors.Newf("review batch exceeds limit of %d", max).
			Category(errors.CategoryLimit).
			Context("batch_size", len(items)).
			Context("limit", max).
			Build()
	}
	if s.metrics != nil {
		s.metrics.RecordReviewBatchSize(len(items))
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	results := make([]ReviewResult, 0, len(items))
	err := s.store.Transaction(ctx, func(tx *datastore.Store) error {
		for _, item := range items {
			result := s.reviewOne(ctx, tx, reviewerID, item)
			if result.Outcome == OutcomeConflict && result.Err != nil {
				return result.Err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		s.recordReview(result)
	}
	return results, nil
}

func (s *Service) reviewOne(ctx context.Context, store *datastore.Store, reviewerID int64, item ReviewItem) ReviewResult {
	result := ReviewResult{Item: item}

	for attempt := 0; attempt < reviewRetries; attempt++ {
		old, err := store.Labels.GetState(ctx, item.ImageSHA1, item.ConceptID)
		if errors.Is(err, repository.ErrLabelNotFound) {
			result.Outcome = OutcomeNotFound
			return result
		}
		if err != nil {
			result.Outcome = OutcomeConflict
			result.Err = err
			return result
		}

		decision, err := review.DecideTransition(old, item.State)
		if err != nil {
			result.Outcome = OutcomeInvalid
			result.Err = err
			return result
		}
		if !decision.Apply {
			result.Outcome = OutcomeSuppressed
			result.Final = decision.Final
			return result
		}
		if decision.Final == old {
			// Idempotent resubmission. Nothing to write, the original
			// reviewer attribution stands.
			result.Outcome = OutcomeApplied
			result.Final = old
			return result
		}

		rows, err := store.Labels.UpdateStateIf(ctx, item.ImageSHA1, item.ConceptID, old, decision.Final, reviewerID, time.Now().UTC())
		if err != nil {
			result.Outcome = OutcomeConflict
			result.Err = err
			return result
		}
		if rows > 0 {
			result.Final = decision.Final
			if decision.Warn {
				result.Outcome = OutcomeWarned
			} else {
				result.Outcome = OutcomeApplied
			}
			return result
		}
		// Zero rows changed: a concurrent reviewer moved the state
		// between our read and update. Re-read and re-decide.
	}

	result.Outcome = OutcomeConflict
	result.Err = errors.Newf("review conflicted %d times", reviewRetries).
		Category(errors.CategoryState).
		Context("image_sha1", item.ImageSHA1).
		Context("concept_id", item.ConceptID).
		Build()
	return result
}

// GetLabelState returns the stored review state for the (image, concept)
// pair.
func (s *Service) GetLabelState(ctx context.Context, sha1, conceptID string) (review.State, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.store.Labels.GetState(ctx, sha1, conceptID)
}

// GetLabelsForImage returns all labels of an image with provider names
// resolved. Returns repository.ErrImageNotFound for an unknown image.
func (s *Service) GetLabelsForImage(ctx context.Context, sha1 string) ([]LabelInfo, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	exists, err := s.store.Images.Exists(ctx, sha1)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrImageNotFound
	}

	labels, err := s.store.Labels.GetByImage(ctx, sha1)
	if err != nil {
		return nil, err
	}

	infos := make([]LabelInfo, 0, len(labels))
	for _, l := range labels {
		info := LabelInfo{
			ConceptID:  l.ConceptID,
			Confidence: l.Confidence,
			State:      l.State,
			ReviewerID: l.ReviewerID,
			ReviewedAt: l.ReviewedAt,
			CreatedAt:  l.CreatedAt,
		}
		if l.Provider != nil {
			info.Provider = l.Provider.Name
		} else if p, err := s.store.Providers.GetByID(ctx, l.ProviderID); err == nil {
			info.Provider = p.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ListUnreviewed returns image sha1s with labels awaiting review, best
// candidates first. Without an uploader filter only fully unreviewed
// labels qualify; with one, the uploader also sees their withheld
// popular images. The limit is clamped to [1, MaxReviewBatchSize].
func (s *Service) ListUnreviewed(ctx context.Context, limit int, uploaderID *int64) ([]string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if limit < 1 {
		limit = 1
	}
	if max := s.limits.MaxReviewBatchSize; max > 0 && limit > max {
		limit = max
	}

	states := []review.State{review.StateUnreviewed}
	if uploaderID != nil {
		states = pendingStates
	}
	return s.store.Labels.ListImagesWithStates(ctx, states, limit, uploaderID)
}

// CountUnreviewed counts an uploader's images that still have pending
// labels.
func (s *Service) CountUnreviewed(ctx context.Context, uploaderID int64) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.store.Labels.CountImagesWithStates(ctx, pendingStates, uploaderID)
}

// SetImagePriority adjusts an image's position in the review queue.
func (s *Service) SetImagePriority(ctx context.Context, sha1 string, priority int) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.store.Images.SetPriority(ctx, sha1, priority)
}

// GetStats collects per-state label counts, mapping table size and the
// known providers.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	byState, err := s.store.Labels.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	mappingRows, err := s.store.Mappings.Count(ctx)
	if err != nil {
		return nil, err
	}
	providers, err := s.store.Providers.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name)
	}
	return &Stats{
		LabelsByState: byState,
		MappingRows:   mappingRows,
		Providers:     names,
	}, nil
}

func (s *Service) recordReview(result ReviewResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordReviewDecision(string(result.Outcome))
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storageTimeout)
}
