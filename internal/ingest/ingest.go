// Package ingest turns raw provider annotations into persisted label
// rows: it maps provider concept identifiers to canonical ones, drops
// the unmappable, computes the initial review state from the safety
// scores and writes the batch atomically.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore"
	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/logging"
	"github.com/vireolabs/machinevision/internal/mapper"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
	"github.com/vireolabs/machinevision/internal/provider"
	"github.com/vireolabs/machinevision/internal/review"
)

// Request is one ingestion batch: everything a provider said about one
// image in one annotation call.
type Request struct {
	ImageSHA1    string
	UploaderID   int64
	Priority     int
	ProviderName string
	Suggestions  []provider.Suggestion
	Safety       review.Scores
	// PreMapped marks suggestions already in canonical identifier space,
	// skipping the concept mapper.
	PreMapped bool
}

// Result summarizes what one ingestion batch did.
type Result struct {
	// Inserted is the number of new label rows written. Resubmitted
	// triples are skipped silently and not counted.
	Inserted int64
	// Dropped is the number of suggestions discarded for lack of a
	// canonical mapping.
	Dropped int
	// InitialState is the review state assigned to the batch. Unset when
	// nothing was written.
	InitialState review.State
}

// Pipeline ingests annotation batches into the datastore.
type Pipeline struct {
	store        *datastore.Store
	mapper       *mapper.Service
	safety       *conf.SafetySettings
	limits       *conf.LimitsSettings
	metrics      *metrics.LabelingMetrics
	withholdList map[string]struct{}
	log          *slog.Logger
}

// NewPipeline wires an ingestion pipeline over the given store and
// mapper. The metrics argument may be nil.
func NewPipeline(store *datastore.Store, mappingService *mapper.Service, safety *conf.SafetySettings, limits *conf.LimitsSettings, m *metrics.LabelingMetrics) *Pipeline {
	withholdList := make(map[string]struct{}, len(safety.WithholdList))
	for _, id := range safety.WithholdList {
		withholdList[id] = struct{}{}
	}

	log := logging.ForService("ingest")
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{
		store:        store,
		mapper:       mappingService,
		safety:       safety,
		limits:       limits,
		metrics:      m,
		withholdList: withholdList,
		log:          log,
	}
}

// Ingest processes one annotation batch. An empty suggestion list, or a
// batch where every suggestion lacks a canonical mapping, writes nothing
// at all: no image row, no safety row, no labels.
func (p *Pipeline) Ingest(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if err := p.validate(req); err != nil {
		return nil, err
	}
	if len(req.Suggestions) == 0 {
		return &Result{}, nil
	}

	batch, dropped, err := p.mapSuggestions(ctx, req)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil && dropped > 0 {
		p.metrics.RecordConceptsDropped(req.ProviderName, dropped)
	}
	if len(batch) == 0 {
		p.log.Debug("ingestion batch fully unmapped",
			"image_sha1", req.ImageSHA1,
			"provider", req.ProviderName,
			"dropped", dropped)
		return &Result{Dropped: dropped}, nil
	}

	state := review.ComputeInitialState(req.Safety, p.safety, p.hasListedConcept(batch))
	createdAt := time.Now().UTC()

	var inserted int64
	err = p.store.Transaction(ctx, func(tx *datastore.Store) error {
		if _, err := tx.Images.GetOrCreate(ctx, req.ImageSHA1, req.UploaderID, req.Priority); err != nil {
			return err
		}

		prov, err := tx.Providers.GetOrCreate(ctx, req.ProviderName)
		if err != nil {
			return err
		}

		if err := tx.Safety.Upsert(ctx, &entities.SafetyAnnotation{
			ImageSHA1: req.ImageSHA1,
			Adult:     req.Safety.Adult,
			Spoof:     req.Safety.Spoof,
			Medical:   req.Safety.Medical,
			Violence:  req.Safety.Violence,
			Racy:      req.Safety.Racy,
		}); err != nil {
			return err
		}

		labels := make([]entities.Label, 0, len(batch))
		for _, c := range batch {
			labels = append(labels, entities.Label{
				ImageSHA1:  req.ImageSHA1,
				ProviderID: prov.ID,
				ConceptID:  c.canonicalID,
				Confidence: c.confidence,
				State:      state,
				CreatedAt:  createdAt,
			})
		}

		inserted, err = tx.Labels.InsertBatch(ctx, labels)
		return err
	})
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.RecordLabelsIngested(req.ProviderName, string(state), int(inserted))
		p.metrics.RecordIngestDuration(req.ProviderName, time.Since(start).Seconds())
	}
	p.log.Info("annotation batch ingested",
		"image_sha1", req.ImageSHA1,
		"provider", req.ProviderName,
		"inserted", inserted,
		"dropped", dropped,
		"initial_state", state)

	return &Result{Inserted: inserted, Dropped: dropped, InitialState: state}, nil
}

func (p *Pipeline) validate(req *Request) error {
	if req.ImageSHA1 == "" {
		return errors.Newf("image sha1 is required").
			Category(errors.CategoryValidation).
			Context("field", "image_sha1").
			Build()
	}
	if req.ProviderName == "" {
		return errors.Newf("provider name is required").
			Category(errors.CategoryValidation).
			Context("field", "provider_name").
			Build()
	}
	if max := p.limits.MaxSuggestionsPerIngest; max > 0 && len(req.Suggestions) > max {
		return errors.Newf("suggestion batch exceeds limit of %d", max).
			Category(errors.CategoryLimit).
			Context("batch_size", len(req.Suggestions)).
			Context("limit", max).
			Build()
	}
	return nil
}

type mappedConcept struct {
	canonicalID string
	confidence  float64
}

// mapSuggestions resolves the batch into canonical concept space. One
// provider ID may fan out to several canonical IDs; duplicates within
// the batch collapse to the highest confidence seen.
func (p *Pipeline) mapSuggestions(ctx context.Context, req *Request) ([]mappedConcept, int, error) {
	best := make(map[string]float64)
	var order []string
	record := func(canonicalID string, confidence float64) {
		if existing, seen := best[canonicalID]; seen {
			if confidence > existing {
				best[canonicalID] = confidence
			}
			return
		}
		best[canonicalID] = confidence
		order = append(order, canonicalID)
	}

	dropped := 0
	if req.PreMapped {
		for _, s := range req.Suggestions {
			record(s.ProviderConceptID, s.Confidence)
		}
	} else {
		providerIDs := make([]string, 0, len(req.Suggestions))
		for _, s := range req.Suggestions {
			providerIDs = append(providerIDs, s.ProviderConceptID)
		}
		resolved, err := p.mapper.ResolveBatch(ctx, providerIDs)
		if err != nil {
			return nil, 0, err
		}
		for _, s := range req.Suggestions {
			canonicalIDs := resolved[s.ProviderConceptID]
			if len(canonicalIDs) == 0 {
				dropped++
				continue
			}
			for _, id := range canonicalIDs {
				record(id, s.Confidence)
			}
		}
	}

	batch := make([]mappedConcept, 0, len(order))
	for _, id := range order {
		batch = append(batch, mappedConcept{canonicalID: id, confidence: best[id]})
	}
	return batch, dropped, nil
}

func (p *Pipeline) hasListedConcept(batch []mappedConcept) bool {
	for _, c := range batch {
		if _, listed := p.withholdList[c.canonicalID]; listed {
			return true
		}
	}
	return false
}
