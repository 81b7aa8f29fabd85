// Package fetch schedules background annotation fetches: one job per
// (image, provider) pair, executed off the job queue and fed into the
// labeling service.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/ingest"
	"github.com/vireolabs/machinevision/internal/jobqueue"
	"github.com/vireolabs/machinevision/internal/labeling"
	"github.com/vireolabs/machinevision/internal/logging"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
	"github.com/vireolabs/machinevision/internal/provider"
)

// Target identifies one image to fetch annotations for.
type Target struct {
	ImageSHA1  string
	ImageURL   string
	UploaderID int64
	Priority   int
}

// canonicalProvider is implemented by providers whose concept IDs are
// already canonical and skip the mapper.
type canonicalProvider interface {
	Canonical() bool
}

type action struct {
	client  provider.Client
	service *labeling.Service
	target  Target
}

func (a *action) Execute(ctx context.Context) error {
	annotation, err := a.client.Annotate(ctx, a.target.ImageURL)
	if err != nil {
		return err
	}

	preMapped := false
	if c, ok := a.client.(canonicalProvider); ok {
		preMapped = c.Canonical()
	}

	_, err = a.service.IngestAnnotations(ctx, &ingest.Request{
		ImageSHA1:    a.target.ImageSHA1,
		UploaderID:   a.target.UploaderID,
		Priority:     a.target.Priority,
		ProviderName: a.client.Name(),
		Suggestions:  annotation.Suggestions,
		Safety:       annotation.Safety,
		PreMapped:    preMapped,
	})
	return err
}

func (a *action) GetDescription() string {
	return fmt.Sprintf("fetch annotations for %s from %s", a.target.ImageSHA1, a.client.Name())
}

// Scheduler fans fetch targets out to one queued job per provider.
type Scheduler struct {
	queue   *jobqueue.Queue
	service *labeling.Service
	clients []provider.Client
	metrics *metrics.LabelingMetrics
	log     *slog.Logger
}

// NewScheduler builds a scheduler with a queue sized from the job queue
// settings. The metrics argument may be nil.
func NewScheduler(settings *conf.JobQueueSettings, service *labeling.Service, clients []provider.Client, m *metrics.LabelingMetrics) *Scheduler {
	retry := jobqueue.RetryConfig{
		Enabled:      settings.MaxRetries > 0,
		MaxRetries:   settings.MaxRetries,
		InitialDelay: time.Duration(settings.InitialDelaySeconds) * time.Second,
		MaxDelay:     time.Duration(settings.MaxDelaySeconds) * time.Second,
		Multiplier:   2,
	}

	log := logging.ForService("fetch")
	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		queue:   jobqueue.New(settings.MaxJobs, len(clients), retry),
		service: service,
		clients: clients,
		metrics: m,
		log:     log,
	}
}

// Start launches the queue workers.
func (s *Scheduler) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains in-flight jobs and shuts the queue down.
func (s *Scheduler) Stop() {
	s.queue.Stop()
}

// Enqueue schedules one fetch job per configured provider for the
// target. Returns the job IDs in provider order.
func (s *Scheduler) Enqueue(target Target) ([]string, error) {
	jobIDs := make([]string, 0, len(s.clients))
	for _, client := range s.clients {
		id, err := s.queue.Enqueue(&action{
			client:  client,
			service: s.service,
			target:  target,
		})
		if err != nil {
			return jobIDs, err
		}
		if s.metrics != nil {
			s.metrics.RecordFetchJobEnqueued(client.Name())
		}
		jobIDs = append(jobIDs, id)
	}
	s.log.Info("fetch scheduled",
		"image_sha1", target.ImageSHA1,
		"providers", len(jobIDs))
	return jobIDs, nil
}

// Stats exposes queue statistics for operational reporting.
func (s *Scheduler) Stats() jobqueue.Stats {
	return s.queue.GetStats()
}
