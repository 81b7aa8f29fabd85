// Package fetch implements the subcommand that requests annotations for
// an image from the configured providers and ingests the results.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore"
	"github.com/vireolabs/machinevision/internal/fetch"
	"github.com/vireolabs/machinevision/internal/ingest"
	"github.com/vireolabs/machinevision/internal/labeling"
	"github.com/vireolabs/machinevision/internal/mapper"
	"github.com/vireolabs/machinevision/internal/observability"
	"github.com/vireolabs/machinevision/internal/provider"
)

var (
	imageURL   string
	uploaderID int64
	priority   int
)

// Command creates the fetch subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <image-sha1>",
		Short: "Fetch and ingest annotations for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), settings, args[0])
		},
	}

	cmd.Flags().StringVarP(&imageURL, "url", "u", "", "public URL of the image file (required)")
	cmd.Flags().Int64Var(&uploaderID, "uploader", 0, "uploader user ID")
	cmd.Flags().IntVar(&priority, "priority", 0, "review queue priority")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func runFetch(ctx context.Context, settings *conf.Settings, sha1 string) error {
	clients, err := buildClients(ctx, settings)
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		return fmt.Errorf("no annotation providers enabled")
	}

	store, err := datastore.Open(&settings.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Ping(ctx, settings.StorageTimeout()); err != nil {
		return err
	}

	obs, err := observability.NewMetrics()
	if err != nil {
		return err
	}
	store.SetMetrics(obs.Datastore)

	pipeline := ingest.NewPipeline(store, mapper.New(store.Mappings), &settings.Safety, &settings.Limits, obs.Labeling)
	service := labeling.New(store, pipeline, settings, obs.Labeling)

	scheduler := fetch.NewScheduler(&settings.JobQueue, service, clients, obs.Labeling)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	jobIDs, err := scheduler.Enqueue(fetch.Target{
		ImageSHA1:  sha1,
		ImageURL:   imageURL,
		UploaderID: uploaderID,
		Priority:   priority,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Scheduled %d fetch jobs for %s\n", len(jobIDs), sha1)

	// One-shot invocation: wait for the queue to drain before exiting.
	for scheduler.Stats().Pending > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	stats := scheduler.Stats()
	fmt.Printf("Completed %d jobs, %d failed\n", stats.Completed, stats.Failed)
	if stats.Failed > 0 {
		return fmt.Errorf("%d fetch jobs failed", stats.Failed)
	}
	return nil
}

func buildClients(ctx context.Context, settings *conf.Settings) ([]provider.Client, error) {
	var clients []provider.Client
	if settings.Provider.GoogleVision.Enabled {
		client, err := provider.NewGoogleVision(ctx, &settings.Provider.GoogleVision)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	if settings.Provider.Wikidata.Enabled {
		clients = append(clients, provider.NewWikidata(&settings.Provider.Wikidata))
	}
	return clients, nil
}
