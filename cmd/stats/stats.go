// Package stats implements the subcommand that prints datastore
// statistics.
package stats

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore"
	"github.com/vireolabs/machinevision/internal/ingest"
	"github.com/vireolabs/machinevision/internal/labeling"
	"github.com/vireolabs/machinevision/internal/mapper"
	"github.com/vireolabs/machinevision/internal/review"
)

// Command creates the stats subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print label, mapping and provider statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, settings)
		},
	}
}

func runStats(cmd *cobra.Command, settings *conf.Settings) error {
	store, err := datastore.Open(&settings.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline := ingest.NewPipeline(store, mapper.New(store.Mappings), &settings.Safety, &settings.Limits, nil)
	service := labeling.New(store, pipeline, settings, nil)

	stats, err := service.GetStats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println("Labels by state:")
	var total int64
	for _, state := range review.AllStates() {
		count := stats.LabelsByState[state]
		total += count
		fmt.Printf("  %-18s %d\n", state, count)
	}
	fmt.Printf("  %-18s %d\n", "total", total)
	fmt.Printf("Mapping rows: %d\n", stats.MappingRows)
	if len(stats.Providers) > 0 {
		fmt.Printf("Providers: %s\n", strings.Join(stats.Providers, ", "))
	} else {
		fmt.Println("Providers: none")
	}
	return nil
}
