// Package review implements the subcommand that applies a review
// decision to a label from the command line.
package review

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore"
	"github.com/vireolabs/machinevision/internal/ingest"
	"github.com/vireolabs/machinevision/internal/labeling"
	"github.com/vireolabs/machinevision/internal/mapper"
	reviewstate "github.com/vireolabs/machinevision/internal/review"
)

var reviewerID int64

// Command creates the review subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <image-sha1> <concept-id> <state>",
		Short: "Apply a review decision to a label",
		Long: "Apply a review decision to a label. Valid states: " +
			statesHelp(),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, settings, args[0], args[1], reviewstate.State(args[2]))
		},
	}

	cmd.Flags().Int64VarP(&reviewerID, "reviewer", "r", 0, "reviewing user ID")

	return cmd
}

func runReview(cmd *cobra.Command, settings *conf.Settings, sha1, conceptID string, state reviewstate.State) error {
	store, err := datastore.Open(&settings.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline := ingest.NewPipeline(store, mapper.New(store.Mappings), &settings.Safety, &settings.Limits, nil)
	service := labeling.New(store, pipeline, settings, nil)

	result := service.Review(cmd.Context(), reviewerID, labeling.ReviewItem{
		ImageSHA1: sha1,
		ConceptID: conceptID,
		State:     state,
	})
	if result.Err != nil {
		return result.Err
	}

	switch result.Outcome {
	case labeling.OutcomeApplied:
		fmt.Printf("Label is now %s\n", result.Final)
	case labeling.OutcomeWarned:
		fmt.Printf("Label is now %s (overrode an earlier decision)\n", result.Final)
	case labeling.OutcomeSuppressed:
		fmt.Printf("Decision refused, label stays %s\n", result.Final)
	case labeling.OutcomeNotFound:
		return fmt.Errorf("no label for image %s and concept %s", sha1, conceptID)
	default:
		return fmt.Errorf("review ended with outcome %s", result.Outcome)
	}
	return nil
}

func statesHelp() string {
	var out string
	for i, s := range reviewstate.AllStates() {
		if i > 0 {
			out += ", "
		}
		out += string(s)
	}
	return out
}
