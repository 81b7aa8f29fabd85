// Package loadmapping implements the subcommand that bulk loads the
// concept mapping table from a TSV file.
package loadmapping

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore"
	"github.com/vireolabs/machinevision/internal/mapper"
)

var filePath string

// Command creates the loadmapping subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loadmapping",
		Short: "Replace the concept mapping table from a TSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadMapping(cmd, settings)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "path to the mapping TSV (defaults to the configured file)")

	return cmd
}

func runLoadMapping(cmd *cobra.Command, settings *conf.Settings) error {
	path := filePath
	if path == "" {
		path = settings.Mapping.FilePath
	}
	if path == "" {
		return fmt.Errorf("no mapping file given and none configured")
	}

	store, err := datastore.Open(&settings.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := mapper.New(store.Mappings).LoadFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d mapping rows from %s\n", count, path)
	return nil
}
