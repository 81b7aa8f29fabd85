// Package cmd assembles the machinevision command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vireolabs/machinevision/cmd/fetch"
	"github.com/vireolabs/machinevision/cmd/loadmapping"
	"github.com/vireolabs/machinevision/cmd/review"
	"github.com/vireolabs/machinevision/cmd/stats"
	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/logging"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "machinevision",
		Short: "Machine vision label review CLI",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		loadmapping.Command(settings),
		fetch.Command(settings),
		review.Command(settings),
		stats.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	var closeFileLog func() error
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := conf.ValidateSettings(settings); err != nil {
			return err
		}

		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
			logging.SetLevel(level)
		}
		if settings.Main.Log.Enabled {
			closeLog, err := logging.EnableFileLogging(settings.Main.Log.Path, level, logging.Rotation{
				MaxSizeMB:  settings.Main.Log.MaxSizeMB,
				MaxBackups: settings.Main.Log.MaxBackups,
				MaxAgeDays: settings.Main.Log.MaxAgeDays,
			})
			if err != nil {
				return err
			}
			closeFileLog = closeLog
		}
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if closeFileLog != nil {
			_ = closeFileLog()
		}
	}

	return rootCmd
}

// setupFlags configures global flags shared by all subcommands.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Database.Type, "db-type", settings.Database.Type, "Database type (sqlite or mysql)")
	rootCmd.PersistentFlags().StringVar(&settings.Database.SQLite.Path, "db-path", settings.Database.SQLite.Path, "Path to the SQLite database file")
}
