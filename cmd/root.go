package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	backupcmd "github.com/camdex/camdex-go/cmd/backup"
	"github.com/camdex/camdex-go/cmd/daemon"
	"github.com/camdex/camdex-go/cmd/discover"
	"github.com/camdex/camdex-go/cmd/images"
	"github.com/camdex/camdex-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "camdex",
		Short: "CamDex-Go CLI",
		Long:  "Camera specification discovery and image acquisition pipeline.",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		daemon.Command(settings),
		discover.Command(settings),
		backupcmd.Command(settings),
		images.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Parse the command line flags
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}

		// Command-line arguments take precedence over file and env values.
		conf.SyncViper(settings)

		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags configures the global flags shared by every subcommand.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "database", viper.GetString("output.sqlite.path"), "Path to the SQLite record store")
	rootCmd.PersistentFlags().StringVar(&settings.Output.ImageDir, "imagedir", viper.GetString("output.imagedir"), "Directory for acquired camera images")
	rootCmd.PersistentFlags().IntVar(&settings.Discovery.DailyQuota, "quota", viper.GetInt("discovery.dailyquota"), "Maximum cameras saved per calendar day")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}
