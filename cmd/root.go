package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/waymap/internal/config"
	"github.com/bnema/waymap/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string

	rootCmd = &cobra.Command{
		Use:   "waymap",
		Short: "Waymap - input device to output mapping",
		Long: `Waymap decides which monitor each absolute input device (touchscreen,
tablet pen, eraser, pad) should map to in a multi-monitor setup, using
EDID name matching, physical size matching and per-device overrides.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(monitorsCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(versionCmd)
}

// openStore loads the config store and applies its log level.
func openStore() (*config.Store, error) {
	store, err := config.NewStore(configPath)
	if err != nil {
		return nil, err
	}
	if cfg, err := store.Get(); err == nil && cfg.Logging.LogLevel != "" {
		logger.SetLevel(cfg.Logging.LogLevel)
	}
	return store, nil
}
