// gearbox builds and animates a sequential motorcycle transmission and
// exports its parts as meshes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/gearbox/internal/config"
	"github.com/Faultbox/gearbox/internal/logger"
)

var (
	overrides config.Overrides
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "gearbox",
	Short:         "Sequential transmission geometry and shift simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(overrides); err != nil {
			return err
		}
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		logger.Sugar.Debugf("config: %+v", cfg.Animation)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	overrides.BindFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(buildCmd, shiftCmd, exportCmd, watchCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
