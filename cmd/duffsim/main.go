package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/duffsim/internal/config"
	"github.com/san-kum/duffsim/internal/logging"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	log = zap.NewNop()
)

// main registers the duffsim commands and exits with status 1 if any of
// them fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "duffsim",
		Short:        "forced, damped Duffing oscillator simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel, logFormat)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".duffsim", "data directory for stored runs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (console, json)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name).Parameters
				fmt.Fprintf(out, "%-10s  delta=%g alpha=%g beta=%g gamma=%g omega=%g dt=%g\n",
					name, p.Damping, p.LinearStiffness, p.CubicStiffness, p.ForcingAmplitude, p.ForcingFrequency, p.StepSize)
			}
			return nil
		},
	}

	rootCmd.AddCommand(newRunCmd(), newConfigCmd(), newListCmd(), newExportCmd(), newAnalyzeCmd(), presetsCmd)
	return rootCmd
}
