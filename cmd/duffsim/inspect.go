package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/duffsim/internal/analysis"
	"github.com/san-kum/duffsim/internal/engine"
	"github.com/san-kum/duffsim/internal/progress"
	"github.com/san-kum/duffsim/internal/storage"
	"github.com/san-kum/duffsim/internal/trajectory"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIMESTAMP\tPRESET\tINTEGRATOR\tSTEPS\tDURATION")
			for _, r := range runs {
				preset := r.Preset
				if preset == "" {
					preset = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%g\n",
					r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), preset, r.Integrator, r.Steps, r.Duration())
			}
			return w.Flush()
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		format string
		out    string
		header bool
	)

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "export a stored run as text, csv, json or xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			samples, err := st.LoadTrajectory(args[0])
			if err != nil {
				return err
			}

			if format == "xlsx" {
				if out == "" || out == "-" {
					return errors.New("xlsx export needs --out")
				}
				return trajectory.WriteXLSX(out, samples)
			}

			var encode func(io.Writer) error
			switch format {
			case "text", "csv":
				opts := trajectory.TextOptions{Header: header}
				if format == "csv" {
					opts.Delimiter = ','
				}
				encode = func(w io.Writer) error { return trajectory.WriteText(w, samples, opts) }
			case "json":
				data := trajectory.ExportData{
					ID:         meta.ID,
					Integrator: meta.Integrator,
					Parameters: meta.Parameters,
					Initial:    meta.Initial,
					Steps:      meta.Steps,
					Samples:    samples,
					Metrics:    meta.Metrics,
				}
				encode = func(w io.Writer) error { return trajectory.WriteJSON(w, data) }
			default:
				return fmt.Errorf("unknown format: %s (use text, csv, json or xlsx)", format)
			}

			if out == "" || out == "-" {
				return encode(cmd.OutOrStdout())
			}
			return writeFile(out, encode)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "export format (text, csv, json, xlsx)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&header, "header", false, "write a header row (text and csv)")
	return cmd
}

// writeFile creates path and runs encode on it. A failed Close is reported
// since the file was just written.
func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// loadSamples resolves a stored run id first and falls back to a trajectory
// file on disk. Parameters come from the run metadata when available.
func loadSamples(ref string, params engine.Parameters) ([]engine.Sample, engine.Parameters, error) {
	st := storage.New(dataDir)
	if meta, err := st.Load(ref); err == nil {
		samples, err := st.LoadTrajectory(ref)
		return samples, meta.Parameters, err
	}

	var (
		samples []engine.Sample
		err     error
	)
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".xlsx":
		samples, err = trajectory.ReadXLSX(ref)
	default:
		samples, err = storage.ReadTrajectoryFile(ref)
	}
	if err != nil {
		return nil, params, fmt.Errorf("%s is neither a stored run nor a readable trajectory: %w", ref, err)
	}
	return samples, params, nil
}

func newAnalyzeCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "analyze <run-id|file>",
		Short: "energy, spectrum and Poincare statistics for a trajectory",
		Long: "analyze reads a stored run or a trajectory file. For plain files the\n" +
			"model parameters come from --preset, --config and parameter flags.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			samples, params, err := loadSamples(args[0], cfg.Parameters)
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				return errors.New("trajectory is empty")
			}

			model := params.Model()
			fields := [][2]string{
				{"samples", fmt.Sprint(len(samples))},
			}

			e := analysis.EnergyStats(model, samples)
			fields = append(fields,
				[2]string{"energy mean", fmt.Sprintf("%.6g", e.Mean)},
				[2]string{"energy std", fmt.Sprintf("%.6g", e.StdDev)},
				[2]string{"energy range", fmt.Sprintf("[%.6g, %.6g]", e.Min, e.Max)},
				[2]string{"energy drift", fmt.Sprintf("%.3g", e.Drift)},
			)
			if e.NonFinite > 0 {
				fields = append(fields, [2]string{"non-finite", fmt.Sprint(e.NonFinite)})
			}

			stepSize := params.StepSize
			if len(samples) > 1 {
				stepSize = samples[1].Time - samples[0].Time
			}
			peak, err := analysis.DominantFrequency(samples, stepSize)
			switch {
			case errors.Is(err, analysis.ErrTooFewSamples):
				log.Warn("spectrum skipped", zap.Int("samples", len(samples)))
			case err != nil:
				return err
			default:
				fields = append(fields,
					[2]string{"dominant omega", fmt.Sprintf("%.6g rad/s", peak.AngularFrequency)},
					[2]string{"dominant period", fmt.Sprintf("%.6g", peak.Period())},
				)
			}

			if period := model.Period(); !math.IsInf(period, 0) {
				section := analysis.PoincareSection(samples, period)
				fields = append(fields, [2]string{"poincare points", fmt.Sprint(len(section))})
				if n := len(section); n > 0 {
					last := section[n-1]
					fields = append(fields, [2]string{"last crossing", fmt.Sprintf("x=%.6g v=%.6g", last.Position, last.Velocity)})
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), progress.Summary("analysis", fields))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
