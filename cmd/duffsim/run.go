package main

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/duffsim/internal/config"
	"github.com/san-kum/duffsim/internal/engine"
	"github.com/san-kum/duffsim/internal/integrators"
	"github.com/san-kum/duffsim/internal/logging"
	"github.com/san-kum/duffsim/internal/metrics"
	"github.com/san-kum/duffsim/internal/progress"
	"github.com/san-kum/duffsim/internal/storage"
	"github.com/san-kum/duffsim/internal/trajectory"
)

// runFlags are the settings shared by run and config.
type runFlags struct {
	preset     string
	configFile string
	steps      int
	dt         float64
	integrator string
	x0, v0     float64
	delta      float64
	alpha      float64
	beta       float64
	gamma      float64
	omega      float64
	out        string
	delimiter  string
	header     bool
	set        []string
}

func (f *runFlags) register(cmd *cobra.Command) {
	def := config.DefaultConfig()
	p := def.Parameters

	cmd.Flags().StringVar(&f.preset, "preset", "", "start from a named preset")
	cmd.Flags().StringVar(&f.configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&f.steps, "steps", def.Steps, "number of integration steps")
	cmd.Flags().Float64Var(&f.dt, "dt", p.StepSize, "integration step size")
	cmd.Flags().StringVar(&f.integrator, "integrator", def.Integrator, fmt.Sprintf("integrator %v", integrators.Names()))
	cmd.Flags().Float64Var(&f.x0, "x0", def.InitState.Position, "initial position")
	cmd.Flags().Float64Var(&f.v0, "v0", def.InitState.Velocity, "initial velocity")
	cmd.Flags().Float64Var(&f.delta, "delta", p.Damping, "damping coefficient")
	cmd.Flags().Float64Var(&f.alpha, "alpha", p.LinearStiffness, "linear stiffness")
	cmd.Flags().Float64Var(&f.beta, "beta", p.CubicStiffness, "cubic stiffness")
	cmd.Flags().Float64Var(&f.gamma, "gamma", p.ForcingAmplitude, "forcing amplitude")
	cmd.Flags().Float64Var(&f.omega, "omega", p.ForcingFrequency, "forcing angular frequency")
	cmd.Flags().StringVarP(&f.out, "out", "o", def.Output.Path, "trajectory output file (- for stdout, empty to skip)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", def.Output.Delimiter, "column delimiter (space, comma or tab)")
	cmd.Flags().BoolVar(&f.header, "header", false, "write a header row")
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "override a parameter as name=value (repeatable)")
}

// resolve layers preset, config file and explicitly set flags, in that
// order.
func (f *runFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if f.preset != "" {
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	}

	if f.configFile != "" {
		if err := config.LoadInto(f.configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Steps = f.steps
	}
	if flags.Changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if flags.Changed("out") {
		cfg.Output.Path = f.out
	}
	if flags.Changed("delimiter") {
		cfg.Output.Delimiter = f.delimiter
	}
	if flags.Changed("header") {
		cfg.Output.Header = f.header
	}

	numeric := []struct {
		flag, param string
		value       float64
	}{
		{"dt", "dt", f.dt},
		{"x0", "x0", f.x0},
		{"v0", "v0", f.v0},
		{"delta", "delta", f.delta},
		{"alpha", "alpha", f.alpha},
		{"beta", "beta", f.beta},
		{"gamma", "gamma", f.gamma},
		{"omega", "omega", f.omega},
	}
	for _, n := range numeric {
		if flags.Changed(n.flag) {
			if err := cfg.SetParam(n.param, n.value); err != nil {
				return nil, err
			}
		}
	}

	for _, kv := range f.set {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", kv, err)
		}
		if err := cfg.SetParam(strings.TrimSpace(name), v); err != nil {
			return nil, fmt.Errorf("--set %q: %w", kv, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// A config file may carry log settings; each flag still wins on its own.
	if f.configFile != "" {
		level, format := cfg.Log.Level, cfg.Log.Format
		if flags.Changed("log-level") {
			level = logLevel
		}
		if flags.Changed("log-format") {
			format = logFormat
		}
		cfg.Log.Level, cfg.Log.Format = level, format
		l, err := logging.New(level, format)
		if err != nil {
			return nil, err
		}
		log = l
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	var (
		flags       runFlags
		interactive bool
		chunk       int
		noStore     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "initialize the oscillator, advance it and write the trajectory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return runSimulation(cmd, cfg, flags.preset, interactive, chunk, !noStore)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "show live progress; q stops after the current chunk")
	cmd.Flags().IntVar(&chunk, "chunk", progress.DefaultChunk, "steps per chunk in interactive mode")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not save the run in the data directory")
	return cmd
}

func runSimulation(cmd *cobra.Command, cfg *config.Config, preset string, interactive bool, chunk int, store bool) error {
	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return err
	}

	eng := engine.New(engine.WithLogger(log.Named("engine")), engine.WithIntegrator(integ))
	for _, m := range metrics.Default(cfg.Parameters.Model()) {
		eng.AddMetric(m)
	}
	if err := eng.InitializeWith(cfg.Parameters, cfg.InitState); err != nil {
		return err
	}

	start := time.Now()
	if interactive {
		final, err := progress.Run(context.Background(), eng, cfg.Steps, chunk)
		if err != nil {
			return err
		}
		if final.Stopped() && !final.Finished() {
			log.Info("run stopped early", zap.Int("requested", cfg.Steps), zap.Int("completed", final.Done()))
		}
	} else if err := eng.Advance(cfg.Steps); err != nil {
		return err
	}
	elapsed := time.Since(start)

	samples := eng.Export()
	state, err := finalState(eng, samples)
	if err != nil {
		return err
	}
	log.Info("run completed",
		zap.Int("samples", len(samples)),
		zap.Duration("elapsed", elapsed),
		zap.Bool("finite", !isNonFinite(state)),
	)

	opts, err := cfg.TextOptions()
	if err != nil {
		return err
	}

	switch cfg.Output.Path {
	case "":
	case "-":
		if err := trajectory.WriteText(cmd.OutOrStdout(), samples, opts); err != nil {
			return err
		}
	default:
		if err := storage.WriteTrajectoryFile(cfg.Output.Path, samples, opts); err != nil {
			return err
		}
		log.Info("trajectory written", zap.String("path", cfg.Output.Path))
	}

	runID := ""
	if store {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err = st.Save(storage.RunMetadata{
			Preset:     preset,
			Integrator: eng.IntegratorName(),
			Parameters: eng.Parameters(),
			Initial:    cfg.InitState,
			Metrics:    eng.Metrics(),
		}, samples)
		if err != nil {
			return err
		}
		log.Debug("run stored", zap.String("id", runID), zap.String("dir", dataDir))
	}

	if cfg.Output.Path == "-" {
		return nil
	}

	fields := [][2]string{
		{"steps", strconv.Itoa(len(samples))},
		{"elapsed", elapsed.Round(time.Microsecond).String()},
		{"final", fmt.Sprintf("x=%.6g v=%.6g t=%.6g", state.Position, state.Velocity, state.Time)},
	}
	if runID != "" {
		fields = append(fields, [2]string{"run id", runID})
	}
	m := eng.Metrics()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fields = append(fields, [2]string{name, fmt.Sprintf("%.6g", m[name])})
	}
	fmt.Fprintln(cmd.OutOrStdout(), progress.Summary("run complete", fields))
	return nil
}

// finalState is the last exported sample, so the summary always agrees with
// the written trajectory. With no samples it is the initial state.
func finalState(eng *engine.Engine, samples []engine.Sample) (engine.Sample, error) {
	if n := len(samples); n > 0 {
		return samples[n-1], nil
	}
	return eng.State()
}

func isNonFinite(s engine.Sample) bool {
	return math.IsNaN(s.Position) || math.IsInf(s.Position, 0) ||
		math.IsNaN(s.Velocity) || math.IsInf(s.Velocity, 0)
}

func newConfigCmd() *cobra.Command {
	var (
		flags runFlags
		write string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if write != "" {
				return config.Save(write, cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&write, "write", "", "write the configuration to this file instead of stdout")
	return cmd
}
