package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/ossim/ossim/internal/tracing"
	sim "github.com/ossim/ossim/sim"
	"github.com/ossim/ossim/sim/trace"
)

// version is reported in trace resources and `ossim --version`.
var version = "0.1.0"

var (
	// CLI flags for the run and validate commands
	configPath  string // YAML config file; defaults apply when empty
	logLevel    string // Log verbosity level
	scheduling  string // Overrides scheduling from the config
	logTarget   string // Overrides log.target from the config
	logFile     string // Overrides log.file_path from the config
	otelTrace   string // File receiving OpenTelemetry spans; disabled when empty
	showMetrics bool   // Print the metrics summary after the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:     "ossim",
	Short:   "Operating system scheduling simulator",
	Version: version,
}

// runCmd executes the simulation using the config file and CLI overrides
var runCmd = &cobra.Command{
	Use:   "run [workload]",
	Short: "Run a workload through the simulator",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		err := executeRun(cmd.Context(), args, cmd.OutOrStdout())
		var fatal *sim.FatalError
		if errors.As(err, &fatal) {
			// the trace already ends with the exit notice
			logrus.Errorf("simulation aborted during %s: %v", fatal.Stage, fatal.Err)
			os.Exit(1)
		}
		if err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// executeRun resolves the config, installs span export when requested and
// runs the workload. Spans are flushed and the span file closed before it
// returns, whether or not the run was aborted.
func executeRun(ctx context.Context, args []string, out io.Writer) error {
	cfg, location, err := resolveConfig(args)
	if err != nil {
		return err
	}
	if otelTrace != "" {
		f, err := os.Create(otelTrace)
		if err != nil {
			return fmt.Errorf("creating span file %s: %w", otelTrace, err)
		}
		defer f.Close()
		if err := tracing.Init("ossim", version, f); err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() {
			if err := tracing.Shutdown(context.Background()); err != nil {
				logrus.Warnf("flushing spans: %v", err)
			}
		}()
	}
	return runSimulation(ctx, cfg, location, out)
}

// validateCmd parses the config and workload without executing anything
var validateCmd = &cobra.Command{
	Use:   "validate [workload]",
	Short: "Check a config and workload without running them",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		cfg, location, err := resolveConfig(args)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := validateWorkload(cmd.Context(), cfg, location, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// defaultsCmd prints the built-in configuration as YAML
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDefaultConfig(cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveConfig loads the config file, applies flag overrides and picks the
// workload location: the positional argument wins over workload_path.
func resolveConfig(args []string) (*sim.Config, string, error) {
	var cfg *sim.Config
	if configPath != "" {
		loaded, err := sim.LoadConfig(context.Background(), afs.New(), configPath)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	} else {
		defaults := sim.DefaultConfig()
		cfg = &defaults
	}
	if scheduling != "" {
		cfg.Scheduling = sim.NormalizePolicy(scheduling)
	}
	if logTarget != "" {
		if !trace.IsValidLogTarget(logTarget) {
			return nil, "", fmt.Errorf("unknown log target %q", logTarget)
		}
		cfg.Log.Target = logTarget
	}
	if logFile != "" {
		cfg.Log.FilePath = logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	location := cfg.WorkloadPath
	if len(args) > 0 {
		location = args[0]
	}
	if location == "" {
		return nil, "", errors.New("no workload given: pass a path or set workload_path")
	}
	return cfg, location, nil
}

// runSimulation runs one workload and optionally prints metrics to out.
func runSimulation(ctx context.Context, cfg *sim.Config, location string, out io.Writer, opts ...sim.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := sim.NewSimulator(cfg, append([]sim.Option{sim.WithMonitor(out)}, opts...)...)
	if err != nil {
		return err
	}
	logrus.Infof("run %s: %s scheduling, workload %s", s.RunID, s.Scheduler.Name(), location)
	metrics, err := s.RunFile(ctx, location)
	if err != nil {
		return err
	}
	if showMetrics {
		return metrics.Print(out)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&scheduling, "scheduling", "", "Scheduling policy override (fcfs, sjf, ps)")

	runCmd.Flags().StringVar(&logTarget, "log-to", "", "Trace target override (monitor, file, both)")
	runCmd.Flags().StringVar(&logFile, "log-file", "", "Trace file path override")
	runCmd.Flags().StringVar(&otelTrace, "otel-trace", "", "Write OpenTelemetry spans to this file")
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print run metrics after the trace")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(defaultsCmd)
}
