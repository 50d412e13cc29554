package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/export/metrics"
	"github.com/abdul-hamid-achik/hitplate/packages/stress"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "Run the cases of a file repeatedly and report latency",
	Long: `Run the cases of a file one after another, repeatedly, and report latency
percentiles and pass/fail counts. Cases marked bench.setup run once before
measuring, bench.teardown once after. bench.weight sets how often a case is
picked.

Examples:
  # 200 iterations, unpaced
  hitplate bench api.hit.yaml --count 200 --rate 0

  # One minute at 20 iterations per second
  hitplate bench api.hit.yaml -d 1m -r 20

  # With thresholds for CI/CD
  hitplate bench api.hit.yaml -c 500 --threshold "p95<200ms,errors<1%"`,
	Args: cobra.ExactArgs(1),
	RunE: benchCommand,
}

var (
	benchDurationFlag   string
	benchCountFlag      int
	benchRateFlag       float64
	benchWarmupFlag     int
	benchThresholdFlag  string
	benchNameFlag       string
	benchNoProgressFlag bool
	benchJSONFlag       bool
	benchMetricsFlag    string
)

func init() {
	addSessionFlags(benchCmd)
	f := benchCmd.Flags()
	f.StringVarP(&benchDurationFlag, "duration", "d", getEnvString("HITPLATE_BENCH_DURATION", ""), "Bench duration, e.g. 30s or 5m (default 10s when --count is not set)")
	f.IntVarP(&benchCountFlag, "count", "c", getEnvInt("HITPLATE_BENCH_COUNT", 0), "Number of measured iterations")
	f.Float64VarP(&benchRateFlag, "rate", "r", getEnvFloat("HITPLATE_BENCH_RATE", 10), "Iterations per second, 0 runs them back to back")
	f.IntVar(&benchWarmupFlag, "warmup", 0, "Iterations to run before measuring")
	f.StringVar(&benchThresholdFlag, "threshold", "", "Pass/fail thresholds, e.g. \"p95<200ms,errors<0.1%\"")
	f.StringVarP(&benchNameFlag, "name", "n", "", "Bench only cases whose name contains this text")
	f.BoolVar(&benchNoProgressFlag, "no-progress", false, "Disable the progress line")
	f.BoolVar(&benchJSONFlag, "json", false, "Print the summary as JSON")
	f.StringVar(&benchMetricsFlag, "metrics-file", getEnvString("HITPLATE_METRICS_FILE", ""), "Write Prometheus metrics of the bench to this file (env: HITPLATE_METRICS_FILE)")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := buildBenchConfig()
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	s.options.NameFilter = benchNameFlag

	// With --json the readable report goes to stderr.
	human := cmd.OutOrStdout()
	if benchJSONFlag {
		human = cmd.ErrOrStderr()
	}
	reporter := stress.NewReporter(
		stress.WithWriter(human),
		stress.WithNoColor(s.config.GetNoColor()),
		stress.WithNoProgress(benchNoProgressFlag || benchJSONFlag),
		stress.WithVerbose(s.config.GetVerbose()),
	)
	r := stress.NewRunner(cfg,
		stress.WithSuiteOptions(s.options),
		stress.WithReporter(reporter),
		stress.WithVersion(version),
	)
	if err := r.LoadFile(args[0]); err != nil {
		if errors.Is(err, stress.ErrNoCases) {
			return exitWith(ExitUsageError, err)
		}
		return exitWith(ExitParseError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := r.Run(ctx)
	if err != nil {
		return exitWith(ExitTestFailure, err)
	}

	if benchJSONFlag {
		jsonReporter := stress.NewReporter(stress.WithWriter(cmd.OutOrStdout()))
		if err := jsonReporter.JSONSummary(result.Summary, result.Thresholds); err != nil {
			return err
		}
	}
	if benchMetricsFlag != "" {
		err := metrics.WriteFile(benchMetricsFlag, func(w io.Writer) error {
			return metrics.WriteBench(w, args[0], result.Summary)
		})
		if err != nil {
			return err
		}
	}
	if !result.Passed {
		return exitWith(ExitTestFailure, errors.New("bench failed"))
	}
	return nil
}

// buildBenchConfig turns the flags into a bench config. A count without a
// duration runs until the count is reached.
func buildBenchConfig() (*stress.Config, error) {
	cfg := stress.DefaultConfig()
	cfg.Rate = benchRateFlag
	cfg.Warmup = benchWarmupFlag
	cfg.Count = benchCountFlag

	switch {
	case benchDurationFlag != "":
		d, err := time.ParseDuration(benchDurationFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", benchDurationFlag, err)
		}
		cfg.Duration = d
	case benchCountFlag > 0:
		cfg.Duration = 0
	}

	if benchThresholdFlag != "" {
		t, err := stress.ParseThresholds(benchThresholdFlag)
		if err != nil {
			return nil, err
		}
		cfg.Thresholds = t
	}
	return cfg, cfg.Validate()
}
