package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
	"github.com/abdul-hamid-achik/hitplate/packages/export/metrics"
	"github.com/abdul-hamid-achik/hitplate/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run the cases of .hit.yaml files",
	Long: `Run the cases defined in .hit.yaml files. Cases of a file run in order
and each case can bind the response values of earlier ones as {{case.name}}.

Examples:
  hitplate run users.hit.yaml
  hitplate run ./cases/ --tags smoke
  hitplate run users.hit.yaml --base-url http://localhost:8080 -o junit --output-file report.xml
  hitplate run ./cases/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	nameFlag       string
	tagsFlag       string
	bailFlag       bool
	outputFlag     string
	outputFileFlag string
	metricsFlag    string
	watchFlag      bool
)

func init() {
	addSessionFlags(runCmd)
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only cases whose name contains this text")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("HITPLATE_TAGS", ""), "Run only cases with one of these tags (comma-separated) (env: HITPLATE_TAGS)")
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("HITPLATE_BAIL", false), "Stop on first failure (env: HITPLATE_BAIL)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("HITPLATE_OUTPUT", ""), "Output format: console, json, junit, tap (env: HITPLATE_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("HITPLATE_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: HITPLATE_OUTPUT_FILE)")
	runCmd.Flags().StringVar(&metricsFlag, "metrics-file", getEnvString("HITPLATE_METRICS_FILE", ""), "Write Prometheus metrics of each run to this file (env: HITPLATE_METRICS_FILE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run cases")
}

// runTotals sums up one pass over the files.
type runTotals struct {
	passed, failed, skipped int
	loadErrors              int
	networkErrors           int
	duration                time.Duration
}

func (t runTotals) exitCode() int {
	switch {
	case t.loadErrors > 0:
		return ExitParseError
	case t.networkErrors > 0 && t.networkErrors == t.failed:
		return ExitNetworkError
	case t.failed > 0:
		return ExitTestFailure
	default:
		return ExitSuccess
	}
}

func runCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	s.options.NameFilter = nameFlag
	s.options.TagsFilter = splitList(tagsFlag)
	if bailFlag {
		s.options.Bail = true
	}

	format := outputFlag
	if format == "" && len(s.config.Reporters) > 0 {
		format = s.config.Reporters[0]
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("cannot create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	runOnce := func() (runTotals, error) {
		formatter, err := output.New(format, out, s.config.GetVerbose(), s.config.GetNoColor())
		if err != nil {
			return runTotals{}, exitWith(ExitUsageError, err)
		}
		formatter.FormatHeader(version)
		collector := metrics.NewCollector()
		totals := runFiles(ctx, files, s.options, formatter, collector)
		if flushable, ok := formatter.(output.Flushable); ok {
			if err := flushable.Flush(totals.duration); err != nil {
				return totals, fmt.Errorf("error writing output: %w", err)
			}
		}
		if metricsFlag != "" {
			err := metrics.WriteFile(metricsFlag, func(w io.Writer) error {
				return metrics.WriteRun(w, collector.Aggregate(), time.Now())
			})
			if err != nil {
				return totals, err
			}
		}
		return totals, nil
	}

	totals, err := runOnce()
	if err != nil {
		return err
	}

	if !watchFlag {
		if code := totals.exitCode(); code != ExitSuccess {
			return exitWith(code, nil)
		}
		return nil
	}

	return watch(ctx, cmd, args, files, func() {
		if found, err := suite.Discover(args); err == nil && len(found) > 0 {
			files = found
		}
		if _, err := runOnce(); err != nil {
			warn("%v", err)
		}
	})
}

// runFiles runs every file with one shared resolver, so captures carry over
// from file to file.
func runFiles(ctx context.Context, files []string, opts *suite.Options, formatter output.Formatter, collector *metrics.Collector) runTotals {
	var totals runTotals
	start := time.Now()

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		result, err := suite.RunFile(ctx, file, opts)
		if err != nil {
			totals.loadErrors++
			formatter.FormatError(err)
			if opts.Bail {
				break
			}
			continue
		}

		formatter.FormatResult(result)
		collector.RecordFile(result)
		totals.passed += result.Passed
		totals.failed += result.Failed
		totals.skipped += result.Skipped
		for _, r := range result.Results {
			if r.Result != nil && r.Result.Response != nil && r.Result.Response.Error != "" {
				totals.networkErrors++
			}
		}

		if opts.Bail && result.Failed > 0 {
			break
		}
	}

	totals.duration = time.Since(start)
	return totals
}

// watch re-runs the cases whenever a case file under the watched
// directories is written, until ctx is done.
func watch(ctx context.Context, cmd *cobra.Command, args, files []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	add := func(dir string) {
		if watched[dir] {
			return
		}
		watched[dir] = true
		if err := watcher.Add(dir); err != nil {
			warn("failed to watch %s: %v", dir, err)
		}
	}
	for _, file := range files {
		add(filepath.Dir(file))
	}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			_ = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
				if err == nil && d.IsDir() {
					add(path)
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	changed := make(chan string, 1)
	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) || !suite.IsCaseFile(event.Name) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			name := event.Name
			debounce = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case changed <- name:
				default:
				}
			})

		case name := <-changed:
			fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running cases...\n", name)
			rerun()
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			warn("watcher error: %v", err)
		}
	}
}
