package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yildizm/ocuprofile/internal/logger"
	"github.com/yildizm/ocuprofile/internal/monitor"
	"github.com/yildizm/ocuprofile/internal/report"
)

var watchDebounce time.Duration

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-analyze a spreadsheet whenever it changes",
		Long: `Analyze a spreadsheet, then watch it and analyze it again each time it is saved.

Saves that arrive while an analysis is running are coalesced into a single
re-run after it finishes. Press Ctrl+C to stop watching.

Examples:
  ocuprofile watch biometria.xlsx
  ocuprofile watch -o markdown --output-file perfis.md biometria.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period after a change before re-analyzing")
	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "save output to file instead of stdout")
	cmd.Flags().StringVar(&analyzeChartsDir, "charts", "", "write PNG and HTML charts into this directory")
	cmd.Flags().StringVar(&analyzeEndpoint, "endpoint", "", "analysis service base URL")
	cmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "per-attempt request timeout")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	target, err := validateWatchFilePath(args[0])
	if err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	cfg := GetGlobalConfig()
	log := newLogger("watch")

	flow, _, err := newWorkflow(cmd, cfg, log)
	if err != nil {
		return err
	}

	watcher, err := createWatcher(target)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	log.InfoWithFields("watching", []logger.Field{logger.File(target)})

	stats := monitor.New()
	analyzeOnce := func(ctx context.Context) {
		var rep *report.Report
		err := stats.Track(monitor.OpAnalyze, func() (err error) {
			rep, err = analyzeFile(ctx, flow, target, cfg.UploadOptions(), log)
			return err
		})
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", GetEmoji("error"), err)
			}
			return
		}
		printWatchHeader(out, target)
		err = stats.Track(monitor.OpRender, func() error {
			return outputReport(ctx, out, rep, cfg, log)
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", GetEmoji("error"), err)
		}
	}

	err = watchLoop(ctx, watcher.Events, watcher.Errors, target, watchDebounce, analyzeOnce, log)
	printSessionSummary(cmd.ErrOrStderr(), stats.Snapshot())
	return err
}

func printSessionSummary(w io.Writer, snap monitor.Snapshot) {
	fmt.Fprintf(w, "\n%s watched for %s\n%s\n", GetEmoji("chart"), snap.Uptime.Round(time.Second), snap.Summary())
}

func printWatchHeader(w io.Writer, target string) {
	if getOutputFormat() != "text" || analyzeOutputFile != "" {
		return
	}
	fmt.Fprintf(w, "\n%s %s · %s\n\n", GetEmoji("watch"), filepath.Base(target), time.Now().Format("15:04:05"))
}

// watchLoop runs analyze once, then again after each burst of changes to
// target. At most one analysis runs at a time; changes seen while one is
// running trigger exactly one more run after it.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, target string, debounce time.Duration, analyze func(context.Context), log *logger.Logger) error {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		running bool
		pending bool
	)
	done := make(chan struct{}, 1)

	start := func() {
		running = true
		go func() {
			analyze(ctx)
			done <- struct{}{}
		}()
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	start()
	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			return nil

		case event, ok := <-events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !isChangeOf(event, target) {
				continue
			}
			log.DebugWithFields("change detected", []logger.Field{logger.File(event.Name), logger.F("op", event.Op.String())})
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if running {
				pending = true
				continue
			}
			start()

		case <-done:
			running = false
			if pending {
				pending = false
				start()
			}

		case err, ok := <-errs:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.WarnWithFields("watcher error", []logger.Field{logger.Error(err)})
		}
	}
}

// isChangeOf reports whether event rewrites target. Editors often save by
// renaming a temporary file over the original, so creates count too.
func isChangeOf(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// createWatcher watches the directory of filename so that replacing the
// file does not drop the watch
func createWatcher(filename string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		cleanupWatcher(watcher)
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}

	return watcher, nil
}

// validateWatchFilePath validates that a file path is safe to watch and
// returns its cleaned form
func validateWatchFilePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file does not exist: %s", cleanPath)
		}
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}

	return cleanPath, nil
}
