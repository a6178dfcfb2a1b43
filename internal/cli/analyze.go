package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/charts"
	"github.com/yildizm/ocuprofile/internal/client"
	"github.com/yildizm/ocuprofile/internal/config"
	"github.com/yildizm/ocuprofile/internal/formatter"
	"github.com/yildizm/ocuprofile/internal/logger"
	"github.com/yildizm/ocuprofile/internal/report"
	"github.com/yildizm/ocuprofile/internal/ui"
	"github.com/yildizm/ocuprofile/internal/workflow"
)

var (
	analyzeNoTUI      bool
	analyzeOutputFile string
	analyzeChartsDir  string
	analyzeHTMLFile   string
	analyzeEndpoint   string
	analyzeTimeout    time.Duration
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze an ocular biometry spreadsheet",
		Long: `Upload a spreadsheet to the clustering service and show the eye profiles it finds.

Without --no-tui and with text output, an interactive terminal UI opens; the
file argument is optional there and can be picked inside the UI.

Examples:
  ocuprofile analyze biometria.xlsx
  ocuprofile analyze --no-tui -o json biometria.xlsx
  ocuprofile analyze --no-tui --charts ./graficos biometria.xlsx
  ocuprofile analyze --endpoint http://localhost:8000 biometria.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().BoolVar(&analyzeNoTUI, "no-tui", false, "disable terminal UI, output to stdout")
	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "save output to file instead of stdout")
	cmd.Flags().StringVar(&analyzeChartsDir, "charts", "", "write PNG and HTML charts into this directory")
	cmd.Flags().StringVar(&analyzeHTMLFile, "html", "", "write an interactive HTML chart page to this file")
	cmd.Flags().StringVar(&analyzeEndpoint, "endpoint", "", "analysis service base URL")
	cmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "per-attempt request timeout")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	log := newLogger("analyze")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flow, svc, err := newWorkflow(cmd, cfg, log)
	if err != nil {
		return err
	}
	log.DebugWithFields("using analysis service", []logger.Field{logger.F("endpoint", svc.Endpoint())})

	if shouldUseTUIMode() {
		var initial *analysis.Upload
		if len(args) == 1 {
			if initial, err = analysis.LoadUpload(args[0], cfg.UploadOptions()); err != nil {
				return err
			}
		}
		return ui.Run(ui.Options{
			Workflow: flow,
			Upload:   cfg.UploadOptions(),
			Initial:  initial,
			Context:  ctx,
		})
	}

	if len(args) == 0 {
		return analysis.ErrNoFileSelected()
	}
	rep, err := analyzeFile(ctx, flow, args[0], cfg.UploadOptions(), log)
	if err != nil {
		return err
	}
	return outputReport(ctx, cmd.OutOrStdout(), rep, cfg, log)
}

// newWorkflow builds the service client and workflow, letting flags
// override the service section of the configuration
func newWorkflow(cmd *cobra.Command, cfg *config.Config, log *logger.Logger) (*workflow.Workflow, *client.Client, error) {
	clientCfg := cfg.ClientConfig()
	if f := cmd.Flag("endpoint"); f != nil && f.Changed {
		clientCfg.Endpoint = analyzeEndpoint
	}
	if f := cmd.Flag("timeout"); f != nil && f.Changed {
		clientCfg.Timeout = analyzeTimeout
	}

	svc, err := client.New(clientCfg, client.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid service configuration: %w", err)
	}
	return workflow.New(svc, workflow.WithLogger(log)), svc, nil
}

// shouldUseTUIMode reports whether analyze opens the interactive UI
func shouldUseTUIMode() bool {
	return !analyzeNoTUI && getOutputFormat() == "text" && !isVerbose() && analyzeOutputFile == ""
}

// analyzeFile selects path and submits it, returning the report of a
// successful analysis or the user-facing error of a failed one
func analyzeFile(ctx context.Context, flow *workflow.Workflow, path string, opts analysis.LoadOptions, log *logger.Logger) (*report.Report, error) {
	upload, err := analysis.LoadUpload(path, opts)
	if err != nil {
		return nil, err
	}
	if err := flow.SelectFile(upload); err != nil {
		return nil, err
	}

	state, err := flow.Submit(ctx)
	if err != nil {
		return nil, err
	}

	switch s := state.(type) {
	case workflow.Succeeded:
		return report.Build(s.File.Name, s.Result)
	case workflow.Failed:
		log.DebugWithFields("analysis failed", []logger.Field{logger.Error(s.Err)})
		return nil, &analysisError{message: s.Message, cause: s.Err}
	default:
		return nil, fmt.Errorf("unexpected workflow state %s", state)
	}
}

// analysisError shows the user message and keeps the cause for errors.As
type analysisError struct {
	message string
	cause   error
}

func (e *analysisError) Error() string { return e.message }
func (e *analysisError) Unwrap() error { return e.cause }

// outputReport formats rep and writes it with any requested charts
func outputReport(ctx context.Context, stdout io.Writer, rep *report.Report, cfg *config.Config, log *logger.Logger) error {
	f, err := formatter.New(getOutputFormat(), colorEnabled() && analyzeOutputFile == "")
	if err != nil {
		return err
	}
	output, err := f.Format(rep)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	if err := handleOutputDestination(stdout, output, log); err != nil {
		return err
	}

	chartOpts := charts.Options{Width: cfg.Charts.Width, Height: cfg.Charts.Height}

	dir := analyzeChartsDir
	if dir == "" {
		dir = cfg.Charts.Directory
	}
	if dir != "" {
		files, err := charts.WriteAll(ctx, dir, rep, chartOpts)
		if err != nil {
			return fmt.Errorf("failed to write charts: %w", err)
		}
		for _, path := range files.All() {
			log.InfoWithFields("chart written", []logger.Field{logger.File(path)})
		}
	}

	if analyzeHTMLFile != "" {
		if err := writeHTMLFile(analyzeHTMLFile, rep, chartOpts); err != nil {
			return err
		}
		log.InfoWithFields("chart page written", []logger.Field{logger.File(analyzeHTMLFile)})
	}
	return nil
}

// handleOutputDestination writes output to file or stdout
func handleOutputDestination(stdout io.Writer, output []byte, log *logger.Logger) error {
	if analyzeOutputFile != "" {
		if err := validateOutputFilePath(analyzeOutputFile); err != nil {
			return fmt.Errorf("invalid output file path: %w", err)
		}
		if err := writeOutputBytesToFile(output, analyzeOutputFile); err != nil {
			return fmt.Errorf("failed to write output to file: %w", err)
		}
		log.InfoWithFields("output saved", []logger.Field{logger.File(analyzeOutputFile)})
		return nil
	}

	_, err := stdout.Write(output)
	return err
}

func validateOutputFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}
	info, err := os.Stat(filepath.Clean(path))
	if err == nil && info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	return nil
}

func writeHTMLFile(path string, rep *report.Report, o charts.Options) (err error) {
	if err := validateOutputFilePath(path); err != nil {
		return fmt.Errorf("invalid html file path: %w", err)
	}
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create html file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close html file: %w", closeErr)
		}
	}()

	if err := charts.WriteHTML(file, rep, o); err != nil {
		return fmt.Errorf("failed to render html charts: %w", err)
	}
	return nil
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)

	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// Sync to ensure data is written
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}
