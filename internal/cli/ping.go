package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/ocuprofile/internal/monitor"
)

var pingCount int

func newPingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the analysis service is reachable",
		Long: `Send a request to the analysis service root and report whether it answers.

Hosted instances may sleep when idle; the first ping can take a while.`,
		Example: `  ocuprofile ping
  ocuprofile ping --count 5
  ocuprofile ping --endpoint http://localhost:8000`,
		Args: cobra.NoArgs,
		RunE: runPing,
	}

	cmd.Flags().StringVar(&analyzeEndpoint, "endpoint", "", "analysis service base URL")
	cmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "request timeout")
	cmd.Flags().IntVarP(&pingCount, "count", "n", 1, "number of checks to send")

	return cmd
}

func runPing(cmd *cobra.Command, _ []string) error {
	if pingCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	_, svc, err := newWorkflow(cmd, GetGlobalConfig(), newLogger("ping"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stats := monitor.New()
	var lastErr error
	for i := 0; i < pingCount; i++ {
		err := stats.Track(monitor.OpHealthCheck, func() error {
			return svc.HealthCheck(context.Background())
		})
		latency := stats.Operation(monitor.OpHealthCheck).LastTime.Round(time.Millisecond)
		if err != nil {
			lastErr = err
			fmt.Fprintf(out, "%s %s is not reachable (%s)\n", GetEmoji("error"), svc.Endpoint(), latency)
			continue
		}
		fmt.Fprintf(out, "%s %s is reachable (%s)\n", GetEmoji("success"), svc.Endpoint(), latency)
	}

	if pingCount > 1 {
		fmt.Fprintln(out, stats.Snapshot().Summary())
	}
	return lastErr
}
