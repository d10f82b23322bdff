package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"
	"github.com/vietddude/subgraph-monitor/internal/control"
	"github.com/vietddude/subgraph-monitor/internal/core/domain"
)

func newCheckCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single health check and exit non-zero when unhealthy",
		Run: func(cmd *cobra.Command, args []string) {
			if code := opts.runCheck(cmd, asJSON); code != 0 {
				os.Exit(code)
			}
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the verdict as JSON")
	return cmd
}

func (o *options) runCheck(cmd *cobra.Command, asJSON bool) int {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		return 1
	}
	setupLogging(cfg)

	app, err := control.NewMonitor(controlConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize Monitor", "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return check(ctx, app, cmd.OutOrStdout(), asJSON)
}

// check runs one cycle, prints the verdict and returns the process exit code.
func check(ctx context.Context, checker control.HealthChecker, out io.Writer, asJSON bool) int {
	verdict := checker.CheckOnce(ctx)

	if asJSON {
		if err := json.NewEncoder(out).Encode(verdict); err != nil {
			slog.Error("Failed to encode verdict", "error", err)
			return 1
		}
	} else {
		printVerdict(out, verdict)
	}

	if !verdict.Healthy {
		return 1
	}
	return 0
}

func printVerdict(out io.Writer, v domain.HealthVerdict) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "HEALTHY\tSYNCED\tHEAD\tBEHIND\tCHECKED")
	_, _ = fmt.Fprintf(w, "%t\t%d\t%d\t%d\t%s\n",
		v.Healthy, v.SyncedBlockHeight, v.ChainHeadBlockHeight, v.BlocksBehind, v.LastChecked)
	_ = w.Flush()
}
