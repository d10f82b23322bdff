package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"
	"github.com/vietddude/subgraph-monitor/internal/control"
	"github.com/vietddude/subgraph-monitor/internal/core/config"
)

// options holds the flag values shared by the root command and its subcommands.
type options struct {
	cfgPath     string
	debug       bool
	endpoint    string
	rpcURL      string
	port        int
	interval    int
	timeoutSecs int
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subgraph-monitor",
		Short: "Subgraph block height monitor",
		Long: `subgraph-monitor checks whether a subgraph keeps pace with the chain head and
serves the result on /health, /metrics and an HTML dashboard.`,
		Run: func(cmd *cobra.Command, args []string) {
			runMonitor(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgPath, "config", "config.yaml", "config file (missing file means defaults)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVarP(&opts.endpoint, "endpoint", "e", config.DefaultSubgraphURL, "subgraph endpoint URL")
	flags.StringVarP(&opts.rpcURL, "rpc", "r", config.DefaultRPCURL, "RPC endpoint URL")
	flags.IntVarP(&opts.port, "port", "p", 3000, "port to run the monitor on")
	flags.IntVarP(&opts.interval, "interval", "i", 60, "check interval in seconds")
	flags.IntVar(&opts.timeoutSecs, "timeout", 10, "upstream request timeout in seconds, 0 for none")

	cmd.AddCommand(newCheckCmd(opts))
	return cmd
}

func Execute() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges file, environment and explicitly set flags, then validates.
func (o *options) loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Subgraph.URL = o.endpoint
	}
	if flags.Changed("rpc") {
		cfg.RPC.URL = o.rpcURL
	}
	if flags.Changed("port") {
		cfg.Server.Port = o.port
	}
	if flags.Changed("interval") {
		cfg.Poll.IntervalSeconds = o.interval
	}
	if flags.Changed("timeout") {
		cfg.Poll.TimeoutSeconds = o.timeoutSecs
	}
	if o.debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.AppConfig) {
	slogLevel := slog.LevelInfo
	if err := slogLevel.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		slogLevel = slog.LevelInfo
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
}

func controlConfig(cfg *config.AppConfig) control.Config {
	return control.Config{
		Port:        cfg.Server.Port,
		SubgraphURL: cfg.Subgraph.URL,
		RPCURL:      cfg.RPC.URL,
		Interval:    cfg.Poll.Interval(),
		Timeout:     cfg.Poll.Timeout(),
	}
}

func runMonitor(cmd *cobra.Command, opts *options) {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	slog.Info("Subgraph Block Height Monitor")
	slog.Info("Monitoring subgraph", "url", cfg.Subgraph.URL)
	slog.Info("Using RPC endpoint", "url", cfg.RPC.URL)
	slog.Info("Check interval", "seconds", cfg.Poll.IntervalSeconds)
	slog.Info("Server running", "url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port))

	app, err := control.NewMonitor(controlConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize Monitor", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start Monitor", "error", err)
		os.Exit(1)
	}

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
	case <-app.Done():
		slog.Error("Monitor stopped unexpectedly")
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	slog.Info("Monitor stopped gracefully")
}
