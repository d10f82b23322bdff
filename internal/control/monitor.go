package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/subgraph-monitor/internal/core/domain"
	"github.com/vietddude/subgraph-monitor/internal/core/status"
	"github.com/vietddude/subgraph-monitor/internal/indexing/health"
	"github.com/vietddude/subgraph-monitor/internal/indexing/metrics"
	"github.com/vietddude/subgraph-monitor/internal/infra/chain/evm"
	"github.com/vietddude/subgraph-monitor/internal/infra/rpc"
	"github.com/vietddude/subgraph-monitor/internal/infra/subgraph"
)

// Monitor is the main application struct that manages the poller and HTTP server lifecycle.
type Monitor struct {
	cfg      Config
	store    *status.Store
	metrics  *metrics.Metrics
	poller   *health.Poller
	server   *health.Server
	upstream []*rpc.HTTPProvider
	log      *slog.Logger

	addr   string
	cancel context.CancelFunc
	group  *errgroup.Group
	done   <-chan struct{}
}

// Config holds the application configuration.
type Config struct {
	Port        int
	SubgraphURL string
	RPCURL      string
	Interval    time.Duration
	Timeout     time.Duration // 0 = unbounded upstream requests
}

var _ HealthChecker = (*Monitor)(nil)

// NewMonitor creates a Monitor with all dependencies initialized.
// Metric registration failures are returned and should abort startup.
func NewMonitor(cfg Config) (*Monitor, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.Interval)
	}

	// 1. Upstream clients
	subgraphProvider := rpc.NewHTTPProvider("subgraph", cfg.SubgraphURL, cfg.Timeout)
	chainProvider := rpc.NewHTTPProvider("chain", cfg.RPCURL, cfg.Timeout)

	// 2. Shared state
	store := status.NewStore()
	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	// 3. Poll loop and publication surfaces
	poller := health.NewPoller(
		subgraph.NewClient(subgraphProvider),
		evm.NewClient(chainProvider),
		store,
		m,
		cfg.Interval,
	)

	server := health.NewServer(store, m.Handler(), health.Endpoints{
		Subgraph: cfg.SubgraphURL,
		RPC:      cfg.RPCURL,
	}, cfg.Port)

	return &Monitor{
		cfg:      cfg,
		store:    store,
		metrics:  m,
		poller:   poller,
		server:   server,
		upstream: []*rpc.HTTPProvider{subgraphProvider, chainProvider},
		log:      slog.Default(),
	}, nil
}

// Start binds the HTTP listener and starts the server and poll loop in the background.
// A bind failure is returned immediately.
func (m *Monitor) Start(ctx context.Context) error {
	ln, err := m.server.Listen()
	if err != nil {
		return err
	}
	m.addr = ln.Addr().String()

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	m.cancel = cancel
	m.group = g
	m.done = gctx.Done()

	g.Go(func() error {
		if err := m.server.Serve(ln); err != nil {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		m.poller.Start(gctx)
		return nil
	})

	m.log.Info("Monitor started",
		"addr", m.addr,
		"subgraph", m.cfg.SubgraphURL,
		"rpc", m.cfg.RPCURL,
		"interval", m.cfg.Interval,
		"timeout", m.cfg.Timeout,
	)
	return nil
}

// Done is closed when the monitor stops on its own, e.g. after a server failure.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Stop shuts the server down and waits for the poll loop to exit.
func (m *Monitor) Stop(ctx context.Context) error {
	m.log.Info("Stopping Monitor...")

	if m.cancel == nil {
		return nil
	}
	m.cancel()

	stopErr := m.server.Stop(ctx)
	waitErr := m.group.Wait()

	for _, p := range m.upstream {
		if err := p.Close(); err != nil {
			m.log.Warn("Failed to close upstream client", "name", p.Name(), "error", err)
		}
	}

	return errors.Join(stopErr, waitErr)
}

// CheckOnce runs a single poll cycle outside the loop.
func (m *Monitor) CheckOnce(ctx context.Context) domain.HealthVerdict {
	return m.poller.CheckOnce(ctx)
}

// Load returns the latest published verdict.
func (m *Monitor) Load() domain.HealthVerdict {
	return m.store.Load()
}

// Addr returns the bound listen address once started.
func (m *Monitor) Addr() string {
	return m.addr
}
