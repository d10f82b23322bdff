package health

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/subgraph-monitor/internal/core/domain"
)

// IndexingStatusFetcher fetches the subgraph's indexing status.
type IndexingStatusFetcher interface {
	FetchIndexingStatus(ctx context.Context) (*domain.IndexingStatus, error)
}

// ChainHeadFetcher fetches the latest block height of the chain.
type ChainHeadFetcher interface {
	FetchChainHead(ctx context.Context) (*domain.ChainHead, error)
}

// Publisher stores the verdict read by the HTTP surfaces.
type Publisher interface {
	Publish(v domain.HealthVerdict)
}

// Observer mirrors a verdict somewhere else, e.g. into gauges.
type Observer interface {
	Observe(v domain.HealthVerdict)
}

// Poller runs one health check per interval.
type Poller struct {
	subgraph IndexingStatusFetcher
	chain    ChainHeadFetcher
	store    Publisher
	metrics  Observer
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewPoller creates a poller. metrics may be nil.
func NewPoller(
	subgraph IndexingStatusFetcher,
	chain ChainHeadFetcher,
	store Publisher,
	metrics Observer,
	interval time.Duration,
) *Poller {
	return &Poller{
		subgraph: subgraph,
		chain:    chain,
		store:    store,
		metrics:  metrics,
		interval: interval,
		now:      time.Now,
		log:      slog.Default().With("component", "poller"),
	}
}

// Start runs a check immediately, then on every tick until ctx is cancelled.
// A slow cycle delays the next one; ticks are never run concurrently.
func (p *Poller) Start(ctx context.Context) {
	p.CheckOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Poller stopped")
			return
		case <-ticker.C:
			p.CheckOnce(ctx)
		}
	}
}

var errNoIndexingStatus = errors.New("subgraph returned no indexing status")

// CheckOnce runs one full cycle and returns the verdict it published.
func (p *Poller) CheckOnce(ctx context.Context) domain.HealthVerdict {
	log := p.log.With("check_id", uuid.NewString())

	// Captured before any I/O so last_checked marks the start of the cycle.
	checkedAt := p.now().UTC().Format(time.RFC3339)

	status, statusErr := p.subgraph.FetchIndexingStatus(ctx)
	if statusErr == nil && status == nil {
		statusErr = errNoIndexingStatus
	}

	var head *domain.ChainHead
	var headErr error
	if statusErr != nil {
		log.Error("Error querying subgraph", "error", statusErr)
		headErr = statusErr
	} else {
		log.Debug("Subgraph status",
			"block", status.SyncedBlock,
			"hash", status.BlockHash,
			"has_indexing_errors", status.HasIndexingErrors,
		)
		head, headErr = p.chain.FetchChainHead(ctx)
		if headErr != nil {
			log.Warn("Error getting chain head", "error", headErr)
		}
	}

	verdict := Evaluate(checkedAt, status, statusErr, head, headErr)

	if ctx.Err() != nil {
		log.Debug("Check interrupted by shutdown, verdict not published")
		return verdict
	}

	p.store.Publish(verdict)
	if p.metrics != nil {
		p.metrics.Observe(verdict)
	}

	log.Info("Subgraph check",
		"healthy", verdict.Healthy,
		"synced_block", verdict.SyncedBlockHeight,
		"chain_head", verdict.ChainHeadBlockHeight,
		"blocks_behind", verdict.BlocksBehind,
	)
	return verdict
}
