package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vietddude/subgraph-monitor/internal/core/domain"
)

// Metrics mirrors the published verdict as four gauges on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	// Healthy is 1 when the last verdict was healthy, 0 otherwise
	Healthy prometheus.Gauge

	// SyncedBlock is the latest block indexed by the subgraph
	SyncedBlock prometheus.Gauge

	// ChainHead is the latest block reported by the RPC node
	ChainHead prometheus.Gauge

	// BlocksBehind is chain head minus synced block
	BlocksBehind prometheus.Gauge
}

// New creates the gauges and registers them on a fresh registry.
// A registration error is a build defect and should abort startup.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Healthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "subgraph_healthy",
			Help: "Whether the subgraph is healthy",
		}),
		SyncedBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "subgraph_synced_block",
			Help: "The latest indexed block height",
		}),
		ChainHead: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "subgraph_chain_head",
			Help: "The current chain head block height",
		}),
		BlocksBehind: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "subgraph_blocks_behind",
			Help: "How many blocks behind the subgraph is",
		}),
	}

	if err := m.register(m.Healthy, m.SyncedBlock, m.ChainHead, m.BlocksBehind); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) register(collectors ...prometheus.Collector) error {
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return fmt.Errorf("register metric: %w", err)
		}
	}
	return nil
}

// Observe copies a verdict into the gauges. Gauges are updated one by one;
// scrapers may see a mix of two cycles for an instant.
func (m *Metrics) Observe(v domain.HealthVerdict) {
	m.Healthy.Set(v.HealthyValue())
	m.SyncedBlock.Set(float64(v.SyncedBlockHeight))
	m.ChainHead.Set(float64(v.ChainHeadBlockHeight))
	m.BlocksBehind.Set(float64(v.BlocksBehind))
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
