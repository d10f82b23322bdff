package control

import (
	"context"

	"github.com/vietddude/subgraph-monitor/internal/core/domain"
)

// HealthChecker runs health checks on demand.
type HealthChecker interface {
	// CheckOnce runs one poll cycle and returns its verdict
	CheckOnce(ctx context.Context) domain.HealthVerdict
}
