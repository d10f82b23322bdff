// Package health evaluates subgraph health, runs the poll loop and serves the results.
package health

import (
	"github.com/vietddude/subgraph-monitor/internal/core/domain"
)

// MaxBlocksBehind is the largest lag, in blocks, that still counts as healthy.
const MaxBlocksBehind int64 = 20

// Evaluate folds one cycle's upstream results into a verdict.
//
//   - indexing status failed: unhealthy, all block fields zero.
//   - indexing errors reported: unhealthy whatever the lag; lag is still reported when known.
//   - chain head known: healthy iff no indexing errors and lag <= MaxBlocksBehind.
//   - chain head failed: healthy iff no indexing errors; head and lag stay zero.
//
// head is ignored when headErr is non-nil, and status when statusErr is non-nil.
func Evaluate(
	checkedAt string,
	status *domain.IndexingStatus,
	statusErr error,
	head *domain.ChainHead,
	headErr error,
) domain.HealthVerdict {
	v := domain.HealthVerdict{LastChecked: checkedAt}

	if statusErr != nil || status == nil {
		return v
	}
	v.SyncedBlockHeight = status.SyncedBlock

	if headErr != nil || head == nil {
		v.Healthy = !status.HasIndexingErrors
		return v
	}

	v.ChainHeadBlockHeight = head.BlockHeight
	v.BlocksBehind = head.BlockHeight - status.SyncedBlock
	v.Healthy = !status.HasIndexingErrors && v.BlocksBehind <= MaxBlocksBehind
	return v
}
