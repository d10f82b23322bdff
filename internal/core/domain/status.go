package domain

// HealthVerdict is the published result of one poll cycle.
// It is replaced as a whole every cycle and never mutated in place.
type HealthVerdict struct {
	Healthy              bool   `json:"healthy"`
	SyncedBlockHeight    int64  `json:"synced_block_height"`
	ChainHeadBlockHeight int64  `json:"chain_head_block_height"`
	BlocksBehind         int64  `json:"blocks_behind"`
	LastChecked          string `json:"last_checked"`
}

// HealthyValue returns 1 for a healthy verdict and 0 otherwise.
func (v HealthVerdict) HealthyValue() float64 {
	if v.Healthy {
		return 1
	}
	return 0
}
