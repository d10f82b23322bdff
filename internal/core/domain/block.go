package domain

// IndexingStatus is the subgraph's view of its own progress, taken from the _meta query.
type IndexingStatus struct {
	SyncedBlock       int64
	BlockHash         string
	HasIndexingErrors bool
}

// ChainHead is the latest block number reported by the chain RPC node.
type ChainHead struct {
	BlockHeight int64
}
