package minerpool

import "github.com/prcycoin/blockforge/wire"

// Submitter is the network/validation boundary a worker hands a solved
// block to. A non-nil error (typically "stale", when prev_hash no longer
// matches the best block) is treated as the per-iteration recoverable case:
// the worker logs and loops, it never aborts.
type Submitter interface {
	ProcessBlockFound(block *wire.Block) error
}

// PeerSource answers the gating questions the PoW/PoS loops consult before
// spending effort on a build: connectivity and masternode-subsystem sync
// state. Masternode sync itself is out of scope for this module; this is
// purely the call site contract the PoS loop's gating condition needs.
type PeerSource interface {
	ConnectedPeers() int
	MasternodeSynced() bool
}
