// Package chaincfg exposes the consensus parameter surface the block
// template builder and miner loop consult. Per spec.md section 1 this
// surface is an external collaborator: the parameters themselves are just
// data, owned and validated by a consensus layer outside this module's
// scope.
package chaincfg

import "time"

// Params collects the chain-wide constants and policy knobs the miner core
// needs. Field names mirror the predicates spec.md section 6 names.
type Params struct {
	// StartPoABlock is the first height at which a PoA block may audit
	// PoS blocks.
	StartPoABlock int32

	// LastPoWBlock is the last height a PoW block may be mined at.
	LastPoWBlock int32

	// MaxNumPoSBlocksAudited bounds the length of a PoA block's audit
	// window.
	MaxNumPoSBlocksAudited int32

	// HardFork is the height at which the PoA reward formula changes from
	// n*0.5*COIN to n*0.25*COIN.
	HardFork int32

	// TargetSpacing is the intended time between blocks, used to size the
	// PoW "late build" misfire sleep.
	TargetSpacing time.Duration

	// MineBlocksOnDemand, when true (regtest-style chains), allows
	// -blockversion to override the block version and causes the PoW
	// worker to stop hashing after finding a single block.
	MineBlocksOnDemand bool

	// AllowMinDifficultyBlocks, when true (testnet-style chains), causes
	// UpdateTime to recompute the difficulty target as the timestamp
	// advances.
	AllowMinDifficultyBlocks bool

	// MiningRequiresPeers, when true, makes the PoW loop rebuild its
	// template at every refresh check while no peers are connected, and
	// keeps the PoS loop gated until at least one peer is connected.
	MiningRequiresPeers bool

	// DefaultMinerThreads overrides hardware concurrency for
	// GenerateCoins(threads < 0) when positive.
	DefaultMinerThreads int
}

// COIN is the base-unit scale of one coin.
const COIN = 1_000_000

// COINBASE_FLAGS is appended to every generated coinbase/PoA-reward
// scriptSig to mark blocks produced by this software, mirroring the
// original's CoinbaseFlags constant.
const COINBASE_FLAGS = "/blockforge/"

// MANDATORY_SCRIPT_VERIFY_FLAGS is the flag set the external validation
// collaborator is called with when the template builder re-verifies a
// candidate transaction's scripts.
const MANDATORY_SCRIPT_VERIFY_FLAGS = "MANDATORY"

// MinRelay is the minimum fee rate, in base units per kilobyte, a
// transaction must pay to be admitted to a block once selection has moved
// into fee-mode and the block has reached its minimum size.
const MinRelay = 5000
