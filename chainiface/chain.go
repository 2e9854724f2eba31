// Package chainiface defines the read-only view of the active chain the
// template builder and miner loop consult. Chain storage, the active-chain
// cursor, and block validation/submission all live outside this module per
// spec.md section 1; this package only names the contract.
package chainiface

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/prcycoin/blockforge/wire"
)

// BlockIndex is a lightweight reference to a block on the active chain,
// analogous to the teacher's CBlockIndex.
type BlockIndex struct {
	Hash   chainhash.Hash
	Height int32
	Time   int64
	Bits   uint32
}

// ChainView is the read-only active-chain cursor the template builder and
// miner loop are given. All methods must be safe for concurrent use; no
// caller in this module combines it with a mempool-wide lock.
type ChainView interface {
	// Tip returns the current best block.
	Tip() *BlockIndex

	// AtHeight returns the block index at the given height on the active
	// chain, or nil if height is out of range.
	AtHeight(height int32) *BlockIndex

	// ReadBlock reads the full block body for the given index from
	// storage.
	ReadBlock(index *BlockIndex) (*wire.Block, error)

	// GetNextWorkRequired computes the required difficulty bits for a
	// block extending prev, given a draft header (used for testnet
	// retargeting that depends on the draft's timestamp).
	GetNextWorkRequired(prev *BlockIndex, draft *wire.BlockHeader) uint32

	// BlockSubsidy returns the PoW/PoS block subsidy for a block whose
	// previous block is at prevHeight.
	BlockSubsidy(prevHeight int32) int64

	// IsSpentKeyImage reports whether the given key image (hex-encoded)
	// has already been spent on disk, scoped to the supplied accumulator
	// checkpoint (the zero hash requests the current spend state).
	IsSpentKeyImage(keyImageHex string, checkpoint chainhash.Hash) bool

	// IsFinalTx reports whether tx is final as of the given height
	// (sequence-lock / locktime check).
	IsFinalTx(tx *wire.MsgTx, height int32) bool

	// GetMedianTimePast returns the median time of the last several
	// blocks per chain consensus rules.
	GetMedianTimePast() time.Time

	// AdjustedTime returns the current network-adjusted time.
	AdjustedTime() time.Time
}

// InvalidInputs reports whether a prevout has been placed on the
// invalid-inputs list (fraudulent/blacklisted inputs that must never be
// admitted to a block even if they otherwise validate).
type InvalidInputs interface {
	ContainsOutPoint(op wire.OutPoint) bool
}

// CoinView answers input-availability questions during mempool scanning,
// analogous to the teacher's CCoinsViewCache / blockchain.CheckHaveInputs.
type CoinView interface {
	// CheckHaveInputs reports whether every input of tx resolves to an
	// unspent output visible to this view.
	CheckHaveInputs(tx *wire.MsgTx) bool

	// CheckInputs re-verifies tx's inputs/scripts under the given flag
	// set, returning an error if any input fails validation.
	CheckInputs(tx *wire.MsgTx, flags string) error

	// UpdateCoins applies tx's spends/creates to the view, used when a
	// coinstake's own inputs must be marked spent before later mempool
	// entries are considered against the same view.
	UpdateCoins(tx *wire.MsgTx, height int32) error

	// LegacySigOpCount returns tx's legacy (pre-segwit-style) signature
	// operation count, counted against scriptSig/scriptPubKey without
	// looking through P2SH. The Template Builder uses this to stamp the
	// coinbase's sig-op entry once the block is finalized.
	LegacySigOpCount(tx *wire.MsgTx) int
}

// FillBlockPayee is the masternode/budget payee hook the template builder
// calls while finalizing a PoW coinbase. It may append a second output to
// coinbase paying a masternode/budget recipient; fees is the total fee pool
// collected from the selected transactions. Masternode payee selection
// logic itself is a Non-goal (spec.md section 1) — this is purely the call
// site contract.
type FillBlockPayee func(coinbase *wire.MsgTx, fees int64, proofOfStake bool)

// ReVerifyPoSBlock re-verifies a previously-accepted PoS block, used by the
// PoA Audit Selector to decide whether an audited slot's Time should be
// carried or zeroed.
type ReVerifyPoSBlock func(index *BlockIndex) bool
