// Package walletiface defines the wallet contract the Template Builder and
// miner loop call into: address generation, coinstake authoring, amount
// encoding/commitments, and Schnorr signing. Wallet cryptography internals
// are a Non-goal (spec.md section 1) — this package only names the
// boundary.
package walletiface

import (
	"time"

	"github.com/prcycoin/blockforge/wire"
)

// Coinstake is the result of a successful stake search: the authored
// coinstake transaction and the time the wallet wants the block header
// stamped with.
type Coinstake struct {
	Tx      *wire.MsgTx
	NewTime int64
}

// Wallet is the boundary the Template Builder and miner loop call into for
// every operation that requires the wallet's private key material.
type Wallet interface {
	// GenerateAddress returns a fresh destination script, the per-template
	// ephemeral "tx public" bytes, and the matching private scalar used to
	// derive stealth-output shared secrets.
	GenerateAddress() (scriptPubKey []byte, txPub []byte, txPriv []byte, err error)

	// CreateCoinstake attempts to find a stake kernel hash meeting the
	// target implied by bits, searching over the window
	// [lastSearchTime, lastSearchTime+searchInterval). It returns nil if
	// no stake was found in the window.
	CreateCoinstake(bits uint32, searchInterval time.Duration) (*Coinstake, error)

	// EncodeTxOutAmount replaces out's plaintext Value with an opaque
	// stealth-encoded form derived from sharedSecret, mutating out in
	// place.
	EncodeTxOutAmount(out *wire.TxOut, amount int64, sharedSecret []byte) error

	// CreateCommitment computes a Pedersen-style commitment to value under
	// the given 32-byte blinding factor.
	CreateCommitment(blind [32]byte, value int64) (wire.Commitment, error)

	// MakeSchnorrSignature signs tx's coinstake key image with the
	// wallet's stake key, attaching the signature to the transaction.
	MakeSchnorrSignature(tx *wire.MsgTx) error

	// VerifySchnorrKeyImage verifies the Schnorr signature
	// MakeSchnorrSignature attached, independent of the signer (used as a
	// self-check immediately after signing).
	VerifySchnorrKeyImage(tx *wire.MsgTx) bool

	// IsTransactionForMe reports whether any output of tx is spendable by
	// this wallet.
	IsTransactionForMe(tx *wire.MsgTx) bool

	// MintableCoins reports whether the wallet currently holds any coins
	// eligible for staking.
	MintableCoins() bool

	// Balance returns the wallet's current spendable balance.
	Balance() int64

	// IsLocked reports whether the wallet is passphrase-locked.
	IsLocked() bool

	// HashInterval is the minimum number of seconds that must elapse
	// before retrying a stake search at an unchanged tip height.
	HashInterval() time.Duration

	// AddComputedPrivateKey derives and caches the private key
	// corresponding to out, used as a last-resort retry path when signing
	// with the normally-expected key fails.
	AddComputedPrivateKey(out *wire.TxOut) error

	// SignBlock produces the block-level signature a PoS block must carry
	// (distinct from the coinstake's own Schnorr signature), reporting
	// whether it succeeded.
	SignBlock(block *wire.Block) bool
}
