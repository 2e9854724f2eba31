// Package wire defines the wire-level data model this node's block
// template builder and miner loop operate on: blocks, transactions, ring-
// signature key images, and the stealth-output commitments that keep
// amounts private.
package wire

import "encoding/hex"

// KeyImage is a ring-signature nullifier. Exactly one key image is attached
// to each transaction input; a key image that has already appeared in a
// confirmed transaction, or elsewhere in the same block template, marks its
// input as a double-spend.
type KeyImage [32]byte

// Hex returns the lowercase hex encoding of the key image, the form used to
// query the external spent-key-image index (chainiface.ChainView.IsSpentKeyImage).
func (ki KeyImage) Hex() string {
	return hex.EncodeToString(ki[:])
}

// IsZero reports whether the key image is the zero value, used to detect
// malformed or unset inputs.
func (ki KeyImage) IsZero() bool {
	return ki == KeyImage{}
}

// Commitment is a Pedersen-style commitment to an output's amount under a
// 32-byte blinding factor. The reward path of this node always commits
// under a zero blinding factor (see wire.ZeroBlind).
type Commitment []byte

// ZeroBlind is the fixed, all-zero blinding factor used when committing to
// reward outputs (coinbase, the coinstake output that receives the folded
// change value, PoA reward).
var ZeroBlind [32]byte
