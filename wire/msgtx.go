package wire

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// OutPoint defines a transaction output that is spent by an input, uniquely
// identified by the hash of the transaction that created it along with the
// output index within that transaction.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// IsNull reports whether op is the all-zero, max-index outpoint used by
// coinbase and coinstake first inputs.
func (op OutPoint) IsNull() bool {
	return op.Hash == (chainhash.Hash{}) && op.Index == maxPrevOutIndex
}

const maxPrevOutIndex uint32 = 0xffffffff

// NullOutPoint returns the sentinel outpoint used for coinbase/coinstake
// inputs, which do not spend any real output.
func NullOutPoint() OutPoint {
	return OutPoint{Index: maxPrevOutIndex}
}

// TxIn defines a transaction input. KeyImage is the ring-signature nullifier
// for the real spent output hidden behind this input's ring; it is empty for
// coinbase inputs.
type TxIn struct {
	PreviousOutPoint OutPoint
	KeyImage         KeyImage
	SignatureScript  []byte
	Sequence         uint32
}

// SerializeSize returns the number of bytes it would take to serialize the
// input.
func (ti *TxIn) SerializeSize() int {
	// PreviousOutPoint hash (32) + index (4) + key image (32) +
	// signature script length prefix + script + sequence (4).
	return 32 + 4 + 32 + varIntSerializeSize(uint64(len(ti.SignatureScript))) +
		len(ti.SignatureScript) + 4
}

// TxOut defines a transaction output. Value is nominally visible on
// unconfirmed/template-local outputs (e.g. before EncodeTxOutAmount runs)
// but is expected to be replaced by an opaque Commitment once the wallet
// encodes it for the wire.
type TxOut struct {
	Value int64

	// TxPub/TxPriv carry the per-output ephemeral keypair used to derive
	// the recipient-specific shared secret (stealth output). TxPriv is
	// only ever populated on template-local outputs the local wallet
	// authored (coinbase, coinstake, PoA reward); it must never be
	// broadcast.
	TxPub  []byte
	TxPriv []byte

	PkScript   []byte
	Commitment Commitment
}

// IsEmpty reports whether the output has been zeroed out, the convention
// this node uses for "spent within the same template" outputs such as the
// coinbase's output 0 once a coinstake is found, or a coinstake's change
// slot once its value has been folded into the payment slot.
func (to *TxOut) IsEmpty() bool {
	return to.Value == 0 && len(to.PkScript) == 0 && len(to.Commitment) == 0
}

// SetEmpty zeroes the output in place.
func (to *TxOut) SetEmpty() {
	to.Value = 0
	to.TxPub = nil
	to.TxPriv = nil
	to.PkScript = nil
	to.Commitment = nil
}

// SerializeSize returns the number of bytes it would take to serialize the
// output.
func (to *TxOut) SerializeSize() int {
	return 8 + varIntSerializeSize(uint64(len(to.TxPub))) + len(to.TxPub) +
		varIntSerializeSize(uint64(len(to.TxPriv))) + len(to.TxPriv) +
		varIntSerializeSize(uint64(len(to.PkScript))) + len(to.PkScript) +
		varIntSerializeSize(uint64(len(to.Commitment))) + len(to.Commitment)
}

// TxKind distinguishes the handful of transaction shapes this node's
// consensus rules recognize.
type TxKind uint8

const (
	TxKindNormal TxKind = iota
	TxKindCoinbase
	TxKindCoinstake
)

// MsgTx is a privacy-preserving transaction: every input carries a key image
// in place of a plain previous-output reveal, and every output carries an
// opaque amount commitment once encoded by the wallet.
type MsgTx struct {
	Version int32
	Kind    TxKind
	TxIn    []*TxIn
	TxOut   []*TxOut

	// TxFee is the transaction's declared fee in base units. It is
	// carried out-of-band from the outputs since output amounts are
	// committed, not plaintext.
	TxFee int64

	LockTime uint32
}

// NewMsgTx returns a new transaction with no inputs or outputs.
func NewMsgTx(version int32) *MsgTx {
	return &MsgTx{Version: version}
}

// AddTxIn adds an input to the transaction.
func (tx *MsgTx) AddTxIn(in *TxIn) {
	tx.TxIn = append(tx.TxIn, in)
}

// AddTxOut adds an output to the transaction.
func (tx *MsgTx) AddTxOut(out *TxOut) {
	tx.TxOut = append(tx.TxOut, out)
}

// IsCoinBase reports whether tx is marked as a coinbase transaction
// (Kind == TxKindCoinbase); its inputs are not inspected.
func (tx *MsgTx) IsCoinBase() bool {
	return tx.Kind == TxKindCoinbase
}

// IsCoinStake reports whether tx is a coinstake transaction.
func (tx *MsgTx) IsCoinStake() bool {
	return tx.Kind == TxKindCoinstake
}

// KeyImages returns the key images attached to every input of the
// transaction, in input order.
func (tx *MsgTx) KeyImages() []KeyImage {
	images := make([]KeyImage, 0, len(tx.TxIn))
	for _, in := range tx.TxIn {
		images = append(images, in.KeyImage)
	}
	return images
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction on the wire. It is an approximation sufficient for the block
// size envelope enforced by the template builder: exact framing overhead
// (version, counts, locktime) plus the summed size of every input/output.
func (tx *MsgTx) SerializeSize() int {
	n := 4 + 4 // version + locktime
	n += varIntSerializeSize(uint64(len(tx.TxIn)))
	for _, in := range tx.TxIn {
		n += in.SerializeSize()
	}
	n += varIntSerializeSize(uint64(len(tx.TxOut)))
	for _, out := range tx.TxOut {
		n += out.SerializeSize()
	}
	return n
}

// Hash returns the single SHA-256 hash of a canonical encoding of the
// transaction's structural fields. It intentionally does not attempt a full
// wire-format serialization; it is deterministic and collision-resistant
// over everything that defines transaction identity for this package's
// purposes (inputs' outpoints/key images, outputs' values/scripts/commitments,
// fee, locktime).
func (tx *MsgTx) Hash() chainhash.Hash {
	return chainhash.HashH(tx.canonicalBytes())
}

func (tx *MsgTx) canonicalBytes() []byte {
	buf := make([]byte, 0, tx.SerializeSize())
	buf = appendUint32(buf, uint32(tx.Version))
	buf = appendUint32(buf, tx.LockTime)
	buf = appendUint64(buf, uint64(tx.TxFee))
	for _, in := range tx.TxIn {
		buf = append(buf, in.PreviousOutPoint.Hash[:]...)
		buf = appendUint32(buf, in.PreviousOutPoint.Index)
		buf = append(buf, in.KeyImage[:]...)
		buf = append(buf, in.SignatureScript...)
		buf = appendUint32(buf, in.Sequence)
	}
	for _, out := range tx.TxOut {
		buf = appendUint64(buf, uint64(out.Value))
		buf = append(buf, out.PkScript...)
		buf = append(buf, out.Commitment...)
	}
	return buf
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendUint64(b []byte, v uint64) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// varIntSerializeSize mirrors the classic Bitcoin-style CompactSize
// encoding length used throughout the teacher's wire package.
func varIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
