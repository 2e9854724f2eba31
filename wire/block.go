package wire

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// POAVersionTag marks a block header as belonging to a Proof-of-Audit
// block. A block's version equals this tag if and only if it carries a
// non-empty PosBlocksAudited list and exactly one transaction (the reward).
const POAVersionTag int32 = 1 << 16

// BlockHeader is the fixed-size portion of a block that is hashed for
// Proof-of-Work and referenced by height-successor blocks.
type BlockHeader struct {
	Version               int32
	PrevHash              chainhash.Hash
	MerkleRoot            chainhash.Hash
	Time                  int64
	Bits                  uint32
	Nonce                 uint32
	AccumulatorCheckpoint chainhash.Hash
}

// PoSBlockSummary is the compact record a PoA block carries for each PoS
// block in the audited window. Time == 0 signals that re-verification of
// the audited block failed; the slot is still carried so downstream
// validation can withhold reward credit for it.
type PoSBlockSummary struct {
	Hash   chainhash.Hash
	Height int32
	Time   int64
}

// Block is a full block: header, ordered transaction body, and the fields
// that only apply to Proof-of-Audit blocks.
type Block struct {
	Header BlockHeader
	Tx     []*MsgTx

	// PoA-specific fields. Empty/zero on PoW and PoS blocks.
	PrevPoAHash      chainhash.Hash
	PosBlocksAudited []PoSBlockSummary
	PoAMerkleRoot    chainhash.Hash
	MinedHash        chainhash.Hash

	// Payee records the masternode/budget payee script, if fill_block_payee
	// inserted a second coinbase output. Nil otherwise.
	Payee []byte
}

// IsPoABlockByVersion reports whether the block's header version carries
// the Proof-of-Audit tag.
func (b *Block) IsPoABlockByVersion() bool {
	return b.Header.Version == POAVersionTag
}

// IsProofOfStake reports whether the block is a PoS block: not PoA, and its
// second transaction (index 1) is a coinstake.
func (b *Block) IsProofOfStake() bool {
	if b.IsPoABlockByVersion() {
		return false
	}
	return len(b.Tx) > 1 && b.Tx[1].IsCoinStake()
}

// IsProofOfWork reports whether the block is neither PoS nor PoA.
func (b *Block) IsProofOfWork() bool {
	return !b.IsPoABlockByVersion() && !b.IsProofOfStake()
}

// SerializeSize approximates the wire size of the block: header, transaction
// count, and the summed size of every transaction. The template builder's
// size envelope does not call this; it keeps a running total that starts
// from a fixed 1000-byte allowance and adds each selected transaction.
func (b *Block) SerializeSize() int {
	n := headerSize
	n += varIntSerializeSize(uint64(len(b.Tx)))
	for _, tx := range b.Tx {
		n += tx.SerializeSize()
	}
	return n
}

const headerSize = 4 + chainhash.HashSize*2 + 8 + 4 + 4 + chainhash.HashSize

// Hash returns the block header hash used as Proof-of-Work's target
// comparison value and as the block's identity.
func (bh *BlockHeader) Hash() chainhash.Hash {
	buf := make([]byte, 0, headerSize)
	buf = appendUint32(buf, uint32(bh.Version))
	buf = append(buf, bh.PrevHash[:]...)
	buf = append(buf, bh.MerkleRoot[:]...)
	b8 := make([]byte, 8)
	binary.LittleEndian.PutUint64(b8, uint64(bh.Time))
	buf = append(buf, b8...)
	buf = appendUint32(buf, bh.Bits)
	buf = appendUint32(buf, bh.Nonce)
	buf = append(buf, bh.AccumulatorCheckpoint[:]...)
	return chainhash.HashH(buf)
}

// Hash returns the block's identity hash, delegating to the header.
func (b *Block) Hash() chainhash.Hash {
	return b.Header.Hash()
}
