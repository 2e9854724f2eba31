package wire

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/blake2b"
)

// BuildMerkleTreeStore creates a merkle tree from the ordered transaction
// hashes of a block and returns the resulting merkle root. Transaction
// hashes are taken from MsgTx.Hash(), matching the teacher's
// blockchain.BuildMerkleTreeStoreAbe contract of hashing the finalized
// transaction list.
func BuildMerkleTreeStore(txns []*MsgTx) chainhash.Hash {
	if len(txns) == 0 {
		return chainhash.Hash{}
	}

	level := make([]chainhash.Hash, len(txns))
	for i, tx := range txns {
		level[i] = tx.Hash()
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			var buf [chainhash.HashSize * 2]byte
			copy(buf[:chainhash.HashSize], level[2*i][:])
			copy(buf[chainhash.HashSize:], level[2*i+1][:])
			next[i] = chainhash.HashH(buf[:])
		}
		level = next
	}
	return level[0]
}

// BlockMerkleRoot recomputes a block's transaction merkle root. The
// Extra-Nonce Stamper calls this every time it rewrites the coinbase
// scriptSig, since the coinbase's hash (and therefore the root) changes.
func BlockMerkleRoot(b *Block) chainhash.Hash {
	return BuildMerkleTreeStore(b.Tx)
}

// ComputePoAMerkleTree builds the merkle root over a PoA block's audited
// PoS-block summaries, giving the audit list its own commitment distinct
// from the transaction merkle root.
func (b *Block) ComputePoAMerkleTree() chainhash.Hash {
	if len(b.PosBlocksAudited) == 0 {
		return chainhash.Hash{}
	}
	level := make([]chainhash.Hash, len(b.PosBlocksAudited))
	for i, s := range b.PosBlocksAudited {
		level[i] = hashPoSSummary(s)
	}
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			var buf [chainhash.HashSize * 2]byte
			copy(buf[:chainhash.HashSize], level[2*i][:])
			copy(buf[chainhash.HashSize:], level[2*i+1][:])
			next[i] = chainhash.HashH(buf[:])
		}
		level = next
	}
	return level[0]
}

func hashPoSSummary(s PoSBlockSummary) chainhash.Hash {
	buf := make([]byte, 0, chainhash.HashSize+12)
	buf = append(buf, s.Hash[:]...)
	buf = appendUint32(buf, uint32(s.Height))
	buf = appendUint64(buf, uint64(s.Time))
	return chainhash.HashH(buf)
}

// ComputeMinedHash returns a domain-separated commitment to the block
// distinct from the header's SHA-256 identity hash. The original
// keeps a dedicated `minedHash` field on PoA blocks alongside the usual
// block hash; blake2b-256 with a fixed domain prefix reproduces that
// separation without reusing the PoW hash function.
func (b *Block) ComputeMinedHash() chainhash.Hash {
	h, _ := blake2b.New256([]byte("blockforge/mined-hash"))
	headerHash := b.Header.Hash()
	h.Write(headerHash[:])
	h.Write(b.PoAMerkleRoot[:])
	var out chainhash.Hash
	copy(out[:], h.Sum(nil))
	return out
}
