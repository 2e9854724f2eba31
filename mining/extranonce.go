package mining

import (
	"sync"

	"github.com/aead/siphash"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/prcycoin/blockforge/chaincfg"
	"github.com/prcycoin/blockforge/wire"
)

// ExtraNonceStamper is a process-wide single-slot cache of the last
// stamped block's prev-hash, used to extend the PoW search space by
// stuffing a monotonically increasing counter into the coinbase scriptSig
// instead of touching the header nonce (spec.md section 4.D).
//
// The cache key is a siphash digest of the prev-hash rather than the raw
// hash, matching the cheap comparable-identity idiom the teacher's
// mining/externalminer/job.go uses for SharedBlockTemplate.Id().
type ExtraNonceStamper struct {
	mu          sync.Mutex
	key         [16]byte
	lastPrevKey uint64
	counter     uint64
	primed      bool
}

// NewExtraNonceStamper returns a stamper with a fixed siphash key. The key
// only needs to avoid accidental collisions between distinct prev-hashes;
// it is not a security boundary.
func NewExtraNonceStamper() *ExtraNonceStamper {
	return &ExtraNonceStamper{key: [16]byte{'b', 'l', 'o', 'c', 'k', 'f', 'o', 'r', 'g', 'e', '-', 'x', 'n', 'o', 'n', 'c'}}
}

func (s *ExtraNonceStamper) prevKey(prevHash chainhash.Hash) uint64 {
	return siphash.Sum64(prevHash[:], &s.key)
}

// Stamp rewrites block's coinbase scriptSig to <height, CScriptNum(counter)>
// + COINBASE_FLAGS and recomputes the transaction merkle root. If block's
// prev-hash differs from the cached one, the counter resets to 0 first, so
// a reorg never aliases into the same extra-nonce sequence as the chain it
// replaced.
func (s *ExtraNonceStamper) Stamp(block *wire.Block, nextHeight int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.prevKey(block.Header.PrevHash)
	if !s.primed || key != s.lastPrevKey {
		s.counter = 0
		s.lastPrevKey = key
		s.primed = true
	}
	s.counter++

	script, err := txscript.NewScriptBuilder().
		AddInt64(int64(nextHeight)).
		AddInt64(int64(s.counter)).
		AddData([]byte(chaincfg.COINBASE_FLAGS)).
		Script()
	if err != nil {
		return err
	}
	if len(script) > 100 {
		return ruleErr(ErrScriptTooLong, nil)
	}

	block.Tx[0].TxIn[0].SignatureScript = script
	root := wire.BlockMerkleRoot(block)
	block.Header.MerkleRoot = root
	return nil
}
