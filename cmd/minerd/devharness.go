package main

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/prcycoin/blockforge/chainiface"
	"github.com/prcycoin/blockforge/wire"
)

// devChain is a minimal, non-consensus-grade chainiface.ChainView +
// minerpool.Submitter used to let this binary run standalone against an
// empty in-memory chain. A real deployment wires the builder and worker
// pool against its own validation/storage stack instead; this stands in
// for it the way the teacher's simnet/regtest mode stands in for mainnet
// consensus during manual testing.
type devChain struct {
	mu      sync.Mutex
	blocks  map[chainhash.Hash]*wire.Block
	index   []*chainiface.BlockIndex
	genesis chainhash.Hash
}

func newDevChain() *devChain {
	genesisHash := chainhash.HashH([]byte("minerd devnet genesis"))
	dc := &devChain{
		blocks: make(map[chainhash.Hash]*wire.Block),
		index: []*chainiface.BlockIndex{{
			Hash:   genesisHash,
			Height: 0,
			Time:   time.Now().Unix(),
			Bits:   devnetBits,
		}},
		genesis: genesisHash,
	}
	return dc
}

// devnetBits is a deliberately easy target so the demo harness finds PoW
// blocks quickly instead of spinning forever.
const devnetBits uint32 = 0x207fffff

func (dc *devChain) Tip() *chainiface.BlockIndex {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.index[len(dc.index)-1]
}

func (dc *devChain) AtHeight(height int32) *chainiface.BlockIndex {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if height < 0 || int(height) >= len(dc.index) {
		return nil
	}
	return dc.index[height]
}

func (dc *devChain) ReadBlock(index *chainiface.BlockIndex) (*wire.Block, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	b, ok := dc.blocks[index.Hash]
	if !ok {
		return nil, errBlockNotFound
	}
	return b, nil
}

func (dc *devChain) GetNextWorkRequired(prev *chainiface.BlockIndex, draft *wire.BlockHeader) uint32 {
	return devnetBits
}

func (dc *devChain) BlockSubsidy(prevHeight int32) int64 {
	return 50 * devnetCoin
}

const devnetCoin = 1_000_000

func (dc *devChain) IsSpentKeyImage(keyImageHex string, checkpoint chainhash.Hash) bool {
	return false
}

func (dc *devChain) IsFinalTx(tx *wire.MsgTx, height int32) bool {
	return true
}

func (dc *devChain) GetMedianTimePast() time.Time {
	return time.Now().Add(-5 * time.Minute)
}

func (dc *devChain) AdjustedTime() time.Time {
	return time.Now()
}

// ProcessBlockFound implements minerpool.Submitter by appending the block
// to the in-memory chain unconditionally. A real submitter would run full
// validation and could reject the block as stale or invalid.
func (dc *devChain) ProcessBlockFound(block *wire.Block) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	hash := block.Hash()
	height := int32(len(dc.index))
	dc.blocks[hash] = block
	dc.index = append(dc.index, &chainiface.BlockIndex{
		Hash:   hash,
		Height: height,
		Time:   block.Header.Time,
		Bits:   block.Header.Bits,
	})
	minrLog.Infof("devnet: accepted block at height %d (%s)", height, hash)
	return nil
}

type blockNotFoundError struct{}

func (blockNotFoundError) Error() string { return "devharness: block not found" }

var errBlockNotFound = blockNotFoundError{}

// devInvalidInputs never blacklists an outpoint.
type devInvalidInputs struct{}

func (devInvalidInputs) ContainsOutPoint(op wire.OutPoint) bool { return false }

// devCoinView treats every input as available, sufficient for a standalone
// demo chain with no real UTXO set to check against.
type devCoinView struct{}

func (devCoinView) CheckHaveInputs(tx *wire.MsgTx) bool { return true }
func (devCoinView) CheckInputs(tx *wire.MsgTx, flags string) error {
	return nil
}
func (devCoinView) UpdateCoins(tx *wire.MsgTx, height int32) error {
	return nil
}

// LegacySigOpCount sums the legacy (non-P2SH-aware) sig-op count across
// every input's scriptSig and every output's pkScript, matching the
// counting the original's blockchain.CheckBlockSanity performs.
func (devCoinView) LegacySigOpCount(tx *wire.MsgTx) int {
	n := 0
	for _, in := range tx.TxIn {
		n += txscript.GetSigOpCount(in.SignatureScript)
	}
	for _, out := range tx.TxOut {
		n += txscript.GetSigOpCount(out.PkScript)
	}
	return n
}

// devPeers reports a single always-synced peer so the PoW/PoS gating
// conditions around connectivity never block this standalone demo.
type devPeers struct{}

func (devPeers) ConnectedPeers() int      { return 1 }
func (devPeers) MasternodeSynced() bool   { return true }

func devFillBlockPayee(coinbase *wire.MsgTx, fees int64, proofOfStake bool) {}
