package mining

import (
	"errors"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/prcycoin/blockforge/chainiface"
	"github.com/prcycoin/blockforge/walletiface"
	"github.com/prcycoin/blockforge/wire"
)

var errBlockNotIndexed = errors.New("fakeChain: block not found")

// fakeChain is a minimal chainiface.ChainView backed by an in-memory
// height-indexed slice, sufficient to drive the builder and selector tests
// without any real validation/storage stack.
type fakeChain struct {
	index  []*chainiface.BlockIndex
	blocks map[chainhash.Hash]*wire.Block
	bits   uint32
}

func newFakeChain() *fakeChain {
	genesis := chainhash.HashH([]byte("genesis"))
	return &fakeChain{
		index: []*chainiface.BlockIndex{{
			Hash:   genesis,
			Height: 0,
			Time:   1000,
			Bits:   0x1d00ffff,
		}},
		blocks: make(map[chainhash.Hash]*wire.Block),
		bits:   0x1d00ffff,
	}
}

// append adds a block at the next height and indexes it by hash.
func (c *fakeChain) append(b *wire.Block) *chainiface.BlockIndex {
	hash := b.Hash()
	bi := &chainiface.BlockIndex{
		Hash:   hash,
		Height: int32(len(c.index)),
		Time:   b.Header.Time,
		Bits:   b.Header.Bits,
	}
	c.index = append(c.index, bi)
	c.blocks[hash] = b
	return bi
}

func (c *fakeChain) Tip() *chainiface.BlockIndex { return c.index[len(c.index)-1] }

func (c *fakeChain) AtHeight(height int32) *chainiface.BlockIndex {
	if height < 0 || int(height) >= len(c.index) {
		return nil
	}
	return c.index[height]
}

func (c *fakeChain) ReadBlock(index *chainiface.BlockIndex) (*wire.Block, error) {
	b, ok := c.blocks[index.Hash]
	if !ok {
		return nil, errBlockNotIndexed
	}
	return b, nil
}

func (c *fakeChain) GetNextWorkRequired(prev *chainiface.BlockIndex, draft *wire.BlockHeader) uint32 {
	return c.bits
}

func (c *fakeChain) BlockSubsidy(prevHeight int32) int64 { return 50_000_000 }

func (c *fakeChain) IsSpentKeyImage(keyImageHex string, checkpoint chainhash.Hash) bool {
	return false
}

func (c *fakeChain) IsFinalTx(tx *wire.MsgTx, height int32) bool { return true }

func (c *fakeChain) GetMedianTimePast() time.Time { return time.Unix(900, 0) }

func (c *fakeChain) AdjustedTime() time.Time { return time.Unix(2000, 0) }

// fakeInvalid never blacklists an outpoint.
type fakeInvalid struct{}

func (fakeInvalid) ContainsOutPoint(op wire.OutPoint) bool { return false }

// fakeCoinView treats every input as available and every check as passing.
type fakeCoinView struct {
	checkHaveInputsResult bool
	legacySigOps          int
}

func (v *fakeCoinView) CheckHaveInputs(tx *wire.MsgTx) bool {
	if v == nil {
		return true
	}
	return v.checkHaveInputsResult
}
func (v *fakeCoinView) CheckInputs(tx *wire.MsgTx, flags string) error { return nil }
func (v *fakeCoinView) UpdateCoins(tx *wire.MsgTx, height int32) error { return nil }
func (v *fakeCoinView) LegacySigOpCount(tx *wire.MsgTx) int            { return v.legacySigOps }

// fakeWallet is a deterministic, non-cryptographic walletiface.Wallet used
// only to exercise the builder's call sequence.
type fakeWallet struct {
	coinstake       *walletiface.Coinstake
	coinstakeErr    error
	signBlockResult bool
	signBlockCalls  int
	locked          bool
	mintable        bool
	balance         int64
}

func (w *fakeWallet) GenerateAddress() ([]byte, []byte, []byte, error) {
	return []byte{0x51}, []byte("txpub"), []byte("txpriv"), nil
}

func (w *fakeWallet) CreateCoinstake(bits uint32, searchInterval time.Duration) (*walletiface.Coinstake, error) {
	return w.coinstake, w.coinstakeErr
}

func (w *fakeWallet) EncodeTxOutAmount(out *wire.TxOut, amount int64, sharedSecret []byte) error {
	out.Value = amount
	return nil
}

func (w *fakeWallet) CreateCommitment(blind [32]byte, value int64) (wire.Commitment, error) {
	return wire.Commitment{byte(value)}, nil
}

func (w *fakeWallet) MakeSchnorrSignature(tx *wire.MsgTx) error { return nil }

func (w *fakeWallet) VerifySchnorrKeyImage(tx *wire.MsgTx) bool { return true }

func (w *fakeWallet) IsTransactionForMe(tx *wire.MsgTx) bool { return false }

func (w *fakeWallet) MintableCoins() bool { return w.mintable }

func (w *fakeWallet) Balance() int64 { return w.balance }

func (w *fakeWallet) IsLocked() bool { return w.locked }

func (w *fakeWallet) HashInterval() time.Duration { return time.Second }

func (w *fakeWallet) AddComputedPrivateKey(out *wire.TxOut) error { return nil }

func (w *fakeWallet) SignBlock(block *wire.Block) bool {
	w.signBlockCalls++
	return w.signBlockResult
}

func newCoinstakeTx() *wire.MsgTx {
	tx := &wire.MsgTx{Version: 1}
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.NullOutPoint()})
	tx.AddTxOut(&wire.TxOut{})
	tx.AddTxOut(&wire.TxOut{Value: 10, PkScript: []byte{0x51}, TxPub: []byte("pub")})
	tx.AddTxOut(&wire.TxOut{Value: 5, PkScript: []byte{0x51}})
	return tx
}
