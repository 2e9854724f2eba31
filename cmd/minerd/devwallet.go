package main

import (
	"time"

	"github.com/prcycoin/blockforge/walletiface"
	"github.com/prcycoin/blockforge/wire"
)

// devWallet is a non-cryptographic stand-in for walletiface.Wallet, used
// only so this binary can drive the builder and worker pool end to end
// without a real key-management backend. MintableCoins always reports
// false, which keeps the PoS loop gated off rather than exercising stake
// search/signing logic this harness does not implement.
type devWallet struct {
	counter int
}

func (w *devWallet) GenerateAddress() ([]byte, []byte, []byte, error) {
	w.counter++
	scriptPubKey := []byte{0x76, 0xa9, byte(w.counter), 0x88, 0xac}
	txPub := make([]byte, 32)
	txPriv := make([]byte, 32)
	txPub[0] = byte(w.counter)
	txPriv[0] = byte(w.counter)
	return scriptPubKey, txPub, txPriv, nil
}

func (w *devWallet) CreateCoinstake(bits uint32, searchInterval time.Duration) (*walletiface.Coinstake, error) {
	return nil, nil
}

func (w *devWallet) EncodeTxOutAmount(out *wire.TxOut, amount int64, sharedSecret []byte) error {
	out.Value = amount
	return nil
}

func (w *devWallet) CreateCommitment(blind [32]byte, value int64) (wire.Commitment, error) {
	c := make(wire.Commitment, 32)
	c[0] = byte(value)
	return c, nil
}

func (w *devWallet) MakeSchnorrSignature(tx *wire.MsgTx) error {
	return nil
}

func (w *devWallet) VerifySchnorrKeyImage(tx *wire.MsgTx) bool {
	return true
}

func (w *devWallet) IsTransactionForMe(tx *wire.MsgTx) bool {
	return false
}

func (w *devWallet) MintableCoins() bool {
	return false
}

func (w *devWallet) Balance() int64 {
	return 0
}

func (w *devWallet) IsLocked() bool {
	return false
}

func (w *devWallet) HashInterval() time.Duration {
	return 10 * time.Second
}

func (w *devWallet) AddComputedPrivateKey(out *wire.TxOut) error {
	return nil
}

func (w *devWallet) SignBlock(block *wire.Block) bool {
	return true
}
