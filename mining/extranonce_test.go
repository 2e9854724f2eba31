package mining

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/prcycoin/blockforge/wire"
)

func newStampableBlock(prevHash chainhash.Hash) *wire.Block {
	coinbase := &wire.MsgTx{Version: 1, Kind: wire.TxKindCoinbase}
	coinbase.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.NullOutPoint()})
	coinbase.AddTxOut(&wire.TxOut{Value: 1, PkScript: []byte{0x51}})
	return &wire.Block{
		Header: wire.BlockHeader{PrevHash: prevHash},
		Tx:     []*wire.MsgTx{coinbase},
	}
}

func TestExtraNonceStamperCounterIncrementsOnUnchangedParent(t *testing.T) {
	s := NewExtraNonceStamper()
	prev := chainhash.HashH([]byte("parent"))

	b1 := newStampableBlock(prev)
	if err := s.Stamp(b1, 10); err != nil {
		t.Fatalf("first stamp failed: %v", err)
	}
	if s.counter != 1 {
		t.Fatalf("counter after first stamp = %d, want 1", s.counter)
	}

	b2 := newStampableBlock(prev)
	if err := s.Stamp(b2, 10); err != nil {
		t.Fatalf("second stamp failed: %v", err)
	}
	if s.counter != 2 {
		t.Fatalf("counter after second stamp on unchanged parent = %d, want 2", s.counter)
	}

	if b1.Header.MerkleRoot == b2.Header.MerkleRoot {
		t.Fatal("expected distinct merkle roots for distinct extra-nonce values")
	}
}

func TestExtraNonceStamperResetsOnParentChange(t *testing.T) {
	s := NewExtraNonceStamper()
	prevA := chainhash.HashH([]byte("parent-a"))
	prevB := chainhash.HashH([]byte("parent-b"))

	if err := s.Stamp(newStampableBlock(prevA), 10); err != nil {
		t.Fatalf("stamp on parent A failed: %v", err)
	}
	if err := s.Stamp(newStampableBlock(prevA), 10); err != nil {
		t.Fatalf("second stamp on parent A failed: %v", err)
	}
	if s.counter != 2 {
		t.Fatalf("counter before parent change = %d, want 2", s.counter)
	}

	if err := s.Stamp(newStampableBlock(prevB), 11); err != nil {
		t.Fatalf("stamp on parent B failed: %v", err)
	}
	if s.counter != 1 {
		t.Fatalf("counter after parent change = %d, want reset to 1", s.counter)
	}
}

func TestExtraNonceStamperRewritesMerkleRoot(t *testing.T) {
	s := NewExtraNonceStamper()
	b := newStampableBlock(chainhash.HashH([]byte("parent")))
	before := b.Header.MerkleRoot

	if err := s.Stamp(b, 5); err != nil {
		t.Fatalf("stamp failed: %v", err)
	}
	if b.Header.MerkleRoot == before {
		t.Fatal("expected Stamp to rewrite the merkle root from its zero value")
	}
	if len(b.Tx[0].TxIn[0].SignatureScript) == 0 {
		t.Fatal("expected Stamp to populate the coinbase scriptSig")
	}
}
