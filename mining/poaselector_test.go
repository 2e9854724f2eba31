package mining

import (
	"testing"

	"github.com/prcycoin/blockforge/chainiface"
	"github.com/prcycoin/blockforge/wire"
)

const (
	testLastPoWBlock = 5
	testStartPoA     = 1
	testMaxAudited   = 3
)

func powBlock(chain *fakeChain, prevTime int64) *wire.Block {
	tip := chain.Tip()
	b := &wire.Block{Header: wire.BlockHeader{PrevHash: tip.Hash, Time: prevTime}}
	coinbase := &wire.MsgTx{Version: 1, Kind: wire.TxKindCoinbase}
	coinbase.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.NullOutPoint()})
	coinbase.AddTxOut(&wire.TxOut{Value: 1})
	b.Tx = []*wire.MsgTx{coinbase}
	return b
}

func posBlock(chain *fakeChain, prevTime int64) *wire.Block {
	b := powBlock(chain, prevTime)
	coinstake := &wire.MsgTx{Version: 1, Kind: wire.TxKindCoinstake}
	coinstake.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.NullOutPoint()})
	coinstake.AddTxOut(&wire.TxOut{})
	coinstake.AddTxOut(&wire.TxOut{Value: 1})
	b.Tx = append(b.Tx, coinstake)
	return b
}

func poaBlock(chain *fakeChain, prevTime int64, audited []wire.PoSBlockSummary) *wire.Block {
	b := powBlock(chain, prevTime)
	b.Header.Version = wire.POAVersionTag
	b.PosBlocksAudited = audited
	return b
}

// TestAuditSelectorFirstPoAWindow covers the case where no previous PoA
// block exists anywhere on the active chain: the selector must fall back
// to the fixed [LAST_POW_BLOCK+1, LAST_POW_BLOCK+MAX_NUM_POS_BLOCKS_AUDITED]
// window.
func TestAuditSelectorFirstPoAWindow(t *testing.T) {
	chain := newFakeChain()
	for h := int32(1); h <= 10; h++ {
		chain.append(posBlock(chain, int64(1000+h)))
	}

	selector := NewAuditSelector(chain, nil, 16)
	prevPoAHeight, audits, err := selector.List(chain.Tip().Height, testStartPoA, testLastPoWBlock, testMaxAudited)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if prevPoAHeight > testStartPoA {
		t.Fatalf("expected no previous PoA block to be found, got prevPoAHeight=%d", prevPoAHeight)
	}
	if len(audits) != testMaxAudited {
		t.Fatalf("first-PoA audit window length = %d, want %d", len(audits), testMaxAudited)
	}
	if audits[0].Height != testLastPoWBlock+1 {
		t.Fatalf("first audited height = %d, want %d", audits[0].Height, testLastPoWBlock+1)
	}
	if audits[len(audits)-1].Height != testLastPoWBlock+testMaxAudited {
		t.Fatalf("last audited height = %d, want %d", audits[len(audits)-1].Height, testLastPoWBlock+testMaxAudited)
	}
}

// TestAuditSelectorSubsequentWindowWalksForwardFromPreviousPoA covers the
// case where a previous PoA block is found: the new window must start
// right after that block's own last-audited height and walk forward.
func TestAuditSelectorSubsequentWindowWalksForwardFromPreviousPoA(t *testing.T) {
	chain := newFakeChain()
	for h := int32(1); h <= testLastPoWBlock+testMaxAudited; h++ {
		chain.append(posBlock(chain, int64(1000+h)))
	}

	firstAudits := make([]wire.PoSBlockSummary, 0, testMaxAudited)
	for h := int32(testLastPoWBlock + 1); h <= testLastPoWBlock+testMaxAudited; h++ {
		firstAudits = append(firstAudits, wire.PoSBlockSummary{Height: h})
	}
	chain.append(poaBlock(chain, int64(2000), firstAudits))

	for i := 0; i < testMaxAudited; i++ {
		chain.append(posBlock(chain, int64(3000+int64(i))))
	}

	selector := NewAuditSelector(chain, nil, 16)
	_, audits, err := selector.List(chain.Tip().Height, testStartPoA, testLastPoWBlock, testMaxAudited)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(audits) != testMaxAudited {
		t.Fatalf("subsequent audit window length = %d, want %d", len(audits), testMaxAudited)
	}
	// The previous PoA block itself occupies the height right after its
	// own last-audited slot, so the next real PoS block to audit starts
	// one height further out still.
	wantFirst := testLastPoWBlock + testMaxAudited + 2
	if audits[0].Height != int32(wantFirst) {
		t.Fatalf("first subsequent audited height = %d, want %d", audits[0].Height, wantFirst)
	}
}

func TestAuditSelectorReVerifyFailureZeroesTime(t *testing.T) {
	chain := newFakeChain()
	for h := int32(1); h <= 10; h++ {
		chain.append(posBlock(chain, int64(1000+h)))
	}

	reVerify := func(bi *chainiface.BlockIndex) bool { return false }
	selector := NewAuditSelector(chain, reVerify, 16)
	_, audits, err := selector.List(chain.Tip().Height, testStartPoA, testLastPoWBlock, testMaxAudited)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	for _, a := range audits {
		if a.Time != 0 {
			t.Fatalf("expected every audited slot's time to be zeroed when re-verification fails, got %d at height %d", a.Time, a.Height)
		}
	}
}
