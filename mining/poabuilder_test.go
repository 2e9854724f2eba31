package mining

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/prcycoin/blockforge/chaincfg"
)

func newPoABuilderChain(tipHeight int32) (*fakeChain, chaincfg.Params) {
	chain := newFakeChain()
	for h := int32(1); h <= tipHeight; h++ {
		chain.append(posBlock(chain, int64(1000+h)))
	}
	params := chaincfg.Params{
		StartPoABlock:          1,
		LastPoWBlock:           5,
		MaxNumPoSBlocksAudited: 3,
		HardFork:               100,
	}
	return chain, params
}

func TestCreateNewPoABlockRejectsBeforeStartHeight(t *testing.T) {
	chain, params := newPoABuilderChain(3)
	params.StartPoABlock = 50
	b := NewBuilder(chain, nil, &fakeCoinView{}, fakeInvalid{}, nil, params)
	selector := NewAuditSelector(chain, nil, 16)

	_, err := b.CreateNewPoABlock(nil, nil, nil, &fakeWallet{}, selector)
	if err == nil {
		t.Fatal("expected an error when tip height is below StartPoABlock")
	}
}

func TestCreateNewPoABlockRewardFormulaPreHardFork(t *testing.T) {
	chain, params := newPoABuilderChain(10)
	b := NewBuilder(chain, nil, &fakeCoinView{}, fakeInvalid{}, nil, params)
	selector := NewAuditSelector(chain, nil, 16)

	tmpl, err := b.CreateNewPoABlock([]byte{0x51}, []byte("pub"), []byte("priv"), &fakeWallet{}, selector)
	if err != nil {
		t.Fatalf("CreateNewPoABlock failed: %v", err)
	}
	reward := tmpl.Block.Tx[0].TxOut[0].Value
	want := int64(params.MaxNumPoSBlocksAudited) * chaincfg.COIN / 2
	if reward != want {
		t.Fatalf("pre-hardfork reward = %d, want %d", reward, want)
	}
}

func TestCreateNewPoABlockRewardFormulaPostHardFork(t *testing.T) {
	chain, params := newPoABuilderChain(10)
	params.HardFork = 5
	b := NewBuilder(chain, nil, &fakeCoinView{}, fakeInvalid{}, nil, params)
	selector := NewAuditSelector(chain, nil, 16)

	tmpl, err := b.CreateNewPoABlock([]byte{0x51}, []byte("pub"), []byte("priv"), &fakeWallet{}, selector)
	if err != nil {
		t.Fatalf("CreateNewPoABlock failed: %v", err)
	}
	reward := tmpl.Block.Tx[0].TxOut[0].Value
	want := int64(params.MaxNumPoSBlocksAudited) * chaincfg.COIN / 4
	if reward != want {
		t.Fatalf("post-hardfork reward = %d, want %d", reward, want)
	}
}

func TestCreateNewPoABlockSetsPoAVersionAndMerkleFields(t *testing.T) {
	chain, params := newPoABuilderChain(10)
	b := NewBuilder(chain, nil, &fakeCoinView{}, fakeInvalid{}, nil, params)
	selector := NewAuditSelector(chain, nil, 16)

	tmpl, err := b.CreateNewPoABlock([]byte{0x51}, []byte("pub"), []byte("priv"), &fakeWallet{}, selector)
	if err != nil {
		t.Fatalf("CreateNewPoABlock failed: %v", err)
	}
	if !tmpl.Block.IsPoABlockByVersion() {
		t.Fatal("expected the built block to carry the PoA version tag")
	}
	if len(tmpl.Block.Tx) != 1 {
		t.Fatalf("PoA block tx count = %d, want 1", len(tmpl.Block.Tx))
	}
	if tmpl.Block.MinedHash == (chainhash.Hash{}) {
		t.Fatal("expected MinedHash to be populated")
	}
}
