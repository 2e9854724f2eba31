package mining

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/prcycoin/blockforge/chaincfg"
	"github.com/prcycoin/blockforge/walletiface"
	"github.com/prcycoin/blockforge/wire"
)

// CreateNewPoABlock assembles a single-transaction, reward-only block
// auditing a window of prior PoS blocks, per spec.md section 4.B'. The
// mempool is never consulted. scriptPubKey/txPub/txPriv name the reward
// output's destination and its per-template stealth keypair, as in
// CreateNewBlock.
func (b *Builder) CreateNewPoABlock(scriptPubKey, txPub, txPriv []byte, wallet walletiface.Wallet, selector *AuditSelector) (*BlockTemplate, error) {
	tip := b.Chain.Tip()
	if tip.Height < b.Params.StartPoABlock {
		return nil, ruleErr(ErrBeforePoAStart, nil)
	}
	nextHeight := tip.Height + 1

	prevPoAHeight, audits, err := selector.List(tip.Height, b.Params.StartPoABlock, b.Params.LastPoWBlock, b.Params.MaxNumPoSBlocksAudited)
	if err != nil {
		return nil, err
	}
	if len(audits) == 0 {
		return nil, ruleErr(ErrNoAuditWindow, nil)
	}

	block := &wire.Block{
		Header: wire.BlockHeader{
			Version:  wire.POAVersionTag,
			PrevHash: tip.Hash,
		},
		PosBlocksAudited: audits,
	}

	if prevPoAHeight >= b.Params.StartPoABlock {
		if prevBI := b.Chain.AtHeight(prevPoAHeight); prevBI != nil {
			block.PrevPoAHash = prevBI.Hash
		}
	}

	block.Header.Time = b.Chain.AdjustedTime().Unix()
	block.Header.Time = b.Chain.AdjustedTime().Unix()

	n := int64(len(audits))
	var reward int64
	if tip.Height >= b.Params.HardFork {
		reward = n * chaincfg.COIN / 4
	} else {
		reward = n * chaincfg.COIN / 2
	}

	rewardTx := &wire.MsgTx{Version: 1, Kind: wire.TxKindCoinbase}
	rewardTx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.NullOutPoint()})
	out := &wire.TxOut{
		PkScript: scriptPubKey,
		TxPub:    txPub,
		TxPriv:   txPriv,
		Value:    reward,
	}
	rewardTx.AddTxOut(out)

	// Deliberate double-encode: both calls observably mutate out.Value
	// (spec.md section 4.B' — preserved bit-for-bit rather than collapsed
	// into a single call).
	if err := wallet.EncodeTxOutAmount(out, reward, txPub); err != nil {
		return nil, ruleErr(ErrCommitmentFailed, err)
	}
	commitment, err := wallet.CreateCommitment(wire.ZeroBlind, reward)
	if err != nil {
		return nil, ruleErr(ErrCommitmentFailed, err)
	}
	out.Commitment = commitment
	if err := wallet.EncodeTxOutAmount(out, reward, txPub); err != nil {
		return nil, ruleErr(ErrCommitmentFailed, err)
	}

	script, err := txscript.NewScriptBuilder().
		AddInt64(int64(nextHeight)).
		AddInt64(1).
		AddData([]byte(chaincfg.COINBASE_FLAGS)).
		Script()
	if err != nil {
		return nil, ruleErr(ErrScriptTooLong, err)
	}
	if len(script) > 100 {
		return nil, ruleErr(ErrScriptTooLong, nil)
	}
	rewardTx.TxIn[0].SignatureScript = script

	block.Tx = []*wire.MsgTx{rewardTx}

	block.Header.MerkleRoot = wire.BlockMerkleRoot(block)
	block.PoAMerkleRoot = block.ComputePoAMerkleTree()
	block.MinedHash = block.ComputeMinedHash()

	return &BlockTemplate{
		Block:    block,
		TxFees:   []int64{0},
		TxSigOps: []int64{0},
	}, nil
}
