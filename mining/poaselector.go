package mining

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/prcycoin/blockforge/chainiface"
	"github.com/prcycoin/blockforge/wire"
)

// AuditSelector computes the ordered window of PoS blocks a new PoA block
// must audit (spec.md section 4.C). It caches recently-read blocks across
// calls so repeated selector invocations against an unchanged prevPoA
// window don't re-read disk for every PoA build attempt.
type AuditSelector struct {
	chain      chainiface.ChainView
	reVerify   chainiface.ReVerifyPoSBlock
	blockCache *lru.Cache
}

// NewAuditSelector returns a selector backed by chain, caching up to
// cacheSize recently-read blocks.
func NewAuditSelector(chain chainiface.ChainView, reVerify chainiface.ReVerifyPoSBlock, cacheSize int) *AuditSelector {
	cache, _ := lru.New(cacheSize)
	return &AuditSelector{
		chain:      chain,
		reVerify:   reVerify,
		blockCache: cache,
	}
}

func (s *AuditSelector) readBlock(index *chainiface.BlockIndex) (*wire.Block, error) {
	if v, ok := s.blockCache.Get(index.Hash); ok {
		return v.(*wire.Block), nil
	}
	b, err := s.chain.ReadBlock(index)
	if err != nil {
		return nil, err
	}
	s.blockCache.Add(index.Hash, b)
	return b, nil
}

// List walks backward from currentHeight to find the previous PoA block (if
// any), then returns the audit window and the height of that previous PoA
// block (or a height below StartPoABlock if there wasn't one).
//
// First-PoA case: audits exactly
// [LAST_POW_BLOCK+1, LAST_POW_BLOCK+MAX_NUM_POS_BLOCKS_AUDITED].
//
// Subsequent case: reads the previous PoA block, takes the last entry of
// its own audited window, and walks forward from there collecting every PoS
// block up to currentHeight, stopping once MaxNumPoSBlocksAudited entries
// have been collected.
func (s *AuditSelector) List(currentHeight int32, startPoABlock, lastPoWBlock, maxAudited int32) (prevPoAHeight int32, audits []wire.PoSBlockSummary, err error) {
	idx := currentHeight
	for idx >= startPoABlock {
		bi := s.chain.AtHeight(idx)
		if bi == nil {
			break
		}
		b, rerr := s.readBlock(bi)
		if rerr != nil {
			return 0, nil, ruleErr(ErrSelectorDiskRead, rerr)
		}
		if b.IsPoABlockByVersion() {
			break
		}
		idx--
	}

	if idx <= startPoABlock {
		for h := lastPoWBlock + 1; h <= lastPoWBlock+maxAudited; h++ {
			bi := s.chain.AtHeight(h)
			if bi == nil {
				continue
			}
			audits = append(audits, s.summarize(bi))
		}
		return idx, audits, nil
	}

	start := idx
	prevBI := s.chain.AtHeight(start)
	prevBlock, rerr := s.readBlock(prevBI)
	if rerr != nil {
		return 0, nil, ruleErr(ErrSelectorDiskRead, rerr)
	}
	if len(prevBlock.PosBlocksAudited) == 0 {
		return start, audits, nil
	}
	last := prevBlock.PosBlocksAudited[len(prevBlock.PosBlocksAudited)-1]

	for h := last.Height + 1; h <= currentHeight; h++ {
		bi := s.chain.AtHeight(h)
		if bi == nil {
			continue
		}
		b, rerr := s.readBlock(bi)
		if rerr != nil {
			return 0, nil, ruleErr(ErrSelectorDiskRead, rerr)
		}
		if b.IsProofOfStake() {
			audits = append(audits, s.summarize(bi))
		}
		if int32(len(audits)) == maxAudited {
			break
		}
	}
	return start, audits, nil
}

func (s *AuditSelector) summarize(bi *chainiface.BlockIndex) wire.PoSBlockSummary {
	t := bi.Time
	if s.reVerify != nil && !s.reVerify(bi) {
		t = 0
	}
	return wire.PoSBlockSummary{Hash: bi.Hash, Height: bi.Height, Time: t}
}
