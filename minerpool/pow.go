package minerpool

import (
	"context"
	"time"

	"github.com/prcycoin/blockforge/chaincfg"
	"github.com/prcycoin/blockforge/chainiface"
	"github.com/prcycoin/blockforge/mempool"
	"github.com/prcycoin/blockforge/mining"
	"github.com/prcycoin/blockforge/walletiface"
	"github.com/prcycoin/blockforge/wire"
)

const (
	powRefreshCheckpoint = 256
	powNonceCeiling      = 0xFFFF0000
	powMempoolStaleSecs  = 60
)

// PoWWorker runs one PoW hashing worker, grounded on the original's
// ThreadBitcoinMiner/BitcoinMiner loop (spec.md section 4.E).
type PoWWorker struct {
	Builder   *mining.Builder
	Chain     chainiface.ChainView
	TxSource  mempool.Source
	Peers     PeerSource
	Submitter Submitter
	Wallet    walletiface.Wallet
	Params    chaincfg.Params
	Policy    mining.Policy
	Meter     *HashMeter
}

// Run drives the worker until ctx is cancelled or the permanent PoW cutoff
// is reached. It never returns a non-nil error for recoverable conditions;
// the zero-value return means a clean, cooperative exit.
func (w *PoWWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tip := w.Chain.Tip()
		if tip.Height-6 > w.Params.LastPoWBlock {
			log.Infof("PoW worker: tip height %d past LAST_POW_BLOCK cutoff, exiting", tip.Height)
			return nil
		}

		// Late PoW build: wait half a target spacing instead of building a
		// block past LastPoWBlock, so the loop does not spin.
		if tip.Height+1 > w.Params.LastPoWBlock {
			if !sleepCtx(ctx, w.Params.TargetSpacing/2) {
				return nil
			}
			continue
		}

		scriptPubKey, txPub, txPriv, err := w.Wallet.GenerateAddress()
		if err != nil {
			log.Warnf("PoW worker: generate address failed: %v", err)
			if !sleepCtx(ctx, time.Second) {
				return nil
			}
			continue
		}

		tmpl, err := w.Builder.CreateNewBlock(scriptPubKey, txPub, txPriv, w.Wallet, false, w.Policy)
		if err != nil {
			log.Debugf("PoW worker: template build failed: %v", err)
			if !sleepCtx(ctx, time.Second) {
				return nil
			}
			continue
		}

		nextHeight := tip.Height + 1
		if err := w.Builder.Stamper().Stamp(tmpl.Block, nextHeight); err != nil {
			log.Warnf("PoW worker: extra-nonce stamp failed: %v", err)
			continue
		}

		lastTxUpdate := w.TxSource.GetTransactionsUpdated()
		hashStart := time.Now()
		header := &tmpl.Block.Header
		header.Nonce = 0

		var stopWorker bool

	hashLoop:
		for {
			var hashedThisChunk int64
			accepted := false

		chunk:
			for i := 0; i < powRefreshCheckpoint; i++ {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				hash := header.Hash()
				hashedThisChunk++

				if wire.HashMeetsTarget(hash, header.Bits) {
					raiseThreadPriority()
					submitErr := w.Submitter.ProcessBlockFound(tmpl.Block)
					lowerThreadPriority()

					if submitErr == nil {
						log.Infof("PoW worker: block found at height %d", nextHeight)
						accepted = true
						if w.Params.MineBlocksOnDemand {
							stopWorker = true
						}
						break chunk
					}
					log.Debugf("PoW worker: submit rejected (stale?): %v", submitErr)
					continue chunk
				}

				header.Nonce++
				if header.Nonce >= powNonceCeiling {
					break chunk
				}
			}

			if w.Meter != nil {
				w.Meter.Submit(hashedThisChunk)
			}

			if accepted || stopWorker {
				break hashLoop
			}

			if w.refreshNeeded(ctx, tip, header, lastTxUpdate, hashStart) {
				break hashLoop
			}

			w.updateTime(header)
		}

		if stopWorker {
			return nil
		}
	}
}

// refreshNeeded evaluates the four refresh conditions from spec.md section
// 4.E step 4.
func (w *PoWWorker) refreshNeeded(ctx context.Context, tip *chainiface.BlockIndex, header *wire.BlockHeader, lastTxUpdate uint64, hashStart time.Time) bool {
	if w.Params.MiningRequiresPeers && w.Peers != nil && w.Peers.ConnectedPeers() == 0 {
		return true
	}
	if header.Nonce >= powNonceCeiling {
		return true
	}
	if w.TxSource.GetTransactionsUpdated() != lastTxUpdate && time.Since(hashStart) > powMempoolStaleSecs*time.Second {
		return true
	}
	if w.Chain.Tip().Hash != tip.Hash {
		return true
	}
	return false
}

// updateTime advances the header's timestamp to the current adjusted time,
// recomputing the difficulty target too on min-difficulty chains (testnet
// style), matching UpdateTime in the original.
func (w *PoWWorker) updateTime(header *wire.BlockHeader) {
	header.Time = w.Chain.AdjustedTime().Unix()
	if w.Params.AllowMinDifficultyBlocks {
		bi := &chainiface.BlockIndex{Hash: header.PrevHash, Time: header.Time}
		header.Bits = w.Chain.GetNextWorkRequired(bi, header)
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, reporting which
// happened. Used at every bounded-sleep interruption point spec.md section
// 5 names.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
