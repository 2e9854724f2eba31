package minerpool

import (
	"context"
	"time"

	"github.com/prcycoin/blockforge/chaincfg"
	"github.com/prcycoin/blockforge/chainiface"
	"github.com/prcycoin/blockforge/mining"
	"github.com/prcycoin/blockforge/walletiface"
)

const poaCadence = 180 * time.Second

// PoAWorker runs the periodic audit-block builder, grounded on the
// original's ThreadPrcycoinMiner (spec.md section 4.E PoA loop).
//
// The shipped original left its build call commented out; this worker
// resolves that open question (spec.md section 9) in favor of actually
// building and submitting, since leaving the loop inert would make the PoA
// consensus mode unreachable.
type PoAWorker struct {
	Builder   *mining.Builder
	Chain     chainiface.ChainView
	Submitter Submitter
	Wallet    walletiface.Wallet
	Params    chaincfg.Params
	Selector  *mining.AuditSelector
}

// Run drives the worker until ctx is cancelled.
func (w *PoAWorker) Run(ctx context.Context) error {
	for {
		if !sleepCtx(ctx, poaCadence) {
			return nil
		}

		tip := w.Chain.Tip()
		if tip.Height < w.Params.StartPoABlock {
			continue
		}

		scriptPubKey, txPub, txPriv, err := w.Wallet.GenerateAddress()
		if err != nil {
			log.Warnf("PoA worker: generate address failed: %v", err)
			continue
		}

		tmpl, err := w.Builder.CreateNewPoABlock(scriptPubKey, txPub, txPriv, w.Wallet, w.Selector)
		if err != nil {
			log.Debugf("PoA worker: build failed: %v", err)
			continue
		}

		raiseThreadPriority()
		submitErr := w.Submitter.ProcessBlockFound(tmpl.Block)
		lowerThreadPriority()

		if submitErr != nil {
			log.Debugf("PoA worker: submit rejected: %v", submitErr)
			continue
		}
		log.Infof("PoA worker: audit block found at height %d", tip.Height+1)
	}
}
