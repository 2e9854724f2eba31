package minerpool

import (
	"context"
	"sync"
	"time"

	"github.com/decred/dcrd/lru"

	"github.com/prcycoin/blockforge/chaincfg"
	"github.com/prcycoin/blockforge/chainiface"
	"github.com/prcycoin/blockforge/mempool"
	"github.com/prcycoin/blockforge/mining"
	"github.com/prcycoin/blockforge/walletiface"
)

const (
	posGateSleep           = 5 * time.Second
	posMintableRefresh     = 5 * time.Minute
	posMintableRefreshFast = 1 * time.Minute
)

// PoSWorker runs the stake-search loop, grounded on the proof-of-stake
// branch of the original's BitcoinMiner (spec.md section 4.E PoS loop).
type PoSWorker struct {
	Builder        *mining.Builder
	Chain          chainiface.ChainView
	TxSource       mempool.Source
	Peers          PeerSource
	Submitter      Submitter
	Wallet         walletiface.Wallet
	Params         chaincfg.Params
	Policy         mining.Policy
	ReserveBalance int64

	mu               sync.Mutex
	lastAttempt      map[int32]time.Time
	lastWasOrphan    bool
	mintable         bool
	mintableChecked  time.Time
	loggedGateReason lru.Cache
}

// NewPoSWorker returns a worker ready to Run.
func NewPoSWorker(builder *mining.Builder, chain chainiface.ChainView, txSource mempool.Source, peers PeerSource, submitter Submitter, wallet walletiface.Wallet, params chaincfg.Params, policy mining.Policy, reserveBalance int64) *PoSWorker {
	return &PoSWorker{
		Builder:          builder,
		Chain:            chain,
		TxSource:         txSource,
		Peers:            peers,
		Submitter:        submitter,
		Wallet:           wallet,
		Params:           params,
		Policy:           policy,
		ReserveBalance:   reserveBalance,
		lastAttempt:      make(map[int32]time.Time),
		loggedGateReason: lru.NewCache(8),
	}
}

// Run drives the worker until ctx is cancelled.
func (w *PoSWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if reason, gated := w.gated(); gated {
			w.logGateOnce(reason)
			if !sleepCtx(ctx, posGateSleep) {
				return nil
			}
			continue
		}

		tip := w.Chain.Tip()
		if w.throttled(tip.Height) {
			if !sleepCtx(ctx, posGateSleep) {
				return nil
			}
			continue
		}

		w.mu.Lock()
		w.lastAttempt[tip.Height] = time.Now()
		w.mu.Unlock()

		scriptPubKey, txPub, txPriv, err := w.Wallet.GenerateAddress()
		if err != nil {
			w.setOrphan(true)
			if !sleepCtx(ctx, posGateSleep) {
				return nil
			}
			continue
		}

		tmpl, err := w.Builder.CreateNewBlock(scriptPubKey, txPub, txPriv, w.Wallet, true, w.Policy)
		if err != nil {
			log.Debugf("PoS worker: no stake found or build failed: %v", err)
			w.setOrphan(true)
			if !sleepCtx(ctx, posGateSleep) {
				return nil
			}
			continue
		}

		raiseThreadPriority()
		submitErr := w.Submitter.ProcessBlockFound(tmpl.Block)
		lowerThreadPriority()

		if submitErr != nil {
			log.Debugf("PoS worker: submit rejected: %v", submitErr)
			w.setOrphan(true)
			continue
		}

		log.Infof("PoS worker: stake block found at height %d", tip.Height+1)
		w.setOrphan(false)
	}
}

// gated evaluates the PoS gating conditions; the first true condition's name
// is returned for logging.
func (w *PoSWorker) gated() (string, bool) {
	if w.Params.MiningRequiresPeers && w.Peers != nil && w.Peers.ConnectedPeers() == 0 {
		return "no peers", true
	}
	if w.Wallet.IsLocked() {
		return "wallet locked", true
	}
	if !w.mintableCoins() {
		return "no mintable coins", true
	}
	if w.ReserveBalance >= w.Wallet.Balance() {
		return "reserve balance exceeds spendable balance", true
	}
	if w.Peers != nil && !w.Peers.MasternodeSynced() {
		return "masternode subsystem not synced", true
	}
	return "", false
}

// mintableCoins re-queries the wallet's mintable-coin status on the cadence
// spec.md section 4.E describes: every 5 minutes normally, or every 1
// minute while the last known answer was false.
func (w *PoSWorker) mintableCoins() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	interval := posMintableRefresh
	if !w.mintable {
		interval = posMintableRefreshFast
	}
	if time.Since(w.mintableChecked) < interval {
		return w.mintable
	}
	w.mintable = w.Wallet.MintableCoins()
	w.mintableChecked = time.Now()
	return w.mintable
}

// throttled implements the "recently hashed" guard: don't retry the same
// tip height sooner than max(wallet.HashInterval(), 1s) after the previous
// non-orphan attempt.
func (w *PoSWorker) throttled(height int32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lastWasOrphan {
		return false
	}
	last, ok := w.lastAttempt[height]
	if !ok {
		return false
	}
	interval := w.Wallet.HashInterval()
	if interval < time.Second {
		interval = time.Second
	}
	return time.Since(last) < interval
}

func (w *PoSWorker) setOrphan(v bool) {
	w.mu.Lock()
	w.lastWasOrphan = v
	w.mu.Unlock()
}

// logGateOnce logs a gating reason only the first time it's observed within
// the cache's capacity window, avoiding a log line every 5 seconds while a
// single condition (e.g. "wallet locked") persists.
func (w *PoSWorker) logGateOnce(reason string) {
	if w.loggedGateReason.Contains(reason) {
		return
	}
	w.loggedGateReason.Add(reason)
	log.Debugf("PoS worker: gated (%s)", reason)
}
