package minerpool

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/prcycoin/blockforge/chaincfg"
	"github.com/prcycoin/blockforge/chainiface"
	"github.com/prcycoin/blockforge/mempool"
	"github.com/prcycoin/blockforge/mining"
	"github.com/prcycoin/blockforge/walletiface"
)

// Pool owns the currently running set of miner workers and manages their
// lifecycle, grounded on the original's GeneratePrcycoins/GeneratePoAPrcycoin
// pair of "interrupt the old thread group, start a new one" entry points
// (spec.md section 4.E "Pool lifecycle").
//
// A single Pool instance is meant to be driven by one controller; concurrent
// calls to GenerateCoins/GeneratePoA from multiple goroutines are not
// supported, matching the single-controller assumption spec.md section 5
// states for miner-pool handles.
type Pool struct {
	Builder   *mining.Builder
	Chain     chainiface.ChainView
	TxSource  mempool.Source
	Peers     PeerSource
	Submitter Submitter
	Wallet    walletiface.Wallet
	Params    chaincfg.Params
	Policy    mining.Policy
	Selector  *mining.AuditSelector

	ReserveBalance int64

	// StatsDB backs each PoW worker's HashMeter with persistent hash-rate
	// storage across restarts. Nil disables persistence.
	StatsDB *leveldb.DB

	// Broadcaster, if set, receives a periodic stats snapshot while PoW
	// workers are running, for a dashboard or external bridge subscribed
	// over its websocket feed.
	Broadcaster *StatsBroadcaster

	coinsMu     sync.Mutex
	coinsCancel context.CancelFunc
	coinsWG     sync.WaitGroup

	poaMu     sync.Mutex
	poaCancel context.CancelFunc
	poaWG     sync.WaitGroup
}

// resolveThreads applies the n_threads<0/==0 semantics spec.md section 4.E
// names for the "Pool lifecycle" entry points.
func (p *Pool) resolveThreads(nThreads int) int {
	if nThreads < 0 {
		if p.Params.DefaultMinerThreads > 0 {
			return p.Params.DefaultMinerThreads
		}
		return runtime.NumCPU()
	}
	return nThreads
}

// GenerateCoins stops any currently running PoW/PoS workers and, if enabled
// and nThreads != 0, starts nThreads PoW workers plus a single PoS worker.
// A single PoS worker is sufficient regardless of nThreads: the stake
// search scans the same wallet-owned UTXO set every attempt, so running it
// on more than one goroutine would only contend over the same search
// window without improving the odds of finding a kernel.
func (p *Pool) GenerateCoins(enabled bool, nThreads int) {
	p.coinsMu.Lock()
	defer p.coinsMu.Unlock()

	if p.coinsCancel != nil {
		p.coinsCancel()
		p.coinsWG.Wait()
		p.coinsCancel = nil
	}

	if !enabled {
		return
	}
	threads := p.resolveThreads(nThreads)
	if threads == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.coinsCancel = cancel

	meters := make([]*HashMeter, 0, threads)
	for i := 0; i < threads; i++ {
		meter := NewHashMeter(p.StatsDB)
		w := &PoWWorker{
			Builder:   p.Builder,
			Chain:     p.Chain,
			TxSource:  p.TxSource,
			Peers:     p.Peers,
			Submitter: p.Submitter,
			Wallet:    p.Wallet,
			Params:    p.Params,
			Policy:    p.Policy,
			Meter:     meter,
		}
		meters = append(meters, meter)
		w.Meter.Start()
		p.coinsWG.Add(1)
		go func(w *PoWWorker) {
			defer p.coinsWG.Done()
			defer w.Meter.Stop()
			if err := w.Run(ctx); err != nil {
				log.Errorf("minerpool: PoW worker exited: %v", err)
			}
		}(w)
	}

	if p.Broadcaster != nil {
		p.coinsWG.Add(1)
		go func() {
			defer p.coinsWG.Done()
			p.broadcastStats(ctx, meters)
		}()
	}

	stakeWorker := NewPoSWorker(p.Builder, p.Chain, p.TxSource, p.Peers, p.Submitter, p.Wallet, p.Params, p.Policy, p.ReserveBalance)
	p.coinsWG.Add(1)
	go func() {
		defer p.coinsWG.Done()
		if err := stakeWorker.Run(ctx); err != nil {
			log.Errorf("minerpool: PoS worker exited: %v", err)
		}
	}()
}

// broadcastStats pushes an aggregate stats snapshot to p.Broadcaster every
// hpsUpdateSecs, summing the hash rate across meters (one per running PoW
// worker) until ctx is canceled.
func (p *Pool) broadcastStats(ctx context.Context, meters []*HashMeter) {
	ticker := time.NewTicker(hpsUpdateSecs * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var rate float64
			for _, m := range meters {
				rate += m.HashesPerSecond()
			}
			st := p.Builder.Snapshot()
			p.Broadcaster.Broadcast(snapshot{
				HashesPerSecond: rate,
				CPUPercent:      cpuLoad(),
				LastBlockTx:     st.LastBlockTx,
				LastBlockSize:   st.LastBlockSize,
				Time:            time.Now().Unix(),
			})
		case <-ctx.Done():
			return
		}
	}
}

// GeneratePoA stops any currently running PoA worker and, if enabled, starts
// a single one.
func (p *Pool) GeneratePoA(enabled bool) {
	p.poaMu.Lock()
	defer p.poaMu.Unlock()

	if p.poaCancel != nil {
		p.poaCancel()
		p.poaWG.Wait()
		p.poaCancel = nil
	}

	if !enabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.poaCancel = cancel

	w := &PoAWorker{
		Builder:   p.Builder,
		Chain:     p.Chain,
		Submitter: p.Submitter,
		Wallet:    p.Wallet,
		Params:    p.Params,
		Selector:  p.Selector,
	}
	p.poaWG.Add(1)
	go func() {
		defer p.poaWG.Done()
		if err := w.Run(ctx); err != nil {
			log.Errorf("minerpool: PoA worker exited: %v", err)
		}
	}()
}

// Stop interrupts and joins every worker the pool currently owns, mirroring
// the pool destructor's "interrupt and join all workers" contract.
func (p *Pool) Stop() {
	p.GenerateCoins(false, 0)
	p.GeneratePoA(false)
}
