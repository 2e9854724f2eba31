package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/prcycoin/blockforge/chaincfg"
	"github.com/prcycoin/blockforge/mempool"
	"github.com/prcycoin/blockforge/mining"
	"github.com/prcycoin/blockforge/minerpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	setLogLevel(cfg.DebugLevel)

	params := chaincfg.Params{
		StartPoABlock:            1_000,
		LastPoWBlock:             500,
		MaxNumPoSBlocksAudited:   500,
		HardFork:                 2_000,
		TargetSpacing:            60 * time.Second,
		MineBlocksOnDemand:       cfg.MineBlocksOnDemand,
		AllowMinDifficultyBlocks: cfg.AllowMinDifficultyBlocks,
		MiningRequiresPeers:      cfg.MiningRequiresPeers,
		DefaultMinerThreads:      2,
	}
	policy := mining.ResolvePolicy(cfg.BlockMaxSize, cfg.BlockPrioritySize, cfg.BlockMinSize, cfg.PrintPriority, cfg.BlockVersion)

	chain := newDevChain()
	txSource := mempool.NewMemory()
	wallet := &devWallet{}
	selector := mining.NewAuditSelector(chain, nil, 64)

	builder := mining.NewBuilder(chain, txSource, devCoinView{}, devInvalidInputs{}, devFillBlockPayee, params)

	statsDB, err := leveldb.OpenFile(filepath.Join(cfg.DataDir, "minerstats"), nil)
	if err != nil {
		return fmt.Errorf("unable to open stats database: %w", err)
	}
	defer statsDB.Close()

	var broadcaster *minerpool.StatsBroadcaster
	if cfg.StatsListen != "" {
		broadcaster = minerpool.NewStatsBroadcaster()
		mux := http.NewServeMux()
		mux.Handle("/ws", broadcaster)
		statsServer := &http.Server{Addr: cfg.StatsListen, Handler: mux}
		go func() {
			if err := statsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				minrLog.Errorf("stats server exited: %v", err)
			}
		}()
		defer statsServer.Close()
	}

	pool := &minerpool.Pool{
		Builder:        builder,
		Chain:          chain,
		TxSource:       txSource,
		Peers:          devPeers{},
		Submitter:      chain,
		Wallet:         wallet,
		Params:         params,
		Policy:         policy,
		Selector:       selector,
		ReserveBalance: cfg.ReserveBalance,
		StatsDB:        statsDB,
		Broadcaster:    broadcaster,
	}

	if cfg.Generate {
		pool.GenerateCoins(true, cfg.GenerateThreads)
	}
	if cfg.GeneratePoA {
		pool.GeneratePoA(true)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	minrLog.Info("shutting down, stopping miner pool")
	pool.Stop()
	if logRotator != nil {
		logRotator.Close()
	}
	return nil
}
