package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jessevdk/go-flags"

	"github.com/prcycoin/blockforge/mining"
)

const (
	defaultConfigFilename = "minerd.conf"
	defaultLogFilename    = "minerd.log"
	defaultLogLevel       = "info"
)

var (
	defaultHomeDir   = appDataDir("minerd", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, "logs")
)

// config defines the command-line and config-file options this tool
// accepts, following the teacher's go-flags-driven config layering
// (command line overrides config file overrides defaults).
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir    string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level: trace, debug, info, warn, error, critical"`

	BlockMaxSize      uint32 `long:"blockmaxsize" description:"Maximum block size in bytes to be used when creating a block"`
	BlockPrioritySize uint32 `long:"blockprioritysize" description:"Size in bytes for high-priority/low-fee transactions when creating a block"`
	BlockMinSize      uint32 `long:"blockminsize" description:"Minimum block size in bytes to be used when creating a block"`
	BlockVersion      int32  `long:"blockversion" description:"Block version to use with -miningondemand chains"`
	PrintPriority     bool   `long:"printpriority" description:"Log the priority and fee of transactions assembled into a block"`

	Generate        bool `short:"g" long:"generate" description:"Generate (mine) coins using the CPU"`
	GeneratePoA     bool `long:"generatepoa" description:"Run the Proof-of-Audit loop"`
	GenerateThreads int  `long:"generatethreads" description:"Number of CPU threads to use when mining; -1 means the chain's default miner thread count, or the number of processors when that is unset"`

	MiningRequiresPeers      bool `long:"miningrequirespeers" description:"Require at least one connected peer before mining"`
	AllowMinDifficultyBlocks bool `long:"allowmindifficultyblocks" description:"Allow minimum difficulty blocks (testnet-style chains only)"`
	MineBlocksOnDemand       bool `long:"miningondemand" description:"Only mine a block when explicitly requested (regtest-style chains only)"`

	ReserveBalance int64 `long:"reservebalance" description:"Amount of spendable balance to keep unstaked"`

	StatsListen string `long:"statslisten" description:"host:port to serve the miner stats websocket feed on (empty disables)"`
}

// loadConfig reads flags from the command line and an optional config file,
// filling in defaults for anything left unset.
func loadConfig() (*config, []string, error) {
	cfg := config{
		ConfigFile:        defaultConfigFile,
		DataDir:           defaultHomeDir,
		LogDir:            defaultLogDir,
		DebugLevel:        defaultLogLevel,
		BlockMaxSize:      mining.DefaultBlockMaxSize,
		BlockPrioritySize: mining.DefaultBlockPrioritySize,
		BlockMinSize:      mining.DefaultBlockMinSize,
		GenerateThreads:   -1,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if preCfg.ConfigFile != defaultConfigFile {
		cfg.ConfigFile = preCfg.ConfigFile
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if err := flags.NewIniParser(parser).ParseFile(cfg.ConfigFile); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, nil, err
		}
	}

	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("unable to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("unable to create log directory: %w", err)
	}

	return &cfg, remainingArgs, nil
}

// appDataDir mirrors the teacher's per-OS application data directory
// resolution (XDG on Linux, AppData on Windows, Library/Application Support
// on macOS), scoped down to the single-OS-family cases this tool needs.
func appDataDir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "." + appName
	}
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if roaming {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(home, appName)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, "."+appName)
	}
}
