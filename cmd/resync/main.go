// Command resync rewinds a network's sync cursor to its configured start
// block and optionally replays the chain from there. Replay reuses the
// regular sync path, so already-indexed agents are skipped and metadata is
// re-resolved for the rest.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"

	"agentscan/registry-indexer/internal/chain"
	"agentscan/registry-indexer/internal/classify"
	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/database"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metadata"
	syncer "agentscan/registry-indexer/internal/sync"
)

var cmdlineFlags struct {
	configFile string
	network    string
	startBlock uint64
	replay     bool
}

func main() {
	flag.StringVar(
		&cmdlineFlags.configFile,
		"config",
		"",
		"path to config file to load",
	)
	flag.StringVar(
		&cmdlineFlags.network,
		"network",
		"",
		"network key to resync",
	)
	flag.Uint64Var(
		&cmdlineFlags.startBlock,
		"start-block",
		0,
		"override the configured start block",
	)
	flag.BoolVar(
		&cmdlineFlags.replay,
		"replay",
		false,
		"run sync passes until the cursor catches up to the chain head",
	)
	flag.Parse()

	if cmdlineFlags.network == "" {
		fmt.Println("-network is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg); err != nil {
		fmt.Printf("Failed to setup logger: %s\n", err)
		os.Exit(1)
	}
	logger := logging.GetLogger()

	networkCfg := cfg.Network(cmdlineFlags.network)
	if networkCfg == nil {
		logger.Errorf("unknown network: %s", cmdlineFlags.network)
		os.Exit(1)
	}

	startBlock := networkCfg.StartBlock
	if cmdlineFlags.startBlock > 0 {
		startBlock = cmdlineFlags.startBlock
	}

	db, err := database.New(cfg)
	if err != nil {
		logger.Errorf("failed to create database: %v", err)
		os.Exit(1)
	}

	if err := db.ResetSyncCursor(networkCfg.Key, startBlock); err != nil {
		logger.Errorf("failed to reset sync cursor: %v", err)
		os.Exit(1)
	}
	logger.Infow(
		"sync cursor reset",
		"network", networkCfg.Key,
		"start_block", startBlock,
	)

	if !cmdlineFlags.replay {
		return
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	reader, err := chain.NewClient(
		networkCfg.Key,
		networkCfg.RPCURL,
		cfg.Sync.MaxRetries,
		cfg.Sync.RetryDelay,
		cfg.Sync.RPCTimeout,
	)
	if err != nil {
		logger.Errorf("failed to create chain client: %v", err)
		os.Exit(1)
	}

	resolver := metadata.NewResolver(
		cfg.Sync.IPFSGateway,
		cfg.Sync.MetadataTimeout,
		cfg.Sync.MaxRetries,
		cfg.Sync.RetryDelay,
	)
	classifier := classify.NewClassifier(cfg.Classifier)

	// Replay runs without the publisher or alerting so a historical rescan
	// does not re-announce every agent downstream.
	orchestrator, err := syncer.New(
		*networkCfg,
		cfg.Sync,
		reader,
		db,
		resolver,
		classifier,
		nil,
		nil,
	)
	if err != nil {
		logger.Errorf("failed to create sync orchestrator: %v", err)
		os.Exit(1)
	}

	height, err := reader.BlockNumber(ctx)
	if err != nil {
		logger.Errorf("failed to fetch chain height: %v", err)
		os.Exit(1)
	}

	bar := progressbar.NewOptions64(
		int64(height-startBlock+1),
		progressbar.OptionSetDescription(
			fmt.Sprintf("replaying %s", networkCfg.Key),
		),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("blocks"),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)

	var eventsApplied int
	for {
		outcome, err := orchestrator.Run(ctx)
		if err != nil {
			_ = bar.Clear()
			logger.Errorf("replay failed at block %d: %v", outcome.FinalBlock, err)
			os.Exit(1)
		}
		_ = bar.Add64(int64(outcome.BlocksProcessed))
		eventsApplied += outcome.EventsApplied

		if outcome.CaughtUp {
			break
		}
		if ctx.Err() != nil {
			_ = bar.Clear()
			logger.Warn("replay interrupted")
			os.Exit(1)
		}
	}
	_ = bar.Finish()

	logger.Infow(
		"replay complete",
		"network", networkCfg.Key,
		"events_applied", eventsApplied,
	)
}
