package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthdm/hollywood/actor"
	"github.com/disgoorg/disgo/webhook"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/actors"
	"agentscan/registry-indexer/internal/chain"
	"agentscan/registry-indexer/internal/classify"
	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/database"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metadata"
	"agentscan/registry-indexer/internal/publisher"
	syncer "agentscan/registry-indexer/internal/sync"
)

var cmdlineFlags struct {
	configFile string
	debug      bool
}

func main() {
	flag.StringVar(
		&cmdlineFlags.configFile,
		"config",
		"",
		"path to config file to load",
	)
	flag.BoolVar(
		&cmdlineFlags.debug,
		"debug",
		false,
		"enable debug logging",
	)
	flag.Parse()

	// Load config
	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	if err := validateConfig(cfg); err != nil {
		fmt.Printf("Configuration validation failed: %s\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg); err != nil {
		fmt.Printf("Failed to setup logger: %s\n", err)
		os.Exit(1)
	}
	logger := logging.GetLogger()

	// Set log level based on debug flag
	if cmdlineFlags.debug {
		logger = logger.Desugar().
			WithOptions(zap.IncreaseLevel(zap.DebugLevel)).
			Sugar()
	}

	// Configure max processes with our logger wrapper, toss undo func
	zapPrintf := func(format string, args ...interface{}) {
		logger.Infof(format, args...)
	}
	_, err = maxprocs.Set(maxprocs.Logger(zapPrintf))
	if err != nil {
		logger.Errorf("failed to set max processes: %v", err)
		os.Exit(1)
	}

	db, err := database.New(cfg)
	if err != nil {
		logger.Errorf("failed to create database: %v", err)
		os.Exit(1)
	}

	var pub publisher.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub = publisher.NewKafkaPublisher(cfg.Kafka)
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Warnw("failed to close event publisher", "err", err)
			}
		}()
		logger.Infow(
			"event publishing enabled",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
	} else {
		logger.Info("no kafka brokers configured, event publishing disabled")
	}

	var discordClient webhook.Client
	if cfg.Notifications.DiscordWebhookURL != "" {
		discordClient, err = webhook.NewWithURL(
			cfg.Notifications.DiscordWebhookURL,
		)
		if err != nil {
			logger.Errorf("failed to create discord webhook client: %v", err)
			os.Exit(1)
		}
	}

	resolver := metadata.NewResolver(
		cfg.Sync.IPFSGateway,
		cfg.Sync.MetadataTimeout,
		cfg.Sync.MaxRetries,
		cfg.Sync.RetryDelay,
	)
	classifier := classify.NewClassifier(cfg.Classifier)

	// One RPC client and orchestrator per enabled network. A network that
	// fails to come up is fatal at startup; at runtime its actors are
	// isolated and restarted on their own.
	var runtimes []actors.NetworkRuntime
	for _, networkCfg := range cfg.EnabledNetworks() {
		reader, err := chain.NewClient(
			networkCfg.Key,
			networkCfg.RPCURL,
			cfg.Sync.MaxRetries,
			cfg.Sync.RetryDelay,
			cfg.Sync.RPCTimeout,
		)
		if err != nil {
			logger.Errorf(
				"failed to create chain client for %s: %v",
				networkCfg.Key,
				err,
			)
			os.Exit(1)
		}

		orchestrator, err := syncer.New(
			networkCfg,
			cfg.Sync,
			reader,
			db,
			resolver,
			classifier,
			pub,
			discordClient,
		)
		if err != nil {
			logger.Errorf(
				"failed to create sync orchestrator for %s: %v",
				networkCfg.Key,
				err,
			)
			os.Exit(1)
		}

		runtimes = append(runtimes, actors.NetworkRuntime{
			Config:       networkCfg,
			Orchestrator: orchestrator,
			HealthCheck:  actors.NewHealthCheckActor(networkCfg, cfg, reader),
		})
		logger.Infow(
			"network configured",
			"network", networkCfg.Key,
			"chainId", networkCfg.ChainID,
			"registry", networkCfg.RegistryContract,
			"startBlock", networkCfg.StartBlock,
		)
	}

	if len(runtimes) == 0 {
		logger.Error("no enabled networks configured")
		os.Exit(1)
	}

	engine, err := actor.NewEngine(actor.NewEngineConfig())
	if err != nil {
		logger.Errorf("failed to create actor engine: %v", err)
		os.Exit(1)
	}

	syncManagerPID := engine.Spawn(
		actors.NewSyncManagerActor(cfg, db, runtimes),
		"syncManager",
		actor.WithID("manager"),
		actor.WithMaxRestarts(5),
		actor.WithRestartDelay(30*time.Second),
	)
	logger.Infow("SyncManagerActor spawned", "pid", syncManagerPID)

	apiPID := engine.Spawn(
		actors.NewAPIActor(cfg, db, syncManagerPID),
		"api",
		actor.WithID("api"),
		actor.WithMaxRestarts(5),
		actor.WithRestartDelay(30*time.Second),
	)
	logger.Infow("APIActor spawned", "pid", apiPID)

	logger.Infof(
		"registry indexer started successfully with %d network(s)",
		len(runtimes),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Infow("received shutdown signal", "signal", sig.String())
	logger.Info("shutting down...")

	// Create a timeout context for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer shutdownCancel()

	// Shutdown actors with timeout
	done := make(chan struct{})
	go func() {
		defer close(done)
		apiDone := engine.Poison(apiPID)
		<-apiDone.Done()
		syncManagerDone := engine.Poison(syncManagerPID)
		<-syncManagerDone.Done()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
	}

	logging.CloseDiscordLogger()
}

func validateConfig(cfg *config.Config) error {
	if cfg.Storage.Directory == "" {
		return fmt.Errorf("storage.dir cannot be empty")
	}

	networks := cfg.EnabledNetworks()
	if len(networks) == 0 {
		return fmt.Errorf("at least one enabled network is required")
	}
	for _, n := range networks {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("network %s: %w", n.Key, err)
		}
	}

	return nil
}
