package actors

import (
	"time"

	"github.com/anthdm/hollywood/actor"
	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/database"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metrics"
	syncer "agentscan/registry-indexer/internal/sync"
	"agentscan/registry-indexer/internal/types"
)

// NetworkRuntime bundles everything the manager needs to supervise one
// network: its orchestrator and the reader used by its health checker.
type NetworkRuntime struct {
	Config       config.NetworkConfig
	Orchestrator *syncer.Orchestrator
	HealthCheck  actor.Producer
}

// SyncManagerActor supervises one NetworkSyncActor and one HealthCheckActor
// per enabled network. Networks are isolated: a crashed child is restarted
// on its own while the others keep syncing.
type SyncManagerActor struct {
	cfg      *config.Config
	db       *database.Database
	runtimes []NetworkRuntime
	logger   *zap.SugaredLogger

	engine  *actor.Engine
	selfPID *actor.PID

	syncActors map[string]*actor.PID // network key -> NetworkSyncActor
}

func NewSyncManagerActor(
	cfg *config.Config,
	db *database.Database,
	runtimes []NetworkRuntime,
) actor.Producer {
	return func() actor.Receiver {
		return &SyncManagerActor{
			cfg:      cfg,
			db:       db,
			runtimes: runtimes,
			logger: logging.GetLogger().
				With("actor", "SyncManagerActor"),
			syncActors: make(map[string]*actor.PID),
		}
	}
}

func (sm *SyncManagerActor) Receive(c *actor.Context) {
	switch msg := c.Message().(type) {
	case actor.Initialized:
		sm.logger.Info("initializing")
		sm.engine = c.Engine()
		sm.selfPID = c.PID()

	case actor.Started:
		sm.logger.Infow("starting network sync actors",
			"networks", len(sm.runtimes))
		for _, runtime := range sm.runtimes {
			sm.spawnNetwork(c, runtime)
		}

	case actor.Stopped:
		sm.logger.Info("stopped")

	case types.TriggerSync:
		pid, exists := sm.syncActors[msg.NetworkKey]
		if !exists {
			sm.logger.Warnw("trigger for unknown network",
				"network", msg.NetworkKey)
			return
		}
		sm.logger.Infow("manual sync trigger", "network", msg.NetworkKey)
		sm.engine.Send(pid, types.SyncTick{})

	case types.SyncOutcomeEvent:
		sm.handleOutcome(msg)

	case actor.ActorStoppedEvent:
		sm.handleChildStopped(c, msg)

	case respawnNetwork:
		if _, exists := sm.syncActors[msg.Runtime.Config.Key]; exists {
			sm.logger.Infow("network already respawned",
				"network", msg.Runtime.Config.Key)
			return
		}
		sm.spawnNetwork(c, msg.Runtime)

	default:
	}
}

func (sm *SyncManagerActor) spawnNetwork(
	c *actor.Context,
	runtime NetworkRuntime,
) {
	key := runtime.Config.Key

	syncPID := c.SpawnChild(
		NewNetworkSyncActor(runtime.Orchestrator, sm.cfg.Sync),
		"network-sync",
		actor.WithID(key),
		actor.WithMaxRestarts(5),
		actor.WithRestartDelay(10*time.Second),
	)
	sm.syncActors[key] = syncPID
	sm.engine.Send(syncPID, types.SetParentPID{PID: sm.selfPID})

	if runtime.HealthCheck != nil {
		healthPID := c.SpawnChild(
			runtime.HealthCheck,
			"health-check",
			actor.WithID(key),
			actor.WithMaxRestarts(5),
			actor.WithRestartDelay(10*time.Second),
		)
		sm.engine.Send(healthPID, types.SetParentPID{PID: sm.selfPID})
	}

	sm.logger.Infow("network actors spawned",
		"network", key,
		"sync_pid", syncPID.String())
}

func (sm *SyncManagerActor) handleOutcome(event types.SyncOutcomeEvent) {
	if event.Err != "" {
		sm.logger.Errorw("sync run failed",
			"network", event.NetworkKey,
			"final_block", event.FinalBlock,
			"error", event.Err)
		return
	}
	sm.logger.Infow("sync run finished",
		"network", event.NetworkKey,
		"blocks_processed", event.BlocksProcessed,
		"events_applied", event.EventsApplied,
		"final_block", event.FinalBlock,
		"caught_up", event.CaughtUp)
}

// handleChildStopped re-registers a restarted NetworkSyncActor's PID so
// manual triggers keep routing after a crash.
func (sm *SyncManagerActor) handleChildStopped(
	c *actor.Context,
	msg actor.ActorStoppedEvent,
) {
	for key, pid := range sm.syncActors {
		if !pid.Equals(msg.PID) {
			continue
		}
		sm.logger.Warnw("network sync actor stopped",
			"network", key,
			"pid", msg.PID.String())
		metrics.RecordActorRestart("NetworkSync", key)
		delete(sm.syncActors, key)

		for _, runtime := range sm.runtimes {
			if runtime.Config.Key != key {
				continue
			}
			go func(rt NetworkRuntime) {
				time.Sleep(5 * time.Second)
				sm.engine.Send(sm.selfPID, respawnNetwork{Runtime: rt})
			}(runtime)
			break
		}
		return
	}
}

// respawnNetwork asks the manager to bring a stopped network's actors back.
type respawnNetwork struct {
	Runtime NetworkRuntime
}
