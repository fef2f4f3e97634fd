package actors

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/anthdm/hollywood/actor"
	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metrics"
	syncer "agentscan/registry-indexer/internal/sync"
	"agentscan/registry-indexer/internal/types"
)

// NetworkSyncActor schedules sync runs for one network on a fixed cadence.
// Runs execute off the actor goroutine; an atomic in-flight flag drops
// overlapping ticks instead of queueing them, so a slow run never builds a
// backlog of stale triggers.
type NetworkSyncActor struct {
	orchestrator *syncer.Orchestrator
	syncCfg      config.SyncConfig
	logger       *zap.SugaredLogger

	engine    *actor.Engine
	selfPID   *actor.PID
	parentPID *actor.PID

	ticker   *time.Ticker
	inFlight atomic.Bool
}

func NewNetworkSyncActor(
	orchestrator *syncer.Orchestrator,
	syncCfg config.SyncConfig,
) actor.Producer {
	return func() actor.Receiver {
		return &NetworkSyncActor{
			orchestrator: orchestrator,
			syncCfg:      syncCfg,
			logger: logging.GetLogger().
				With("actor", "NetworkSync", "network", orchestrator.NetworkKey()),
		}
	}
}

func (a *NetworkSyncActor) Receive(c *actor.Context) {
	switch msg := c.Message().(type) {
	case actor.Initialized:
		metrics.RecordActorMessage("NetworkSync", "Initialized")
		a.engine = c.Engine()
		a.selfPID = c.PID()

	case actor.Started:
		metrics.RecordActorMessage("NetworkSync", "Started")
		a.logger.Infow("starting network sync actor",
			"interval", a.syncCfg.Interval)
		a.startTicker()

	case actor.Stopped:
		metrics.RecordActorMessage("NetworkSync", "Stopped")
		a.logger.Info("stopping network sync actor")
		if a.ticker != nil {
			a.ticker.Stop()
		}

	case types.SetParentPID:
		a.parentPID = msg.PID

	case types.SyncTick:
		metrics.RecordActorMessage("NetworkSync", "SyncTick")
		a.runSync()

	default:
		a.logger.Debugw("received unhandled message", "message_type", msg)
	}
}

// startTicker fires one immediate sync then settles into the cadence.
func (a *NetworkSyncActor) startTicker() {
	a.engine.Send(a.selfPID, types.SyncTick{})

	a.ticker = time.NewTicker(a.syncCfg.Interval)
	go func() {
		for range a.ticker.C {
			a.engine.Send(a.selfPID, types.SyncTick{})
		}
	}()
}

// runSync starts one run unless a previous one is still in flight. The run
// happens in its own goroutine so the actor keeps receiving messages.
func (a *NetworkSyncActor) runSync() {
	if !a.inFlight.CompareAndSwap(false, true) {
		a.logger.Infow("sync already in progress, dropping tick")
		metrics.MetricSyncRunsSkipped.
			WithLabelValues(a.orchestrator.NetworkKey()).Inc()
		return
	}

	engine, parentPID := a.engine, a.parentPID

	go func() {
		defer a.inFlight.Store(false)

		start := time.Now()
		outcome, err := a.orchestrator.Run(context.Background())
		metrics.RecordProcessingDuration(
			"NetworkSync", "sync_run", time.Since(start).Seconds(),
		)

		event := types.SyncOutcomeEvent{
			NetworkKey:      a.orchestrator.NetworkKey(),
			BlocksProcessed: outcome.BlocksProcessed,
			EventsApplied:   outcome.EventsApplied,
			FinalBlock:      outcome.FinalBlock,
			CaughtUp:        outcome.CaughtUp,
		}
		if err != nil {
			event.Err = err.Error()
		}

		if parentPID != nil {
			engine.Send(parentPID, event)
		}
	}()
}
