package actors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anthdm/hollywood/actor"
	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/api"
	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/database"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/types"
)

type APIActor struct {
	cfg        *config.Config
	db         *database.Database
	logger     *zap.SugaredLogger
	engine     *actor.Engine
	selfPID    *actor.PID
	managerPID *actor.PID
	server     *http.Server
}

func NewAPIActor(
	cfg *config.Config,
	db *database.Database,
	managerPID *actor.PID,
) actor.Producer {
	return func() actor.Receiver {
		return &APIActor{
			cfg:        cfg,
			db:         db,
			logger:     logging.GetLogger().With("actor", "APIActor"),
			managerPID: managerPID,
		}
	}
}

func (a *APIActor) Receive(c *actor.Context) {
	switch msg := c.Message().(type) {
	case actor.Initialized:
		a.engine, a.selfPID = c.Engine(), c.PID()

	case actor.Started:
		// Wait for managerPID before starting API server
		if a.managerPID != nil {
			if err := a.startAPI(); err != nil {
				a.logger.Fatalw("failed to start API server", "err", err)
			}
		} else {
			a.logger.Info("waiting for sync manager PID before starting API server")
		}

	case actor.Stopped:
		a.shutdown()

	case types.SetParentPID:

	case SetManagerPID:
		a.logger.Infow("received sync manager PID", "pid", msg.PID)
		a.managerPID = msg.PID
		if err := a.startAPI(); err != nil {
			a.logger.Fatalw("failed to start API server", "err", err)
		}
	}
}

// SetManagerPID is a message to set the sync manager PID
type SetManagerPID struct {
	PID *actor.PID
}

func (a *APIActor) startAPI() error {
	if a.managerPID == nil {
		return fmt.Errorf("cannot start API server: sync manager PID not set")
	}

	server, err := api.Start(a.cfg, a.db, a.managerPID, a.engine)
	if err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	a.server = server
	return nil
}

func (a *APIActor) shutdown() {
	if a.server != nil {
		a.logger.Info("shutting down API server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warnw("API server shutdown error", "err", err)
		} else {
			a.logger.Info("API server shutdown complete")
		}
	}
}
