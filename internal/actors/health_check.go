package actors

import (
	"context"
	"time"

	"github.com/anthdm/hollywood/actor"
	"github.com/disgoorg/disgo/webhook"
	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/chain"
	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metrics"
	"agentscan/registry-indexer/internal/notifier"
	"agentscan/registry-indexer/internal/types"
)

// NodeHealthStatus represents the health of one network's RPC endpoint.
type NodeHealthStatus struct {
	IsHealthy    bool      `json:"is_healthy"`
	LastChecked  time.Time `json:"last_checked"`
	ChainHeight  uint64    `json:"chain_height"`
	NetworkKey   string    `json:"network_key"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ResponseTime int64     `json:"response_time_ms"`
}

// HealthCheckActor periodically probes one network's RPC endpoint and alerts
// on repeated failures or a chain height that has stopped advancing.
type HealthCheckActor struct {
	networkCfg config.NetworkConfig
	appCfg     *config.Config
	reader     chain.Reader
	logger     *zap.SugaredLogger

	engine    *actor.Engine
	selfPID   *actor.PID
	parentPID *actor.PID

	checkInterval time.Duration
	ticker        *time.Ticker

	currentStatus       NodeHealthStatus
	consecutiveFailures int
	maxFailures         int

	lastAlertTime time.Time
	alertCooldown time.Duration

	// Height stagnation tracking
	lastObservedHeight    uint64
	lastHeightUpdateTime  time.Time
	heightStagnationLimit time.Duration

	discordClient webhook.Client
}

func NewHealthCheckActor(
	networkCfg config.NetworkConfig,
	appCfg *config.Config,
	reader chain.Reader,
) actor.Producer {
	return func() actor.Receiver {
		return &HealthCheckActor{
			networkCfg: networkCfg,
			appCfg:     appCfg,
			reader:     reader,
			logger: logging.GetLogger().
				With("actor", "HealthCheck", "network", networkCfg.Key),
			checkInterval:         appCfg.Sync.HealthCheckInterval,
			maxFailures:           appCfg.Sync.HealthMaxFailures,
			alertCooldown:         appCfg.Sync.HealthAlertCooldown,
			heightStagnationLimit: appCfg.Sync.HeightStagnationLimit,
			lastHeightUpdateTime:  time.Now(),
			currentStatus: NodeHealthStatus{
				IsHealthy:   true,
				LastChecked: time.Now(),
				NetworkKey:  networkCfg.Key,
			},
		}
	}
}

func (h *HealthCheckActor) Receive(c *actor.Context) {
	switch msg := c.Message().(type) {
	case actor.Initialized:
		metrics.RecordActorMessage("HealthCheck", "Initialized")
		h.engine = c.Engine()
		h.selfPID = c.PID()

	case actor.Started:
		metrics.RecordActorMessage("HealthCheck", "Started")
		h.logger.Infow("starting health check actor",
			"check_interval", h.checkInterval,
			"max_failures", h.maxFailures)
		h.startPeriodicHealthCheck()

	case actor.Stopped:
		metrics.RecordActorMessage("HealthCheck", "Stopped")
		h.logger.Info("stopping health check actor")
		if h.ticker != nil {
			h.ticker.Stop()
		}

	case types.SetParentPID:
		h.parentPID = msg.PID

	case types.HealthCheckTick:
		h.performHealthCheck()

	default:
		h.logger.Debugw("received unhandled message", "message_type", msg)
	}
}

func (h *HealthCheckActor) startPeriodicHealthCheck() {
	h.performHealthCheck()

	h.ticker = time.NewTicker(h.checkInterval)

	go func() {
		for range h.ticker.C {
			h.engine.Send(h.selfPID, types.HealthCheckTick{})
		}
	}()
}

func (h *HealthCheckActor) performHealthCheck() {
	h.logger.Debug("performing RPC health check")

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	height, err := h.reader.BlockNumber(ctx)
	responseTime := time.Since(startTime).Milliseconds()

	status := NodeHealthStatus{
		LastChecked:  time.Now(),
		NetworkKey:   h.networkCfg.Key,
		ResponseTime: responseTime,
	}

	if err != nil {
		h.consecutiveFailures++
		status.IsHealthy = false
		status.ErrorMessage = err.Error()

		h.logger.Warnw("RPC health check failed",
			"error", err,
			"consecutive_failures", h.consecutiveFailures,
			"response_time_ms", responseTime)

		if h.consecutiveFailures >= h.maxFailures {
			h.handleCriticalFailure(status)
		}
	} else {
		wasUnhealthy := !h.currentStatus.IsHealthy
		h.consecutiveFailures = 0
		status.IsHealthy = true
		status.ChainHeight = height

		if h.checkHeightStagnation(height) {
			h.handleHeightStagnation(status)
			status.IsHealthy = false
		}

		h.logger.Debugw("RPC health check successful",
			"chain_height", height,
			"response_time_ms", responseTime)

		if wasUnhealthy && status.IsHealthy {
			h.logger.Infow("RPC health recovered", "chain_height", height)
		}
	}

	h.currentStatus = status
	metrics.UpdateNodeHealth(
		h.networkCfg.Key, status.IsHealthy, h.consecutiveFailures,
	)
}

func (h *HealthCheckActor) handleCriticalFailure(status NodeHealthStatus) {
	h.logger.Errorw("RPC health check critical failure threshold reached",
		"consecutive_failures", h.consecutiveFailures,
		"max_failures", h.maxFailures,
		"last_error", status.ErrorMessage)

	if h.appCfg.Logging.LogDiscordWebookURL != "" {
		if opsLogger, err := logging.GetDiscordLogger(h.appCfg); err == nil {
			opsLogger.Errorf(
				"[%s] RPC endpoint failing: %d consecutive failures (%s)",
				h.networkCfg.Name,
				h.consecutiveFailures,
				status.ErrorMessage,
			)
		}
	}

	metrics.RecordNodeCriticalFailure(h.networkCfg.Key)

	if time.Since(h.lastAlertTime) > h.alertCooldown {
		h.sendHealthAlert(status)
		h.lastAlertTime = time.Now()
	}
}

func (h *HealthCheckActor) sendHealthAlert(status NodeHealthStatus) {
	if !h.ensureDiscordClient() {
		return
	}
	message := notifier.BuildNodeHealthAlert(
		h.networkCfg.Name,
		h.consecutiveFailures,
		h.maxFailures,
		status.ErrorMessage,
		status.ResponseTime,
	)
	if _, err := h.discordClient.CreateMessage(message); err != nil {
		h.logger.Errorf("Failed to send webhook: %v", err)
	}
}

// checkHeightStagnation reports whether the chain height has been flat for
// longer than the configured limit.
func (h *HealthCheckActor) checkHeightStagnation(currentHeight uint64) bool {
	now := time.Now()

	if h.lastObservedHeight == 0 || currentHeight > h.lastObservedHeight {
		h.lastObservedHeight = currentHeight
		h.lastHeightUpdateTime = now
		metrics.UpdateHeightStagnation(h.networkCfg.Key, 0)
		return false
	}

	stagnationDuration := now.Sub(h.lastHeightUpdateTime)
	metrics.UpdateHeightStagnation(
		h.networkCfg.Key, int64(stagnationDuration.Seconds()),
	)

	if stagnationDuration >= h.heightStagnationLimit {
		h.logger.Warnw("chain height stagnation detected",
			"current_height", currentHeight,
			"stagnation_duration", stagnationDuration,
			"limit", h.heightStagnationLimit)
		return true
	}

	return false
}

func (h *HealthCheckActor) handleHeightStagnation(status NodeHealthStatus) {
	stagnationDuration := time.Since(h.lastHeightUpdateTime)

	h.logger.Errorw("CRITICAL: chain height has not increased within threshold",
		"current_height", status.ChainHeight,
		"stagnation_duration", stagnationDuration,
		"stagnation_limit", h.heightStagnationLimit)

	metrics.RecordNodeCriticalFailure(h.networkCfg.Key)

	if time.Since(h.lastAlertTime) > h.alertCooldown {
		h.sendHeightStagnationAlert(status, stagnationDuration)
		h.lastAlertTime = time.Now()
	}
}

func (h *HealthCheckActor) sendHeightStagnationAlert(
	status NodeHealthStatus,
	stagnationDuration time.Duration,
) {
	if !h.ensureDiscordClient() {
		return
	}
	message := notifier.BuildHeightStagnationAlert(
		h.networkCfg.Name,
		status.ChainHeight,
		stagnationDuration,
		h.heightStagnationLimit,
	)
	if _, err := h.discordClient.CreateMessage(message); err != nil {
		h.logger.Errorf("Failed to send webhook: %v", err)
	}
}

func (h *HealthCheckActor) ensureDiscordClient() bool {
	if h.discordClient != nil {
		return true
	}
	url := h.appCfg.Notifications.DiscordWebhookURL
	if url == "" {
		return false
	}
	discordClient, err := webhook.NewWithURL(url)
	if err != nil {
		h.logger.Errorf("Failed to initialize Discord client: %v", err)
		return false
	}
	h.discordClient = discordClient
	return true
}
