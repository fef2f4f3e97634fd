// Package sync contains the per-network synchronization state machine. One
// Orchestrator owns one network: it computes the unsynced block range, walks
// it in bounded batches, applies decoded events to the store, and advances
// the durable cursor only after each batch's writes have committed.
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/webhook"
	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/chain"
	"agentscan/registry-indexer/internal/classify"
	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/database"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metadata"
	"agentscan/registry-indexer/internal/metrics"
	"agentscan/registry-indexer/internal/notifier"
	"agentscan/registry-indexer/internal/publisher"
	"agentscan/registry-indexer/internal/types"
)

// Outcome summarizes one sync run for the scheduler and operators.
type Outcome struct {
	BlocksProcessed uint64
	BatchesRun      int
	EventsApplied   int
	FinalBlock      uint64
	CaughtUp        bool
}

// Orchestrator drives sync for a single network. Safe for use by one
// goroutine at a time; the scheduler guarantees runs never overlap.
type Orchestrator struct {
	networkCfg config.NetworkConfig
	syncCfg    config.SyncConfig

	reader     chain.Reader
	db         *database.Database
	resolver   *metadata.Resolver
	classifier classify.Classifier

	publisher     publisher.Publisher // nil when Kafka is not configured
	discordClient webhook.Client      // nil when notifications are not configured

	network *database.Network
	logger  *zap.SugaredLogger
}

// New validates the network configuration, bootstraps the Network row and
// sync cursor, and returns an orchestrator ready to run. A misconfigured
// network fails here so it can be excluded from scheduling.
func New(
	networkCfg config.NetworkConfig,
	syncCfg config.SyncConfig,
	reader chain.Reader,
	db *database.Database,
	resolver *metadata.Resolver,
	classifier classify.Classifier,
	pub publisher.Publisher,
	discordClient webhook.Client,
) (*Orchestrator, error) {
	if err := networkCfg.Validate(); err != nil {
		return nil, fmt.Errorf("network %s: %w", networkCfg.Key, err)
	}

	network, err := db.EnsureNetwork(
		networkCfg.Key,
		networkCfg.Name,
		networkCfg.ChainID,
		networkCfg.RPCURL,
		networkCfg.ExplorerURL,
		networkCfg.RegistryContract,
		networkCfg.ReputationContract,
	)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", networkCfg.Key, err)
	}

	if _, err := db.EnsureSyncCursor(
		networkCfg.Key,
		networkCfg.RegistryContract,
		networkCfg.StartBlock,
	); err != nil {
		return nil, fmt.Errorf("network %s: %w", networkCfg.Key, err)
	}

	return &Orchestrator{
		networkCfg:    networkCfg,
		syncCfg:       syncCfg,
		reader:        reader,
		db:            db,
		resolver:      resolver,
		classifier:    classifier,
		publisher:     pub,
		discordClient: discordClient,
		network:       network,
		logger: logging.GetLogger().
			With("component", "Orchestrator", "network", networkCfg.Key),
	}, nil
}

// NetworkKey returns the network this orchestrator syncs.
func (o *Orchestrator) NetworkKey() string {
	return o.networkCfg.Key
}

// Run executes one bounded sync pass: up to MaxBatchesPerRun batches of
// BlocksPerBatch blocks each. The cursor advances after every committed
// batch, so a mid-run failure loses no progress.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	cursor, err := o.db.EnsureSyncCursor(
		o.networkCfg.Key,
		o.networkCfg.RegistryContract,
		o.networkCfg.StartBlock,
	)
	if err != nil {
		return Outcome{}, err
	}

	height, err := o.reader.BlockNumber(ctx)
	if err != nil {
		msg := fmt.Sprintf("fetch chain height: %v", err)
		o.failRun(cursor.LastProcessedBlock, msg)
		return Outcome{FinalBlock: cursor.LastProcessedBlock}, fmt.Errorf("%s", msg)
	}

	from := cursor.LastProcessedBlock + 1
	if from > height {
		o.logger.Infow("sync skipped, no new blocks",
			"last_processed_block", cursor.LastProcessedBlock,
			"chain_height", height)
		metrics.MetricSyncRunsSkipped.WithLabelValues(o.networkCfg.Key).Inc()
		return Outcome{
			FinalBlock: cursor.LastProcessedBlock,
			CaughtUp:   true,
		}, nil
	}

	if err := o.db.MarkSyncRunning(o.networkCfg.Key, height); err != nil {
		return Outcome{}, err
	}

	o.logger.Infow("sync started",
		"from_block", from,
		"chain_height", height,
		"blocks_behind", height-from+1,
		"max_batches", o.syncCfg.MaxBatchesPerRun)

	outcome := Outcome{FinalBlock: cursor.LastProcessedBlock}
	batchSize := o.batchSize()

	for from <= height && outcome.BatchesRun < o.syncCfg.MaxBatchesPerRun {
		to := min(from+batchSize-1, height)

		applied, err := o.processBatch(ctx, from, to)
		if err != nil {
			msg := truncateError(err)
			o.failRun(outcome.FinalBlock, msg)
			metrics.RecordSyncRun(o.networkCfg.Key, "failed")
			return outcome, fmt.Errorf(
				"batch [%d,%d]: %w", from, to, err,
			)
		}

		if err := o.db.AdvanceSyncCursor(o.networkCfg.Key, to); err != nil {
			return outcome, err
		}
		metrics.UpdateCursorMetrics(o.networkCfg.Key, to, height)
		metrics.MetricBatchesProcessed.WithLabelValues(o.networkCfg.Key).Inc()

		outcome.BatchesRun++
		outcome.BlocksProcessed += to - from + 1
		outcome.EventsApplied += applied
		outcome.FinalBlock = to
		from = to + 1

		if from <= height && outcome.BatchesRun < o.syncCfg.MaxBatchesPerRun {
			select {
			case <-time.After(o.syncCfg.InterBatchDelay):
			case <-ctx.Done():
				return outcome, ctx.Err()
			}
		}
	}

	if err := o.db.MarkSyncIdle(o.networkCfg.Key); err != nil {
		return outcome, err
	}

	outcome.CaughtUp = from > height
	metrics.RecordSyncRun(o.networkCfg.Key, "success")

	o.logger.Infow("sync completed",
		"caught_up", outcome.CaughtUp,
		"batches", outcome.BatchesRun,
		"blocks_processed", outcome.BlocksProcessed,
		"events_applied", outcome.EventsApplied,
		"final_block", outcome.FinalBlock)

	return outcome, nil
}

// processBatch fetches and applies all events in [from, to]. Only fetch
// failures escalate; event-level failures are logged and skipped so one bad
// record never blocks the rest of the batch.
func (o *Orchestrator) processBatch(
	ctx context.Context,
	from, to uint64,
) (int, error) {
	registryEvents, err := o.reader.RegistryEvents(
		ctx, o.networkCfg.RegistryContract, from, to,
	)
	if err != nil {
		return 0, fmt.Errorf("fetch registry events: %w", err)
	}

	var reputationEvents []types.RegistryEvent
	if o.networkCfg.ReputationContract != "" {
		reputationEvents, err = o.reader.ReputationEvents(
			ctx, o.networkCfg.ReputationContract, from, to,
		)
		if err != nil {
			return 0, fmt.Errorf("fetch reputation events: %w", err)
		}
	}

	chain.SortEvents(registryEvents)
	chain.SortEvents(reputationEvents)

	o.logger.Infow("batch fetched",
		"from_block", from,
		"to_block", to,
		"registry_events", len(registryEvents),
		"reputation_events", len(reputationEvents))

	applied := 0
	for _, event := range registryEvents {
		if err := o.applyRegistryEvent(ctx, event); err != nil {
			o.logger.Errorw("event application failed, skipping",
				"block", event.Meta().BlockNumber,
				"tx", event.Meta().TxHash,
				"error", err)
			metrics.RecordProcessingError("orchestrator", "event_apply")
			continue
		}
		applied++
	}

	// Feedback events only matter through the on-chain summary they imply,
	// so one read-through per token per batch is enough. The last event for
	// a token carries the tx hash recorded on the activity.
	lastFeedback := make(map[uint64]types.RegistryEvent)
	for _, event := range reputationEvents {
		switch ev := event.(type) {
		case types.FeedbackPosted:
			lastFeedback[ev.AgentID] = event
		case types.FeedbackRevoked:
			lastFeedback[ev.AgentID] = event
		}
	}
	for _, event := range reputationEvents {
		agentID, ok := feedbackAgentID(event)
		if !ok {
			continue
		}
		last, pending := lastFeedback[agentID]
		if !pending || last.Meta() != event.Meta() {
			continue
		}
		delete(lastFeedback, agentID)
		if err := o.applyFeedback(ctx, agentID, event); err != nil {
			o.logger.Errorw("reputation update failed, skipping",
				"token_id", agentID,
				"tx", event.Meta().TxHash,
				"error", err)
			metrics.RecordProcessingError("orchestrator", "reputation_apply")
			continue
		}
		applied++
	}

	return applied, nil
}

func (o *Orchestrator) applyRegistryEvent(
	ctx context.Context,
	event types.RegistryEvent,
) error {
	switch ev := event.(type) {
	case types.AgentRegistered:
		return o.applyRegistered(ctx, ev)
	case types.AgentURIUpdated:
		return o.applyURIUpdated(ctx, ev)
	default:
		return fmt.Errorf("unexpected registry event %T", event)
	}
}

func (o *Orchestrator) applyRegistered(
	ctx context.Context,
	ev types.AgentRegistered,
) error {
	existing, err := o.db.GetAgentByToken(ev.AgentID, o.network.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		o.logger.Infow("agent already exists", "token_id", ev.AgentID)
		return nil
	}

	blockTime, err := o.reader.BlockTimestamp(ctx, ev.BlockNumber)
	if err != nil {
		return fmt.Errorf("fetch block timestamp: %w", err)
	}

	md := o.resolver.Resolve(ctx, ev.TokenURI)
	name := md.Name
	if name == "" {
		name = fmt.Sprintf("Agent #%d", ev.AgentID)
	}
	description := md.Description
	if description == "" {
		description = "No description"
	}

	classification := o.classifyAgent(ctx, md, name, description)

	now := time.Now().UTC()
	agent := &database.Agent{
		TokenID:      ev.AgentID,
		NetworkID:    o.network.ID,
		Name:         name,
		Description:  description,
		OwnerAddress: strings.ToLower(ev.Owner),
		MetadataURI:  ev.TokenURI,
		OnChainData: database.JSONMap{
			"agentId":  ev.AgentID,
			"owner":    ev.Owner,
			"tokenURI": ev.TokenURI,
		},
		Status:               types.AgentStatusActive,
		SyncStatus:           types.AgentSyncStatusSynced,
		Skills:               database.StringList(classification.Skills),
		Domains:              database.StringList(classification.Domains),
		ClassificationSource: classification.Source,
		EndpointStatus:       endpointStatusCache(md.Endpoints),
		LastSyncedAt:         &now,
		CreatedAt:            blockTime,
	}

	created, err := o.db.CreateAgent(o.networkCfg.Key, agent)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	txHash := ev.TxHash
	activityDesc := fmt.Sprintf(
		"Agent '%s' (#%d) registered on %s",
		name, ev.AgentID, o.networkCfg.Name,
	)
	if err := o.db.AppendActivity(
		agent.ID,
		types.ActivityTypeRegistered,
		activityDesc,
		&txHash,
		blockTime,
	); err != nil {
		return err
	}

	metrics.RecordAgentCreated(o.networkCfg.Key)
	metrics.RecordEventApplied(o.networkCfg.Key, "registered")
	o.logger.Infow("agent created",
		"token_id", ev.AgentID,
		"name", name,
		"registered_at", blockTime)

	o.publish(ctx, publisher.AgentEvent{
		Type:       publisher.EventTypeAgentRegistered,
		NetworkKey: o.networkCfg.Key,
		TokenID:    ev.AgentID,
		AgentName:  name,
		TxHash:     ev.TxHash,
		OccurredAt: blockTime,
	})
	o.notifyRegistered(ev, name)

	return nil
}

func (o *Orchestrator) applyURIUpdated(
	ctx context.Context,
	ev types.AgentURIUpdated,
) error {
	agent, err := o.db.GetAgentByToken(ev.AgentID, o.network.ID)
	if err != nil {
		return err
	}
	if agent == nil {
		o.logger.Warnw("agent not found for URI update, skipping",
			"token_id", ev.AgentID)
		return nil
	}

	md := o.resolver.Resolve(ctx, ev.NewURI)
	name := md.Name
	if name == "" {
		name = agent.Name
	}
	description := md.Description
	if description == "" {
		description = agent.Description
	}

	classification := o.classifyAgent(ctx, md, name, description)

	if err := o.db.UpdateAgentMetadata(
		agent.ID, name, description, ev.NewURI, classification,
		endpointStatusCache(md.Endpoints),
	); err != nil {
		return err
	}

	metrics.RecordEventApplied(o.networkCfg.Key, "uri_updated")
	o.logger.Infow("agent metadata updated", "token_id", ev.AgentID)

	o.publish(ctx, publisher.AgentEvent{
		Type:       publisher.EventTypeAgentUpdated,
		NetworkKey: o.networkCfg.Key,
		TokenID:    ev.AgentID,
		AgentName:  name,
		TxHash:     ev.TxHash,
		OccurredAt: time.Now().UTC(),
	})

	return nil
}

// applyFeedback refreshes an agent's reputation by reading the authoritative
// on-chain summary. The event payload alone is insufficient: revocations
// change the average without carrying a delta.
func (o *Orchestrator) applyFeedback(
	ctx context.Context,
	agentID uint64,
	event types.RegistryEvent,
) error {
	agent, err := o.db.GetAgentByToken(agentID, o.network.ID)
	if err != nil {
		return err
	}
	if agent == nil {
		o.logger.Warnw("agent not found for feedback, skipping",
			"token_id", agentID)
		return nil
	}

	count, averageScore, err := o.reader.ReputationSummary(
		ctx, o.networkCfg.ReputationContract, agentID,
	)
	if err != nil {
		return fmt.Errorf("read reputation summary: %w", err)
	}

	oldScore := agent.ReputationScore
	newScore := float64(averageScore)

	if err := o.db.UpdateAgentReputation(agent.ID, newScore, count); err != nil {
		return err
	}

	if oldScore != newScore {
		txHash := event.Meta().TxHash
		desc := fmt.Sprintf(
			"Reputation updated: %.1f → %.1f (%d reviews)",
			oldScore, newScore, count,
		)
		if err := o.db.AppendActivity(
			agent.ID,
			types.ActivityTypeReputationUpdate,
			desc,
			&txHash,
			time.Now().UTC(),
		); err != nil {
			return err
		}

		o.publish(ctx, publisher.AgentEvent{
			Type:       publisher.EventTypeReputationUpdate,
			NetworkKey: o.networkCfg.Key,
			TokenID:    agentID,
			AgentName:  agent.Name,
			TxHash:     event.Meta().TxHash,
			Score:      newScore,
			Count:      count,
			OccurredAt: time.Now().UTC(),
		})
	}

	metrics.RecordEventApplied(o.networkCfg.Key, "feedback")
	o.logger.Infow("reputation refreshed",
		"token_id", agentID,
		"score", newScore,
		"count", count)

	return nil
}

// classifyAgent picks taxonomy labels: structured metadata wins outright,
// the classifier only runs on descriptions that carry real signal, and any
// classifier failure degrades to no classification.
func (o *Orchestrator) classifyAgent(
	ctx context.Context,
	md metadata.Metadata,
	name, description string,
) types.Classification {
	if classification, ok := md.Taxonomy(); ok {
		o.logger.Infow("taxonomy extracted from metadata",
			"name", name,
			"skills_count", len(classification.Skills),
			"domains_count", len(classification.Domains))
		return classification
	}

	if !classify.ValidDescription(description) {
		o.logger.Debugw("classification skipped, insufficient description",
			"name", name)
		return types.Classification{}
	}

	classification, err := o.classifier.Classify(ctx, name, description)
	if err != nil {
		o.logger.Warnw("classification failed",
			"name", name,
			"error", err)
		return types.Classification{}
	}
	return classification
}

func (o *Orchestrator) publish(ctx context.Context, event publisher.AgentEvent) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warnw("event publish failed",
			"type", event.Type,
			"token_id", event.TokenID,
			"error", err)
	}
}

func (o *Orchestrator) notifyRegistered(ev types.AgentRegistered, name string) {
	if o.discordClient == nil {
		return
	}
	message := notifier.BuildAgentRegisteredMessage(
		o.networkCfg.Name,
		o.networkCfg.ExplorerURL,
		ev.AgentID,
		name,
		ev.Owner,
		ev.TxHash,
	)
	if _, err := o.discordClient.CreateMessage(message); err != nil {
		o.logger.Warnw("discord notification failed", "error", err)
	}
}

// failRun marks the cursor errored and, when configured, alerts operators.
// Prior batch progress is untouched; the next trigger retries the range.
func (o *Orchestrator) failRun(lastProcessedBlock uint64, message string) {
	o.logger.Errorw("sync run failed",
		"last_processed_block", lastProcessedBlock,
		"error", message)

	if err := o.db.MarkSyncError(o.networkCfg.Key, message); err != nil {
		o.logger.Errorw("failed to mark cursor errored", "error", err)
	}

	if o.discordClient != nil {
		alert := notifier.BuildSyncErrorAlert(o.networkCfg.Name, lastProcessedBlock, message)
		if _, err := o.discordClient.CreateMessage(alert); err != nil {
			o.logger.Warnw("discord alert failed", "error", err)
		}
	}
}

func (o *Orchestrator) batchSize() uint64 {
	if o.networkCfg.BlocksPerBatch > 0 {
		return o.networkCfg.BlocksPerBatch
	}
	return o.syncCfg.DefaultBlocksPerBatch
}

// endpointStatusCache seeds the reachability cache with the declared
// endpoint URLs. Statuses start unknown; the scanner fills them in later.
func endpointStatusCache(endpoints []metadata.Endpoint) database.JSONMap {
	if len(endpoints) == 0 {
		return nil
	}
	cache := make(database.JSONMap, len(endpoints))
	for _, ep := range endpoints {
		if ep.URL == "" {
			continue
		}
		cache[ep.URL] = "unknown"
	}
	if len(cache) == 0 {
		return nil
	}
	return cache
}

func feedbackAgentID(event types.RegistryEvent) (uint64, bool) {
	switch ev := event.(type) {
	case types.FeedbackPosted:
		return ev.AgentID, true
	case types.FeedbackRevoked:
		return ev.AgentID, true
	default:
		return 0, false
	}
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}
