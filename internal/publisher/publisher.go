// Package publisher emits domain events to Kafka for downstream consumers
// (search indexers, analytics). Publishing is fire-and-forget from the
// orchestrator's point of view: failures are logged and counted, never
// allowed to block or fail a sync run.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metrics"
)

const writeTimeout = 10 * time.Second

// AgentEvent is the wire format of one published domain event. Key'd on
// network+token so per-agent ordering is preserved within a partition.
type AgentEvent struct {
	Type       string    `json:"type"`
	NetworkKey string    `json:"network_key"`
	TokenID    uint64    `json:"token_id"`
	AgentName  string    `json:"agent_name,omitempty"`
	TxHash     string    `json:"tx_hash,omitempty"`
	Score      float64   `json:"score,omitempty"`
	Count      uint64    `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventTypeAgentRegistered  = "agent_registered"
	EventTypeAgentUpdated     = "agent_updated"
	EventTypeReputationUpdate = "reputation_update"
)

// Publisher is the sink for domain events.
type Publisher interface {
	Publish(ctx context.Context, event AgentEvent) error
	Close() error
}

// KafkaPublisher writes agent events to a single topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.SugaredLogger
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaPublisher{
		writer: writer,
		logger: logging.GetLogger().With("component", "KafkaPublisher"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event AgentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal agent event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%s:%d", event.NetworkKey, event.TokenID)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.MetricPublishFailures.Inc()
		return fmt.Errorf("write kafka message: %w", err)
	}

	metrics.RecordEventPublished(event.Type)
	p.logger.Debugw("published agent event",
		"type", event.Type,
		"network", event.NetworkKey,
		"token_id", event.TokenID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
