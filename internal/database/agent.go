package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agentscan/registry-indexer/internal/metrics"
	"agentscan/registry-indexer/internal/types"
)

// EnsureNetwork bootstraps or fetches the Network row for a configured chain
// and returns it. Matched by unique key; static fields are refreshed so
// config changes propagate on restart.
func (d *Database) EnsureNetwork(
	key, name string,
	chainID uint64,
	rpcURL, explorerURL, registryContract, reputationContract string,
) (*Network, error) {
	var network Network
	err := d.db.Where("key = ?", key).First(&network).Error
	if err == nil {
		updates := map[string]any{
			"name":                name,
			"rpc_url":             rpcURL,
			"explorer_url":        explorerURL,
			"registry_contract":   registryContract,
			"reputation_contract": reputationContract,
		}
		if err := d.db.Model(&network).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to refresh network: %w", err)
		}
		return &network, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get network: %w", err)
	}

	network = Network{
		ID:                 uuid.New(),
		Key:                key,
		Name:               name,
		ChainID:            chainID,
		RPCURL:             rpcURL,
		ExplorerURL:        explorerURL,
		RegistryContract:   registryContract,
		ReputationContract: reputationContract,
		CreatedAt:          time.Now().UTC(),
	}
	if err := d.db.Create(&network).Error; err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	d.logger.Infow("created network record",
		"network", key,
		"chain_id", chainID)
	return &network, nil
}

// CreateAgent inserts a new agent row. A duplicate (token_id, network_id)
// from a concurrent or replayed insert is treated as already-exists: logged,
// counted, and reported via the bool, never as an error.
func (d *Database) CreateAgent(networkKey string, agent *Agent) (created bool, err error) {
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	if err := d.db.Create(agent).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			d.logger.Infow("agent already exists, skipping insert",
				"token_id", agent.TokenID,
				"network", networkKey)
			metrics.RecordDuplicateInsert(networkKey)
			return false, nil
		}
		return false, fmt.Errorf("failed to create agent: %w", err)
	}
	return true, nil
}

// GetAgentByToken looks up an agent by its on-chain identity.
func (d *Database) GetAgentByToken(
	tokenID uint64,
	networkID uuid.UUID,
) (*Agent, error) {
	var agent Agent
	err := d.db.
		Where("token_id = ? AND network_id = ?", tokenID, networkID).
		First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// UpdateAgentMetadata rewrites the metadata-derived fields after a URI
// update. Registration time, reputation fields, and scanner-written endpoint
// statuses are untouched; a nil endpointStatus leaves the cache as is.
func (d *Database) UpdateAgentMetadata(
	agentID uuid.UUID,
	name, description, metadataURI string,
	classification types.Classification,
	endpointStatus JSONMap,
) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"name":                  name,
		"description":           description,
		"metadata_uri":          metadataURI,
		"skills":                StringList(classification.Skills),
		"domains":               StringList(classification.Domains),
		"classification_source": classification.Source,
		"sync_status":           types.AgentSyncStatusSynced,
		"last_synced_at":        now,
	}
	if endpointStatus != nil {
		updates["endpoint_status"] = endpointStatus
	}
	result := d.db.Model(&Agent{}).Where("id = ?", agentID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update agent metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("agent %s not found", agentID)
	}
	return nil
}

// UpdateAgentReputation stores the authoritative on-chain reputation summary.
func (d *Database) UpdateAgentReputation(
	agentID uuid.UUID,
	score float64,
	count uint64,
) error {
	now := time.Now().UTC()
	result := d.db.Model(&Agent{}).
		Where("id = ?", agentID).
		Updates(map[string]any{
			"reputation_score":        score,
			"reputation_count":        count,
			"reputation_last_updated": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update agent reputation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("agent %s not found", agentID)
	}
	return nil
}

// AppendActivity records an immutable activity log entry for an agent.
func (d *Database) AppendActivity(
	agentID uuid.UUID,
	activityType types.ActivityType,
	description string,
	txHash *string,
	createdAt time.Time,
) error {
	activity := Activity{
		ID:           uuid.New(),
		AgentID:      agentID,
		ActivityType: activityType,
		Description:  description,
		TxHash:       txHash,
		CreatedAt:    createdAt,
	}
	if err := d.db.Create(&activity).Error; err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}
