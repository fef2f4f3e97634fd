package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agentscan/registry-indexer/internal/types"
)

// MigrateModels contains a list of database model types to perform automatic migrations
// on at startup
var MigrateModels = []any{
	&Network{},
	&Agent{},
	&Activity{},
	&SyncCursor{},
}

// StringList stores a JSON array of strings in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// JSONMap stores an arbitrary JSON object in a text column. Used for the raw
// on-chain event payload kept alongside each agent.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for JSONMap", value)
	}
}

type Network struct {
	ID                 uuid.UUID `gorm:"primaryKey;type:uuid"      json:"id"`
	Key                string    `gorm:"type:text;unique;not null" json:"key"`
	Name               string    `gorm:"type:text;not null"        json:"name"`
	ChainID            uint64    `gorm:"unique;not null"           json:"chain_id"`
	RPCURL             string    `gorm:"type:text;not null"        json:"rpc_url"`
	ExplorerURL        string    `gorm:"type:text"                 json:"explorer_url"`
	RegistryContract   string    `gorm:"type:text;not null"        json:"registry_contract"`
	ReputationContract string    `gorm:"type:text"                 json:"reputation_contract"`
	CreatedAt          time.Time `gorm:"not null"                  json:"created_at"`
}

func (Network) TableName() string {
	return "network"
}

type Agent struct {
	ID        uuid.UUID `gorm:"primaryKey;type:uuid"                              json:"id"`
	TokenID   uint64    `gorm:"not null;uniqueIndex:idx_agent_token_network"      json:"token_id"`
	NetworkID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_agent_token_network" json:"network_id"`

	Name         string `gorm:"type:text;not null;index" json:"name"`
	Description  string `gorm:"type:text;not null"       json:"description"`
	OwnerAddress string `gorm:"type:text;not null;index" json:"owner_address"`
	MetadataURI  string `gorm:"type:text"                json:"metadata_uri"`
	OnChainData  JSONMap `gorm:"type:text"               json:"on_chain_data"`

	Status     types.AgentStatus     `gorm:"type:text;not null" json:"status"`
	SyncStatus types.AgentSyncStatus `gorm:"type:text;not null" json:"sync_status"`

	ReputationScore       float64    `gorm:"not null" json:"reputation_score"`
	ReputationCount       uint64     `gorm:"not null" json:"reputation_count"`
	ReputationLastUpdated *time.Time `               json:"reputation_last_updated"`

	Skills               StringList                  `gorm:"type:text" json:"skills"`
	Domains              StringList                  `gorm:"type:text" json:"domains"`
	ClassificationSource *types.ClassificationSource `gorm:"type:text" json:"classification_source"`

	// Reachability cache for declared endpoints, keyed by URL. Written by
	// the external endpoint scanner; the sync path only seeds new entries.
	EndpointStatus JSONMap `gorm:"type:text" json:"endpoint_status,omitempty"`

	LastSyncedAt *time.Time `json:"last_synced_at"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null"       json:"updated_at"`

	// Foreign key relationships
	Network    Network    `gorm:"foreignKey:NetworkID;references:ID"                         json:"-"`
	Activities []Activity `gorm:"foreignKey:AgentID;references:ID;constraint:OnDelete:CASCADE" json:"activities,omitempty"`
}

func (Agent) TableName() string {
	return "agent"
}

type Activity struct {
	ID           uuid.UUID          `gorm:"primaryKey;type:uuid" json:"id"`
	AgentID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"agent_id"`
	ActivityType types.ActivityType `gorm:"type:text;not null"       json:"activity_type"`
	Description  string             `gorm:"type:text;not null"       json:"description"`
	TxHash       *string            `gorm:"type:text"                json:"tx_hash"`
	CreatedAt    time.Time          `gorm:"not null;index"           json:"created_at"`

	// Foreign key relationships
	Agent Agent `gorm:"foreignKey:AgentID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Activity) TableName() string {
	return "activity"
}

// SyncCursor is the durable bookmark of sync progress, one row per network.
type SyncCursor struct {
	ID                 uuid.UUID        `gorm:"primaryKey;type:uuid"      json:"id"`
	NetworkKey         string           `gorm:"type:text;unique;not null" json:"network_key"`
	ContractAddress    string           `gorm:"type:text;not null"        json:"contract_address"`
	LastProcessedBlock uint64           `gorm:"not null"                  json:"last_processed_block"`
	CurrentChainHeight *uint64          `                                 json:"current_chain_height"`
	Status             types.SyncStatus `gorm:"type:text;not null"        json:"status"`
	LastError          *string          `gorm:"type:text"                 json:"last_error"`
	LastSyncedAt       *time.Time       `                                 json:"last_synced_at"`
	CreatedAt          time.Time        `gorm:"not null"                  json:"created_at"`
	UpdatedAt          time.Time        `gorm:"not null"                  json:"updated_at"`
}

func (SyncCursor) TableName() string {
	return "sync_cursor"
}
