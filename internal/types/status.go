package types

// SyncStatus is the state of a network's sync cursor.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusRunning SyncStatus = "running"
	SyncStatusError   SyncStatus = "error"
)

// AgentSyncStatus tracks whether an agent record is fully hydrated from chain.
type AgentSyncStatus string

const (
	AgentSyncStatusSyncing AgentSyncStatus = "syncing"
	AgentSyncStatusSynced  AgentSyncStatus = "synced"
	AgentSyncStatusFailed  AgentSyncStatus = "failed"
)

// AgentStatus is the lifecycle state of an agent.
type AgentStatus string

const (
	AgentStatusActive     AgentStatus = "active"
	AgentStatusInactive   AgentStatus = "inactive"
	AgentStatusValidating AgentStatus = "validating"
)

// ActivityType categorizes append-only activity log entries.
type ActivityType string

const (
	ActivityTypeRegistered         ActivityType = "registered"
	ActivityTypeReputationUpdate   ActivityType = "reputation_update"
	ActivityTypeValidationComplete ActivityType = "validation_complete"
)

// ClassificationSource records where an agent's taxonomy labels came from.
type ClassificationSource string

const (
	ClassificationSourceMetadata ClassificationSource = "metadata"
	ClassificationSourceAI       ClassificationSource = "ai"
)

// Classification holds taxonomy labels assigned to an agent.
type Classification struct {
	Skills  []string
	Domains []string
	Source  *ClassificationSource
}
