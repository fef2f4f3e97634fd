package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"agentscan/registry-indexer/internal/types"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewInMemory()
	require.NoError(t, err)
	return db
}

func newTestNetwork(t *testing.T, db *Database, key string, chainID uint64) *Network {
	t.Helper()
	network, err := db.EnsureNetwork(
		key,
		key+" testnet",
		chainID,
		"http://rpc.invalid",
		"https://explorer.invalid",
		"0xregistry",
		"0xreputation",
	)
	require.NoError(t, err)
	return network
}

func newTestAgent(tokenID uint64, networkID uuid.UUID) *Agent {
	return &Agent{
		TokenID:      tokenID,
		NetworkID:    networkID,
		Name:         fmt.Sprintf("Agent #%d", tokenID),
		Description:  "No description",
		OwnerAddress: "0xowner",
		Status:       types.AgentStatusActive,
		SyncStatus:   types.AgentSyncStatusSynced,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestEnsureNetworkRefreshesConfig(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	first := newTestNetwork(t, db, "sepolia", 11155111)

	// Second ensure with a new RPC URL updates in place.
	second, err := db.EnsureNetwork(
		"sepolia", "sepolia testnet", 11155111,
		"http://rpc2.invalid", "https://explorer.invalid",
		"0xregistry", "0xreputation",
	)
	require.NoError(err)
	require.Equal(first.ID, second.ID)

	networks, err := db.GetNetworks()
	require.NoError(err)
	require.Len(networks, 1)
	require.Equal("http://rpc2.invalid", networks[0].RPCURL)
}

func TestEnsureSyncCursorStartsAtStartBlockMinusOne(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	cursor, err := db.EnsureSyncCursor("sepolia", "0xregistry", 1000)
	require.NoError(err)
	require.Equal(uint64(999), cursor.LastProcessedBlock)
	require.Equal(types.SyncStatusIdle, cursor.Status)

	// Idempotent: a second ensure returns the existing row untouched.
	again, err := db.EnsureSyncCursor("sepolia", "0xregistry", 5000)
	require.NoError(err)
	require.Equal(cursor.ID, again.ID)
	require.Equal(uint64(999), again.LastProcessedBlock)
}

func TestEnsureSyncCursorStartBlockZero(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	cursor, err := db.EnsureSyncCursor("sepolia", "0xregistry", 0)
	require.NoError(err)
	require.Equal(uint64(0), cursor.LastProcessedBlock)
}

func TestSyncCursorLifecycle(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	_, err := db.EnsureSyncCursor("sepolia", "0xregistry", 1000)
	require.NoError(err)

	require.NoError(db.MarkSyncRunning("sepolia", 1250))
	cursor, err := db.GetSyncCursor("sepolia")
	require.NoError(err)
	require.Equal(types.SyncStatusRunning, cursor.Status)
	require.NotNil(cursor.CurrentChainHeight)
	require.Equal(uint64(1250), *cursor.CurrentChainHeight)

	require.NoError(db.AdvanceSyncCursor("sepolia", 1099))
	cursor, err = db.GetSyncCursor("sepolia")
	require.NoError(err)
	require.Equal(uint64(1099), cursor.LastProcessedBlock)
	require.NotNil(cursor.LastSyncedAt)

	require.NoError(db.MarkSyncError("sepolia", "rpc timeout"))
	cursor, err = db.GetSyncCursor("sepolia")
	require.NoError(err)
	require.Equal(types.SyncStatusError, cursor.Status)
	require.NotNil(cursor.LastError)
	require.Equal("rpc timeout", *cursor.LastError)
	// Error does not rewind committed progress.
	require.Equal(uint64(1099), cursor.LastProcessedBlock)

	require.NoError(db.MarkSyncIdle("sepolia"))
	cursor, err = db.GetSyncCursor("sepolia")
	require.NoError(err)
	require.Equal(types.SyncStatusIdle, cursor.Status)
	require.Nil(cursor.LastError)
}

func TestResetSyncCursor(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	_, err := db.EnsureSyncCursor("sepolia", "0xregistry", 1000)
	require.NoError(err)
	require.NoError(db.MarkSyncRunning("sepolia", 1250))
	require.NoError(db.AdvanceSyncCursor("sepolia", 1200))
	require.NoError(db.MarkSyncError("sepolia", "boom"))

	require.NoError(db.ResetSyncCursor("sepolia", 1000))
	cursor, err := db.GetSyncCursor("sepolia")
	require.NoError(err)
	require.Equal(uint64(999), cursor.LastProcessedBlock)
	require.Equal(types.SyncStatusIdle, cursor.Status)
	require.Nil(cursor.CurrentChainHeight)
	require.Nil(cursor.LastError)
	require.Nil(cursor.LastSyncedAt)

	require.Error(db.ResetSyncCursor("unknown", 1000))
}

func TestCursorOperationsRequireRow(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	cursor, err := db.GetSyncCursor("missing")
	require.NoError(err)
	require.Nil(cursor)

	require.Error(db.MarkSyncRunning("missing", 10))
	require.Error(db.AdvanceSyncCursor("missing", 10))
}

func TestCreateAgentDuplicateIsNotAnError(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	network := newTestNetwork(t, db, "sepolia", 11155111)

	created, err := db.CreateAgent("sepolia", newTestAgent(1, network.ID))
	require.NoError(err)
	require.True(created)

	// Same (token_id, network_id): swallowed as already-exists.
	created, err = db.CreateAgent("sepolia", newTestAgent(1, network.ID))
	require.NoError(err)
	require.False(created)

	_, total, err := db.GetAgents(AgentFilter{}, 10, 0)
	require.NoError(err)
	require.Equal(int64(1), total)
}

func TestSameTokenIDAcrossNetworks(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	sepolia := newTestNetwork(t, db, "sepolia", 11155111)
	base := newTestNetwork(t, db, "base-sepolia", 84532)

	created, err := db.CreateAgent("sepolia", newTestAgent(1, sepolia.ID))
	require.NoError(err)
	require.True(created)
	created, err = db.CreateAgent("base-sepolia", newTestAgent(1, base.ID))
	require.NoError(err)
	require.True(created)

	agent, err := db.GetAgentByToken(1, sepolia.ID)
	require.NoError(err)
	require.NotNil(agent)
	require.Equal(sepolia.ID, agent.NetworkID)

	_, total, err := db.GetAgents(AgentFilter{}, 10, 0)
	require.NoError(err)
	require.Equal(int64(2), total)
}

func TestUpdateAgentMetadata(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	network := newTestNetwork(t, db, "sepolia", 11155111)

	agent := newTestAgent(1, network.ID)
	_, err := db.CreateAgent("sepolia", agent)
	require.NoError(err)

	source := types.ClassificationSourceMetadata
	err = db.UpdateAgentMetadata(
		agent.ID,
		"Summarizer",
		"Summarizes long documents into bullet points",
		"ipfs://QmNew",
		types.Classification{
			Skills:  []string{"natural_language_processing/summarization"},
			Domains: []string{"technology/productivity_tools"},
			Source:  &source,
		},
		JSONMap{"https://a.example": "unknown"},
	)
	require.NoError(err)

	got, err := db.GetAgentByID(agent.ID)
	require.NoError(err)
	require.Equal("Summarizer", got.Name)
	require.Equal("ipfs://QmNew", got.MetadataURI)
	require.Equal(StringList{"natural_language_processing/summarization"}, got.Skills)
	require.NotNil(got.ClassificationSource)
	require.Equal(types.ClassificationSourceMetadata, *got.ClassificationSource)
	require.Equal("unknown", got.EndpointStatus["https://a.example"])
	require.NotNil(got.LastSyncedAt)

	require.Error(db.UpdateAgentMetadata(
		uuid.New(), "x", "y", "z", types.Classification{}, nil,
	))
}

func TestUpdateAgentReputation(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	network := newTestNetwork(t, db, "sepolia", 11155111)

	agent := newTestAgent(1, network.ID)
	_, err := db.CreateAgent("sepolia", agent)
	require.NoError(err)

	require.NoError(db.UpdateAgentReputation(agent.ID, 87.0, 12))

	got, err := db.GetAgentByID(agent.ID)
	require.NoError(err)
	require.Equal(87.0, got.ReputationScore)
	require.Equal(uint64(12), got.ReputationCount)
	require.NotNil(got.ReputationLastUpdated)
}

func TestAppendAndListActivities(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	network := newTestNetwork(t, db, "sepolia", 11155111)

	agent := newTestAgent(1, network.ID)
	_, err := db.CreateAgent("sepolia", agent)
	require.NoError(err)

	tx := "0xabc"
	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()
	require.NoError(db.AppendActivity(
		agent.ID, types.ActivityTypeRegistered, "registered", &tx, older,
	))
	require.NoError(db.AppendActivity(
		agent.ID, types.ActivityTypeReputationUpdate, "reputation", nil, newer,
	))

	activities, total, err := db.GetAgentActivities(agent.ID, 10, 0)
	require.NoError(err)
	require.Equal(int64(2), total)
	require.Len(activities, 2)
	// Newest first.
	require.Equal(types.ActivityTypeReputationUpdate, activities[0].ActivityType)
	require.Equal(types.ActivityTypeRegistered, activities[1].ActivityType)
	require.NotNil(activities[1].TxHash)
	require.Equal("0xabc", *activities[1].TxHash)
}

func TestGetAgentsFilters(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	sepolia := newTestNetwork(t, db, "sepolia", 11155111)
	base := newTestNetwork(t, db, "base-sepolia", 84532)

	a := newTestAgent(1, sepolia.ID)
	a.Name = "Contract Reviewer"
	a.Description = "Reviews legal contracts"
	a.Skills = StringList{"natural_language_processing/summarization"}
	a.Domains = StringList{"legal/contract_management"}
	_, err := db.CreateAgent("sepolia", a)
	require.NoError(err)

	b := newTestAgent(2, base.ID)
	b.Name = "Price Oracle"
	b.Status = types.AgentStatusInactive
	_, err = db.CreateAgent("base-sepolia", b)
	require.NoError(err)

	agents, total, err := db.GetAgents(AgentFilter{NetworkKey: "sepolia"}, 10, 0)
	require.NoError(err)
	require.Equal(int64(1), total)
	require.Equal("Contract Reviewer", agents[0].Name)
	require.Equal("sepolia", agents[0].Network.Key)

	_, total, err = db.GetAgents(AgentFilter{Status: "inactive"}, 10, 0)
	require.NoError(err)
	require.Equal(int64(1), total)

	_, total, err = db.GetAgents(AgentFilter{
		Skill: "natural_language_processing/summarization",
	}, 10, 0)
	require.NoError(err)
	require.Equal(int64(1), total)

	_, total, err = db.GetAgents(AgentFilter{Domain: "legal/contract_management"}, 10, 0)
	require.NoError(err)
	require.Equal(int64(1), total)

	_, total, err = db.GetAgents(AgentFilter{Search: "oracle"}, 10, 0)
	require.NoError(err)
	require.Equal(int64(1), total)

	_, total, err = db.GetAgents(AgentFilter{Search: "nothing matches"}, 10, 0)
	require.NoError(err)
	require.Equal(int64(0), total)
}

func TestGetAgentsPagination(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	network := newTestNetwork(t, db, "sepolia", 11155111)

	base := time.Now().UTC()
	for i := uint64(1); i <= 5; i++ {
		agent := newTestAgent(i, network.ID)
		agent.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := db.CreateAgent("sepolia", agent)
		require.NoError(err)
	}

	page1, total, err := db.GetAgents(AgentFilter{}, 2, 0)
	require.NoError(err)
	require.Equal(int64(5), total)
	require.Len(page1, 2)
	// Newest first.
	require.Equal(uint64(5), page1[0].TokenID)
	require.Equal(uint64(4), page1[1].TokenID)

	page2, _, err := db.GetAgents(AgentFilter{}, 2, 2)
	require.NoError(err)
	require.Equal(uint64(3), page2[0].TokenID)
}

func TestGetStats(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	sepolia := newTestNetwork(t, db, "sepolia", 11155111)
	base := newTestNetwork(t, db, "base-sepolia", 84532)

	a := newTestAgent(1, sepolia.ID)
	a.Skills = StringList{"natural_language_processing/summarization"}
	a.ReputationScore = 80
	a.ReputationCount = 4
	_, err := db.CreateAgent("sepolia", a)
	require.NoError(err)

	b := newTestAgent(2, sepolia.ID)
	b.Status = types.AgentStatusInactive
	b.ReputationScore = 90
	b.ReputationCount = 2
	_, err = db.CreateAgent("sepolia", b)
	require.NoError(err)

	c := newTestAgent(3, base.ID)
	_, err = db.CreateAgent("base-sepolia", c)
	require.NoError(err)

	stats, err := db.GetStats()
	require.NoError(err)
	require.Equal(int64(3), stats.TotalAgents)
	require.Equal(int64(2), stats.ActiveAgents)
	require.Equal(int64(1), stats.ClassifiedAgents)
	require.InDelta(85.0, stats.AverageReputationScore, 0.001)

	require.Len(stats.AgentsByNetwork, 2)
	counts := map[string]int64{}
	for _, row := range stats.AgentsByNetwork {
		counts[row.NetworkKey] = row.Count
	}
	require.Equal(int64(2), counts["sepolia"])
	require.Equal(int64(1), counts["base-sepolia"])
}

func TestGetSyncCursorsOrdered(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	_, err := db.EnsureSyncCursor("sepolia", "0xr", 1)
	require.NoError(err)
	_, err = db.EnsureSyncCursor("base-sepolia", "0xr", 1)
	require.NoError(err)

	cursors, err := db.GetSyncCursors()
	require.NoError(err)
	require.Len(cursors, 2)
	require.Equal("base-sepolia", cursors[0].NetworkKey)
	require.Equal("sepolia", cursors[1].NetworkKey)
}
