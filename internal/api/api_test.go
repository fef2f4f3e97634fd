package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthdm/hollywood/actor"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/database"
	"agentscan/registry-indexer/internal/types"
)

// triggerRecorder captures sync trigger messages routed to the manager PID.
type triggerRecorder struct {
	triggers chan types.TriggerSync
}

func (r *triggerRecorder) Receive(c *actor.Context) {
	if msg, ok := c.Message().(types.TriggerSync); ok {
		r.triggers <- msg
	}
}

type testEnv struct {
	router   *gin.Engine
	db       *database.Database
	cfg      *config.Config
	triggers chan types.TriggerSync
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.MaxLimit = 100
	cfg.Networks = []config.NetworkConfig{{
		Key:              "sepolia",
		Name:             "Sepolia",
		ChainID:          11155111,
		RPCURL:           "http://rpc.invalid",
		RegistryContract: "0xregistry",
		StartBlock:       1000,
		Enabled:          true,
	}}

	engine, err := actor.NewEngine(actor.NewEngineConfig())
	require.NoError(t, err)

	recorder := &triggerRecorder{triggers: make(chan types.TriggerSync, 1)}
	managerPID := engine.Spawn(
		func() actor.Receiver { return recorder }, "syncManager",
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("db", db)
		c.Set("cfg", cfg)
		c.Set("engine", engine)
		c.Set("manager_pid", managerPID)
		c.Next()
	})
	router.GET("/healthcheck", handleHealthcheck)
	router.GET("/agents", handleGetAgents)
	router.GET("/agents/:id", handleGetAgent)
	router.GET("/agents/:id/activities", handleGetAgentActivities)
	router.GET("/networks", handleGetNetworks)
	router.GET("/sync/status", handleGetSyncStatus)
	router.POST("/sync/:network/trigger", handleTriggerSync)
	router.POST("/sync/:network/reset", handleResetSync)
	router.GET("/stats", handleGetStatistics)

	return &testEnv{
		router:   router,
		db:       db,
		cfg:      cfg,
		triggers: recorder.triggers,
	}
}

func (e *testEnv) request(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedNetwork(t *testing.T) *database.Network {
	t.Helper()
	network, err := e.db.EnsureNetwork(
		"sepolia", "Sepolia", 11155111,
		"http://rpc.invalid", "https://explorer.invalid",
		"0xregistry", "0xreputation",
	)
	require.NoError(t, err)
	return network
}

func (e *testEnv) seedAgent(t *testing.T, networkID uuid.UUID, tokenID uint64) *database.Agent {
	t.Helper()
	agent := &database.Agent{
		TokenID:      tokenID,
		NetworkID:    networkID,
		Name:         fmt.Sprintf("Agent #%d", tokenID),
		Description:  "No description",
		OwnerAddress: "0xowner",
		Status:       types.AgentStatusActive,
		SyncStatus:   types.AgentSyncStatusSynced,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := e.db.CreateAgent("sepolia", agent)
	require.NoError(t, err)
	return agent
}

func TestHealthcheck(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	_, err := env.db.EnsureSyncCursor("sepolia", "0xregistry", 1000)
	require.NoError(err)

	w := env.request(t, http.MethodGet, "/healthcheck")
	require.Equal(http.StatusOK, w.Code)

	// A cursor in the error state makes the service not ready.
	require.NoError(env.db.MarkSyncError("sepolia", "rpc down"))
	w = env.request(t, http.MethodGet, "/healthcheck")
	require.Equal(http.StatusServiceUnavailable, w.Code)

	var body ReadinessResponse
	require.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	require.False(body.Ready)
	require.Contains(body.Message, "sepolia")
}

func TestGetAgents(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	network := env.seedNetwork(t)
	env.seedAgent(t, network.ID, 1)
	env.seedAgent(t, network.ID, 2)

	w := env.request(t, http.MethodGet, "/agents")
	require.Equal(http.StatusOK, w.Code)

	var body AgentListResponse
	require.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(int64(2), body.Total)
	require.Len(body.Agents, 2)

	w = env.request(t, http.MethodGet, "/agents?network=unknown")
	require.Equal(http.StatusOK, w.Code)
	require.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(int64(0), body.Total)
}

func TestGetAgentsLimitExceeded(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/agents?limit=5000")
	require.Equal(http.StatusBadRequest, w.Code)
}

func TestGetAgentByID(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	network := env.seedNetwork(t)
	agent := env.seedAgent(t, network.ID, 1)

	w := env.request(t, http.MethodGet, "/agents/"+agent.ID.String())
	require.Equal(http.StatusOK, w.Code)

	var got database.Agent
	require.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(agent.ID, got.ID)

	w = env.request(t, http.MethodGet, "/agents/not-a-uuid")
	require.Equal(http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodGet, "/agents/"+uuid.NewString())
	require.Equal(http.StatusNotFound, w.Code)
}

func TestGetAgentActivities(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	network := env.seedNetwork(t)
	agent := env.seedAgent(t, network.ID, 1)

	require.NoError(env.db.AppendActivity(
		agent.ID, types.ActivityTypeRegistered, "registered", nil,
		time.Now().UTC(),
	))

	w := env.request(t, http.MethodGet, "/agents/"+agent.ID.String()+"/activities")
	require.Equal(http.StatusOK, w.Code)

	var body ActivityListResponse
	require.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(int64(1), body.Total)

	w = env.request(t, http.MethodGet, "/agents/"+uuid.NewString()+"/activities")
	require.Equal(http.StatusNotFound, w.Code)
}

func TestGetNetworks(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	env.seedNetwork(t)

	w := env.request(t, http.MethodGet, "/networks")
	require.Equal(http.StatusOK, w.Code)

	var networks []database.Network
	require.NoError(json.Unmarshal(w.Body.Bytes(), &networks))
	require.Len(networks, 1)
	require.Equal("sepolia", networks[0].Key)
}

func TestGetSyncStatus(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	_, err := env.db.EnsureSyncCursor("sepolia", "0xregistry", 1000)
	require.NoError(err)
	require.NoError(env.db.MarkSyncRunning("sepolia", 2000))
	require.NoError(env.db.AdvanceSyncCursor("sepolia", 1500))

	w := env.request(t, http.MethodGet, "/sync/status")
	require.Equal(http.StatusOK, w.Code)

	var body []SyncStatusResponse
	require.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(body, 1)
	require.Equal("sepolia", body[0].NetworkKey)
	require.Equal(uint64(1500), body[0].LastProcessedBlock)
	require.Equal("running", body[0].Status)
	require.InDelta(75.0, body[0].ProgressPercent, 0.001)
}

func TestTriggerSync(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/sync/sepolia/trigger")
	require.Equal(http.StatusAccepted, w.Code)

	select {
	case msg := <-env.triggers:
		require.Equal("sepolia", msg.NetworkKey)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger message never reached the sync manager")
	}

	w = env.request(t, http.MethodPost, "/sync/unknown/trigger")
	require.Equal(http.StatusNotFound, w.Code)
}

func TestResetSync(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	_, err := env.db.EnsureSyncCursor("sepolia", "0xregistry", 1000)
	require.NoError(err)
	require.NoError(env.db.AdvanceSyncCursor("sepolia", 5000))

	w := env.request(t, http.MethodPost, "/sync/sepolia/reset")
	require.Equal(http.StatusOK, w.Code)

	cursor, err := env.db.GetSyncCursor("sepolia")
	require.NoError(err)
	require.Equal(uint64(999), cursor.LastProcessedBlock)

	w = env.request(t, http.MethodPost, "/sync/unknown/reset")
	require.Equal(http.StatusNotFound, w.Code)
}

func TestGetStats(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	network := env.seedNetwork(t)
	env.seedAgent(t, network.ID, 1)

	w := env.request(t, http.MethodGet, "/stats")
	require.Equal(http.StatusOK, w.Code)

	var stats database.Stats
	require.NoError(json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(int64(1), stats.TotalAgents)
	require.Equal(int64(1), stats.ActiveAgents)
}
