package api

import (
	"fmt"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/anthdm/hollywood/actor"
	scalargo "github.com/bdpiprava/scalar-go"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "agentscan/registry-indexer/docs"
	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/database"
	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/types"
)

//	@title			Agent Registry Indexer API
//	@version	    1.0.0

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/

//	@tag.name				agents
//	@tag.description		Agent registry queries

//	@tag.name				sync
//	@tag.description		Sync cursor status and administration

//	@tag.name				system
//	@tag.description		System status and health monitoring endpoints

//	@schemes	http https

var scalarHTML []byte
var scalarHTMLGenerationErr error

func generateScalarDocs() {

	specDir := "./docs"

	baseFileName := "swagger.json"

	htmlContent, err := scalargo.NewV2(
		scalargo.WithSpecDir(specDir),
		scalargo.WithBaseFileName(baseFileName),
		scalargo.WithTheme(scalargo.ThemeBluePlanet),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Agent Registry Indexer API"),
		),
		scalargo.WithLayout(scalargo.LayoutClassic),
	)

	if err != nil {
		scalarHTMLGenerationErr = fmt.Errorf(
			"failed to generate Scalar documentation: %w",
			err,
		)
		logging.GetLogger().
			Error("Failed to generate Scalar documentation", "error", scalarHTMLGenerationErr)
		scalarHTML = nil
		return
	}
	scalarHTML = []byte(htmlContent)
	scalarHTMLGenerationErr = nil
	logging.GetLogger().Info("Scalar API documentation generated successfully.")
}

func Start(
	cfg *config.Config,
	db *database.Database,
	managerPID *actor.PID,
	engine *actor.Engine,
) (*http.Server, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Set("db", db)
		c.Set("cfg", cfg)
		c.Set("engine", engine)
		c.Set("manager_pid", managerPID)
		c.Next()
	})

	logger := logging.GetLogger()
	router.Use(ginzap.GinzapWithConfig(logger.Desugar(), &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
	}))
	router.Use(ginzap.RecoveryWithZap(logger.Desugar(), true))

	// Health check endpoint
	router.GET("/healthcheck", handleHealthcheck)

	// Agent endpoints
	router.GET("/agents", handleGetAgents)
	router.GET("/agents/:id", handleGetAgent)
	router.GET("/agents/:id/activities", handleGetAgentActivities)

	// Network and sync endpoints
	router.GET("/networks", handleGetNetworks)
	router.GET("/sync/status", handleGetSyncStatus)
	router.POST("/sync/:network/trigger", handleTriggerSync)
	router.POST("/sync/:network/reset", handleResetSync)

	// Statistics endpoint
	router.GET("/stats", handleGetStatistics)

	// Setup metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Server.EnableDebug {
		debugGroup := router.Group("/debug/pprof")
		{
			debugGroup.GET("/", gin.WrapF(pprof.Index))
			debugGroup.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			debugGroup.GET("/profile", gin.WrapF(pprof.Profile))
			debugGroup.POST("/symbol", gin.WrapF(pprof.Symbol))
			debugGroup.GET("/symbol", gin.WrapF(pprof.Symbol))
			debugGroup.GET("/trace", gin.WrapF(pprof.Trace))
			debugGroup.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
			debugGroup.GET("/block", gin.WrapH(pprof.Handler("block")))
			debugGroup.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
			debugGroup.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			debugGroup.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
			debugGroup.GET(
				"/threadcreate",
				gin.WrapH(pprof.Handler("threadcreate")),
			)
		}
	}

	// Generate and setup API docs
	generateScalarDocs()
	router.GET("/docs", func(c *gin.Context) {
		if scalarHTMLGenerationErr != nil {
			logger.Error(
				"API documentation unavailable",
				"error",
				scalarHTMLGenerationErr,
			)
			c.String(
				http.StatusNotFound,
				"API documentation is currently unavailable.",
			)
			return
		}
		if scalarHTML == nil {
			c.String(
				http.StatusNotFound,
				"API documentation is currently unavailable (not generated).",
			)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", scalarHTML)
	})

	serverAddr := fmt.Sprintf("%s:%d",
		cfg.Server.ListenAddress,
		cfg.Server.ListenPort,
	)

	logger.Info("Starting API server", "address", serverAddr)
	logger.Info("API Documentation available at /docs")
	logger.Info("Metrics available at /metrics")
	if cfg.Server.EnableDebug {
		logger.Info("Debug endpoints available at /debug/pprof/*")
	}

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error("API server failed", "error", err)
		}
	}()

	return server, nil
}

// handleHealthcheck godoc
//
//	@Summary		Health Check
//	@Description	Returns 200 when no network cursor is in the error state; 503 otherwise, with the failing networks listed
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	ReadinessResponse	"Service is ready"
//	@Success		503	{object}	ReadinessResponse	"Service is not ready"
//	@Router			/healthcheck [get]
func handleHealthcheck(c *gin.Context) {
	db := c.MustGet("db").(*database.Database)

	cursors, err := db.GetSyncCursors()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ReadinessResponse{
			Ready:   false,
			Message: fmt.Sprintf("store unavailable: %v", err),
		})
		return
	}

	var failing []string
	for _, cursor := range cursors {
		if cursor.Status == types.SyncStatusError {
			failing = append(failing, cursor.NetworkKey)
		}
	}
	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, ReadinessResponse{
			Ready:   false,
			Message: fmt.Sprintf("networks in error state: %v", failing),
		})
		return
	}

	c.JSON(http.StatusOK, ReadinessResponse{Ready: true})
}

// handleGetAgents godoc
//
//	@Summary		List Agents
//	@Description	Lists indexed agents newest-first, filterable by network, status, taxonomy labels and free-text search
//	@Tags			agents
//	@Produce		json
//	@Param			network	query		string				false	"Network key filter"
//	@Param			status	query		string				false	"Agent status filter (active, inactive, validating)"
//	@Param			skill	query		string				false	"Skill slug filter"
//	@Param			domain	query		string				false	"Domain slug filter"
//	@Param			search	query		string				false	"Free-text search on name and description"
//	@Param			limit	query		int					false	"Number of agents to return (default 100)"
//	@Param			offset	query		int					false	"Number of agents to skip (default 0)"
//	@Success		200		{object}	AgentListResponse	"List of agents successfully retrieved"
//	@Failure		500		{object}	HTTPError			"Internal server error"
//	@Router			/agents [get]
func handleGetAgents(c *gin.Context) {
	db := c.MustGet("db").(*database.Database)

	limit, offset := getPaginationParams(c)
	if c.IsAborted() {
		return
	}

	filter := database.AgentFilter{
		NetworkKey: c.Query("network"),
		Status:     c.Query("status"),
		Skill:      c.Query("skill"),
		Domain:     c.Query("domain"),
		Search:     c.Query("search"),
	}

	agents, total, err := db.GetAgents(filter, limit, offset)
	if err != nil {
		ServerError(c, fmt.Errorf("failed to get agents: %w", err))
		return
	}

	c.JSON(http.StatusOK, AgentListResponse{
		Agents: agents,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// handleGetAgent godoc
//
//	@Summary		Get Agent
//	@Description	Retrieves one agent by its identifier
//	@Tags			agents
//	@Produce		json
//	@Param			id	path		string			true	"Agent UUID"
//	@Success		200	{object}	database.Agent	"Agent successfully retrieved"
//	@Failure		400	{object}	HTTPError		"Invalid agent id"
//	@Failure		404	{object}	HTTPError		"Agent not found"
//	@Failure		500	{object}	HTTPError		"Internal server error"
//	@Router			/agents/{id} [get]
func handleGetAgent(c *gin.Context) {
	db := c.MustGet("db").(*database.Database)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, fmt.Errorf("%w: id must be a UUID", ErrInvalidRequest))
		return
	}

	agent, err := db.GetAgentByID(id)
	if err != nil {
		ServerError(c, fmt.Errorf("failed to get agent: %w", err))
		return
	}
	if agent == nil {
		NotFound(c)
		return
	}

	c.JSON(http.StatusOK, agent)
}

// handleGetAgentActivities godoc
//
//	@Summary		Get Agent Activities
//	@Description	Lists an agent's activity log newest-first
//	@Tags			agents
//	@Produce		json
//	@Param			id		path		string					true	"Agent UUID"
//	@Param			limit	query		int						false	"Number of activities to return (default 100)"
//	@Param			offset	query		int						false	"Number of activities to skip (default 0)"
//	@Success		200		{object}	ActivityListResponse	"Activities successfully retrieved"
//	@Failure		400		{object}	HTTPError				"Invalid agent id"
//	@Failure		404		{object}	HTTPError				"Agent not found"
//	@Failure		500		{object}	HTTPError				"Internal server error"
//	@Router			/agents/{id}/activities [get]
func handleGetAgentActivities(c *gin.Context) {
	db := c.MustGet("db").(*database.Database)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, fmt.Errorf("%w: id must be a UUID", ErrInvalidRequest))
		return
	}

	limit, offset := getPaginationParams(c)
	if c.IsAborted() {
		return
	}

	agent, err := db.GetAgentByID(id)
	if err != nil {
		ServerError(c, fmt.Errorf("failed to get agent: %w", err))
		return
	}
	if agent == nil {
		NotFound(c)
		return
	}

	activities, total, err := db.GetAgentActivities(id, limit, offset)
	if err != nil {
		ServerError(c, fmt.Errorf("failed to get activities: %w", err))
		return
	}

	c.JSON(http.StatusOK, ActivityListResponse{
		Activities: activities,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
	})
}

// handleGetNetworks godoc
//
//	@Summary		List Networks
//	@Description	Lists all networks known to the indexer
//	@Tags			sync
//	@Produce		json
//	@Success		200	{array}		database.Network	"Networks successfully retrieved"
//	@Failure		500	{object}	HTTPError			"Internal server error"
//	@Router			/networks [get]
func handleGetNetworks(c *gin.Context) {
	db := c.MustGet("db").(*database.Database)

	networks, err := db.GetNetworks()
	if err != nil {
		ServerError(c, fmt.Errorf("failed to get networks: %w", err))
		return
	}

	c.JSON(http.StatusOK, networks)
}

// handleGetSyncStatus godoc
//
//	@Summary		Sync Status
//	@Description	Reports each network's cursor position, state and progress percentage
//	@Tags			sync
//	@Produce		json
//	@Success		200	{array}		SyncStatusResponse	"Cursor states successfully retrieved"
//	@Failure		500	{object}	HTTPError			"Internal server error"
//	@Router			/sync/status [get]
func handleGetSyncStatus(c *gin.Context) {
	db := c.MustGet("db").(*database.Database)

	cursors, err := db.GetSyncCursors()
	if err != nil {
		ServerError(c, fmt.Errorf("failed to get sync cursors: %w", err))
		return
	}

	out := make([]SyncStatusResponse, len(cursors))
	for i, cursor := range cursors {
		resp := SyncStatusResponse{
			NetworkKey:         cursor.NetworkKey,
			ContractAddress:    cursor.ContractAddress,
			LastProcessedBlock: cursor.LastProcessedBlock,
			CurrentChainHeight: cursor.CurrentChainHeight,
			Status:             string(cursor.Status),
			LastError:          cursor.LastError,
			LastSyncedAt:       cursor.LastSyncedAt,
		}
		if cursor.CurrentChainHeight != nil && *cursor.CurrentChainHeight > 0 {
			resp.ProgressPercent = progressPercent(
				cursor.LastProcessedBlock, *cursor.CurrentChainHeight,
			)
		}
		out[i] = resp
	}

	c.JSON(http.StatusOK, out)
}

// handleTriggerSync godoc
//
//	@Summary		Trigger Sync
//	@Description	Queues an immediate sync pass for one network; a pass already in flight makes this a no-op
//	@Tags			sync
//	@Produce		json
//	@Param			network	path		string				true	"Network key"
//	@Success		202		{object}	map[string]string	"Sync triggered"
//	@Failure		404		{object}	HTTPError			"Unknown network"
//	@Router			/sync/{network}/trigger [post]
func handleTriggerSync(c *gin.Context) {
	cfg := c.MustGet("cfg").(*config.Config)
	engine := c.MustGet("engine").(*actor.Engine)
	managerPID := c.MustGet("manager_pid").(*actor.PID)

	networkKey := c.Param("network")
	network := cfg.Network(networkKey)
	if network == nil || !network.Enabled {
		NotFound(c)
		return
	}

	engine.Send(managerPID, types.TriggerSync{NetworkKey: networkKey})

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "triggered",
		"network": networkKey,
	})
}

// handleResetSync godoc
//
//	@Summary		Reset Sync Cursor
//	@Description	Rewinds a network's cursor to its configured start block so the next run rescans from genesis
//	@Tags			sync
//	@Produce		json
//	@Param			network	path		string				true	"Network key"
//	@Success		200		{object}	map[string]string	"Cursor reset"
//	@Failure		404		{object}	HTTPError			"Unknown network"
//	@Failure		500		{object}	HTTPError			"Internal server error"
//	@Router			/sync/{network}/reset [post]
func handleResetSync(c *gin.Context) {
	cfg := c.MustGet("cfg").(*config.Config)
	db := c.MustGet("db").(*database.Database)

	networkKey := c.Param("network")
	network := cfg.Network(networkKey)
	if network == nil {
		NotFound(c)
		return
	}

	if err := db.ResetSyncCursor(networkKey, network.StartBlock); err != nil {
		ServerError(c, fmt.Errorf("failed to reset cursor: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "reset",
		"network":     networkKey,
		"start_block": strconv.FormatUint(network.StartBlock, 10),
	})
}

// handleGetStatistics godoc
//
//	@Summary		Get Global Statistics
//	@Description	Retrieves aggregate statistics about indexed agents
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	database.Stats	"Statistics successfully retrieved"
//	@Failure		500	{object}	HTTPError		"Internal server error"
//	@Router			/stats [get]
func handleGetStatistics(c *gin.Context) {
	db := c.MustGet("db").(*database.Database)

	stats, err := db.GetStats()
	if err != nil {
		ServerError(c, fmt.Errorf("failed to get statistics: %w", err))
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Response types for documentation

// AgentListResponse is a paged agent listing.
// @Description Paged list of agents with the unfiltered total
type AgentListResponse struct {
	Agents []database.Agent `json:"agents"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ActivityListResponse is a paged activity listing.
// @Description Paged list of one agent's activities
type ActivityListResponse struct {
	Activities []database.Activity `json:"activities"`
	Total      int64               `json:"total"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

// SyncStatusResponse is one network's cursor state.
// @Description Sync cursor state and progress for one network
type SyncStatusResponse struct {
	NetworkKey         string     `json:"network_key"`
	ContractAddress    string     `json:"contract_address"`
	LastProcessedBlock uint64     `json:"last_processed_block"`
	CurrentChainHeight *uint64    `json:"current_chain_height"`
	Status             string     `json:"status"`
	LastError          *string    `json:"last_error,omitempty"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
	ProgressPercent    float64    `json:"progress_percent"`
}

type ReadinessResponse struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

// Helper functions
func getPaginationParams(c *gin.Context) (limit, offset int) {
	cfg := c.MustGet("cfg").(*config.Config)
	limit = parseIntWithDefault(c.Query("limit"), 100)
	offset = parseIntWithDefault(c.Query("offset"), 0)

	// Enforce max limit if configured
	if cfg.Server.MaxLimit > 0 && limit > cfg.Server.MaxLimit {
		LimitExceeded(c, cfg.Server.MaxLimit)
		c.Abort()
		return 0, 0
	}

	return limit, offset
}

func parseIntWithDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func progressPercent(lastProcessed, chainHeight uint64) float64 {
	if chainHeight == 0 {
		return 0
	}
	pct := float64(lastProcessed) / float64(chainHeight) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
