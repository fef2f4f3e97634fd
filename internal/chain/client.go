package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"agentscan/registry-indexer/internal/logging"
	"agentscan/registry-indexer/internal/metrics"
	"agentscan/registry-indexer/internal/types"
)

// Reader is the chain access surface the sync orchestrator depends on. All
// methods perform bounded-timeout RPC with fixed-delay retries.
type Reader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (time.Time, error)
	RegistryEvents(ctx context.Context, contract string, fromBlock, toBlock uint64) ([]types.RegistryEvent, error)
	ReputationEvents(ctx context.Context, contract string, fromBlock, toBlock uint64) ([]types.RegistryEvent, error)
	ReputationSummary(ctx context.Context, contract string, agentID uint64) (count uint64, averageScore uint8, err error)
}

// Client wraps a JSON-RPC connection for one network.
type Client struct {
	eth        *ethclient.Client
	networkKey string
	logger     *zap.SugaredLogger

	maxRetries int
	retryDelay time.Duration
	rpcTimeout time.Duration

	// Block timestamps are immutable, so cache headers across batches.
	mu         sync.Mutex
	timestamps map[uint64]time.Time
}

const timestampCacheLimit = 4096

func NewClient(
	networkKey string,
	rpcURL string,
	maxRetries int,
	retryDelay time.Duration,
	rpcTimeout time.Duration,
) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC for %s: %w", networkKey, err)
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		eth:        eth,
		networkKey: networkKey,
		logger: logging.GetLogger().
			With("component", "ChainClient", "network", networkKey),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		rpcTimeout: rpcTimeout,
		timestamps: make(map[uint64]time.Time),
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var height uint64
	err := c.withRetry(ctx, "eth_blockNumber", func(callCtx context.Context) error {
		var err error
		height, err = c.eth.BlockNumber(callCtx)
		return err
	})
	return height, err
}

func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (time.Time, error) {
	c.mu.Lock()
	if ts, ok := c.timestamps[number]; ok {
		c.mu.Unlock()
		return ts, nil
	}
	c.mu.Unlock()

	var ts time.Time
	err := c.withRetry(ctx, "eth_getBlockByNumber", func(callCtx context.Context) error {
		header, err := c.eth.HeaderByNumber(callCtx, new(big.Int).SetUint64(number))
		if err != nil {
			return err
		}
		ts = time.Unix(int64(header.Time), 0).UTC()
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	c.mu.Lock()
	if len(c.timestamps) >= timestampCacheLimit {
		c.timestamps = make(map[uint64]time.Time)
	}
	c.timestamps[number] = ts
	c.mu.Unlock()
	return ts, nil
}

func (c *Client) RegistryEvents(
	ctx context.Context,
	contract string,
	fromBlock, toBlock uint64,
) ([]types.RegistryEvent, error) {
	logs, err := c.filterLogs(
		ctx,
		contract,
		fromBlock,
		toBlock,
		[]common.Hash{registeredTopic, uriUpdatedTopic},
	)
	if err != nil {
		return nil, err
	}

	events := make([]types.RegistryEvent, 0, len(logs))
	for _, log := range logs {
		event, err := DecodeRegistryLog(log)
		if err != nil {
			// A malformed log never aborts the batch; skip it.
			metrics.RecordProcessingError("ChainClient", "DecodeRegistry")
			c.logger.Warnw("skipping undecodable registry log",
				"block", log.BlockNumber,
				"log_index", log.Index,
				"error", err)
			continue
		}
		events = append(events, event)
	}
	SortEvents(events)
	return events, nil
}

func (c *Client) ReputationEvents(
	ctx context.Context,
	contract string,
	fromBlock, toBlock uint64,
) ([]types.RegistryEvent, error) {
	logs, err := c.filterLogs(
		ctx,
		contract,
		fromBlock,
		toBlock,
		[]common.Hash{newFeedbackTopic, feedbackRevokedTopic},
	)
	if err != nil {
		return nil, err
	}

	events := make([]types.RegistryEvent, 0, len(logs))
	for _, log := range logs {
		event, err := DecodeReputationLog(log)
		if err != nil {
			metrics.RecordProcessingError("ChainClient", "DecodeReputation")
			c.logger.Warnw("skipping undecodable reputation log",
				"block", log.BlockNumber,
				"log_index", log.Index,
				"error", err)
			continue
		}
		events = append(events, event)
	}
	SortEvents(events)
	return events, nil
}

// ReputationSummary reads the authoritative (count, averageScore) for an
// agent via getSummary. Feedback events carry insufficient information to
// derive the average locally (revocations), so this is a read against
// current chain state.
func (c *Client) ReputationSummary(
	ctx context.Context,
	contract string,
	agentID uint64,
) (uint64, uint8, error) {
	input, err := reputationABI.Pack(
		"getSummary",
		new(big.Int).SetUint64(agentID),
		[]common.Address{},
		[32]byte{},
		[32]byte{},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to pack getSummary call: %w", err)
	}

	addr := common.HexToAddress(contract)
	msg := ethereum.CallMsg{To: &addr, Data: input}

	var ret []byte
	err = c.withRetry(ctx, "eth_call", func(callCtx context.Context) error {
		var err error
		ret, err = c.eth.CallContract(callCtx, msg, nil)
		return err
	})
	if err != nil {
		return 0, 0, err
	}

	out, err := reputationABI.Unpack("getSummary", ret)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to unpack getSummary result: %w", err)
	}
	if len(out) != 2 {
		return 0, 0, fmt.Errorf("getSummary returned %d values, want 2", len(out))
	}
	count, ok := out[0].(uint64)
	if !ok {
		return 0, 0, fmt.Errorf("getSummary count has unexpected type %T", out[0])
	}
	score, ok := out[1].(uint8)
	if !ok {
		return 0, 0, fmt.Errorf("getSummary averageScore has unexpected type %T", out[1])
	}
	return count, score, nil
}

func (c *Client) filterLogs(
	ctx context.Context,
	contract string,
	fromBlock, toBlock uint64,
	topics []common.Hash,
) ([]ethtypes.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{common.HexToAddress(contract)},
		Topics:    [][]common.Hash{topics},
	}

	var logs []ethtypes.Log
	err := c.withRetry(ctx, "eth_getLogs", func(callCtx context.Context) error {
		var err error
		logs, err = c.eth.FilterLogs(callCtx, query)
		return err
	})
	return logs, err
}

// withRetry runs fn with a per-call timeout, retrying transport failures a
// fixed number of times with a fixed delay between attempts.
func (c *Client) withRetry(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context) error,
) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
		err := fn(callCtx)
		cancel()
		metrics.RecordProcessingDuration(
			"ChainClient",
			operation,
			time.Since(start).Seconds(),
		)
		if err == nil {
			return nil
		}
		lastErr = err
		c.logger.Warnw("RPC call failed",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", c.maxRetries,
			"error", err)
		if attempt < c.maxRetries {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operation, c.maxRetries, lastErr)
}
