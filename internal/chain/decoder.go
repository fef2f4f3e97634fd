package chain

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"agentscan/registry-indexer/internal/types"
)

// DecodeRegistryLog maps a raw identity-registry log to a domain event.
func DecodeRegistryLog(log ethtypes.Log) (types.RegistryEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}

	switch log.Topics[0] {
	case registeredTopic:
		agentID, err := indexedUint64(log, 1)
		if err != nil {
			return nil, fmt.Errorf("Registered: %w", err)
		}
		owner, err := indexedAddress(log, 2)
		if err != nil {
			return nil, fmt.Errorf("Registered: %w", err)
		}
		var args struct {
			TokenURI string
		}
		if err := registryABI.UnpackIntoInterface(&args, "Registered", log.Data); err != nil {
			return nil, fmt.Errorf("Registered: unpack data: %w", err)
		}
		return types.AgentRegistered{
			EventMeta: metaOf(log),
			AgentID:   agentID,
			Owner:     owner.Hex(),
			TokenURI:  args.TokenURI,
		}, nil

	case uriUpdatedTopic:
		agentID, err := indexedUint64(log, 1)
		if err != nil {
			return nil, fmt.Errorf("UriUpdated: %w", err)
		}
		updatedBy, err := indexedAddress(log, 2)
		if err != nil {
			return nil, fmt.Errorf("UriUpdated: %w", err)
		}
		var args struct {
			NewUri string
		}
		if err := registryABI.UnpackIntoInterface(&args, "UriUpdated", log.Data); err != nil {
			return nil, fmt.Errorf("UriUpdated: unpack data: %w", err)
		}
		return types.AgentURIUpdated{
			EventMeta: metaOf(log),
			AgentID:   agentID,
			NewURI:    args.NewUri,
			UpdatedBy: updatedBy.Hex(),
		}, nil
	}

	return nil, fmt.Errorf("unknown registry event topic %s", log.Topics[0].Hex())
}

// DecodeReputationLog maps a raw reputation-registry log to a domain event.
func DecodeReputationLog(log ethtypes.Log) (types.RegistryEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}

	switch log.Topics[0] {
	case newFeedbackTopic:
		agentID, err := indexedUint64(log, 1)
		if err != nil {
			return nil, fmt.Errorf("NewFeedback: %w", err)
		}
		client, err := indexedAddress(log, 2)
		if err != nil {
			return nil, fmt.Errorf("NewFeedback: %w", err)
		}
		var args struct {
			Score        uint8
			Tag2         [32]byte
			FeedbackUri  string
			FeedbackHash [32]byte
		}
		if err := reputationABI.UnpackIntoInterface(&args, "NewFeedback", log.Data); err != nil {
			return nil, fmt.Errorf("NewFeedback: unpack data: %w", err)
		}
		return types.FeedbackPosted{
			EventMeta:     metaOf(log),
			AgentID:       agentID,
			ClientAddress: client.Hex(),
			Score:         args.Score,
		}, nil

	case feedbackRevokedTopic:
		agentID, err := indexedUint64(log, 1)
		if err != nil {
			return nil, fmt.Errorf("FeedbackRevoked: %w", err)
		}
		client, err := indexedAddress(log, 2)
		if err != nil {
			return nil, fmt.Errorf("FeedbackRevoked: %w", err)
		}
		feedbackIndex, err := indexedUint64(log, 3)
		if err != nil {
			return nil, fmt.Errorf("FeedbackRevoked: %w", err)
		}
		return types.FeedbackRevoked{
			EventMeta:     metaOf(log),
			AgentID:       agentID,
			ClientAddress: client.Hex(),
			FeedbackIndex: feedbackIndex,
		}, nil
	}

	return nil, fmt.Errorf("unknown reputation event topic %s", log.Topics[0].Hex())
}

// SortEvents orders events by (block number, log index) ascending. A later
// URI update must never be overwritten by an earlier one applied out of
// order, so this ordering is applied to every batch before application.
func SortEvents(events []types.RegistryEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Meta(), events[j].Meta()
		if a.BlockNumber != b.BlockNumber {
			return a.BlockNumber < b.BlockNumber
		}
		return a.LogIndex < b.LogIndex
	})
}

func metaOf(log ethtypes.Log) types.EventMeta {
	return types.EventMeta{
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
		TxHash:      log.TxHash.Hex(),
	}
}

func indexedUint64(log ethtypes.Log, pos int) (uint64, error) {
	if len(log.Topics) <= pos {
		return 0, fmt.Errorf("missing indexed arg at topic %d", pos)
	}
	v := new(big.Int).SetBytes(log.Topics[pos].Bytes())
	if !v.IsUint64() {
		return 0, fmt.Errorf("indexed arg at topic %d overflows uint64", pos)
	}
	return v.Uint64(), nil
}

func indexedAddress(log ethtypes.Log, pos int) (common.Address, error) {
	if len(log.Topics) <= pos {
		return common.Address{}, fmt.Errorf("missing indexed arg at topic %d", pos)
	}
	return common.BytesToAddress(log.Topics[pos].Bytes()), nil
}
