package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"agentscan/registry-indexer/internal/types"
)

var (
	testOwner  = common.HexToAddress("0x00000000000000000000000000000000DeaDBeef")
	testClient = common.HexToAddress("0x0000000000000000000000000000000000c0FFee")
	testTx     = common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")
)

func uintTopic(v uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(v))
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func TestDecodeRegisteredLog(t *testing.T) {
	require := require.New(t)

	data, err := registryABI.Events["Registered"].Inputs.NonIndexed().
		Pack("ipfs://QmAgentDoc")
	require.NoError(err)

	log := ethtypes.Log{
		Topics: []common.Hash{
			registeredTopic,
			uintTopic(7),
			addressTopic(testOwner),
		},
		Data:        data,
		BlockNumber: 1200,
		Index:       3,
		TxHash:      testTx,
	}

	event, err := DecodeRegistryLog(log)
	require.NoError(err)

	registered, ok := event.(types.AgentRegistered)
	require.True(ok)
	require.Equal(uint64(7), registered.AgentID)
	require.Equal(testOwner.Hex(), registered.Owner)
	require.Equal("ipfs://QmAgentDoc", registered.TokenURI)
	require.Equal(uint64(1200), registered.Meta().BlockNumber)
	require.Equal(uint(3), registered.Meta().LogIndex)
	require.Equal(testTx.Hex(), registered.Meta().TxHash)
}

func TestDecodeUriUpdatedLog(t *testing.T) {
	require := require.New(t)

	data, err := registryABI.Events["UriUpdated"].Inputs.NonIndexed().
		Pack("https://example.com/agent.json")
	require.NoError(err)

	log := ethtypes.Log{
		Topics: []common.Hash{
			uriUpdatedTopic,
			uintTopic(7),
			addressTopic(testOwner),
		},
		Data:        data,
		BlockNumber: 1300,
		Index:       0,
		TxHash:      testTx,
	}

	event, err := DecodeRegistryLog(log)
	require.NoError(err)

	updated, ok := event.(types.AgentURIUpdated)
	require.True(ok)
	require.Equal(uint64(7), updated.AgentID)
	require.Equal("https://example.com/agent.json", updated.NewURI)
	require.Equal(testOwner.Hex(), updated.UpdatedBy)
}

func TestDecodeNewFeedbackLog(t *testing.T) {
	require := require.New(t)

	data, err := reputationABI.Events["NewFeedback"].Inputs.NonIndexed().
		Pack(uint8(90), [32]byte{}, "ipfs://feedback", [32]byte{})
	require.NoError(err)

	log := ethtypes.Log{
		Topics: []common.Hash{
			newFeedbackTopic,
			uintTopic(7),
			addressTopic(testClient),
			{}, // tag1
		},
		Data:        data,
		BlockNumber: 1400,
		Index:       1,
		TxHash:      testTx,
	}

	event, err := DecodeReputationLog(log)
	require.NoError(err)

	feedback, ok := event.(types.FeedbackPosted)
	require.True(ok)
	require.Equal(uint64(7), feedback.AgentID)
	require.Equal(testClient.Hex(), feedback.ClientAddress)
	require.Equal(uint8(90), feedback.Score)
}

func TestDecodeFeedbackRevokedLog(t *testing.T) {
	require := require.New(t)

	log := ethtypes.Log{
		Topics: []common.Hash{
			feedbackRevokedTopic,
			uintTopic(7),
			addressTopic(testClient),
			uintTopic(2),
		},
		BlockNumber: 1500,
		Index:       4,
		TxHash:      testTx,
	}

	event, err := DecodeReputationLog(log)
	require.NoError(err)

	revoked, ok := event.(types.FeedbackRevoked)
	require.True(ok)
	require.Equal(uint64(7), revoked.AgentID)
	require.Equal(uint64(2), revoked.FeedbackIndex)
}

func TestDecodeUnknownTopics(t *testing.T) {
	require := require.New(t)

	log := ethtypes.Log{
		Topics: []common.Hash{common.HexToHash("0x01")},
	}
	_, err := DecodeRegistryLog(log)
	require.Error(err)
	_, err = DecodeReputationLog(log)
	require.Error(err)

	_, err = DecodeRegistryLog(ethtypes.Log{})
	require.Error(err)
}

func TestDecodeMissingIndexedArgs(t *testing.T) {
	require := require.New(t)

	log := ethtypes.Log{
		Topics: []common.Hash{registeredTopic, uintTopic(7)},
	}
	_, err := DecodeRegistryLog(log)
	require.Error(err)
}

func TestSortEventsOrdering(t *testing.T) {
	require := require.New(t)

	events := []types.RegistryEvent{
		types.AgentURIUpdated{
			EventMeta: types.EventMeta{BlockNumber: 1201, LogIndex: 0},
		},
		types.AgentRegistered{
			EventMeta: types.EventMeta{BlockNumber: 1200, LogIndex: 5},
		},
		types.AgentRegistered{
			EventMeta: types.EventMeta{BlockNumber: 1200, LogIndex: 1},
		},
	}

	SortEvents(events)

	require.Equal(
		types.EventMeta{BlockNumber: 1200, LogIndex: 1},
		events[0].Meta(),
	)
	require.Equal(
		types.EventMeta{BlockNumber: 1200, LogIndex: 5},
		events[1].Meta(),
	)
	require.Equal(
		types.EventMeta{BlockNumber: 1201, LogIndex: 0},
		events[2].Meta(),
	)
}
