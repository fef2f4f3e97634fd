package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Identity registry ABI (events only — the indexer never writes).
const registryABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true,  "internalType": "uint256", "name": "agentId",  "type": "uint256"},
      {"indexed": false, "internalType": "string",  "name": "tokenURI", "type": "string"},
      {"indexed": true,  "internalType": "address", "name": "owner",    "type": "address"}
    ],
    "name": "Registered",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true,  "internalType": "uint256", "name": "agentId",   "type": "uint256"},
      {"indexed": false, "internalType": "string",  "name": "newUri",    "type": "string"},
      {"indexed": true,  "internalType": "address", "name": "updatedBy", "type": "address"}
    ],
    "name": "UriUpdated",
    "type": "event"
  }
]`

// Reputation registry ABI: feedback events plus the getSummary view call used
// for read-through reputation updates.
const reputationABIJSON = `[
  {
    "inputs": [
      {"internalType": "uint256",   "name": "agentId",         "type": "uint256"},
      {"internalType": "address[]", "name": "clientAddresses", "type": "address[]"},
      {"internalType": "bytes32",   "name": "tag1",            "type": "bytes32"},
      {"internalType": "bytes32",   "name": "tag2",            "type": "bytes32"}
    ],
    "name": "getSummary",
    "outputs": [
      {"internalType": "uint64", "name": "count",        "type": "uint64"},
      {"internalType": "uint8",  "name": "averageScore", "type": "uint8"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true,  "internalType": "uint256", "name": "agentId",       "type": "uint256"},
      {"indexed": true,  "internalType": "address", "name": "clientAddress", "type": "address"},
      {"indexed": false, "internalType": "uint8",   "name": "score",         "type": "uint8"},
      {"indexed": true,  "internalType": "bytes32", "name": "tag1",          "type": "bytes32"},
      {"indexed": false, "internalType": "bytes32", "name": "tag2",          "type": "bytes32"},
      {"indexed": false, "internalType": "string",  "name": "feedbackUri",   "type": "string"},
      {"indexed": false, "internalType": "bytes32", "name": "feedbackHash",  "type": "bytes32"}
    ],
    "name": "NewFeedback",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "agentId",       "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "clientAddress", "type": "address"},
      {"indexed": true, "internalType": "uint64",  "name": "feedbackIndex", "type": "uint64"}
    ],
    "name": "FeedbackRevoked",
    "type": "event"
  }
]`

var (
	registryABI   abi.ABI
	reputationABI abi.ABI

	registeredTopic      common.Hash
	uriUpdatedTopic      common.Hash
	newFeedbackTopic     common.Hash
	feedbackRevokedTopic common.Hash
)

func init() {
	var err error
	registryABI, err = abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		panic("chain: bad registry ABI: " + err.Error())
	}
	reputationABI, err = abi.JSON(strings.NewReader(reputationABIJSON))
	if err != nil {
		panic("chain: bad reputation ABI: " + err.Error())
	}

	registeredTopic = registryABI.Events["Registered"].ID
	uriUpdatedTopic = registryABI.Events["UriUpdated"].ID
	newFeedbackTopic = reputationABI.Events["NewFeedback"].ID
	feedbackRevokedTopic = reputationABI.Events["FeedbackRevoked"].ID
}
