package types

// EventMeta carries the on-chain position of a decoded log. Events within a
// batch are applied in ascending (BlockNumber, LogIndex) order.
type EventMeta struct {
	BlockNumber uint64
	LogIndex    uint
	TxHash      string
}

// RegistryEvent is one decoded registry or reputation contract log.
type RegistryEvent interface {
	Meta() EventMeta
}

// AgentRegistered is emitted when a new agent is minted in the identity
// registry.
type AgentRegistered struct {
	EventMeta
	AgentID  uint64
	Owner    string
	TokenURI string
}

// AgentURIUpdated is emitted when an agent's metadata URI changes.
type AgentURIUpdated struct {
	EventMeta
	AgentID   uint64
	NewURI    string
	UpdatedBy string
}

// FeedbackPosted is emitted by the reputation registry on new feedback.
type FeedbackPosted struct {
	EventMeta
	AgentID       uint64
	ClientAddress string
	Score         uint8
}

// FeedbackRevoked is emitted by the reputation registry when feedback is
// withdrawn. The summary must be re-read from chain since the event carries
// no replacement score.
type FeedbackRevoked struct {
	EventMeta
	AgentID       uint64
	ClientAddress string
	FeedbackIndex uint64
}

func (e AgentRegistered) Meta() EventMeta { return e.EventMeta }
func (e AgentURIUpdated) Meta() EventMeta { return e.EventMeta }
func (e FeedbackPosted) Meta() EventMeta  { return e.EventMeta }
func (e FeedbackRevoked) Meta() EventMeta { return e.EventMeta }
