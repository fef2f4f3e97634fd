package types

import "github.com/anthdm/hollywood/actor"

// Message to set parent PID for child actors
type SetParentPID struct {
	PID *actor.PID
}

// SyncTick triggers one sync pass for the receiving network actor.
type SyncTick struct{}

// HealthCheckTick triggers a node health probe.
type HealthCheckTick struct{}

// TriggerSync asks the sync manager to run an immediate pass for one network.
type TriggerSync struct {
	NetworkKey string
}

// SyncOutcomeEvent reports the result of one completed sync pass back to the
// manager.
type SyncOutcomeEvent struct {
	NetworkKey      string
	BlocksProcessed uint64
	EventsApplied   int
	FinalBlock      uint64
	CaughtUp        bool
	Err             string
}
