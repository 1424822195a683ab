package combat

import "fmt"

// StateError rejects an operation submitted in the wrong session state,
// e.g. an action outside PlayerTurn or loot before Victory. It is
// surfaced synchronously to the caller.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("combat: cannot %s in state %q", e.Op, e.State)
}

// ConflictError marks an operation that is a no-op rather than a
// failure, such as re-entering an already-resolved loot phase.
type ConflictError struct {
	Op     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("combat: %s: %s", e.Op, e.Reason)
}

// ErrLootResolved guards the loot phase against double rewards. Repeat
// resolution attempts get this and nothing else happens.
var ErrLootResolved = &ConflictError{Op: "loot", Reason: "already resolved for this session"}
