package chat

// ConnState represents the current state of the room channel.
type ConnState int

const (
	// StateIdle means no channel is established.
	StateIdle ConnState = iota

	// StateConnecting means the channel is being established.
	StateConnecting

	// StateOpen means the channel is established and subscribed.
	StateOpen

	// StateReconnecting means the channel dropped and is being re-established.
	StateReconnecting

	// StateClosing means an explicit teardown is in progress.
	StateClosing
)

// String returns the string representation of a ConnState.
func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// StateEvent represents a state change of the room channel.
type StateEvent struct {
	OldState ConnState
	NewState ConnState
	Error    error // Optional error that caused the state change
}
