package session

// State is the lifecycle state of a live session
type State int32

const (
	// StateIdle means Connect has not been called
	StateIdle State = iota
	// StateConnecting means the transport dial is in progress
	StateConnecting
	// StateAwaitingSetup means setup was sent and no acknowledgement
	// has arrived yet
	StateAwaitingSetup
	// StateStreaming means the session is live and accepting audio
	StateStreaming
	// StateReconnecting means the transport failed and recovery attempts
	// are in progress
	StateReconnecting
	// StateClosed is terminal: disconnected, or reconnection exhausted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingSetup:
		return "awaiting_setup"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
