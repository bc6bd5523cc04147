package bridge

// State is the bridge lifecycle state.
type State int

// Lifecycle states, in the order the bridge moves through them.
const (
	StateUninitialized State = iota
	StateDiscovering
	StateConnected
	StateRunning
	StateShuttingDown
	StateStopped
)

// String returns a human-readable state name for logging.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDiscovering:
		return "discovering"
	case StateConnected:
		return "connected"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
