package session

// Phase is the connection phase of the single logical session.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseOpen
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// State is the observable connection state. Only the Manager mutates it;
// everyone else reads snapshots via Manager.State() or bus events.
type State struct {
	Phase Phase

	// Set while Phase == PhaseClosed.
	Reason   string
	Code     int
	Terminal bool
}

// ClosedEvent is the bus payload for session.closed / session.terminal.
type ClosedEvent struct {
	Reason   string
	Code     int
	Terminal bool
}
