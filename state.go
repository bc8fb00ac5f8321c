package portal

// State of a socket.
//
// preparing → connecting → opened → closed → waiting → preparing ...
//
// A socket that was never opened reports StatePreparing.
type State int

const (
	StatePreparing State = iota
	StateConnecting
	StateOpened
	StateClosed
	StateWaiting
)

func (s State) String() string {
	switch s {
	case StatePreparing:
		return "preparing"
	case StateConnecting:
		return "connecting"
	case StateOpened:
		return "opened"
	case StateClosed:
		return "closed"
	case StateWaiting:
		return "waiting"
	}
	return "unknown"
}
