package client

// State - client session state.
type State int

const (
	// Disconnected - no connection; the initial and final state.
	Disconnected State = iota
	// Connecting - dialing the server.
	Connecting
	// NegotiatingName - connected, no accepted name yet.
	NegotiatingName
	// LoggedIn - admitted to the chat under the negotiated name.
	LoggedIn
	// Stopping - teardown in progress.
	Stopping
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case NegotiatingName:
		return "negotiating name"
	case LoggedIn:
		return "logged in"
	case Stopping:
		return "stopping"
	default:
		return "unknown state"
	}
}
