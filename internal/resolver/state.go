package resolver

// State is a phase of one resolution.
type State int

// Resolution states.
const (
	StateRequesting State = iota
	StateToolPending
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateToolPending:
		return "tool_pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
