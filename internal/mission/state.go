package mission

// State is a flight phase.
type State int

const (
	Manual State = iota
	Arming
	Planning
	Takeoff
	Waypoint
	Landing
	Disarming
)

func (s State) String() string {
	if s < Manual || s > Disarming {
		return "Unknown"
	}
	return []string{"Manual", "Arming", "Planning", "Takeoff", "Waypoint", "Landing", "Disarming"}[int(s)]
}

// EventKind identifies the telemetry message that triggered a callback.
type EventKind int

const (
	// StateEvent carries armed/guided status changes.
	StateEvent EventKind = iota
	PositionEvent
	VelocityEvent
)

func (k EventKind) String() string {
	switch k {
	case StateEvent:
		return "state"
	case PositionEvent:
		return "position"
	case VelocityEvent:
		return "velocity"
	}
	return "unknown"
}

// Telemetry is the vehicle status seen by the state machine. Local vectors
// are north, east, down.
type Telemetry struct {
	Armed          bool
	Guided         bool
	LocalPosition  [3]float64
	LocalVelocity  [3]float64
	GlobalAltitude float64
	HomeAltitude   float64
}
