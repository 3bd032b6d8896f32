// Package mission flies a planned route: a callback-driven state machine
// that arms the vehicle, requests a plan, takes off, visits every waypoint,
// lands and hands control back.
package mission

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"grid-motion-planner/internal/export"
	"grid-motion-planner/internal/planner"
)

// ErrAborted is reported when the mission ended without flying because no
// route could be planned.
var ErrAborted = errors.New("mission aborted")

// Vehicle is the command side of the flight controller link.
type Vehicle interface {
	Arm() error
	Disarm() error
	TakeControl() error
	ReleaseControl() error
	Takeoff(altitude float64) error
	CommandPosition(north, east, altitude, heading float64) error
	Land() error
	Stop() error
	// SendWaypoints hands the encoded route to the simulator for display.
	SendWaypoints(data []byte) error
}

// PlanFunc produces the route once the vehicle is armed.
type PlanFunc func(ctx context.Context) ([]planner.Waypoint, error)

// Options are the mission thresholds.
type Options struct {
	TargetAltitude float64
	// TakeoffFraction of TargetAltitude counts as takeoff complete.
	TakeoffFraction float64
	// ProximityThreshold is the horizontal distance at which a waypoint is reached.
	ProximityThreshold    float64
	LandingSpeedThreshold float64
	// DisarmAltitude and DisarmDown bound how close to home the vehicle must be
	// before it is disarmed after landing.
	DisarmAltitude float64
	DisarmDown     float64
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		TargetAltitude:        5,
		TakeoffFraction:       0.95,
		ProximityThreshold:    1.0,
		LandingSpeedThreshold: 1.0,
		DisarmAltitude:        0.1,
		DisarmDown:            0.01,
	}
}

type transition struct {
	state State
	event EventKind
}

// transitionFunc checks the guard for its (state, event) pair and runs the
// transition when it holds.
type transitionFunc func(m *Machine, ctx context.Context, t Telemetry) error

var transitions map[transition]transitionFunc

func init() {
	transitions = map[transition]transitionFunc{
		{Manual, StateEvent}: func(m *Machine, ctx context.Context, t Telemetry) error {
			return m.armingTransition()
		},
		{Arming, StateEvent}: func(m *Machine, ctx context.Context, t Telemetry) error {
			if !t.Armed {
				return nil
			}
			return m.planTransition(ctx)
		},
		{Planning, StateEvent}: func(m *Machine, ctx context.Context, t Telemetry) error {
			return m.takeoffTransition()
		},
		{Takeoff, PositionEvent}: func(m *Machine, ctx context.Context, t Telemetry) error {
			if -t.LocalPosition[2] > m.opts.TakeoffFraction*m.target.Altitude {
				return m.waypointTransition()
			}
			return nil
		},
		{Waypoint, PositionEvent}: func(m *Machine, ctx context.Context, t Telemetry) error {
			dist := math.Hypot(m.target.North-t.LocalPosition[0], m.target.East-t.LocalPosition[1])
			if dist >= m.opts.ProximityThreshold {
				return nil
			}
			if len(m.waypoints) > 0 {
				return m.waypointTransition()
			}
			if math.Hypot(t.LocalVelocity[0], t.LocalVelocity[1]) < m.opts.LandingSpeedThreshold {
				return m.landingTransition()
			}
			return nil
		},
		{Landing, VelocityEvent}: func(m *Machine, ctx context.Context, t Telemetry) error {
			if t.GlobalAltitude-t.HomeAltitude < m.opts.DisarmAltitude && math.Abs(t.LocalPosition[2]) < m.opts.DisarmDown {
				return m.disarmingTransition()
			}
			return nil
		},
		{Disarming, StateEvent}: func(m *Machine, ctx context.Context, t Telemetry) error {
			if t.Armed || t.Guided {
				return nil
			}
			return m.manualTransition()
		},
	}
}

// Machine is the mission state machine. It is driven by Handle and is not
// safe for concurrent use.
type Machine struct {
	vehicle Vehicle
	plan    PlanFunc
	opts    Options
	logger  *zap.SugaredLogger

	state     State
	inMission bool
	target    planner.Waypoint
	waypoints []planner.Waypoint
	route     []planner.Waypoint
	err       error
}

// New returns a machine in the Manual state.
func New(vehicle Vehicle, plan PlanFunc, opts Options, logger *zap.SugaredLogger) *Machine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Machine{
		vehicle:   vehicle,
		plan:      plan,
		opts:      opts,
		logger:    logger,
		state:     Manual,
		inMission: true,
	}
}

// State returns the current flight phase.
func (m *Machine) State() State { return m.state }

// InMission reports whether the mission is still running.
func (m *Machine) InMission() bool { return m.inMission }

// Route returns the planned waypoints, including the ones already flown.
func (m *Machine) Route() []planner.Waypoint { return m.route }

// Err returns ErrAborted, wrapped with the cause, when planning failed.
func (m *Machine) Err() error { return m.err }

// Handle feeds one telemetry callback to the machine. Events that do not
// apply to the current state are ignored. Errors come from the vehicle link.
func (m *Machine) Handle(ctx context.Context, kind EventKind, t Telemetry) error {
	if !m.inMission {
		return nil
	}
	fn, ok := transitions[transition{m.state, kind}]
	if !ok {
		return nil
	}
	return fn(m, ctx, t)
}

func (m *Machine) enter(to State) {
	m.logger.Infow("transition", "from", m.state, "to", to)
	m.state = to
}

func (m *Machine) armingTransition() error {
	m.enter(Arming)
	if err := m.vehicle.Arm(); err != nil {
		return errors.Wrap(err, "failed to arm")
	}
	return errors.Wrap(m.vehicle.TakeControl(), "failed to take control")
}

func (m *Machine) planTransition(ctx context.Context) error {
	m.enter(Planning)
	m.target.Altitude = m.opts.TargetAltitude

	route, err := m.plan(ctx)
	if err == nil && len(route) == 0 {
		err = errors.New("no path to goal")
	}
	if err != nil {
		m.err = errors.Wrap(ErrAborted, err.Error())
		m.logger.Errorw("planning failed, disarming", "error", err)
		return m.disarmingTransition()
	}

	m.route = route
	m.waypoints = append([]planner.Waypoint(nil), route...)
	m.logger.Infow("route planned", "waypoints", len(route))

	data, err := export.EncodeWaypoints(route)
	if err != nil {
		return err
	}
	m.logger.Info("sending waypoints to simulator")
	return errors.Wrap(m.vehicle.SendWaypoints(data), "failed to send waypoints")
}

func (m *Machine) takeoffTransition() error {
	m.enter(Takeoff)
	return errors.Wrap(m.vehicle.Takeoff(m.target.Altitude), "failed to take off")
}

func (m *Machine) waypointTransition() error {
	m.enter(Waypoint)
	m.target, m.waypoints = m.waypoints[0], m.waypoints[1:]
	m.logger.Infow("target position",
		"north", m.target.North, "east", m.target.East,
		"altitude", m.target.Altitude, "heading", m.target.Heading)
	return errors.Wrap(
		m.vehicle.CommandPosition(m.target.North, m.target.East, m.target.Altitude, m.target.Heading),
		"failed to command position")
}

func (m *Machine) landingTransition() error {
	m.enter(Landing)
	return errors.Wrap(m.vehicle.Land(), "failed to land")
}

func (m *Machine) disarmingTransition() error {
	m.enter(Disarming)
	if err := m.vehicle.Disarm(); err != nil {
		return errors.Wrap(err, "failed to disarm")
	}
	return errors.Wrap(m.vehicle.ReleaseControl(), "failed to release control")
}

func (m *Machine) manualTransition() error {
	m.enter(Manual)
	m.inMission = false
	return errors.Wrap(m.vehicle.Stop(), "failed to stop")
}
