package mission

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

var errNotArmed = errors.New("vehicle is not armed")

// SimVehicle is an in-process vehicle that flies straight at a fixed speed
// toward the last commanded target. Position and velocity are local
// north/east/down.
type SimVehicle struct {
	// Speed is the distance covered per Step.
	Speed        float64
	HomeAltitude float64

	armed, guided bool
	stopped       bool
	position      [3]float64
	velocity      [3]float64
	target        [3]float64

	// Sent holds every payload passed to SendWaypoints.
	Sent [][]byte
	// Commands records the accepted commands in order.
	Commands []string
}

// NewSimVehicle returns a disarmed vehicle resting at the given local
// position on the ground.
func NewSimVehicle(north, east, speed float64) *SimVehicle {
	pos := [3]float64{north, east, 0}
	return &SimVehicle{Speed: speed, position: pos, target: pos}
}

func (s *SimVehicle) record(cmd string) { s.Commands = append(s.Commands, cmd) }

func (s *SimVehicle) Arm() error {
	s.record("arm")
	s.armed = true
	return nil
}

func (s *SimVehicle) Disarm() error {
	s.record("disarm")
	s.armed = false
	return nil
}

func (s *SimVehicle) TakeControl() error {
	s.record("take_control")
	s.guided = true
	return nil
}

func (s *SimVehicle) ReleaseControl() error {
	s.record("release_control")
	s.guided = false
	return nil
}

func (s *SimVehicle) Takeoff(altitude float64) error {
	if !s.armed {
		return errNotArmed
	}
	s.record("takeoff")
	s.target = [3]float64{s.position[0], s.position[1], -altitude}
	return nil
}

func (s *SimVehicle) CommandPosition(north, east, altitude, heading float64) error {
	if !s.armed {
		return errNotArmed
	}
	s.record("position")
	s.target = [3]float64{north, east, -altitude}
	return nil
}

func (s *SimVehicle) Land() error {
	s.record("land")
	s.target = [3]float64{s.position[0], s.position[1], 0}
	return nil
}

func (s *SimVehicle) Stop() error {
	s.record("stop")
	s.stopped = true
	return nil
}

func (s *SimVehicle) SendWaypoints(data []byte) error {
	s.Sent = append(s.Sent, data)
	return nil
}

// Stopped reports whether Stop was called.
func (s *SimVehicle) Stopped() bool { return s.stopped }

// Step advances the simulation by one tick.
func (s *SimVehicle) Step() {
	var delta [3]float64
	dist := 0.0
	for i := range delta {
		delta[i] = s.target[i] - s.position[i]
		dist += delta[i] * delta[i]
	}
	dist = math.Sqrt(dist)

	if dist <= s.Speed {
		s.velocity = delta
		s.position = s.target
		return
	}
	for i := range delta {
		s.velocity[i] = delta[i] / dist * s.Speed
		s.position[i] += s.velocity[i]
	}
}

// Telemetry returns the current vehicle status.
func (s *SimVehicle) Telemetry() Telemetry {
	return Telemetry{
		Armed:          s.armed,
		Guided:         s.guided,
		LocalPosition:  s.position,
		LocalVelocity:  s.velocity,
		GlobalAltitude: s.HomeAltitude - s.position[2],
		HomeAltitude:   s.HomeAltitude,
	}
}

// Fly runs m against sim until the mission ends or maxSteps ticks have
// passed. Each tick delivers a state, a position and a velocity event.
func Fly(ctx context.Context, m *Machine, sim *SimVehicle, maxSteps int) error {
	events := []EventKind{StateEvent, PositionEvent, VelocityEvent}
	for step := 0; step < maxSteps; step++ {
		if !m.InMission() {
			return m.Err()
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "flight interrupted")
		}

		sim.Step()
		for _, kind := range events {
			if err := m.Handle(ctx, kind, sim.Telemetry()); err != nil {
				return errors.Wrapf(err, "%v event in state %v", kind, m.State())
			}
		}
	}
	if !m.InMission() {
		return m.Err()
	}
	return errors.Errorf("mission still in state %v after %d steps", m.State(), maxSteps)
}
