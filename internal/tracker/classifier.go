// Package tracker implements the field client's location classification
// state machine: it infers an activity state from shift status, job
// assignment and instantaneous speed, and adapts the report cadence to the
// state. Decisions are pure functions; the Controller applies their effects
// to a real timer.
package tracker

import "time"

type State string

const (
	StateOff        State = "off"
	StateIdle       State = "idle"
	StateTraveling  State = "traveling"
	StateAtLocation State = "at_location"
)

// TravelingSpeedThreshold is 2 km/h in m/s. The boundary is strictly
// greater-than: exactly 0.556 m/s is not traveling.
const TravelingSpeedThreshold = 0.556

const (
	// TravelingInterval is the report cadence while moving
	TravelingInterval = 15 * time.Second
	// StationaryInterval is the cadence while idle or at a job location
	StationaryInterval = 60 * time.Second
)

// Sample is the input to one state evaluation
type Sample struct {
	OnShift      bool
	HasActiveJob bool
	Speed        *float64 // m/s; nil when unknown, treated as not moving
}

// Evaluate is the pure transition function, run on every new raw fix and on
// every timer tick.
func Evaluate(s Sample) State {
	switch {
	case !s.OnShift && !s.HasActiveJob:
		return StateOff
	case !s.HasActiveJob:
		return StateIdle
	case s.Speed != nil && *s.Speed > TravelingSpeedThreshold:
		return StateTraveling
	default:
		return StateAtLocation
	}
}

// ReportInterval maps a state to its sampling cadence. Zero means tracking
// is suspended (no timer scheduled).
func ReportInterval(s State) time.Duration {
	switch s {
	case StateTraveling:
		return TravelingInterval
	case StateIdle, StateAtLocation:
		return StationaryInterval
	default:
		return 0
	}
}
