package loop

import (
	"errors"
	"fmt"
	"time"
)

// State is the position of the controller in the mark-start, mark-end,
// cancel cycle.
type State int

const (
	Idle    State = iota // No region marked
	Armed                // Start marked, waiting for the end mark
	Looping              // Region committed, timer rewinding playback
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Looping:
		return "looping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// next is the pure transition table. The controller applies side effects
// around it; an invalid region keeps the controller in Armed.
func (s State) next() State {
	switch s {
	case Idle:
		return Armed
	case Armed:
		return Looping
	default:
		return Idle
	}
}

// Region is the [Start, End] span replayed while looping.
type Region struct {
	Start time.Duration
	End   time.Duration
}

// Length returns the loop period.
func (r Region) Length() time.Duration {
	return r.End - r.Start
}

var (
	// ErrInvalidRegion is returned when the end mark is not after the start mark.
	ErrInvalidRegion = errors.New("loop: invalid region")

	// ErrTransportUnavailable is returned when the transport is missing or
	// fails a command. The controller resets itself to Idle.
	ErrTransportUnavailable = errors.New("loop: transport unavailable")
)

// RegionError describes a rejected end mark.
type RegionError struct {
	Start time.Duration
	End   time.Duration
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("loop: invalid region: end %v is not after start %v", e.End, e.Start)
}

// Is reports whether target is ErrInvalidRegion.
func (e *RegionError) Is(target error) bool {
	return target == ErrInvalidRegion
}

// EventKind identifies a controller notification.
type EventKind int

const (
	EventArmed                EventKind = iota // Start point marked
	EventLooping                               // Region committed, looping started
	EventRewound                               // Playback sent back to the region start
	EventCancelled                             // Loop or pending mark discarded
	EventInvalidRegion                         // End mark rejected
	EventFinished                              // Transport reached the end of media
	EventTransportUnavailable                  // Transport missing or failing
)

func (k EventKind) String() string {
	switch k {
	case EventArmed:
		return "armed"
	case EventLooping:
		return "looping"
	case EventRewound:
		return "rewound"
	case EventCancelled:
		return "cancelled"
	case EventInvalidRegion:
		return "invalid-region"
	case EventFinished:
		return "finished"
	case EventTransportUnavailable:
		return "transport-unavailable"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to the observer after the controller releases its lock.
type Event struct {
	Kind     EventKind
	State    State // state after the event
	Region   Region
	Position time.Duration
	Cycle    int // rewinds since the region was committed
	Err      error
}
