package playback

import "time"

// State represents the transport state.
//
// The machine has three states:
//
//	Stopped → Playing ⇄ Paused
//
// Seeking is not a state: it is a transient operation on the active adapter,
// with poller writes suppressed while the user drags the seek bar.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// Snapshot is the process-wide playback state as the outside world sees it.
type Snapshot struct {
	CurrentIndex int // -1 if empty
	Transport    State
	Volume       float64
	Position     time.Duration
	Duration     time.Duration
	Seeking      bool
}
