package playback

import (
	"time"

	"github.com/llehouerou/mixtape/internal/playlist"
)

// StateChange is emitted when the transport state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when playback moves to a different item.
//
// Emitted by PlayPause (first start), Next/Previous/JumpTo, and auto-advance.
// Not emitted by Pause or Stop, and not by queue mutations that leave the
// logical current item unchanged (expansion shifting indices does not fire
// TrackChange).
type TrackChange struct {
	PreviousIndex int
	Index         int
	Entry         *playlist.Entry
}

// QueueReason says why the queue contents changed.
type QueueReason string

const (
	QueueReplaced QueueReason = "replaced"
	// QueueExpanded: a bandcamp album placeholder was replaced by its
	// tracks; every index at or after the splice point was remapped.
	QueueExpanded QueueReason = "expanded"
	// QueueItemRemoved: an item was dropped after unrecoverable adapter
	// construction failure.
	QueueItemRemoved QueueReason = "removed"
	// QueueItemResolved: a single bandcamp entry gained metadata and a
	// stream URL without changing the index space.
	QueueItemResolved QueueReason = "resolved"
)

// QueueChange is emitted when the playlist contents or index space change.
type QueueChange struct {
	Reason  QueueReason
	Entries []playlist.Entry
	Index   int // current index after the change
}

// PositionChange is republished by the position poller and on seeks.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// VolumeChange is emitted when the volume changes; it has already been
// propagated to every mounted adapter when the event fires.
type VolumeChange struct {
	Volume float64
}

// ErrorEvent is emitted when an adapter or resolver operation fails. These
// are always downgraded to local state changes; nothing propagates to crash
// the transport.
type ErrorEvent struct {
	Operation string // e.g. "mount", "play", "resolve"
	Index     int    // item index if applicable, -1 otherwise
	Err       error
}
