package playback

import (
	"time"

	"github.com/llehouerou/mixtape/internal/media"
	"github.com/llehouerou/mixtape/internal/playlist"
	"github.com/llehouerou/mixtape/internal/resolver"
)

// Service drives the transport: it owns the queue, mounts adapters on
// demand and guarantees at most one item is audible at a time.
type Service interface {
	// SetItems replaces the queue with the playable results of
	// normalizing inputs and starts background resolution for entries
	// that need it.
	SetItems(items []media.Item)

	// PlayPause toggles between Playing and Paused. When stopped it
	// starts the current item, or the first item if none is current.
	PlayPause()

	// Next advances to the following item. No-op on the last item.
	Next()

	// Previous moves to the preceding item. No-op on the first item.
	Previous()

	// Stop pauses everything and moves the transport to Stopped. The
	// current index is kept so PlayPause resumes the same item.
	Stop()

	// JumpTo starts playback at the given queue index.
	JumpTo(index int)

	// SeekTo moves the current item to the given position.
	SeekTo(pos time.Duration)

	// SetSeeking marks a scrub gesture in progress. While true the
	// poller stops publishing positions so the UI thumb is not
	// fought over.
	SetSeeking(seeking bool)

	// SetVolume sets the volume, clamped to [0, 1], and fans it out
	// to every mounted adapter.
	SetVolume(v float64)
	Volume() float64

	Entries() []playlist.Entry
	// CurrentMeta returns resolved metadata for the active entry, if any.
	CurrentMeta() (resolver.Track, bool)
	State() State
	CurrentIndex() int
	Position() (time.Duration, bool)
	Duration() (time.Duration, bool)
	Snapshot() Snapshot

	Subscribe() *Subscription
	Unsubscribe(*Subscription)

	Close()
}
