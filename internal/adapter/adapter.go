// Package adapter hides each provider's control mechanism behind one playback
// contract. A provider is either scriptable (a real player object that can be
// commanded and queried) or iframe-only (an opaque embed that accepts
// unacknowledged, best-effort signals at most).
package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/llehouerou/mixtape/internal/media"
)

var (
	// ErrNotReady is returned when a scriptable player never became ready
	// within the bounded mount retries.
	ErrNotReady = errors.New("player not ready")
	// ErrNotPlayable is returned by adapters that contribute nothing to
	// transport (unknown items).
	ErrNotPlayable = errors.New("item is not playable")
)

// Adapter is the common contract over a mounted provider embed.
//
// Play on an iframe-only adapter is best effort: it updates local bookkeeping
// and fires unacknowledged signals, and must never be awaited as if it were a
// command that reports success.
type Adapter interface {
	// Mount prepares the underlying mechanism. For scriptable providers it
	// resolves only once the player object is ready, polling with bounded
	// retries. A Mount error means the item cannot be constructed at all.
	Mount(ctx context.Context) error
	Play() error
	Pause()
	SeekTo(pos time.Duration)
	// Position reports the playback position, or false when the provider
	// cannot be queried.
	Position() (time.Duration, bool)
	Duration() (time.Duration, bool)
	SetVolume(level float64)
	// Playing reports the adapter's view of its play state. For iframe-only
	// providers this is assumed local state, not the embed's truth.
	Playing() bool
	// Ended delivers a signal when the track finishes. Only meaningful when
	// Reliable reports true.
	Ended() <-chan struct{}
	// Reliable reports whether Ended is a genuine end-of-track signal
	// suitable for auto-advance.
	Reliable() bool
	Dispose()
}

// StreamTarget is implemented by adapters that can switch to a direct audio
// stream once one is resolved.
type StreamTarget interface {
	SetStream(url string)
}

// Messenger delivers fire-and-forget control frames to an embed surface.
// There is no acknowledgment and no error: senders must not block on it.
type Messenger interface {
	Post(surfaceID, kind string, args map[string]any)
}

// PlayState is the scriptable player's reported state.
type PlayState int

const (
	PlayStateUnknown PlayState = iota
	PlayStatePlaying
	PlayStatePaused
	PlayStateEnded
)

// PlayerStatus is a scriptable player's last reported status.
type PlayerStatus struct {
	State    PlayState
	Position time.Duration
	Duration time.Duration
}

// ScriptRuntime instantiates and drives scriptable players (the provider
// script's global constructor, mediated by whatever host carries it).
type ScriptRuntime interface {
	// Mount requests construction of a player for videoID on the given
	// surface. Readiness arrives asynchronously; poll Ready.
	Mount(videoID, surfaceID string) error
	Ready(surfaceID string) bool
	Command(surfaceID, cmd string, args ...float64)
	Status(surfaceID string) (PlayerStatus, bool)
	// OnEnded subscribes to the player's genuine end-of-track event.
	OnEnded(surfaceID string, fn func()) (cancel func())
	Dispose(surfaceID string)
}

// AudioEngine is the same-origin audio element equivalent: a directly owned
// audio pipeline with reliable play/pause/seek/position.
type AudioEngine interface {
	Play(url string) error
	Stop()
	Pause()
	Resume()
	Playing() bool
	SeekTo(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration
	SetVolume(level float64)
	FinishedChan() <-chan struct{}
}

// RetryPolicy bounds the readiness polls during scriptable mounts.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetry matches the short readiness waits the transport expects.
var DefaultRetry = RetryPolicy{Attempts: 20, Delay: 150 * time.Millisecond}

// Deps carries the external mechanisms adapters are built over.
type Deps struct {
	Runtime   ScriptRuntime
	Messenger Messenger
	NewEngine func() AudioEngine
	Retry     RetryPolicy
}

// New selects the adapter variant for an item. The variant is chosen once;
// call sites never branch on provider type again.
func New(item media.Item, deps Deps) Adapter {
	if deps.Retry.Attempts <= 0 {
		deps.Retry = DefaultRetry
	}
	switch item.Provider {
	case media.ProviderYouTube:
		return newYouTube(item, deps.Runtime, deps.Retry)
	case media.ProviderBandcamp:
		return newBandcamp(item, deps)
	case media.ProviderSpotify, media.ProviderSoundCloud:
		return newEmbed(item, deps.Messenger)
	default:
		return newUnknown(item)
	}
}
