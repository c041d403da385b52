package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/mixtape/internal/media"
)

// embedAdapter covers Spotify and SoundCloud: iframe-only surfaces the app
// cannot truly command. Play and Pause are local bookkeeping plus an
// unacknowledged frame message. This is a documented limitation of those
// embeds, not something to hide.
type embedAdapter struct {
	item      media.Item
	messenger Messenger
	surfaceID string

	mu      sync.Mutex
	assumed bool
	endedCh chan struct{}
}

func newEmbed(item media.Item, messenger Messenger) *embedAdapter {
	return &embedAdapter{
		item:      item,
		messenger: messenger,
		surfaceID: string(item.Provider) + "-" + uuid.NewString(),
		endedCh:   make(chan struct{}),
	}
}

func (a *embedAdapter) Mount(_ context.Context) error {
	if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "mount", map[string]any{
			"embedUrl": a.item.EmbedURL,
		})
	}
	return nil
}

func (a *embedAdapter) Play() error {
	a.mu.Lock()
	a.assumed = true
	a.mu.Unlock()
	if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "message", map[string]any{"command": "play"})
	}
	return nil
}

func (a *embedAdapter) Pause() {
	a.mu.Lock()
	a.assumed = false
	a.mu.Unlock()
	if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "message", map[string]any{"command": "pause"})
	}
}

func (a *embedAdapter) SeekTo(_ time.Duration) {}

func (a *embedAdapter) Position() (time.Duration, bool) { return 0, false }

func (a *embedAdapter) Duration() (time.Duration, bool) { return 0, false }

func (a *embedAdapter) SetVolume(level float64) {
	if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "message", map[string]any{
			"command": "volume", "value": clampVolume(level),
		})
	}
}

func (a *embedAdapter) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.assumed
}

func (a *embedAdapter) Ended() <-chan struct{} { return a.endedCh }

func (a *embedAdapter) Reliable() bool { return false }

func (a *embedAdapter) Dispose() {
	if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "dispose", nil)
	}
}

// unknownAdapter renders an inert outbound link and contributes nothing to
// transport.
type unknownAdapter struct {
	item    media.Item
	endedCh chan struct{}
}

func newUnknown(item media.Item) *unknownAdapter {
	return &unknownAdapter{item: item, endedCh: make(chan struct{})}
}

func (a *unknownAdapter) Mount(_ context.Context) error { return nil }

func (a *unknownAdapter) Play() error { return ErrNotPlayable }

func (a *unknownAdapter) Pause() {}

func (a *unknownAdapter) SeekTo(_ time.Duration) {}

func (a *unknownAdapter) Position() (time.Duration, bool) { return 0, false }

func (a *unknownAdapter) Duration() (time.Duration, bool) { return 0, false }

func (a *unknownAdapter) SetVolume(_ float64) {}

func (a *unknownAdapter) Playing() bool { return false }

func (a *unknownAdapter) Ended() <-chan struct{} { return a.endedCh }

func (a *unknownAdapter) Reliable() bool { return false }

func (a *unknownAdapter) Dispose() {}

// Verify both implement Adapter at compile time.
var (
	_ Adapter = (*embedAdapter)(nil)
	_ Adapter = (*unknownAdapter)(nil)
)
