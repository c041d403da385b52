package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/mixtape/internal/media"
)

// youtubeAdapter drives a scriptable player through a ScriptRuntime. It is
// the only adapter whose end-of-track signal comes from a genuine player
// event, so it is always Reliable.
type youtubeAdapter struct {
	item      media.Item
	runtime   ScriptRuntime
	retry     RetryPolicy
	surfaceID string

	mounted  bool
	endedCh  chan struct{}
	unsubEnd func()
}

func newYouTube(item media.Item, runtime ScriptRuntime, retry RetryPolicy) *youtubeAdapter {
	return &youtubeAdapter{
		item:      item,
		runtime:   runtime,
		retry:     retry,
		surfaceID: "yt-" + uuid.NewString(),
		endedCh:   make(chan struct{}, 1),
	}
}

// Mount requests player construction and polls readiness with bounded
// retries. The container may not be attached yet when the request lands, so
// a few polls are expected even on the happy path.
func (a *youtubeAdapter) Mount(ctx context.Context) error {
	if a.runtime == nil {
		return fmt.Errorf("mount %s: no script runtime attached", a.item.ProviderID)
	}
	if err := a.runtime.Mount(a.item.ProviderID, a.surfaceID); err != nil {
		return fmt.Errorf("mount %s: %w", a.item.ProviderID, err)
	}

	for attempt := 0; attempt < a.retry.Attempts; attempt++ {
		if a.runtime.Ready(a.surfaceID) {
			a.mounted = true
			a.unsubEnd = a.runtime.OnEnded(a.surfaceID, func() {
				select {
				case a.endedCh <- struct{}{}:
				default:
				}
			})
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.retry.Delay):
		}
	}

	return fmt.Errorf("mount %s: %w", a.item.ProviderID, ErrNotReady)
}

func (a *youtubeAdapter) Play() error {
	if !a.mounted {
		return ErrNotReady
	}
	a.runtime.Command(a.surfaceID, "play")
	return nil
}

func (a *youtubeAdapter) Pause() {
	if !a.mounted {
		return
	}
	a.runtime.Command(a.surfaceID, "pause")
}

func (a *youtubeAdapter) SeekTo(pos time.Duration) {
	if !a.mounted {
		return
	}
	a.runtime.Command(a.surfaceID, "seek", pos.Seconds())
}

func (a *youtubeAdapter) Position() (time.Duration, bool) {
	st, ok := a.status()
	if !ok {
		return 0, false
	}
	return st.Position, true
}

func (a *youtubeAdapter) Duration() (time.Duration, bool) {
	st, ok := a.status()
	if !ok || st.Duration <= 0 {
		return 0, false
	}
	return st.Duration, true
}

func (a *youtubeAdapter) SetVolume(level float64) {
	if !a.mounted {
		return
	}
	a.runtime.Command(a.surfaceID, "volume", clampVolume(level)*100)
}

func (a *youtubeAdapter) Playing() bool {
	st, ok := a.status()
	return ok && st.State == PlayStatePlaying
}

func (a *youtubeAdapter) Ended() <-chan struct{} { return a.endedCh }

func (a *youtubeAdapter) Reliable() bool { return true }

func (a *youtubeAdapter) Dispose() {
	if a.unsubEnd != nil {
		a.unsubEnd()
		a.unsubEnd = nil
	}
	if a.mounted {
		a.runtime.Dispose(a.surfaceID)
		a.mounted = false
	}
}

func (a *youtubeAdapter) status() (PlayerStatus, bool) {
	if !a.mounted {
		return PlayerStatus{}, false
	}
	return a.runtime.Status(a.surfaceID)
}

func clampVolume(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}

// Verify youtubeAdapter implements Adapter at compile time.
var _ Adapter = (*youtubeAdapter)(nil)
