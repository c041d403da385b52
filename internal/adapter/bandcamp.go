package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/mixtape/internal/media"
)

// bandcampAdapter prefers a directly owned audio engine fed by the resolved
// stream URL, which gives the full reliable contract. Until a stream is
// available it degrades through best-effort signals at the embed: an
// unacknowledged control message, then a last-resort click. None of the
// fallbacks report success and none are awaited.
type bandcampAdapter struct {
	item      media.Item
	messenger Messenger
	newEngine func() AudioEngine
	surfaceID string

	mu      sync.Mutex
	stream  string
	engine  AudioEngine
	assumed bool // local bookkeeping for the best-effort path
	volume  float64
	endedCh chan struct{}
	done    chan struct{}
}

func newBandcamp(item media.Item, deps Deps) *bandcampAdapter {
	return &bandcampAdapter{
		item:      item,
		messenger: deps.Messenger,
		newEngine: deps.NewEngine,
		surfaceID: "bc-" + uuid.NewString(),
		volume:    1,
		endedCh:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Mount renders the embed surface. It never fails: an unresolved bandcamp
// item is still a valid (manual-interaction) playlist entry.
func (a *bandcampAdapter) Mount(_ context.Context) error {
	if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "mount", map[string]any{
			"embedUrl": a.item.EmbedURL,
		})
	}
	return nil
}

// SetStream switches the adapter to the audio-engine strategy. Safe to call
// any time after resolution completes.
func (a *bandcampAdapter) SetStream(url string) {
	if url == "" {
		return
	}
	a.mu.Lock()
	a.stream = url
	a.mu.Unlock()
}

func (a *bandcampAdapter) Play() error {
	a.mu.Lock()
	stream := a.stream
	engine := a.engine
	a.mu.Unlock()

	if stream == "" {
		// Best-effort chain: control message, then the opportunistic
		// click. Assume success for local bookkeeping only.
		a.postBestEffort()
		a.mu.Lock()
		a.assumed = true
		a.mu.Unlock()
		return nil
	}

	if engine != nil {
		if engine.Playing() {
			return nil
		}
		if engine.Position() > 0 {
			engine.Resume()
			return nil
		}
	}

	if engine == nil {
		if a.newEngine == nil {
			return ErrNotPlayable
		}
		engine = a.newEngine()
		a.mu.Lock()
		a.engine = engine
		a.mu.Unlock()
		go a.forwardFinished(engine)
	}

	engine.SetVolume(a.currentVolume())
	return engine.Play(stream)
}

func (a *bandcampAdapter) Pause() {
	a.mu.Lock()
	engine := a.engine
	a.assumed = false
	a.mu.Unlock()

	if engine != nil {
		engine.Pause()
		return
	}
	if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "message", map[string]any{"command": "pause"})
	}
}

func (a *bandcampAdapter) SeekTo(pos time.Duration) {
	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()
	if engine != nil {
		engine.SeekTo(pos)
	}
	// No seek fallback: an embed without a stream cannot be positioned.
}

func (a *bandcampAdapter) Position() (time.Duration, bool) {
	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()
	if engine == nil {
		return 0, false
	}
	return engine.Position(), true
}

func (a *bandcampAdapter) Duration() (time.Duration, bool) {
	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()
	if engine == nil {
		return 0, false
	}
	d := engine.Duration()
	if d <= 0 {
		return 0, false
	}
	return d, true
}

func (a *bandcampAdapter) SetVolume(level float64) {
	level = clampVolume(level)
	a.mu.Lock()
	a.volume = level
	engine := a.engine
	a.mu.Unlock()

	if engine != nil {
		engine.SetVolume(level)
	} else if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "message", map[string]any{
			"command": "volume", "value": level,
		})
	}
}

func (a *bandcampAdapter) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine != nil {
		return a.engine.Playing()
	}
	return a.assumed
}

func (a *bandcampAdapter) Ended() <-chan struct{} { return a.endedCh }

// Reliable is true only on the audio-engine path; the embed fallbacks give
// no end-of-track signal.
func (a *bandcampAdapter) Reliable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine != nil
}

func (a *bandcampAdapter) Dispose() {
	a.mu.Lock()
	engine := a.engine
	a.engine = nil
	a.mu.Unlock()

	select {
	case <-a.done:
	default:
		close(a.done)
	}
	if engine != nil {
		engine.Stop()
	}
	if a.messenger != nil {
		a.messenger.Post(a.surfaceID, "dispose", nil)
	}
}

func (a *bandcampAdapter) postBestEffort() {
	if a.messenger == nil {
		return
	}
	a.messenger.Post(a.surfaceID, "message", map[string]any{"command": "play"})
	// Opportunistic: only lands when the iframe happens to be reachable.
	a.messenger.Post(a.surfaceID, "click", nil)
}

func (a *bandcampAdapter) forwardFinished(engine AudioEngine) {
	for {
		select {
		case <-a.done:
			return
		case <-engine.FinishedChan():
			select {
			case a.endedCh <- struct{}{}:
			default:
			}
		}
	}
}

func (a *bandcampAdapter) currentVolume() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume
}

// Verify bandcampAdapter implements both contracts at compile time.
var (
	_ Adapter      = (*bandcampAdapter)(nil)
	_ StreamTarget = (*bandcampAdapter)(nil)
)
