// Package audio plays resolved direct stream URLs through the system speaker.
// It is the reliable transport path for bandcamp entries: play, pause, seek
// and position all work for real, unlike the best-effort embed signalling.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

var (
	speakerOnce       sync.Once
	speakerErr        error
	speakerSampleRate beep.SampleRate
)

// Engine decodes one MP3 stream at a time and plays it through beep's
// speaker. Safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	fetcher *Fetcher

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	playing     bool
	loaded      bool
	volumeLevel float64

	finishedCh chan struct{}
}

// New creates an engine. A nil fetcher uses defaults.
func New(fetcher *Fetcher) *Engine {
	if fetcher == nil {
		fetcher = NewFetcher(0)
	}
	return &Engine{
		fetcher:     fetcher,
		volumeLevel: 1,
		finishedCh:  make(chan struct{}, 1),
	}
}

// Play fetches the stream URL and starts playback from the beginning.
// Any previous stream is stopped first.
func (e *Engine) Play(url string) error {
	e.Stop()

	body, err := e.fetcher.Fetch(url)
	if err != nil {
		return err
	}

	streamer, format, err := decodeMP3(body)
	if err != nil {
		return err
	}

	speakerOnce.Do(func() {
		speakerSampleRate = format.SampleRate
		speakerErr = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		streamer.Close()
		return speakerErr
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Drain any stale finish signal from the previous stream.
	select {
	case <-e.finishedCh:
	default:
	}

	e.streamer = streamer
	e.format = format

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}
	e.ctrl = &beep.Ctrl{Streamer: playStreamer}
	e.volume = &effects.Volume{Streamer: e.ctrl, Base: 2, Volume: levelToVolume(e.volumeLevel)}
	e.playing = true
	e.loaded = true

	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		e.mu.Lock()
		e.playing = false
		e.mu.Unlock()
		select {
		case e.finishedCh <- struct{}{}:
		default:
		}
	})))

	return nil
}

// Stop ends playback and releases the stream.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return
	}

	speaker.Clear()

	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	e.ctrl = nil
	e.volume = nil
	e.playing = false
	e.loaded = false
}

// Pause pauses playback, keeping the stream and position.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing || e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.playing = false
}

// Resume continues paused playback.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing || e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.playing = true
}

// Playing reports whether audio is currently audible.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// SeekTo moves to an absolute position, clamped to the stream length.
func (e *Engine) SeekTo(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return
	}

	sample := e.format.SampleRate.N(pos)
	if sample < 0 {
		sample = 0
	}
	if max := e.streamer.Len(); sample >= max {
		sample = max - 1
	}

	speaker.Lock()
	_ = e.streamer.Seek(sample)
	speaker.Unlock()
}

// Position returns the current playback position.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Position())
}

// Duration returns the total stream length.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Len())
}

// SetVolume sets the level (0.0 to 1.0) on a logarithmic scale.
func (e *Engine) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.volumeLevel = level
	if e.volume != nil {
		speaker.Lock()
		e.volume.Volume = levelToVolume(level)
		e.volume.Silent = level <= 0
		speaker.Unlock()
	}
}

// FinishedChan delivers a signal when the stream plays to its end.
func (e *Engine) FinishedChan() <-chan struct{} {
	return e.finishedCh
}

// levelToVolume converts a 0.0-1.0 level to beep's base-2 volume value.
// 1.0 -> 0 (no change), 0.5 -> -1 (half), 0.25 -> -2; 0 is silenced.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
