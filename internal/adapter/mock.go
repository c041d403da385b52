package adapter

import (
	"context"
	"sync"
	"time"
)

// Mock is a test double for Adapter.
type Mock struct {
	mu         sync.Mutex
	playing    bool
	reliable   bool
	position   time.Duration
	duration   time.Duration
	mountErr   error
	playErr    error
	playCalls  int
	pauseCalls int
	volumes    []float64
	seeks      []time.Duration
	disposed   bool
	endedCh    chan struct{}
}

// NewMock creates a new mock adapter. Reliable by default so auto-advance
// paths can be exercised.
func NewMock() *Mock {
	return &Mock{reliable: true, endedCh: make(chan struct{}, 1)}
}

func (m *Mock) Mount(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mountErr
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	m.playing = true
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	m.playing = false
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, pos)
	m.position = pos
}

func (m *Mock) Position() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position, true
}

func (m *Mock) Duration() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.duration <= 0 {
		return 0, false
	}
	return m.duration, true
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes = append(m.volumes, level)
}

func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Ended() <-chan struct{} { return m.endedCh }

func (m *Mock) Reliable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reliable
}

func (m *Mock) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	m.playing = false
}

// Test helpers

func (m *Mock) SetMountError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mountErr = err
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *Mock) SetReliable(r bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reliable = r
}

func (m *Mock) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) Volumes() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.volumes...)
}

func (m *Mock) Seeks() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

func (m *Mock) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

// SimulateEnded simulates the track finishing.
func (m *Mock) SimulateEnded() {
	select {
	case m.endedCh <- struct{}{}:
	default:
	}
}

// Verify Mock implements Adapter at compile time.
var _ Adapter = (*Mock)(nil)
