package resolver

import (
	"context"
	"sync"
)

// Mock is a test double for Resolver.
type Mock struct {
	mu      sync.Mutex
	tracks  map[string][]Track
	err     error
	calls   []string
	delayed chan struct{}
}

// NewMock creates a new mock resolver.
func NewMock() *Mock {
	return &Mock{tracks: make(map[string][]Track)}
}

// SetTracks registers the tracks returned for a page URL.
func (m *Mock) SetTracks(pageURL string, tracks []Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[pageURL] = tracks
}

// SetError makes every Resolve call fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Block makes Resolve wait until Release is called.
func (m *Mock) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delayed = make(chan struct{})
}

// Release unblocks pending Resolve calls.
func (m *Mock) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delayed != nil {
		close(m.delayed)
		m.delayed = nil
	}
}

// Calls returns the page URLs Resolve was called with.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) Resolve(ctx context.Context, pageURL string) ([]Track, error) {
	m.mu.Lock()
	m.calls = append(m.calls, pageURL)
	err := m.err
	tracks, ok := m.tracks[pageURL]
	delayed := m.delayed
	m.mu.Unlock()

	if delayed != nil {
		select {
		case <-delayed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if !ok || len(tracks) == 0 {
		return nil, ErrUnresolved
	}
	return tracks, nil
}

// Verify Mock implements Resolver at compile time.
var _ Resolver = (*Mock)(nil)
