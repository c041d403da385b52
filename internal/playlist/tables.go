package playlist

import (
	"github.com/llehouerou/mixtape/internal/adapter"
	"github.com/llehouerou/mixtape/internal/resolver"
)

// Side-table accessors. All keys are current ordinals; mutations elsewhere in
// the store remap them, so never hold an index across a mutation.

// Meta returns the resolved metadata for an entry, if any.
func (s *Store) Meta(index int) (resolver.Track, bool) {
	m, ok := s.meta[index]
	return m, ok
}

// SetMeta attaches resolved metadata to an entry.
func (s *Store) SetMeta(index int, m resolver.Track) {
	if index < 0 || index >= len(s.entries) {
		return
	}
	s.meta[index] = m
}

// Stream returns the resolved stream URL for an entry, if any.
func (s *Store) Stream(index int) (string, bool) {
	u, ok := s.streams[index]
	return u, ok
}

// SetStream attaches a resolved stream URL to an entry.
func (s *Store) SetStream(index int, url string) {
	if index < 0 || index >= len(s.entries) || url == "" {
		return
	}
	s.streams[index] = url
}

// Handle returns the mounted adapter for an entry, if any.
func (s *Store) Handle(index int) (adapter.Adapter, bool) {
	h, ok := s.handles[index]
	return h, ok
}

// SetHandle records a mounted adapter for an entry.
func (s *Store) SetHandle(index int, h adapter.Adapter) {
	if index < 0 || index >= len(s.entries) {
		return
	}
	s.handles[index] = h
}

// EachHandle calls fn for every mounted adapter. Used for the pause-everything
// sweep and for volume fan-out.
func (s *Store) EachHandle(fn func(index int, h adapter.Adapter)) {
	for i, h := range s.handles {
		fn(i, h)
	}
}

// takeAllHandles empties the handle table and returns the handles.
func (s *Store) takeAllHandles() []adapter.Adapter {
	out := make([]adapter.Adapter, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, h)
	}
	s.handles = make(map[int]adapter.Adapter)
	return out
}

// Resolve returns the resolution state of an entry.
func (s *Store) Resolve(index int) ResolveState {
	return s.resolves[index]
}

// SetResolve records the resolution state of an entry. A pending or done
// state makes repeated resolution attempts no-ops.
func (s *Store) SetResolve(index int, state ResolveState) {
	if index < 0 || index >= len(s.entries) {
		return
	}
	s.resolves[index] = state
}
