// Package playlist holds the ordered item sequence and every per-index side
// table (metadata, stream URLs, mounted adapter handles). Any mutation that
// changes ordering re-derives all indices and remaps all side tables in the
// same pass, so no reader ever observes a partially-shifted index space.
//
// The store is not goroutine-safe; the playback service serializes access.
package playlist

import (
	"github.com/llehouerou/mixtape/internal/adapter"
	"github.com/llehouerou/mixtape/internal/media"
	"github.com/llehouerou/mixtape/internal/resolver"
)

// ResolveState tracks the stream-resolution lifecycle of a bandcamp entry.
type ResolveState int

const (
	ResolveNone ResolveState = iota
	ResolvePending
	ResolveDone
	// ResolveFailed marks an entry that stays a single unresolved item;
	// its transport degrades to manual interaction.
	ResolveFailed
)

// Entry is one playlist slot: the canonical item plus its current ordinal.
// Ordinals are contiguous 0..N-1 and are not stable across expansion.
type Entry struct {
	media.Item
	Ordinal int
}

// Store is the mutable playlist plus its side tables.
type Store struct {
	entries []Entry

	meta     map[int]resolver.Track
	streams  map[int]string
	handles  map[int]adapter.Adapter
	resolves map[int]ResolveState

	version uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		meta:     make(map[int]resolver.Track),
		streams:  make(map[int]string),
		handles:  make(map[int]adapter.Adapter),
		resolves: make(map[int]ResolveState),
	}
}

// Version increments on every mutation. In-flight retry loops compare it to
// detect that the list changed under them.
func (s *Store) Version() uint64 { return s.version }

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Entry returns the entry at index, or nil if out of range.
func (s *Store) Entry(index int) *Entry {
	if index < 0 || index >= len(s.entries) {
		return nil
	}
	e := s.entries[index]
	return &e
}

// Entries returns a copy of all entries in order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Replace clears everything and installs a fresh item batch.
// Displaced handles are returned for disposal.
func (s *Store) Replace(items []media.Item) []adapter.Adapter {
	displaced := s.takeAllHandles()

	s.entries = make([]Entry, len(items))
	for i, item := range items {
		s.entries[i] = Entry{Item: item}
	}
	s.meta = make(map[int]resolver.Track)
	s.streams = make(map[int]string)
	s.resolves = make(map[int]ResolveState)
	s.reindex()
	s.version++
	return displaced
}

// Append adds items at the end.
func (s *Store) Append(items ...media.Item) {
	for _, item := range items {
		s.entries = append(s.entries, Entry{Item: item})
	}
	s.reindex()
	s.version++
}

// Expand replaces the single entry at `at` with the given expanded items and
// their per-track metadata and stream URLs, in one pass:
//
//   - side-table keys below `at` are unchanged
//   - keys above `at` shift by len(items)-1
//   - the new range owns the metadata/streams passed in; the placeholder's
//     old side entries are dropped
//
// The placeholder's mounted handle (if any) is returned so the caller can
// dispose it. ok is false if `at` is out of range or items is empty.
func (s *Store) Expand(at int, items []media.Item, metas []resolver.Track, streams []string) (displaced adapter.Adapter, shift int, ok bool) {
	if at < 0 || at >= len(s.entries) || len(items) == 0 {
		return nil, 0, false
	}

	shift = len(items) - 1
	displaced = s.handles[at]

	entries := make([]Entry, 0, len(s.entries)+shift)
	entries = append(entries, s.entries[:at]...)
	for _, item := range items {
		entries = append(entries, Entry{Item: item})
	}
	entries = append(entries, s.entries[at+1:]...)
	s.entries = entries

	s.meta = remapTable(s.meta, at, shift)
	s.streams = remapTable(s.streams, at, shift)
	s.handles = remapTable(s.handles, at, shift)
	s.resolves = remapTable(s.resolves, at, shift)

	for i := range items {
		if i < len(metas) {
			s.meta[at+i] = metas[i]
		}
		if i < len(streams) && streams[i] != "" {
			s.streams[at+i] = streams[i]
		}
		s.resolves[at+i] = ResolveDone
	}

	s.reindex()
	s.version++
	return displaced, shift, true
}

// RemoveAt removes the entry at index (unrecoverable adapter failure) and
// recomputes every index. The removed entry's handle is returned for
// disposal.
func (s *Store) RemoveAt(index int) (displaced adapter.Adapter, ok bool) {
	if index < 0 || index >= len(s.entries) {
		return nil, false
	}

	displaced = s.handles[index]
	s.entries = append(s.entries[:index], s.entries[index+1:]...)

	s.meta = removeFromTable(s.meta, index)
	s.streams = removeFromTable(s.streams, index)
	s.handles = removeFromTable(s.handles, index)
	s.resolves = removeFromTable(s.resolves, index)

	s.reindex()
	s.version++
	return displaced, true
}

// ShiftAfterExpand maps a pre-expansion index to its post-expansion value:
// indices before the splice point are unchanged, the splice point itself now
// names the first expanded sub-track, and later indices shift by the track
// count delta.
func ShiftAfterExpand(index, at, shift int) int {
	if index > at {
		return index + shift
	}
	return index
}

// ShiftAfterRemove maps a pre-removal index to its post-removal value.
// Removing the current index keeps it in place (now naming the next entry);
// the caller clamps to the new length.
func ShiftAfterRemove(index, removed int) int {
	if index > removed {
		return index - 1
	}
	return index
}

func (s *Store) reindex() {
	for i := range s.entries {
		s.entries[i].Ordinal = i
	}
}

// remapTable shifts all keys above the splice point by `shift` and drops the
// splice point's own entry (the caller installs the new range afterwards).
func remapTable[V any](table map[int]V, at, shift int) map[int]V {
	out := make(map[int]V, len(table))
	for k, v := range table {
		switch {
		case k < at:
			out[k] = v
		case k == at:
			// dropped: the expanded range owns this slot now
		default:
			out[k+shift] = v
		}
	}
	return out
}

func removeFromTable[V any](table map[int]V, removed int) map[int]V {
	out := make(map[int]V, len(table))
	for k, v := range table {
		switch {
		case k < removed:
			out[k] = v
		case k == removed:
			// dropped with the entry
		default:
			out[k-1] = v
		}
	}
	return out
}
