// Package playback drives the transport over the playlist: mounting provider
// adapters, enforcing that at most one of them plays at a time, expanding
// bandcamp albums as their streams resolve, and publishing every change to
// subscribers.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/llehouerou/mixtape/internal/adapter"
	"github.com/llehouerou/mixtape/internal/errmsg"
	"github.com/llehouerou/mixtape/internal/media"
	"github.com/llehouerou/mixtape/internal/playlist"
	"github.com/llehouerou/mixtape/internal/resolver"
)

// DefaultPollInterval is the position sampling rate while playing.
const DefaultPollInterval = 100 * time.Millisecond

// Controller implements Service. It is the only writer of currentIndex and
// transport state; every mutation happens under one mutex so readers never
// observe a half-applied transition.
type Controller struct {
	mu sync.Mutex

	store *playlist.Store
	deps  adapter.Deps
	res   resolver.Resolver
	log   *log.Logger

	// newAdapter builds the adapter for an item; swapped out in tests.
	newAdapter func(media.Item, adapter.Deps) adapter.Adapter

	// mounting tracks in-flight mount-and-play work by provider id so
	// repeated transport calls never build two adapters, or issue two
	// concurrent plays, for the same entry.
	mounting map[string]struct{}

	// transGen increments on every transport intent change. An async play
	// whose generation went stale while it was mounting or fetching pauses
	// itself instead of committing Playing.
	transGen uint64

	state        State
	currentIndex int
	volume       float64
	position     time.Duration
	duration     time.Duration
	posKnown     bool
	seeking      bool

	subsMu sync.Mutex
	subs   map[*Subscription]struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	closeOne sync.Once
}

// Options tunes the controller.
type Options struct {
	PollInterval  time.Duration
	DefaultVolume float64
	Logger        *log.Logger
}

// New creates a controller over an empty playlist and starts its position
// poller.
func New(res resolver.Resolver, deps adapter.Deps, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.DefaultVolume <= 0 || opts.DefaultVolume > 1 {
		opts.DefaultVolume = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:        playlist.NewStore(),
		deps:         deps,
		res:          res,
		log:          opts.Logger,
		newAdapter:   adapter.New,
		mounting:     make(map[string]struct{}),
		state:        StateStopped,
		currentIndex: -1,
		volume:       opts.DefaultVolume,
		subs:         make(map[*Subscription]struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	go c.pollLoop(opts.PollInterval)
	return c
}

var _ Service = (*Controller)(nil)

// SetItems replaces the queue. Every displaced adapter is disposed, the
// transport resets to Stopped, and resolution starts in the background for
// bandcamp entries that have no stream yet.
func (c *Controller) SetItems(items []media.Item) {
	c.mu.Lock()
	c.transGen++
	displaced := c.store.Replace(items)
	prev := c.state
	c.state = StateStopped
	if c.store.Len() == 0 {
		c.currentIndex = -1
	} else {
		c.currentIndex = 0
	}
	c.position, c.duration, c.posKnown = 0, 0, false

	type pending struct {
		index int
		url   string
	}
	var resolves []pending
	for _, e := range c.store.Entries() {
		if e.Provider == media.ProviderBandcamp && c.store.Resolve(e.Ordinal) == playlist.ResolveNone {
			c.store.SetResolve(e.Ordinal, playlist.ResolvePending)
			resolves = append(resolves, pending{index: e.Ordinal, url: e.CanonicalURL})
		}
	}
	entries := c.store.Entries()
	c.mu.Unlock()

	for _, h := range displaced {
		h.Dispose()
	}
	c.emitQueue(QueueChange{Reason: QueueReplaced, Entries: entries, Index: 0})
	if prev != StateStopped {
		c.emitState(StateChange{Previous: prev, Current: StateStopped})
	}
	for _, p := range resolves {
		go c.resolveEntry(p.index, p.url)
	}
}

// resolveEntry fetches stream URLs for one bandcamp entry and applies the
// result. The entry may have moved (or vanished) while the network call was
// in flight, so it is re-located by identity before anything is written.
func (c *Controller) resolveEntry(index int, pageURL string) {
	tracks, err := c.res.Resolve(c.ctx, pageURL)

	c.mu.Lock()
	at := c.locatePending(index, pageURL)
	if at < 0 {
		c.mu.Unlock()
		return
	}

	if err != nil || len(tracks) == 0 {
		c.store.SetResolve(at, playlist.ResolveFailed)
		c.mu.Unlock()
		if err != nil {
			c.log.Warn(errmsg.Format(errmsg.OpResolveStream, err), "url", pageURL)
			c.emitError(ErrorEvent{Operation: "resolve", Index: at, Err: err})
		}
		return
	}

	if len(tracks) == 1 {
		c.applySingleLocked(at, tracks[0])
		entries := c.store.Entries()
		idx := c.currentIndex
		c.mu.Unlock()
		c.emitQueue(QueueChange{Reason: QueueItemResolved, Entries: entries, Index: idx})
		return
	}

	displaced := c.expandAlbumLocked(at, tracks)
	entries := c.store.Entries()
	idx := c.currentIndex
	c.mu.Unlock()

	if displaced != nil {
		displaced.Dispose()
	}
	c.emitQueue(QueueChange{Reason: QueueExpanded, Entries: entries, Index: idx})
}

// locatePending finds the current index of a pending bandcamp entry, trying
// its launch-time index first and falling back to an identity scan when the
// list shifted underneath the resolution.
func (c *Controller) locatePending(index int, pageURL string) int {
	if e := c.store.Entry(index); e != nil &&
		e.CanonicalURL == pageURL && c.store.Resolve(index) == playlist.ResolvePending {
		return index
	}
	for _, e := range c.store.Entries() {
		if e.CanonicalURL == pageURL && c.store.Resolve(e.Ordinal) == playlist.ResolvePending {
			return e.Ordinal
		}
	}
	return -1
}

func (c *Controller) applySingleLocked(at int, t resolver.Track) {
	c.store.SetMeta(at, t)
	c.store.SetStream(at, t.StreamURL)
	c.store.SetResolve(at, playlist.ResolveDone)
	if h, ok := c.store.Handle(at); ok && t.StreamURL != "" {
		if st, ok := h.(adapter.StreamTarget); ok {
			st.SetStream(t.StreamURL)
		}
	}
}

// expandAlbumLocked splices an album's tracks over its placeholder. Each
// sub-track keeps the placeholder's URLs but gets a distinct synthetic
// provider id, so handles and side tables never collide.
func (c *Controller) expandAlbumLocked(at int, tracks []resolver.Track) adapter.Adapter {
	placeholder := c.store.Entry(at)
	if placeholder == nil {
		return nil
	}

	items := make([]media.Item, len(tracks))
	streams := make([]string, len(tracks))
	for i, t := range tracks {
		item := placeholder.Item
		item.ProviderID = fmt.Sprintf("%s#%s", placeholder.ProviderID, uuid.NewString())
		item.Title = t.Title
		items[i] = item
		streams[i] = t.StreamURL
	}

	displaced, shift, ok := c.store.Expand(at, items, tracks, streams)
	if !ok {
		return nil
	}
	c.currentIndex = playlist.ShiftAfterExpand(c.currentIndex, at, shift)
	return displaced
}

// PlayPause toggles play/pause on the current item.
func (c *Controller) PlayPause() {
	c.mu.Lock()
	if c.store.Len() == 0 {
		c.mu.Unlock()
		return
	}
	if c.currentIndex < 0 {
		c.mu.Unlock()
		c.startAt(0)
		return
	}

	if c.state == StatePlaying {
		c.transGen++
		if h, ok := c.store.Handle(c.currentIndex); ok {
			h.Pause()
		}
		prev := c.state
		c.state = StatePaused
		c.mu.Unlock()
		c.emitState(StateChange{Previous: prev, Current: StatePaused})
		return
	}

	idx := c.currentIndex
	c.mu.Unlock()
	c.startAt(idx)
}

// Next advances one item. No-op on the last item.
func (c *Controller) Next() {
	c.mu.Lock()
	if c.currentIndex < 0 || c.currentIndex >= c.store.Len()-1 {
		c.mu.Unlock()
		return
	}
	idx := c.currentIndex + 1
	c.mu.Unlock()
	c.startAt(idx)
}

// Previous moves back one item. No-op on the first item.
func (c *Controller) Previous() {
	c.mu.Lock()
	if c.currentIndex <= 0 {
		c.mu.Unlock()
		return
	}
	idx := c.currentIndex - 1
	c.mu.Unlock()
	c.startAt(idx)
}

// JumpTo starts playback at the given index.
func (c *Controller) JumpTo(index int) {
	c.mu.Lock()
	if index < 0 || index >= c.store.Len() {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.startAt(index)
}

// startAt is the single transition into Playing: it pauses every other
// mounted adapter, records the new intent, and hands the slow part (mounting,
// or a stream download inside Play) to a goroutine that re-validates the
// intent before committing.
func (c *Controller) startAt(index int) {
	c.mu.Lock()
	if index < 0 || index >= c.store.Len() {
		c.mu.Unlock()
		return
	}

	c.pauseOthersLocked(index)

	prevIndex := c.currentIndex
	// A fresh start from Stopped announces the track even when the index
	// did not move.
	trackChanged := index != c.currentIndex || c.state == StateStopped
	if index != c.currentIndex {
		c.currentIndex = index
		c.position, c.duration, c.posKnown = 0, 0, false
	}
	entry := c.store.Entry(index)
	item := entry.Item

	if _, inFlight := c.mounting[item.ProviderID]; inFlight {
		c.mu.Unlock()
		return
	}
	c.transGen++
	gen := c.transGen
	c.mounting[item.ProviderID] = struct{}{}

	h, mounted := c.store.Handle(index)
	version := c.store.Version()
	stream, _ := c.store.Stream(index)
	c.mu.Unlock()

	if trackChanged {
		c.emitTrack(TrackChange{PreviousIndex: prevIndex, Index: index, Entry: entry})
		c.emitPosition(PositionChange{})
	}
	if mounted {
		go c.playMounted(h, item, index, version, gen)
		return
	}
	go c.mountAndPlay(item, stream, index, version, gen)
}

// playMounted issues Play on an already mounted adapter.
func (c *Controller) playMounted(h adapter.Adapter, item media.Item, index int, version, gen uint64) {
	defer func() {
		c.mu.Lock()
		delete(c.mounting, item.ProviderID)
		c.mu.Unlock()
	}()
	c.finishPlay(h, item, index, version, gen)
}

// mountAndPlay constructs and mounts an adapter off the transport path, then
// re-checks the live current index and generation before issuing play so a
// slow mount cannot hijack playback after the user moved on.
func (c *Controller) mountAndPlay(item media.Item, stream string, index int, version, gen uint64) {
	defer func() {
		c.mu.Lock()
		delete(c.mounting, item.ProviderID)
		c.mu.Unlock()
	}()

	a := c.newAdapter(item, c.deps)
	if st, ok := a.(adapter.StreamTarget); ok && stream != "" {
		st.SetStream(stream)
	}

	if err := a.Mount(c.ctx); err != nil {
		a.Dispose()
		c.log.Warn(errmsg.Format(errmsg.OpAdapterMount, err), "index", index, "provider", item.Provider)
		c.removeItem(item, index, version)
		c.emitError(ErrorEvent{Operation: "mount", Index: index, Err: err})
		return
	}

	c.mu.Lock()
	at := c.locateItem(item, index, version)
	if at < 0 {
		c.mu.Unlock()
		a.Dispose()
		return
	}
	c.store.SetHandle(at, a)
	a.SetVolume(c.volume)
	// Watch every handle: adapters that never signal just park the
	// goroutine, and ones that turn reliable later (bandcamp gaining an
	// audio engine on first Play) still auto-advance.
	go c.watchEnded(a)

	wantPlay := at == c.currentIndex && c.transGen == gen
	c.mu.Unlock()
	if !wantPlay {
		// The user moved on while we were mounting. Keep the handle
		// warm for when they come back, but do not play.
		return
	}

	c.finishPlay(a, item, index, version, gen)
}

// finishPlay runs Play without the transport lock held, then re-validates
// that the transport still wants this item before committing Playing. A play
// that went stale while it ran pauses itself, so mutual exclusion holds even
// when Play had to download a stream first.
func (c *Controller) finishPlay(a adapter.Adapter, item media.Item, index int, version, gen uint64) {
	err := a.Play()

	c.mu.Lock()
	if err != nil {
		c.mu.Unlock()
		c.log.Warn(errmsg.Format(errmsg.OpAdapterPlay, err), "index", index)
		c.emitError(ErrorEvent{Operation: "play", Index: index, Err: err})
		return
	}
	at := c.locateItem(item, index, version)
	if c.transGen != gen || at < 0 || at != c.currentIndex {
		c.mu.Unlock()
		a.Pause()
		return
	}
	prev := c.state
	c.state = StatePlaying
	c.mu.Unlock()
	if prev != StatePlaying {
		c.emitState(StateChange{Previous: prev, Current: StatePlaying})
	}
}

// locateItem maps a launch-time index to the entry's live index. Cheap path
// when nothing mutated; identity scan otherwise.
func (c *Controller) locateItem(item media.Item, index int, version uint64) int {
	if c.store.Version() == version {
		return index
	}
	for _, e := range c.store.Entries() {
		if e.ProviderID == item.ProviderID && e.CanonicalURL == item.CanonicalURL {
			return e.Ordinal
		}
	}
	return -1
}

// removeItem drops an entry whose adapter could not be constructed and
// recomputes indices. Playback of the rest of the list is unaffected.
func (c *Controller) removeItem(item media.Item, index int, version uint64) {
	c.mu.Lock()
	at := c.locateItem(item, index, version)
	if at < 0 {
		c.mu.Unlock()
		return
	}
	displaced, ok := c.store.RemoveAt(at)
	if !ok {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.currentIndex = playlist.ShiftAfterRemove(c.currentIndex, at)
	if c.currentIndex >= c.store.Len() {
		c.currentIndex = c.store.Len() - 1
	}
	if c.store.Len() == 0 {
		c.currentIndex = -1
		c.state = StateStopped
	}
	state := c.state
	entries := c.store.Entries()
	idx := c.currentIndex
	c.mu.Unlock()

	if displaced != nil {
		displaced.Dispose()
	}
	c.emitQueue(QueueChange{Reason: QueueItemRemoved, Entries: entries, Index: idx})
	if state != prev {
		c.emitState(StateChange{Previous: prev, Current: state})
	}
}

// watchEnded auto-advances when an adapter reports end of track. Adapters
// without a real end signal never send on Ended, so their watcher just waits
// out the controller's lifetime.
func (c *Controller) watchEnded(a adapter.Adapter) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-a.Ended():
			if !ok {
				return
			}
		}

		c.mu.Lock()
		at := -1
		c.store.EachHandle(func(i int, h adapter.Adapter) {
			if h == a {
				at = i
			}
		})
		if at < 0 || at != c.currentIndex || c.state != StatePlaying {
			c.mu.Unlock()
			continue
		}
		if at >= c.store.Len()-1 {
			prev := c.state
			c.state = StateStopped
			c.mu.Unlock()
			c.emitState(StateChange{Previous: prev, Current: StateStopped})
			continue
		}
		next := at + 1
		c.mu.Unlock()
		c.startAt(next)
	}
}

// pauseOthersLocked pauses every mounted adapter except the one at keep.
// Best-effort pauses fire regardless; reliable ones only when playing.
func (c *Controller) pauseOthersLocked(keep int) {
	c.store.EachHandle(func(i int, h adapter.Adapter) {
		if i == keep {
			return
		}
		if !h.Reliable() || h.Playing() {
			h.Pause()
		}
	})
}

// Stop pauses everything and moves to Stopped. The current index is kept.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.transGen++
	c.pauseOthersLocked(-1)
	prev := c.state
	c.state = StateStopped
	c.position, c.duration, c.posKnown = 0, 0, false
	c.mu.Unlock()
	if prev != StateStopped {
		c.emitState(StateChange{Previous: prev, Current: StateStopped})
	}
}

// SeekTo moves the current item to pos.
func (c *Controller) SeekTo(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	c.mu.Lock()
	h, ok := c.store.Handle(c.currentIndex)
	if !ok {
		c.mu.Unlock()
		return
	}
	h.SeekTo(pos)
	c.position = pos
	dur := c.duration
	c.mu.Unlock()
	c.emitPosition(PositionChange{Position: pos, Duration: dur})
}

// SetSeeking marks a scrub gesture in progress.
func (c *Controller) SetSeeking(seeking bool) {
	c.mu.Lock()
	c.seeking = seeking
	c.mu.Unlock()
}

// SetVolume clamps v to [0, 1] and fans it out to every mounted adapter, not
// just the active one, so switching tracks never needs a volume re-apply.
func (c *Controller) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	c.mu.Lock()
	c.volume = v
	c.store.EachHandle(func(_ int, h adapter.Adapter) {
		h.SetVolume(v)
	})
	c.mu.Unlock()
	c.emitVolume(VolumeChange{Volume: v})
}

// Volume returns the current volume.
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Entries returns a copy of the queue.
func (c *Controller) Entries() []playlist.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Entries()
}

// CurrentMeta returns resolved metadata for the active entry, if any.
func (c *Controller) CurrentMeta() (resolver.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Meta(c.currentIndex)
}

// State returns the transport state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentIndex returns the active queue index, -1 when the queue is empty.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentIndex
}

// Position returns the last sampled position of the active item.
func (c *Controller) Position() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position, c.posKnown
}

// Duration returns the last sampled duration of the active item.
func (c *Controller) Duration() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration, c.posKnown
}

// Snapshot returns the whole playback state in one read.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		CurrentIndex: c.currentIndex,
		Transport:    c.state,
		Volume:       c.volume,
		Position:     c.position,
		Duration:     c.duration,
		Seeking:      c.seeking,
	}
}

// Subscribe registers a new event subscriber.
func (c *Controller) Subscribe() *Subscription {
	s := newSubscription()
	c.subsMu.Lock()
	c.subs[s] = struct{}{}
	c.subsMu.Unlock()
	return s
}

// Unsubscribe removes a subscriber and closes its done channel.
func (c *Controller) Unsubscribe(s *Subscription) {
	c.subsMu.Lock()
	if _, ok := c.subs[s]; ok {
		delete(c.subs, s)
		s.close()
	}
	c.subsMu.Unlock()
}

// Close stops the poller, disposes every mounted adapter and closes all
// subscriptions.
func (c *Controller) Close() {
	c.closeOne.Do(func() {
		c.cancel()

		c.mu.Lock()
		var handles []adapter.Adapter
		c.store.EachHandle(func(_ int, h adapter.Adapter) {
			handles = append(handles, h)
		})
		c.state = StateStopped
		c.mu.Unlock()

		for _, h := range handles {
			h.Pause()
			h.Dispose()
		}

		c.subsMu.Lock()
		for s := range c.subs {
			s.close()
		}
		c.subs = make(map[*Subscription]struct{})
		c.subsMu.Unlock()
	})
}

func (c *Controller) emitState(e StateChange) {
	c.subsMu.Lock()
	for s := range c.subs {
		s.sendState(e)
	}
	c.subsMu.Unlock()
}

func (c *Controller) emitTrack(e TrackChange) {
	c.subsMu.Lock()
	for s := range c.subs {
		s.sendTrack(e)
	}
	c.subsMu.Unlock()
}

func (c *Controller) emitQueue(e QueueChange) {
	c.subsMu.Lock()
	for s := range c.subs {
		s.sendQueue(e)
	}
	c.subsMu.Unlock()
}

func (c *Controller) emitPosition(e PositionChange) {
	c.subsMu.Lock()
	for s := range c.subs {
		s.sendPosition(e)
	}
	c.subsMu.Unlock()
}

func (c *Controller) emitVolume(e VolumeChange) {
	c.subsMu.Lock()
	for s := range c.subs {
		s.sendVolume(e)
	}
	c.subsMu.Unlock()
}

func (c *Controller) emitError(e ErrorEvent) {
	c.subsMu.Lock()
	for s := range c.subs {
		s.sendError(e)
	}
	c.subsMu.Unlock()
}
