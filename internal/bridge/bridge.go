// Package bridge carries player control to an embed host over websockets.
// The host page owns the actual provider embeds; this side sends mount and
// command frames and mirrors the player state the host reports back.
//
// The bridge is both the fire-and-forget signal path for iframe-only embeds
// and the scriptable runtime for providers that expose a real player object.
package bridge

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/mixtape/internal/adapter"
)

// ErrNoHost is returned when a mount is requested while no embed host is
// connected to the bridge.
var ErrNoHost = errors.New("no embed host attached")

// Hub owns the connected host clients and the per-surface player registry.
type Hub struct {
	log *log.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	inbound    chan inFrame
	done       chan struct{}
	closeOnce  sync.Once

	mu      sync.Mutex
	hosts   int
	players map[string]*playerState
}

// playerState mirrors what the host last reported for one surface.
type playerState struct {
	ready   bool
	status  adapter.PlayerStatus
	subs    map[int]func()
	nextSub int
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		inbound:    make(chan inFrame, 64),
		done:       make(chan struct{}),
		players:    make(map[string]*playerState),
	}
}

// Run owns the client set and pumps frames until Close.
func (h *Hub) Run() {
	clients := make(map[*Client]bool)
	for {
		select {
		case <-h.done:
			for c := range clients {
				h.dropHost()
				close(c.send)
				_ = c.conn.Close()
			}
			return

		case client := <-h.register:
			clients[client] = true

		case client := <-h.unregister:
			if _, ok := clients[client]; ok {
				delete(clients, client)
				h.dropHost()
				close(client.send)
				_ = client.conn.Close()
			}

		case message := <-h.broadcast:
			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it rather than stall the hub.
					delete(clients, client)
					h.dropHost()
					close(client.send)
					_ = client.conn.Close()
				}
			}

		case f := <-h.inbound:
			h.handleInbound(f)
		}
	}
}

// Close shuts the hub down and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) handleInbound(f inFrame) {
	h.mu.Lock()
	p, ok := h.players[f.Surface]
	if !ok {
		h.mu.Unlock()
		return
	}

	var ended []func()
	switch f.Type {
	case frameReady:
		p.ready = true

	case frameState:
		p.status.Position = secondsToDuration(f.Position)
		p.status.Duration = secondsToDuration(f.Duration)
		switch f.State {
		case "playing":
			p.status.State = adapter.PlayStatePlaying
		case "paused":
			p.status.State = adapter.PlayStatePaused
		case "ended":
			p.status.State = adapter.PlayStateEnded
			for _, fn := range p.subs {
				ended = append(ended, fn)
			}
		default:
			p.status.State = adapter.PlayStateUnknown
		}

	case framePosition:
		p.status.Position = secondsToDuration(f.Position)
		if f.Duration > 0 {
			p.status.Duration = secondsToDuration(f.Duration)
		}
	}
	h.mu.Unlock()

	for _, fn := range ended {
		fn()
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (h *Hub) dropHost() {
	h.mu.Lock()
	if h.hosts > 0 {
		h.hosts--
	}
	h.mu.Unlock()
}

func (h *Hub) send(frame outFrame) {
	data, err := frame.marshal()
	if err != nil {
		h.log.Error("encoding bridge frame", "type", frame.Type, "err", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.log.Warn("bridge broadcast queue full, dropping frame", "type", frame.Type)
	}
}

// Post implements adapter.Messenger: an unacknowledged signal to a surface.
func (h *Hub) Post(surfaceID, kind string, args map[string]any) {
	h.send(outFrame{Type: kind, Surface: surfaceID, Args: args})
}

// Mount implements adapter.ScriptRuntime: requests a player on the host and
// registers the surface so status frames have somewhere to land.
func (h *Hub) Mount(videoID, surfaceID string) error {
	h.mu.Lock()
	if h.hosts == 0 {
		h.mu.Unlock()
		return ErrNoHost
	}
	if _, exists := h.players[surfaceID]; !exists {
		h.players[surfaceID] = &playerState{subs: make(map[int]func())}
	}
	h.mu.Unlock()

	h.send(outFrame{
		Type:    frameMount,
		Surface: surfaceID,
		Args:    map[string]any{"videoId": videoID},
	})
	return nil
}

// Ready reports whether the host has confirmed the surface's player.
func (h *Hub) Ready(surfaceID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[surfaceID]
	return ok && p.ready
}

// Command sends a control command to a surface's player.
func (h *Hub) Command(surfaceID, cmd string, args ...float64) {
	h.send(outFrame{
		Type:    frameCommand,
		Surface: surfaceID,
		Cmd:     cmd,
		Values:  args,
	})
}

// Status returns the last state the host reported for a surface.
func (h *Hub) Status(surfaceID string) (adapter.PlayerStatus, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[surfaceID]
	if !ok || !p.ready {
		return adapter.PlayerStatus{}, false
	}
	return p.status, true
}

// OnEnded subscribes to the surface's genuine end-of-track event.
func (h *Hub) OnEnded(surfaceID string, fn func()) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[surfaceID]
	if !ok {
		p = &playerState{subs: make(map[int]func())}
		h.players[surfaceID] = p
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if p, ok := h.players[surfaceID]; ok {
			delete(p.subs, id)
		}
	}
}

// Dispose tears down a surface's player on the host and drops its registry
// entry.
func (h *Hub) Dispose(surfaceID string) {
	h.mu.Lock()
	delete(h.players, surfaceID)
	h.mu.Unlock()
	h.send(outFrame{Type: frameDispose, Surface: surfaceID})
}

var (
	_ adapter.Messenger     = (*Hub)(nil)
	_ adapter.ScriptRuntime = (*Hub)(nil)
)
