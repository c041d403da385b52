package bridge

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/llehouerou/mixtape/internal/adapter"
)

func newTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Close)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	// The dial can return before the server goroutine finishes attaching
	// the client, so wait for the hub to see it.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		n := hub.hosts
		hub.mu.Unlock()
		if n > 0 {
			return hub, ws
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("host never attached to hub")
	return nil, nil
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	var f map[string]any
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	return f
}

func sendFrame(t *testing.T, ws *websocket.Conn, f map[string]any) {
	t.Helper()
	data, _ := json.Marshal(f)
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("writing frame: %v", err)
	}
}

func waitReady(t *testing.T, hub *Hub, surface string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Ready(surface) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("surface %s never became ready", surface)
}

func TestMountWithoutHostFails(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Close)

	if err := hub.Mount("dQw4w9WgXcQ", "s1"); !errors.Is(err, ErrNoHost) {
		t.Fatalf("Mount without host = %v, want ErrNoHost", err)
	}
}

func TestMountDeliversFrameAndReadiness(t *testing.T) {
	hub, ws := newTestHub(t)

	if hub.Ready("s1") {
		t.Fatal("surface ready before mount")
	}
	if err := hub.Mount("dQw4w9WgXcQ", "s1"); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	f := readFrame(t, ws)
	if f["type"] != "mount" || f["surface"] != "s1" {
		t.Fatalf("unexpected frame: %v", f)
	}
	args := f["args"].(map[string]any)
	if args["videoId"] != "dQw4w9WgXcQ" {
		t.Fatalf("videoId = %v", args["videoId"])
	}

	if hub.Ready("s1") {
		t.Fatal("surface ready before host confirmed")
	}
	sendFrame(t, ws, map[string]any{"type": "ready", "surface": "s1"})
	waitReady(t, hub, "s1")
}

func TestCommandFrames(t *testing.T) {
	hub, ws := newTestHub(t)
	_ = hub.Mount("dQw4w9WgXcQ", "s1")
	readFrame(t, ws)

	hub.Command("s1", "seek", 42.5)
	f := readFrame(t, ws)
	if f["type"] != "command" || f["cmd"] != "seek" {
		t.Fatalf("unexpected frame: %v", f)
	}
	values := f["values"].([]any)
	if len(values) != 1 || values[0].(float64) != 42.5 {
		t.Fatalf("values = %v", values)
	}
}

func TestStatusMirrorsHostState(t *testing.T) {
	hub, ws := newTestHub(t)
	_ = hub.Mount("dQw4w9WgXcQ", "s1")
	readFrame(t, ws)

	sendFrame(t, ws, map[string]any{"type": "ready", "surface": "s1"})
	waitReady(t, hub, "s1")

	sendFrame(t, ws, map[string]any{
		"type": "state", "surface": "s1",
		"state": "playing", "position": 12.0, "duration": 180.0,
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		st, ok := hub.Status("s1")
		if ok && st.State == adapter.PlayStatePlaying {
			if st.Position != 12*time.Second || st.Duration != 180*time.Second {
				t.Fatalf("status = %+v", st)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("status never reflected playing state")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEndedEventFiresSubscribers(t *testing.T) {
	hub, ws := newTestHub(t)
	_ = hub.Mount("dQw4w9WgXcQ", "s1")
	readFrame(t, ws)

	endedCh := make(chan struct{}, 1)
	cancel := hub.OnEnded("s1", func() {
		endedCh <- struct{}{}
	})

	sendFrame(t, ws, map[string]any{"type": "state", "surface": "s1", "state": "ended"})
	select {
	case <-endedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("ended callback never fired")
	}

	// After cancel the callback must not fire again.
	cancel()
	sendFrame(t, ws, map[string]any{"type": "state", "surface": "s1", "state": "ended"})
	select {
	case <-endedCh:
		t.Fatal("callback fired after cancel")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDisposeDropsSurface(t *testing.T) {
	hub, ws := newTestHub(t)
	_ = hub.Mount("dQw4w9WgXcQ", "s1")
	readFrame(t, ws)
	sendFrame(t, ws, map[string]any{"type": "ready", "surface": "s1"})
	waitReady(t, hub, "s1")

	hub.Dispose("s1")
	f := readFrame(t, ws)
	if f["type"] != "dispose" || f["surface"] != "s1" {
		t.Fatalf("unexpected frame: %v", f)
	}
	if hub.Ready("s1") {
		t.Fatal("surface still ready after dispose")
	}
}

func TestPostDeliversSignalFrame(t *testing.T) {
	hub, ws := newTestHub(t)

	hub.Post("bc-1", "click", map[string]any{"target": "playbutton"})
	f := readFrame(t, ws)
	if f["type"] != "click" || f["surface"] != "bc-1" {
		t.Fatalf("unexpected frame: %v", f)
	}
	args := f["args"].(map[string]any)
	if args["target"] != "playbutton" {
		t.Fatalf("args = %v", args)
	}
}

func TestUnknownSurfaceFramesIgnored(t *testing.T) {
	hub, ws := newTestHub(t)

	// Frames for surfaces nobody mounted must not wedge the hub.
	sendFrame(t, ws, map[string]any{"type": "state", "surface": "ghost", "state": "playing"})
	sendFrame(t, ws, map[string]any{"type": "ready", "surface": "ghost"})

	_ = hub.Mount("dQw4w9WgXcQ", "s1")
	f := readFrame(t, ws)
	if f["type"] != "mount" {
		t.Fatalf("hub stopped serving after unknown-surface frames: %v", f)
	}
}
