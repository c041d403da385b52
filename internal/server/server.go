// Package server exposes the transport over HTTP: playlist submission, state
// queries, transport commands and the websocket endpoint the embed host
// connects to.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/llehouerou/mixtape/internal/bridge"
	"github.com/llehouerou/mixtape/internal/errmsg"
	"github.com/llehouerou/mixtape/internal/media"
	"github.com/llehouerou/mixtape/internal/playback"
)

var (
	errNegativePosition = errors.New("position_seconds must not be negative")
	errVolumeRange      = errors.New("volume must be within [0, 1]")
)

// Server wires the playback service and the embed bridge to HTTP routes.
type Server struct {
	svc playback.Service
	hub *bridge.Hub
	log *log.Logger
}

// New creates a server. hub may be nil when no embed host is served.
func New(svc playback.Service, hub *bridge.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{svc: svc, hub: hub, log: logger}
}

// Router builds the chi route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/playlist", s.handleSetPlaylist)
		r.Get("/playlist", s.handleGetPlaylist)
		r.Get("/state", s.handleState)

		r.Route("/transport", func(r chi.Router) {
			r.Post("/playpause", s.command(s.svc.PlayPause))
			r.Post("/next", s.command(s.svc.Next))
			r.Post("/previous", s.command(s.svc.Previous))
			r.Post("/stop", s.command(s.svc.Stop))
			r.Post("/jump", s.handleJump)
			r.Post("/seek", s.handleSeek)
			r.Post("/seeking", s.handleSeeking)
		})

		r.Post("/volume", s.handleVolume)
	})

	if s.hub != nil {
		r.Get("/ws", s.hub.ServeWS)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "mixtape",
	})
}

func (s *Server) handleSetPlaylist(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body struct {
		Inputs []string `json:"inputs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errmsg.Format(errmsg.OpPlaylistSet, err))
		return
	}

	items := media.NormalizeAll(body.Inputs)
	s.svc.SetItems(items)
	s.log.Info("playlist replaced", "items", len(items))

	writeJSON(w, http.StatusOK, entriesResponse(s.svc))
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, entriesResponse(s.svc))
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshotDTO(s.svc.Snapshot()))
}

// command wraps an argument-less transport call and responds with the
// resulting snapshot.
func (s *Server) command(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		fn()
		writeJSON(w, http.StatusOK, snapshotDTO(s.svc.Snapshot()))
	}
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.svc.JumpTo(body.Index)
	writeJSON(w, http.StatusOK, snapshotDTO(s.svc.Snapshot()))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body struct {
		PositionSeconds float64 `json:"position_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errmsg.Format(errmsg.OpTransportSeek, err))
		return
	}
	if body.PositionSeconds < 0 {
		writeError(w, http.StatusBadRequest, errmsg.Format(errmsg.OpTransportSeek, errNegativePosition))
		return
	}

	s.svc.SeekTo(time.Duration(body.PositionSeconds * float64(time.Second)))
	writeJSON(w, http.StatusOK, snapshotDTO(s.svc.Snapshot()))
}

func (s *Server) handleSeeking(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body struct {
		Seeking bool `json:"seeking"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.svc.SetSeeking(body.Seeking)
	writeJSON(w, http.StatusOK, snapshotDTO(s.svc.Snapshot()))
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errmsg.Format(errmsg.OpTransportVolume, err))
		return
	}
	if body.Volume < 0 || body.Volume > 1 {
		writeError(w, http.StatusBadRequest, errmsg.Format(errmsg.OpTransportVolume, errVolumeRange))
		return
	}

	s.svc.SetVolume(body.Volume)
	writeJSON(w, http.StatusOK, snapshotDTO(s.svc.Snapshot()))
}
