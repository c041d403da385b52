package server

import (
	"encoding/json"
	"net/http"

	"github.com/llehouerou/mixtape/internal/playback"
)

type entryDTO struct {
	Index         int    `json:"index"`
	Provider      string `json:"provider"`
	ProviderID    string `json:"providerId"`
	CanonicalURL  string `json:"canonicalUrl,omitempty"`
	EmbedURL      string `json:"embedUrl,omitempty"`
	Surface       string `json:"surface"`
	OriginalInput string `json:"originalInput"`
	Tracklist     bool   `json:"tracklist,omitempty"`
	Title         string `json:"title,omitempty"`
	Playable      bool   `json:"playable"`
}

type snapDTO struct {
	CurrentIndex    int     `json:"currentIndex"`
	Transport       string  `json:"transport"`
	Volume          float64 `json:"volume"`
	PositionSeconds float64 `json:"positionSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
	Seeking         bool    `json:"isSeeking"`
}

func entriesResponse(svc playback.Service) map[string]any {
	entries := svc.Entries()
	dtos := make([]entryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = entryDTO{
			Index:         e.Ordinal,
			Provider:      string(e.Provider),
			ProviderID:    e.ProviderID,
			CanonicalURL:  e.CanonicalURL,
			EmbedURL:      e.EmbedURL,
			Surface:       string(e.Surface),
			OriginalInput: e.OriginalInput,
			Tracklist:     e.Tracklist,
			Title:         e.Title,
			Playable:      e.IsPlayable(),
		}
	}
	return map[string]any{"entries": dtos}
}

func snapshotDTO(s playback.Snapshot) snapDTO {
	return snapDTO{
		CurrentIndex:    s.CurrentIndex,
		Transport:       s.Transport.String(),
		Volume:          s.Volume,
		PositionSeconds: s.Position.Seconds(),
		DurationSeconds: s.Duration.Seconds(),
		Seeking:         s.Seeking,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
