// Package media defines the canonical item model and the URL normalizer that
// turns heterogeneous user input into it.
package media

// Provider identifies the platform an item belongs to.
type Provider string

const (
	ProviderYouTube    Provider = "youtube"
	ProviderSpotify    Provider = "spotify"
	ProviderSoundCloud Provider = "soundcloud"
	ProviderBandcamp   Provider = "bandcamp"
	ProviderUnknown    Provider = "unknown"
)

// Surface describes how an item's embed can be controlled.
type Surface string

const (
	// SurfaceScriptable means a programmatic player can be instantiated
	// and queried for its true state.
	SurfaceScriptable Surface = "scriptable"
	// SurfaceIframe means the embed offers no acknowledged control API;
	// anything sent to it is best effort.
	SurfaceIframe Surface = "iframe-only"
)

// Item is one entry of the playlist in canonical form.
type Item struct {
	Provider     Provider
	ProviderID   string
	CanonicalURL string
	EmbedURL     string
	Surface      Surface
	// OriginalInput is the raw string the user supplied, kept for display
	// and as a fallback link.
	OriginalInput string
	// Tracklist is set for bandcamp album embeds (tracklist visible).
	Tracklist bool
	// Title is a display label. Empty until metadata is resolved; the
	// original input serves as fallback.
	Title string
}

// IsPlayable reports whether any adapter can act on the item at all.
func (i Item) IsPlayable() bool {
	return i.Provider != ProviderUnknown
}

// DisplayLabel returns the best available label for the item.
func (i Item) DisplayLabel() string {
	if i.Title != "" {
		return i.Title
	}
	if i.CanonicalURL != "" {
		return i.CanonicalURL
	}
	return i.OriginalInput
}
