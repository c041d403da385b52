package media

import (
	"net/url"
	"regexp"
	"strings"
)

// YouTube video ids are exactly 11 characters from this alphabet.
var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// URL shapes that carry a video id, tried in order.
var youtubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/v/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
}

var (
	spotifyURLPattern = regexp.MustCompile(`open\.spotify\.com/(track|album|playlist|artist)/([A-Za-z0-9]+)`)
	spotifyURIPattern = regexp.MustCompile(`^spotify:(track|album|playlist|artist):([A-Za-z0-9]+)$`)

	soundcloudPattern = regexp.MustCompile(`soundcloud\.com/([A-Za-z0-9_-]+)/([A-Za-z0-9_-]+)`)

	bandcampPattern = regexp.MustCompile(`^(?:https?://)?([a-z0-9-]+)\.bandcamp\.com/(track|album)/([A-Za-z0-9_-]+)`)
)

// Normalize parses a raw user-supplied reference into a canonical Item.
// It is deterministic and performs no I/O. Rules are tried in a fixed
// priority order; the first match wins. Anything that looks like a provider
// domain but matches no known shape degrades to ProviderUnknown rather than
// guessing.
func Normalize(input string) Item {
	raw := strings.TrimSpace(input)

	if item, ok := normalizeYouTube(raw); ok {
		item.OriginalInput = input
		return item
	}
	if item, ok := normalizeSpotify(raw); ok {
		item.OriginalInput = input
		return item
	}
	if item, ok := normalizeSoundCloud(raw); ok {
		item.OriginalInput = input
		return item
	}
	if item, ok := normalizeBandcamp(raw); ok {
		item.OriginalInput = input
		return item
	}

	return Item{
		Provider:      ProviderUnknown,
		OriginalInput: input,
		CanonicalURL:  raw,
		Surface:       SurfaceIframe,
	}
}

func normalizeYouTube(raw string) (Item, bool) {
	// A bare id-shaped token is accepted as-is.
	if youtubeIDPattern.MatchString(raw) {
		return youtubeItem(raw), true
	}

	if !strings.Contains(raw, "youtube.com") && !strings.Contains(raw, "youtu.be") {
		return Item{}, false
	}

	for _, p := range youtubeURLPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return youtubeItem(m[1]), true
		}
	}

	// The domain matched but no shape did. Do not silently guess: the
	// caller falls through to ProviderUnknown, not to another provider.
	return Item{
		Provider:     ProviderUnknown,
		CanonicalURL: raw,
		Surface:      SurfaceIframe,
	}, true
}

func youtubeItem(id string) Item {
	return Item{
		Provider:     ProviderYouTube,
		ProviderID:   id,
		CanonicalURL: "https://www.youtube.com/watch?v=" + id,
		EmbedURL:     "https://www.youtube.com/embed/" + id,
		Surface:      SurfaceScriptable,
	}
}

func normalizeSpotify(raw string) (Item, bool) {
	m := spotifyURLPattern.FindStringSubmatch(raw)
	if m == nil {
		m = spotifyURIPattern.FindStringSubmatch(raw)
	}
	if m == nil {
		if strings.Contains(raw, "spotify.com") || strings.HasPrefix(raw, "spotify:") {
			return Item{
				Provider:     ProviderUnknown,
				CanonicalURL: raw,
				Surface:      SurfaceIframe,
			}, true
		}
		return Item{}, false
	}

	kind, id := m[1], m[2]
	return Item{
		Provider:     ProviderSpotify,
		ProviderID:   kind + ":" + id,
		CanonicalURL: "https://open.spotify.com/" + kind + "/" + id,
		EmbedURL:     "https://open.spotify.com/embed/" + kind + "/" + id + "?utm_source=generator",
		Surface:      SurfaceIframe,
	}, true
}

func normalizeSoundCloud(raw string) (Item, bool) {
	if !strings.Contains(raw, "soundcloud.com") {
		return Item{}, false
	}

	m := soundcloudPattern.FindStringSubmatch(raw)
	if m == nil {
		return Item{
			Provider:     ProviderUnknown,
			CanonicalURL: raw,
			Surface:      SurfaceIframe,
		}, true
	}

	user, slug := m[1], m[2]
	canonical := "https://soundcloud.com/" + user + "/" + slug
	return Item{
		Provider:     ProviderSoundCloud,
		ProviderID:   user + "/" + slug,
		CanonicalURL: canonical,
		EmbedURL:     soundcloudEmbedURL(canonical),
		Surface:      SurfaceIframe,
	}, true
}

// soundcloudEmbedURL builds the documented player query-string form.
func soundcloudEmbedURL(canonical string) string {
	return "https://w.soundcloud.com/player/?url=" + url.QueryEscape(canonical) +
		"&color=%23ff5500&auto_play=false&hide_related=false&show_comments=true" +
		"&show_user=true&show_reposts=false&show_teaser=true"
}

func normalizeBandcamp(raw string) (Item, bool) {
	if !strings.Contains(raw, ".bandcamp.com") {
		return Item{}, false
	}

	m := bandcampPattern.FindStringSubmatch(raw)
	if m == nil {
		return Item{
			Provider:     ProviderUnknown,
			CanonicalURL: raw,
			Surface:      SurfaceIframe,
		}, true
	}

	sub, kind, slug := m[1], m[2], m[3]
	canonical := "https://" + sub + ".bandcamp.com/" + kind + "/" + slug
	tracklist := kind == "album"
	return Item{
		Provider:     ProviderBandcamp,
		ProviderID:   sub + "/" + kind + "/" + slug,
		CanonicalURL: canonical,
		EmbedURL:     bandcampEmbedURL(canonical, tracklist),
		Surface:      SurfaceIframe,
		Tracklist:    tracklist,
	}, true
}

// bandcampEmbedURL builds the documented EmbeddedPlayer URL-encoding form.
// The tracklist segment is "true" exactly when the canonical path is an album.
func bandcampEmbedURL(canonical string, tracklist bool) string {
	list := "false"
	if tracklist {
		list = "true"
	}
	return "https://bandcamp.com/EmbeddedPlayer/url=" + url.QueryEscape(canonical) +
		"/size=large/bgcol=ffffff/linkcol=0687f5/tracklist=" + list +
		"/artwork=small/transparent=true/"
}

// NormalizeAll maps a batch of raw references in order.
func NormalizeAll(inputs []string) []Item {
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in) == "" {
			continue
		}
		items = append(items, Normalize(in))
	}
	return items
}
