package media

import (
	"strings"
	"testing"
)

func TestNormalize_YouTubeShapes(t *testing.T) {
	inputs := []string{
		"dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ",
	}

	for _, in := range inputs {
		item := Normalize(in)
		if item.Provider != ProviderYouTube {
			t.Errorf("Normalize(%q).Provider = %v, want youtube", in, item.Provider)
		}
		if item.ProviderID != "dQw4w9WgXcQ" {
			t.Errorf("Normalize(%q).ProviderID = %q, want dQw4w9WgXcQ", in, item.ProviderID)
		}
		if item.EmbedURL != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
			t.Errorf("Normalize(%q).EmbedURL = %q", in, item.EmbedURL)
		}
		if item.Surface != SurfaceScriptable {
			t.Errorf("Normalize(%q).Surface = %v, want scriptable", in, item.Surface)
		}
	}
}

func TestNormalize_YouTubeDomainWithoutID(t *testing.T) {
	// Looks like YouTube but matches no known shape: must become unknown,
	// never a guess for another provider.
	for _, in := range []string{
		"https://www.youtube.com/playlist?list=PL6NdkXsPL07IOu1AZ2Y2lGNYfjDStyT6O",
		"https://www.youtube.com/channel/UC123",
		"https://youtu.be/short",
	} {
		item := Normalize(in)
		if item.Provider != ProviderUnknown {
			t.Errorf("Normalize(%q).Provider = %v, want unknown", in, item.Provider)
		}
	}
}

func TestNormalize_Spotify(t *testing.T) {
	tests := []struct {
		input string
		kind  string
		id    string
	}{
		{"https://open.spotify.com/track/ABC123", "track", "ABC123"},
		{"https://open.spotify.com/album/4iV5W9uYEdYUVa79Axb7Rh", "album", "4iV5W9uYEdYUVa79Axb7Rh"},
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=x", "playlist", "37i9dQZF1DXcBWIGoYBM5M"},
		{"spotify:artist:0OdUWJ0sBjDrqHygGUXeCF", "artist", "0OdUWJ0sBjDrqHygGUXeCF"},
	}

	for _, tt := range tests {
		item := Normalize(tt.input)
		if item.Provider != ProviderSpotify {
			t.Errorf("Normalize(%q).Provider = %v, want spotify", tt.input, item.Provider)
			continue
		}
		wantEmbed := "https://open.spotify.com/embed/" + tt.kind + "/" + tt.id + "?utm_source=generator"
		if item.EmbedURL != wantEmbed {
			t.Errorf("Normalize(%q).EmbedURL = %q, want %q", tt.input, item.EmbedURL, wantEmbed)
		}
		if item.Surface != SurfaceIframe {
			t.Errorf("Normalize(%q).Surface = %v, want iframe-only", tt.input, item.Surface)
		}
	}
}

func TestNormalize_SoundCloud(t *testing.T) {
	item := Normalize("https://soundcloud.com/forss/flickermood")

	if item.Provider != ProviderSoundCloud {
		t.Fatalf("Provider = %v, want soundcloud", item.Provider)
	}
	if item.CanonicalURL != "https://soundcloud.com/forss/flickermood" {
		t.Errorf("CanonicalURL = %q", item.CanonicalURL)
	}
	wantPrefix := "https://w.soundcloud.com/player/?url=https%3A%2F%2Fsoundcloud.com%2Fforss%2Fflickermood&"
	if !strings.HasPrefix(item.EmbedURL, wantPrefix) {
		t.Errorf("EmbedURL = %q, want prefix %q", item.EmbedURL, wantPrefix)
	}
}

func TestNormalize_Bandcamp(t *testing.T) {
	tests := []struct {
		input     string
		tracklist bool
	}{
		{"https://artist.bandcamp.com/track/some-song", false},
		{"https://artist.bandcamp.com/album/some-record", true},
	}

	for _, tt := range tests {
		item := Normalize(tt.input)
		if item.Provider != ProviderBandcamp {
			t.Errorf("Normalize(%q).Provider = %v, want bandcamp", tt.input, item.Provider)
			continue
		}
		if item.Tracklist != tt.tracklist {
			t.Errorf("Normalize(%q).Tracklist = %v, want %v", tt.input, item.Tracklist, tt.tracklist)
		}
		want := "tracklist=false"
		if tt.tracklist {
			want = "tracklist=true"
		}
		if !strings.Contains(item.EmbedURL, want) {
			t.Errorf("Normalize(%q).EmbedURL = %q, want %q segment", tt.input, item.EmbedURL, want)
		}
	}
}

func TestNormalize_ProviderDomainNeverFalsePositive(t *testing.T) {
	// Partial matches on a provider domain become unknown, not some other
	// provider, and never panic.
	for _, in := range []string{
		"https://open.spotify.com/",
		"spotify:nonsense",
		"https://soundcloud.com/onlyuser",
		"https://bandcamp.com/discover",
		"https://weird.bandcamp.com/merch/shirt",
	} {
		item := Normalize(in)
		if item.Provider != ProviderUnknown {
			t.Errorf("Normalize(%q).Provider = %v, want unknown", in, item.Provider)
		}
		if item.OriginalInput != in {
			t.Errorf("Normalize(%q).OriginalInput = %q", in, item.OriginalInput)
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	inputs := []string{
		"dQw4w9WgXcQ",
		"https://open.spotify.com/track/ABC123",
		"https://artist.bandcamp.com/album/rec",
		"garbage input",
	}
	for _, in := range inputs {
		a, b := Normalize(in), Normalize(in)
		if a != b {
			t.Errorf("Normalize(%q) not deterministic: %+v != %+v", in, a, b)
		}
	}
}

func TestNormalizeAll_SkipsBlankInput(t *testing.T) {
	items := NormalizeAll([]string{"dQw4w9WgXcQ", "  ", "", "something else"})

	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Provider != ProviderYouTube {
		t.Errorf("items[0].Provider = %v, want youtube", items[0].Provider)
	}
	if items[1].Provider != ProviderUnknown {
		t.Errorf("items[1].Provider = %v, want unknown", items[1].Provider)
	}
}
