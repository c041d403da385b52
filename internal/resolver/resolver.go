// Package resolver turns a Bandcamp page URL into direct audio-stream URLs
// and track metadata via an external extraction service.
package resolver

import (
	"context"
	"errors"
	"time"
)

// ErrUnresolved is returned when the extraction service cannot produce any
// track for a page.
var ErrUnresolved = errors.New("page could not be resolved")

// Track is one resolved track of a Bandcamp page. A page resolves to one
// track, or to several when it is an album.
type Track struct {
	Title      string
	Artist     string
	Album      string
	ArtworkURL string
	Duration   time.Duration
	// StreamURL is the direct audio stream for the preferred quality.
	// Empty when the service knows the track but not its stream.
	StreamURL string
}

// Resolver resolves a Bandcamp page URL into tracks.
type Resolver interface {
	Resolve(ctx context.Context, pageURL string) ([]Track, error)
}
