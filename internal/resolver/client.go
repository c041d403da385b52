package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultQuality = "mp3-128"
	userAgent      = "mixtape/1.0 (https://github.com/llehouerou/mixtape)"
)

// Client is an extraction-service API client.
type Client struct {
	baseURL    string
	quality    string
	httpClient *http.Client
}

// NewClient creates a client for the extraction service at baseURL.
// quality selects the preferred stream quality key (e.g. "mp3-128");
// empty means the default.
func NewClient(baseURL, quality string) *Client {
	if quality == "" {
		quality = defaultQuality
	}
	return &Client{
		baseURL: baseURL,
		quality: quality,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// resolveResponse is the extraction service's wire contract.
type resolveResponse struct {
	Success bool           `json:"success"`
	Tracks  []resolveTrack `json:"tracks"`
}

type resolveTrack struct {
	Title           string            `json:"title"`
	Artist          string            `json:"artist"`
	Album           string            `json:"album"`
	ArtworkURL      string            `json:"artworkUrl"`
	DurationSeconds float64           `json:"durationSeconds"`
	StreamURLs      map[string]string `json:"streamUrls"`
}

// Resolve asks the service for the tracks behind a Bandcamp page URL.
// An album page yields several tracks. Returns ErrUnresolved when the
// service reports failure or an empty track list.
func (c *Client) Resolve(ctx context.Context, pageURL string) ([]Track, error) {
	reqURL := fmt.Sprintf("%s/resolve?url=%s", c.baseURL, url.QueryEscape(pageURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var body resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !body.Success || len(body.Tracks) == 0 {
		return nil, ErrUnresolved
	}

	tracks := make([]Track, 0, len(body.Tracks))
	for _, t := range body.Tracks {
		tracks = append(tracks, Track{
			Title:      t.Title,
			Artist:     t.Artist,
			Album:      t.Album,
			ArtworkURL: t.ArtworkURL,
			Duration:   time.Duration(t.DurationSeconds * float64(time.Second)),
			StreamURL:  pickStream(t.StreamURLs, c.quality),
		})
	}
	return tracks, nil
}

// pickStream chooses the stream for the preferred quality, falling back to
// any quality the service offered.
func pickStream(streams map[string]string, quality string) string {
	if u, ok := streams[quality]; ok && u != "" {
		return u
	}
	for _, u := range streams {
		if u != "" {
			return u
		}
	}
	return ""
}

// Verify Client implements Resolver at compile time.
var _ Resolver = (*Client)(nil)
