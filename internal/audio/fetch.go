package audio

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxStreamBytes bounds how much of a stream is buffered. Bandcamp mp3-128
// tracks rarely exceed a few tens of megabytes.
const maxStreamBytes = 256 << 20

// Fetcher downloads a stream URL into memory so the decoder gets a seekable
// source. Partial reads from the network would break seeking, which the
// transport relies on for bandcamp entries.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher. timeout <= 0 uses a 2 minute default, sized
// for full track downloads on slow links.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads url and returns a seekable reader over its bytes.
func (f *Fetcher) Fetch(url string) (io.ReadSeeker, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching stream: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxStreamBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading stream body: %w", err)
	}
	if len(data) > maxStreamBytes {
		return nil, fmt.Errorf("stream exceeds %d byte limit", maxStreamBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("stream body is empty")
	}

	return bytes.NewReader(data), nil
}
