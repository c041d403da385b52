// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playlist operations
	OpPlaylistSet Op = "set playlist"

	// Resolution operations
	OpResolveStream Op = "resolve stream"
	OpCacheOpen     Op = "open resolver cache"

	// Adapter operations
	OpAdapterMount Op = "mount player"
	OpAdapterPlay  Op = "start playback"

	// Transport operations
	OpTransportSeek   Op = "seek"
	OpTransportVolume Op = "set volume"

	// Server operations
	OpServerListen Op = "listen for connections"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
