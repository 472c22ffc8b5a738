// Package video extracts YouTube video identifiers from user-supplied links.
package video

import (
	"regexp"
	"strings"

	"github.com/hpungsan/yougpt/internal/errors"
)

// IDLength is the length of a YouTube video identifier.
const IDLength = 11

// idPattern finds an 11-character token after one of the common YouTube URL
// shapes, or at the very start of the input (a bare ID).
var idPattern = regexp.MustCompile(`(?:v=|youtu\.be/|embed/|v/|watch\?v=|shorts/|e/|^)([A-Za-z0-9_-]{11})`)

var bareIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractID returns the video identifier found in rawURL.
// There is no ambiguity resolution: the first match wins. The ID is not
// checked against YouTube.
func ExtractID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.NewInvalidRequest("Please enter a YouTube link.")
	}

	m := idPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return "", errors.NewInvalidURL(rawURL)
	}
	return m[1], nil
}

// IsValidID reports whether s is exactly one identifier token.
func IsValidID(s string) bool {
	return bareIDPattern.MatchString(s)
}

// ThumbnailURL returns the default thumbnail image for a video.
func ThumbnailURL(id string) string {
	return "https://img.youtube.com/vi/" + id + "/0.jpg"
}

// WatchURL returns the canonical watch page for a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
