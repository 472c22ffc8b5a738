// Package transcript retrieves caption transcripts for YouTube videos.
//
// The YouTube client is split across files by responsibility:
//
//	innertube.go: endpoint constants, wire types, and JSON extraction
//	youtube.go:   watch-page scrape, caption track choice, timedtext parsing, player fallback
//	retry.go:     backoff for transient HTTP failures
package transcript

import (
	"context"
	"strings"
)

// Segment is one caption fragment. Start and Duration are in seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is the caption track of one video.
type Transcript struct {
	VideoID  string    `json:"video_id"`
	Title    string    `json:"title,omitempty"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// Text joins the segment texts with single spaces.
// Timing and segment boundaries are not preserved.
func (t *Transcript) Text() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// Fetcher retrieves the transcript for a video ID.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*Transcript, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, videoID string) (*Transcript, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	return f(ctx, videoID)
}
