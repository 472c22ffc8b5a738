package ops

import (
	"context"

	"github.com/hpungsan/yougpt/internal/record"
	"github.com/hpungsan/yougpt/internal/transcript"
	"github.com/hpungsan/yougpt/internal/video"
)

// TranscriptInput contains parameters for the Transcript operation.
type TranscriptInput struct {
	URL             string // required
	IncludeSegments bool   // default: false (text only)
}

// TranscriptOutput contains the result of the Transcript operation.
type TranscriptOutput struct {
	VideoID        string               `json:"video_id"`
	Title          string               `json:"title,omitempty"`
	Language       string               `json:"language,omitempty"`
	Text           string               `json:"text"`
	Chars          int                  `json:"chars"`
	TokensEstimate int                  `json:"tokens_estimate"`
	Segments       []transcript.Segment `json:"segments,omitempty"`
}

// Transcript fetches the caption text for a link without summarizing or storing it.
func Transcript(ctx context.Context, p *Pipeline, input TranscriptInput) (*TranscriptOutput, error) {
	videoID, err := video.ExtractID(input.URL)
	if err != nil {
		return nil, err
	}

	tr, text, err := fetchText(ctx, p.Fetcher, videoID)
	if err != nil {
		return nil, err
	}

	out := &TranscriptOutput{
		VideoID:        videoID,
		Title:          tr.Title,
		Language:       tr.Language,
		Text:           text,
		Chars:          record.CountChars(text),
		TokensEstimate: record.EstimateTokens(text),
	}
	if input.IncludeSegments {
		out.Segments = tr.Segments
	}
	return out, nil
}
