package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/yougpt/internal/db"
	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/export"
	"github.com/hpungsan/yougpt/internal/record"
	"github.com/hpungsan/yougpt/internal/summary"
	"github.com/hpungsan/yougpt/internal/transcript"
	"github.com/hpungsan/yougpt/internal/video"
)

// SummarizeInput contains parameters for the Summarize operation.
type SummarizeInput struct {
	URL    string // required
	Format string // default: Paragraphs
	Length string // default: 1000
}

// Downloads names the files a summary is offered as.
type Downloads struct {
	TXT string `json:"txt"`
	PDF string `json:"pdf"`
}

// SummarizeOutput contains the result of the Summarize operation.
type SummarizeOutput struct {
	ID              string    `json:"id"`
	VideoID         string    `json:"video_id"`
	Title           string    `json:"title,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	WatchURL        string    `json:"watch_url"`
	Format          string    `json:"format"`
	Length          string    `json:"length"`
	Summary         string    `json:"summary"`
	TranscriptChars int       `json:"transcript_chars"`
	TokensEstimate  int       `json:"tokens_estimate"`
	Language        string    `json:"language,omitempty"`
	CreatedAt       int64     `json:"created_at"`
	Downloads       Downloads `json:"downloads"`
}

// Summarize runs the full pipeline for one link and records the result:
// extract the video ID, fetch the transcript, build the prompt, summarize, store.
func Summarize(ctx context.Context, p *Pipeline, input SummarizeInput) (*SummarizeOutput, error) {
	videoID, err := video.ExtractID(input.URL)
	if err != nil {
		return nil, err
	}
	format, err := summary.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}
	length, err := summary.ParseLength(input.Length)
	if err != nil {
		return nil, err
	}

	tr, text, err := fetchText(ctx, p.Fetcher, videoID)
	if err != nil {
		return nil, err
	}

	prompt := summary.BuildPrompt(format, length)
	summaryText, err := p.Summarizer.Summarize(ctx, text, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("summarize")
		}
		return nil, errors.NewInternal(fmt.Errorf("summarize: %w", err))
	}

	s := &record.Summary{
		ID:              newID(),
		VideoID:         videoID,
		SourceURL:       strings.TrimSpace(input.URL),
		Title:           optionalString(tr.Title),
		Format:          format.String(),
		Length:          length.String(),
		Prompt:          prompt,
		SummaryText:     summaryText,
		TranscriptChars: record.CountChars(text),
		TokensEstimate:  record.EstimateTokens(text),
		Language:        optionalString(tr.Language),
		CreatedAt:       time.Now().Unix(),
	}
	if err := db.Insert(ctx, p.DB, s); err != nil {
		return nil, err
	}

	p.Log.Info().
		Str("id", s.ID).
		Str("video_id", videoID).
		Str("format", s.Format).
		Int("transcript_chars", s.TranscriptChars).
		Msg("summary generated")

	return &SummarizeOutput{
		ID:              s.ID,
		VideoID:         videoID,
		Title:           tr.Title,
		ThumbnailURL:    video.ThumbnailURL(videoID),
		WatchURL:        video.WatchURL(videoID),
		Format:          s.Format,
		Length:          s.Length,
		Summary:         summaryText,
		TranscriptChars: s.TranscriptChars,
		TokensEstimate:  s.TokensEstimate,
		Language:        tr.Language,
		CreatedAt:       s.CreatedAt,
		Downloads:       downloadsFor(format),
	}, nil
}

// fetchText retrieves the transcript and its joined text, rejecting
// transcripts with no text.
func fetchText(ctx context.Context, f transcript.Fetcher, videoID string) (*transcript.Transcript, string, error) {
	tr, err := f.Fetch(ctx, videoID)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, "", err
		}
		if ctx.Err() != nil {
			return nil, "", errors.NewCancelled("transcript fetch")
		}
		return nil, "", errors.NewTranscriptUnavailable(videoID, err)
	}
	text := tr.Text()
	if strings.TrimSpace(text) == "" {
		return nil, "", errors.NewEmptyTranscript(videoID)
	}
	return tr, text, nil
}

func downloadsFor(format summary.Format) Downloads {
	return Downloads{
		TXT: export.Filename(format, export.KindText),
		PDF: export.Filename(format, export.KindPDF),
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
