package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/yougpt/internal/db"
	"github.com/hpungsan/yougpt/internal/record"
	"github.com/hpungsan/yougpt/internal/summary"
	"github.com/hpungsan/yougpt/internal/video"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeDeleted bool
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	record.Summary           // embedded (copy, not pointer)
	ThumbnailURL   string    `json:"thumbnail_url"`
	WatchURL       string    `json:"watch_url"`
	Downloads      Downloads `json:"downloads"`
}

// Fetch retrieves a stored summary by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	s, err := db.GetByID(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	return &FetchOutput{
		Summary:      *s,
		ThumbnailURL: video.ThumbnailURL(s.VideoID),
		WatchURL:     video.WatchURL(s.VideoID),
		Downloads:    downloadsFor(storedFormat(s)),
	}, nil
}

// storedFormat parses the format recorded on s, falling back to the default
// for rows written with a format name this build no longer knows.
func storedFormat(s *record.Summary) summary.Format {
	f, err := summary.ParseFormat(s.Format)
	if err != nil {
		return summary.DefaultFormat
	}
	return f
}
