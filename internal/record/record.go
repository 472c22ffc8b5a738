// Package record defines the stored summary history entry.
package record

// Summary is one generated summary as kept in the history store.
type Summary struct {
	// ID is a ULID that uniquely identifies this summary
	ID string `json:"id"`

	// VideoID is the 11-character YouTube identifier
	VideoID string `json:"video_id"`

	// SourceURL is the link exactly as the user supplied it
	SourceURL string `json:"source_url"`

	// Title is the video title when the caption source reported one
	Title *string `json:"title,omitempty"`

	// Format is the display name of the requested summary format
	Format string `json:"format"`

	// Length is the requested summary length ("1000", "custom", ...)
	Length string `json:"length"`

	// Prompt is the instruction text handed to the summarizer
	Prompt string `json:"prompt"`

	// SummaryText is the summarizer output
	SummaryText string `json:"summary"`

	// TranscriptChars is the transcript size in runes
	TranscriptChars int `json:"transcript_chars"`

	// TokensEstimate is the estimated transcript token count
	TokensEstimate int `json:"tokens_estimate"`

	// Language is the caption track language code (nullable)
	Language *string `json:"language,omitempty"`

	// CreatedAt is the Unix timestamp when the summary was generated
	CreatedAt int64 `json:"created_at"`

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// Item is a Summary without the prompt and summary text.
// Used for history listings.
type Item struct {
	ID              string  `json:"id"`
	VideoID         string  `json:"video_id"`
	Title           *string `json:"title,omitempty"`
	Format          string  `json:"format"`
	Length          string  `json:"length"`
	SummaryChars    int     `json:"summary_chars"`
	TranscriptChars int     `json:"transcript_chars"`
	Language        *string `json:"language,omitempty"`
	CreatedAt       int64   `json:"created_at"`
	DeletedAt       *int64  `json:"deleted_at,omitempty"`
}

// ToItem strips the text fields from s.
func (s *Summary) ToItem() Item {
	return Item{
		ID:              s.ID,
		VideoID:         s.VideoID,
		Title:           s.Title,
		Format:          s.Format,
		Length:          s.Length,
		SummaryChars:    CountChars(s.SummaryText),
		TranscriptChars: s.TranscriptChars,
		Language:        s.Language,
		CreatedAt:       s.CreatedAt,
		DeletedAt:       s.DeletedAt,
	}
}

// DisplayTitle returns the video title, or the video ID when no title is known.
func (s *Summary) DisplayTitle() string {
	if s.Title != nil && *s.Title != "" {
		return *s.Title
	}
	return s.VideoID
}
