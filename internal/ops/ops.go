package ops

import (
	"crypto/rand"
	"database/sql"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/hpungsan/yougpt/internal/config"
	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/summary"
	"github.com/hpungsan/yougpt/internal/transcript"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Pipeline bundles the collaborators of the summarize and transcript operations.
type Pipeline struct {
	DB         *sql.DB
	Config     *config.Config
	Fetcher    transcript.Fetcher
	Summarizer summary.Summarizer
	Log        zerolog.Logger
}

// NewPipeline wires the YouTube transcript client and the placeholder
// summarizer from cfg.
func NewPipeline(database *sql.DB, cfg *config.Config, log zerolog.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	retry := transcript.DefaultRetryConfig
	retry.MaxRetries = cfg.FetchMaxRetries

	return &Pipeline{
		DB:     database,
		Config: cfg,
		Fetcher: transcript.NewClient(transcript.Options{
			Languages:     cfg.TranscriptLanguages,
			Timeout:       cfg.FetchTimeout(),
			Deadline:      cfg.FetchDeadline(),
			Retry:         &retry,
			RatePerSecond: cfg.FetchRatePerSecond,
			Logger:        log,
		}),
		Summarizer: summary.Placeholder{MaxChars: cfg.SummaryMaxChars},
		Log:        log,
	}
}

// idEntropy is shared so IDs minted in the same millisecond still sort in
// creation order. ulid.MonotonicReader is not safe for concurrent use.
var (
	idMu      sync.Mutex
	idEntropy io.Reader = ulid.Monotonic(rand.Reader, 0)
)

// newID returns a fresh ULID string, strictly greater than any earlier one
// from this process.
func newID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}

// requireID trims id and rejects an empty value.
func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}
