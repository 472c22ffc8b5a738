package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hpungsan/yougpt/internal/errors"
)

var (
	errNoPlayerResponse = stderrors.New("ytInitialPlayerResponse not found in watch page")
	errNoTracks         = stderrors.New("no caption tracks")
	errPoTokenOnly      = stderrors.New("all caption tracks require a PoToken")
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// DefaultDeadline bounds one Fetch when Options.Deadline is zero. It sits
// below the web server's request timeout so a stalled fetch still reaches
// the page as TRANSCRIPT_UNAVAILABLE.
const DefaultDeadline = 45 * time.Second

// Options configures a Client. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	// BaseURL overrides DefaultBaseURL (watch page and player API origin).
	BaseURL string
	// Languages lists preferred caption languages, most preferred first.
	Languages []string
	// Timeout bounds each HTTP request when HTTPClient is nil.
	Timeout time.Duration
	// Deadline bounds one Fetch, retries and the player fallback included.
	// Zero means DefaultDeadline; negative disables it.
	Deadline time.Duration
	Retry    *RetryConfig
	// RatePerSecond caps outbound requests. Zero or negative disables the limit.
	RatePerSecond float64
	Logger        zerolog.Logger
}

// Client fetches transcripts from YouTube.
//
// It scrapes the watch page for caption tracks first and falls back to the
// ANDROID player API when the page yields no usable track.
type Client struct {
	http      *http.Client
	baseURL   string
	languages []string
	deadline  time.Duration
	retry     RetryConfig
	limiter   *rate.Limiter
	log       zerolog.Logger
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"en"}
	}

	deadline := opts.Deadline
	if deadline == 0 {
		deadline = DefaultDeadline
	}

	rc := DefaultRetryConfig
	if opts.Retry != nil {
		rc = *opts.Retry
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Client{
		http:      hc,
		baseURL:   baseURL,
		languages: langs,
		deadline:  deadline,
		retry:     rc,
		limiter:   rate.NewLimiter(limit, 1),
		log:       opts.Logger,
	}
}

// Fetch returns the transcript for videoID.
//
// Errors are *errors.AppError: CANCELLED when ctx ends, EMPTY_TRANSCRIPT when
// a track was fetched but held no text, TRANSCRIPT_UNAVAILABLE otherwise,
// including when the fetch deadline passes.
func (c *Client) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	parent := ctx
	if c.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}
	ctx = c.log.With().Str("video_id", videoID).Logger().WithContext(ctx)

	tr, err := c.fetchViaPageScrape(ctx, videoID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.stopped(parent, videoID)
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("page scrape failed, trying player API")

		tr, err = c.fetchViaPlayer(ctx, videoID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, c.stopped(parent, videoID)
			}
			return nil, errors.NewTranscriptUnavailable(videoID, err)
		}
	}

	if len(tr.Segments) == 0 {
		return nil, errors.NewEmptyTranscript(videoID)
	}
	zerolog.Ctx(ctx).Debug().
		Str("language", tr.Language).
		Int("segments", len(tr.Segments)).
		Msg("transcript fetched")
	return tr, nil
}

// stopped maps an aborted fetch to an error. The caller giving up is
// CANCELLED; running out the fetch deadline means YouTube never answered.
func (c *Client) stopped(parent context.Context, videoID string) error {
	if parent.Err() != nil {
		return errors.NewCancelled("transcript fetch")
	}
	return errors.NewTranscriptUnavailable(videoID, fmt.Errorf("no answer from YouTube within %s", c.deadline))
}

// fetchViaPageScrape reads ytInitialPlayerResponse out of the watch page.
func (c *Client) fetchViaPageScrape(ctx context.Context, videoID string) (*Transcript, error) {
	watchURL := c.baseURL + "/watch?v=" + videoID

	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	var raw []byte
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, playerMarker)
		if idx < 0 {
			return true
		}
		raw = extractJSON([]byte(text[idx+len(playerMarker):]))
		return raw == nil
	})
	if raw == nil {
		return nil, errNoPlayerResponse
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return c.fromPlayer(ctx, videoID, &player)
}

// fetchViaPlayer asks the ANDROID player API for caption tracks.
func (c *Client) fetchViaPlayer(ctx context.Context, videoID string) (*Transcript, error) {
	body, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerContext{
			Client: playerClient{
				ClientName:        androidClientName,
				ClientVersion:     androidClientVersion,
				AndroidSDKVersion: androidSDKVersion,
				HL:                "en",
				GL:                "US",
			},
		},
		RacyCheckOK:    true,
		ContentCheckOK: true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+playerPath, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", androidUserAgent)
		req.Header.Set("X-Youtube-Client-Name", androidClientID)
		req.Header.Set("X-Youtube-Client-Version", androidClientVersion)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("player API: %w", err)
	}
	defer resp.Body.Close()

	var player playerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageSize)).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	if len(player.tracks()) == 0 && player.PlayabilityStatus.Reason != "" {
		return nil, fmt.Errorf("captions unavailable: %s", player.PlayabilityStatus.Reason)
	}
	return c.fromPlayer(ctx, videoID, &player)
}

func (c *Client) fromPlayer(ctx context.Context, videoID string, player *playerResponse) (*Transcript, error) {
	tracks := player.tracks()
	if len(tracks) == 0 {
		return nil, errNoTracks
	}
	track, ok := pickBestTrack(tracks, c.languages)
	if !ok {
		return nil, errPoTokenOnly
	}

	segments, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Transcript{
		VideoID:  videoID,
		Title:    player.VideoDetails.Title,
		Language: track.LanguageCode,
		Segments: segments,
	}, nil
}

// fetchTimedText downloads and parses a timedtext XML caption track.
func (c *Client) fetchTimedText(ctx context.Context, trackURL string) ([]Segment, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", browserUserAgent)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextSize))
	if err != nil {
		return nil, fmt.Errorf("read timedtext: %w", err)
	}
	return parseTimedText(data)
}

// do sends one request through the rate limiter and retry policy.
// Non-2xx responses that are not retried become *StatusError.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	resp, err := RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := build()
		if err != nil {
			return nil, err
		}
		return c.http.Do(req)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func parseTimedText(data []byte) ([]Segment, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := cleanCaption(line.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     text,
			Start:    line.Start,
			Duration: line.Duration,
		})
	}
	return segments, nil
}

// cleanCaption unescapes entities left after XML decoding, drops inline
// markup, and collapses whitespace.
func cleanCaption(s string) string {
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// needsPoToken reports whether a caption track URL requires a PoToken.
// Tracks with &exp=xpe only work in a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language
// preferences: a manual track in a preferred language, then a generated one,
// then any English track, then the first usable track.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && !t.generated() {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}
