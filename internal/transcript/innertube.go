package transcript

import (
	"bytes"
)

// DefaultBaseURL is the YouTube origin used for watch pages and the player API.
const DefaultBaseURL = "https://www.youtube.com"

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// ANDROID client: caption tracks from this client do not require a PoToken.
	androidClientName    = "ANDROID"
	androidClientID      = "3"
	androidClientVersion = "20.10.38"
	androidSDKVersion    = 30
	androidUserAgent     = "com.google.android.youtube/20.10.38 (Linux; U; Android 11) gzip"

	playerPath       = "/youtubei/v1/player?prettyPrint=false"
	playerMarker     = "ytInitialPlayerResponse = "
	maxTimedTextSize = 512 * 1024
	maxPageSize      = 8 << 20
)

// playerResponse is the subset of ytInitialPlayerResponse (or the player API
// response) needed to locate caption tracks.
type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	} `json:"videoDetails"`
	Captions struct {
		Renderer struct {
			Tracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

func (p *playerResponse) tracks() []captionTrack {
	if p == nil {
		return nil
	}
	return p.Captions.Renderer.Tracks
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

func (t captionTrack) generated() bool {
	return t.Kind == "asr"
}

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        playerContext `json:"context"`
	RacyCheckOK    bool          `json:"racyCheckOk"`
	ContentCheckOK bool          `json:"contentCheckOk"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSDKVersion int    `json:"androidSdkVersion"`
	HL                string `json:"hl"`
	GL                string `json:"gl"`
}

// timedText is the legacy caption XML format:
//
//	<transcript><text start="0.5" dur="2.1">Hello</text></transcript>
type timedText struct {
	Lines []timedLine `xml:"text"`
}

type timedLine struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}

// extractJSON returns the JSON object at the start of data, matching braces
// outside of string literals.
func extractJSON(data []byte) []byte {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	depth := 0
	inString := false
	escaped := false
	for i, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[:i+1]
			}
		}
	}
	return nil
}
