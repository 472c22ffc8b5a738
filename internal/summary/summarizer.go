package summary

import (
	"context"
	"fmt"
)

// DefaultMaxChars is the placeholder summary size when none is configured.
const DefaultMaxChars = 200

// Ellipsis is appended to every placeholder summary.
const Ellipsis = "..."

const promptTemplate = "You are a YouTube video summarizer. Take the transcript text and summarize " +
	"the video as per the selected format. Format: %s with the summary size %s. " +
	"Please provide the summary of the text given here:"

// BuildPrompt renders the summarization instruction for a format and length.
func BuildPrompt(format Format, length Length) string {
	return fmt.Sprintf(promptTemplate, format, length)
}

// Summarizer turns a transcript into a summary following prompt.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, prompt string) (string, error)
}

// Placeholder is a stand-in Summarizer that echoes the start of the
// transcript. The prompt (and so the format and length) does not affect the
// result.
type Placeholder struct {
	// MaxChars is the number of runes kept. Zero or negative means DefaultMaxChars.
	MaxChars int
}

var _ Summarizer = Placeholder{}

// Summarize returns the first MaxChars runes of transcript followed by Ellipsis.
func (p Placeholder) Summarize(ctx context.Context, transcript, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Truncate(transcript, p.maxChars()) + Ellipsis, nil
}

func (p Placeholder) maxChars() int {
	if p.MaxChars <= 0 {
		return DefaultMaxChars
	}
	return p.MaxChars
}

// Truncate returns at most n runes of s without splitting a character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
