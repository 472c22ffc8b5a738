// Package summary builds the summarization prompt and produces summaries.
package summary

import (
	"fmt"
	"strings"

	"github.com/hpungsan/yougpt/internal/errors"
)

// Format is the requested summary style.
type Format string

const (
	FormatBulletPoints Format = "Bullet Points"
	FormatSentences    Format = "Sentences"
	FormatParagraphs   Format = "Paragraphs"
	FormatReport       Format = "Report"
	FormatEssay        Format = "Essay"
	FormatReview       Format = "Review"
)

// DefaultFormat is preselected in the UI and used when no format is given.
const DefaultFormat = FormatParagraphs

// Formats lists every format in display order.
var Formats = []Format{
	FormatBulletPoints,
	FormatSentences,
	FormatParagraphs,
	FormatReport,
	FormatEssay,
	FormatReview,
}

// ParseFormat resolves s to a Format. Matching ignores case and treats
// '-', '_' and ' ' alike, so "bullet-points" is Bullet Points.
// Empty input yields DefaultFormat.
func ParseFormat(s string) (Format, error) {
	key := normalize(s)
	if key == "" {
		return DefaultFormat, nil
	}
	for _, f := range Formats {
		if normalize(string(f)) == key {
			return f, nil
		}
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown summary format %q (valid: %s)", s, formatNames()))
}

// Slug is the lowercase, filename-safe form: "Bullet Points" → "bullet_points".
func (f Format) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(f)), " ", "_")
}

func (f Format) String() string {
	return string(f)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
