// Package export serializes a summary as a downloadable text or PDF file.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/summary"
)

// Kind is an output file type.
type Kind string

const (
	KindText Kind = "txt"
	KindPDF  Kind = "pdf"
)

// Kinds lists the supported output types.
var Kinds = []Kind{KindText, KindPDF}

// PDF layout, in millimetres and points.
const (
	pdfMargin       = 10.0
	pdfBottomMargin = 15.0
	pdfLineHeight   = 10.0
	pdfFontSize     = 12.0
	pdfFont         = "Arial"
)

// ParseKind resolves "txt", "text" or "pdf" (any case, optional leading dot).
func ParseKind(s string) (Kind, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "txt", "text":
		return KindText, nil
	case "pdf":
		return KindPDF, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown export kind %q (valid: txt, pdf)", s))
}

// Ext returns the file extension including the dot.
func (k Kind) Ext() string {
	return "." + string(k)
}

// ContentType returns the MIME type served for k.
func (k Kind) ContentType() string {
	if k == KindPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// Filename returns the download name for a summary of the given format,
// e.g. "summary_bullet_points.pdf".
func Filename(format summary.Format, k Kind) string {
	return "summary_" + format.Slug() + k.Ext()
}

// Text returns the summary as UTF-8 bytes, unchanged.
func Text(s string) []byte {
	return []byte(s)
}

// PDF lays the summary out as wrapped text on A4 pages.
//
// The document uses a core font, so text is translated to cp1252 first.
// Characters outside that code page are replaced rather than rejected.
func PDF(s string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfBottomMargin)
	pdf.SetCreator("yougpt", false)
	pdf.SetTitle("Video Summary", false)
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.MultiCell(0, pdfLineHeight, tr(s), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Render produces the bytes for kind k.
func Render(k Kind, s string) ([]byte, error) {
	switch k {
	case KindText:
		return Text(s), nil
	case KindPDF:
		return PDF(s)
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown export kind %q (valid: txt, pdf)", string(k)))
}
