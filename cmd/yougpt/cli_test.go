package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hpungsan/yougpt/internal/config"
	"github.com/hpungsan/yougpt/internal/db"
	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/ops"
	"github.com/hpungsan/yougpt/internal/summary"
	"github.com/hpungsan/yougpt/internal/transcript"
)

const (
	testVideoID = "dQw4w9WgXcQ"
	testURL     = "https://youtu.be/dQw4w9WgXcQ"
	testText    = "Foxes are small omnivores. They live on every continent except Antarctica."
)

// setupPipeline creates a pipeline on a temporary database with a canned transcript.
func setupPipeline(t *testing.T) *ops.Pipeline {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	p := ops.NewPipeline(database, cfg, zerolog.Nop())
	p.Fetcher = transcript.FetcherFunc(func(_ context.Context, videoID string) (*transcript.Transcript, error) {
		if videoID != testVideoID {
			return nil, errors.NewTranscriptUnavailable(videoID, os.ErrNotExist)
		}
		return &transcript.Transcript{
			VideoID:  videoID,
			Title:    "Fox Facts",
			Language: "en",
			Segments: []transcript.Segment{{Text: testText}},
		}, nil
	})
	return p
}

// runCLI runs the app with args and returns stdout.
func runCLI(t *testing.T, p *ops.Pipeline, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newCLIApp(p)
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"yougpt"}, args...))
	return out.String(), err
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("invalid JSON output %q: %v", s, err)
	}
	return m
}

// summarize stores one summary and returns its ID.
func summarize(t *testing.T, p *ops.Pipeline) string {
	t.Helper()
	out, err := runCLI(t, p, "summarize", "--format", "essay", testURL)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	return decodeJSON(t, out)["id"].(string)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"7d", 7, false},
		{"0d", 0, false},
		{"30d", 30, false},
		{"7", 0, true},
		{"7h", 0, true},
		{"d", 0, true},
		{"-1d", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"yougpt"}, false},
		{[]string{"yougpt", "summarize", testURL}, true},
		{[]string{"yougpt", "serve"}, true},
		{[]string{"yougpt", "--version"}, true},
		{[]string{"yougpt", "-h"}, true},
		{[]string{"yougpt", "frobnicate"}, false},
	}
	for _, tt := range tests {
		if got := isCLIMode(tt.args); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestJoinNames(t *testing.T) {
	if got := joinNames(summary.Lengths); got != "100|500|800|1000|1500|custom" {
		t.Errorf("joinNames(Lengths) = %q", got)
	}
}

func TestCLISummarize(t *testing.T) {
	p := setupPipeline(t)

	out, err := runCLI(t, p, "summarize", "--format", "bullet-points", "--length", "500", testURL)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	result := decodeJSON(t, out)
	if result["video_id"] != testVideoID {
		t.Errorf("video_id = %v, want %s", result["video_id"], testVideoID)
	}
	if result["format"] != "Bullet Points" {
		t.Errorf("format = %v, want Bullet Points", result["format"])
	}
	if result["length"] != "500" {
		t.Errorf("length = %v, want 500", result["length"])
	}
	if result["summary"] != testText+"..." {
		t.Errorf("summary = %q", result["summary"])
	}
	if _, ok := result["export"]; ok {
		t.Error("export should be absent without --save")
	}
}

func TestCLISummarize_Save(t *testing.T) {
	p := setupPipeline(t)
	path := filepath.Join(t.TempDir(), "fox.pdf")

	out, err := runCLI(t, p, "summarize", "--save", "pdf", "--path", path, testURL)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	result := decodeJSON(t, out)
	exported, ok := result["export"].(map[string]any)
	if !ok {
		t.Fatalf("export missing from output: %v", result)
	}
	if exported["path"] != path || exported["kind"] != "pdf" {
		t.Errorf("export = %v", exported)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("exported file is not a PDF")
	}
}

func TestCLISummarize_Errors(t *testing.T) {
	p := setupPipeline(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing url", []string{"summarize"}, "[INVALID_REQUEST]"},
		{"invalid url", []string{"summarize", "https://example.com/watch?v=x"}, "[INVALID_URL]"},
		{"unknown format", []string{"summarize", "--format", "haiku", testURL}, "[INVALID_REQUEST]"},
		{"path without save", []string{"summarize", "--path", "/tmp/x.txt", testURL}, "[INVALID_REQUEST]"},
		{"no captions", []string{"summarize", "https://youtu.be/aaaaaaaaaaa"}, "[TRANSCRIPT_UNAVAILABLE]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, p, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), tt.code) {
				t.Errorf("error = %q, want prefix %s", err.Error(), tt.code)
			}
		})
	}
}

func TestCLITranscript(t *testing.T) {
	p := setupPipeline(t)

	out, err := runCLI(t, p, "transcript", "--segments", testURL)
	if err != nil {
		t.Fatalf("transcript failed: %v", err)
	}
	result := decodeJSON(t, out)
	if result["text"] != testText {
		t.Errorf("text = %q", result["text"])
	}
	if segs, _ := result["segments"].([]any); len(segs) != 1 {
		t.Errorf("segments = %v, want 1 entry", result["segments"])
	}

	out, err = runCLI(t, p, "transcript", testURL)
	if err != nil {
		t.Fatalf("transcript failed: %v", err)
	}
	if _, ok := decodeJSON(t, out)["segments"]; ok {
		t.Error("segments should be omitted without --segments")
	}
}

func TestCLIListShow(t *testing.T) {
	p := setupPipeline(t)
	id := summarize(t, p)
	summarize(t, p)

	out, err := runCLI(t, p, "list", "--limit", "1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	list := decodeJSON(t, out)
	items := list["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	pagination := list["pagination"].(map[string]any)
	if pagination["has_more"] != true || pagination["total"] != float64(2) {
		t.Errorf("pagination = %v", pagination)
	}

	out, err = runCLI(t, p, "show", id)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	shown := decodeJSON(t, out)
	if shown["id"] != id || shown["format"] != "Essay" {
		t.Errorf("show = %v", shown)
	}
	downloads := shown["downloads"].(map[string]any)
	if downloads["txt"] != "summary_essay.txt" {
		t.Errorf("downloads = %v", downloads)
	}

	_, err = runCLI(t, p, "show", "01NOPE")
	if err == nil || !strings.HasPrefix(err.Error(), "[NOT_FOUND]") {
		t.Errorf("show missing = %v, want NOT_FOUND", err)
	}
}

func TestCLIDeletePurge(t *testing.T) {
	p := setupPipeline(t)
	id := summarize(t, p)

	out, err := runCLI(t, p, "delete", id)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if decodeJSON(t, out)["deleted"] != true {
		t.Errorf("delete output = %s", out)
	}

	if _, err := runCLI(t, p, "show", id); err == nil {
		t.Error("show should fail for a deleted summary")
	}
	if _, err := runCLI(t, p, "show", "--include-deleted", id); err != nil {
		t.Errorf("show --include-deleted failed: %v", err)
	}

	// Deleted just now, so nothing is older than a week
	out, err = runCLI(t, p, "purge", "--older-than", "7d")
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if decodeJSON(t, out)["purged"] != float64(0) {
		t.Errorf("purge --older-than output = %s", out)
	}

	out, err = runCLI(t, p, "purge")
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if decodeJSON(t, out)["purged"] != float64(1) {
		t.Errorf("purge output = %s", out)
	}

	_, err = runCLI(t, p, "purge", "--older-than", "week")
	if err == nil || !strings.HasPrefix(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("bad --older-than = %v, want INVALID_REQUEST", err)
	}
}

func TestCLIExport(t *testing.T) {
	p := setupPipeline(t)
	id := summarize(t, p)
	path := filepath.Join(t.TempDir(), "fox.txt")

	out, err := runCLI(t, p, "export", "--path", path, id)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	result := decodeJSON(t, out)
	if result["kind"] != "txt" || result["path"] != path {
		t.Errorf("export output = %v", result)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != testText+"..." {
		t.Errorf("exported text = %q", data)
	}

	_, err = runCLI(t, p, "export", "--kind", "docx", id)
	if err == nil || !strings.HasPrefix(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("bad kind = %v, want INVALID_REQUEST", err)
	}
}

func TestCLIHelpWithoutPipeline(t *testing.T) {
	var out bytes.Buffer
	app := newCLIApp(nil)
	app.Writer = &out
	if err := app.Run([]string{"yougpt", "--help"}); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, cmd := range []string{"summarize", "transcript", "list", "show", "delete", "purge", "export", "serve"} {
		if !strings.Contains(out.String(), cmd) {
			t.Errorf("help output missing %q", cmd)
		}
	}
}
