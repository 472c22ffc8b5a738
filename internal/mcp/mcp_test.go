package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/hpungsan/yougpt/internal/config"
	"github.com/hpungsan/yougpt/internal/db"
	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/ops"
	"github.com/hpungsan/yougpt/internal/summary"
	"github.com/hpungsan/yougpt/internal/transcript"
)

const testVideoID = "dQw4w9WgXcQ"

var testTranscript = strings.Repeat("Never gonna give you up, never gonna let you down. ", 10)

// testSetup creates a pipeline over a temporary database with a canned transcript.
func testSetup(t *testing.T) *ops.Pipeline {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv(config.HomeEnv, tmpDir)
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	fetcher := transcript.FetcherFunc(func(ctx context.Context, videoID string) (*transcript.Transcript, error) {
		if videoID != testVideoID {
			return nil, errors.NewTranscriptUnavailable(videoID, fmt.Errorf("no captions"))
		}
		return &transcript.Transcript{
			VideoID:  videoID,
			Title:    "Never Gonna Give You Up",
			Language: "en",
			Segments: []transcript.Segment{{Text: testTranscript, Start: 0, Duration: 30}},
		}, nil
	})

	return &ops.Pipeline{
		DB:         database,
		Config:     cfg,
		Fetcher:    fetcher,
		Summarizer: summary.Placeholder{MaxChars: 200},
		Log:        zerolog.Nop(),
	}
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// generate stores one summary through the tool and returns its id.
func generate(t *testing.T, h *Handlers, format string) string {
	t.Helper()
	result, err := h.HandleGenerate(context.Background(), makeRequest(map[string]any{
		"url":    "https://youtu.be/" + testVideoID,
		"format": format,
	}))
	if err != nil {
		t.Fatalf("HandleGenerate returned error: %v", err)
	}
	return parseOutput(t, result)["id"].(string)
}

func TestHandleGenerate(t *testing.T) {
	h := NewHandlers(testSetup(t))

	result, err := h.HandleGenerate(context.Background(), makeRequest(map[string]any{
		"url":    "https://www.youtube.com/watch?v=" + testVideoID,
		"format": "Bullet Points",
		"length": "500",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := parseOutput(t, result)
	if out["video_id"] != testVideoID {
		t.Errorf("video_id = %v, want %s", out["video_id"], testVideoID)
	}
	wantSummary := string([]rune(strings.TrimSpace(testTranscript))[:200]) + "..."
	if out["summary"] != wantSummary {
		t.Errorf("summary = %q, want %q", out["summary"], wantSummary)
	}
	downloads := out["downloads"].(map[string]any)
	if downloads["pdf"] != "summary_bullet_points.pdf" {
		t.Errorf("downloads.pdf = %v", downloads["pdf"])
	}
}

func TestHandleGenerate_Errors(t *testing.T) {
	h := NewHandlers(testSetup(t))

	tests := []struct {
		name string
		args map[string]any
		code errors.ErrorCode
	}{
		{"missing url", map[string]any{}, errors.ErrInvalidRequest},
		{"bad url", map[string]any{"url": "https://example.com/"}, errors.ErrInvalidURL},
		{"bad format", map[string]any{"url": testVideoID, "format": "haiku"}, errors.ErrInvalidRequest},
		{"no captions", map[string]any{"url": "aaaaaaaaaaa"}, errors.ErrTranscriptUnavailable},
		{"wrong type", map[string]any{"url": 42}, errors.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleGenerate(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected IsError=true")
			}
			assertErrorCode(t, result, string(tt.code))
		})
	}
}

func TestHandleFetch(t *testing.T) {
	h := NewHandlers(testSetup(t))
	id := generate(t, h, "Essay")

	result, err := h.HandleFetch(context.Background(), makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := parseOutput(t, result)
	if out["id"] != id || out["format"] != "Essay" {
		t.Errorf("fetch = %v", out)
	}
	if out["title"] != "Never Gonna Give You Up" {
		t.Errorf("title = %v", out["title"])
	}

	result, _ = h.HandleFetch(context.Background(), makeRequest(map[string]any{"id": "01NOPE"}))
	assertErrorCode(t, result, string(errors.ErrNotFound))
}

func TestHandleList(t *testing.T) {
	h := NewHandlers(testSetup(t))
	generate(t, h, "Essay")
	generate(t, h, "Report")
	generate(t, h, "Essay")

	result, err := h.HandleList(context.Background(), makeRequest(map[string]any{
		"format": "essay",
		"limit":  float64(1),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := parseOutput(t, result)
	items := out["items"].([]any)
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}
	pagination := out["pagination"].(map[string]any)
	if pagination["total"] != float64(2) || pagination["has_more"] != true {
		t.Errorf("pagination = %v", pagination)
	}
	item := items[0].(map[string]any)
	if _, ok := item["summary"]; ok {
		t.Error("list items should not carry the summary text")
	}
}

func TestHandleDeleteAndPurge(t *testing.T) {
	h := NewHandlers(testSetup(t))
	id := generate(t, h, "")
	ctx := context.Background()

	result, err := h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := parseOutput(t, result); out["deleted"] != true {
		t.Errorf("delete = %v", out)
	}

	result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"id": id, "include_deleted": true}))
	parseOutput(t, result)

	result, err = h.HandlePurge(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := parseOutput(t, result); out["purged"] != float64(1) {
		t.Errorf("purge = %v", out)
	}

	result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"id": id, "include_deleted": true}))
	assertErrorCode(t, result, string(errors.ErrNotFound))

	result, _ = h.HandlePurge(ctx, makeRequest(map[string]any{"older_than_days": float64(-1)}))
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
}

func TestHandleExport(t *testing.T) {
	h := NewHandlers(testSetup(t))
	id := generate(t, h, "Review")

	path := filepath.Join(t.TempDir(), "review.pdf")
	result, err := h.HandleExport(context.Background(), makeRequest(map[string]any{
		"id":   id,
		"path": path,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := parseOutput(t, result)
	if out["kind"] != "pdf" || out["path"] != path {
		t.Errorf("export = %v", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("exported file is not a PDF")
	}

	result, _ = h.HandleExport(context.Background(), makeRequest(map[string]any{
		"id":   id,
		"kind": "txt",
		"path": path,
	}))
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
}

func TestHandleTranscript(t *testing.T) {
	h := NewHandlers(testSetup(t))

	result, err := h.HandleTranscript(context.Background(), makeRequest(map[string]any{
		"url":              testVideoID,
		"include_segments": true,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := parseOutput(t, result)
	if out["text"] != strings.TrimSpace(testTranscript) {
		t.Errorf("text = %q", out["text"])
	}
	if segs, ok := out["segments"].([]any); !ok || len(segs) != 1 {
		t.Errorf("segments = %v", out["segments"])
	}

	// Nothing is stored.
	list, _ := h.HandleList(context.Background(), makeRequest(nil))
	if total := parseOutput(t, list)["pagination"].(map[string]any)["total"]; total != float64(0) {
		t.Errorf("transcript_fetch stored %v summaries", total)
	}
}

func TestServerRegistration(t *testing.T) {
	p := testSetup(t)

	s := NewServer(p, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"summary_generate",
		"summary_fetch",
		"summary_list",
		"summary_delete",
		"summary_purge",
		"summary_export",
		"transcript_fetch",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	p := testSetup(t)
	p.Config.DisabledTools = []string{"summary_purge", "summary_purge", "summary_delete"}

	tools := NewServer(p, "test").ListTools()
	if len(tools) != 5 {
		t.Errorf("registered tool count = %d, want 5", len(tools))
	}
	for _, name := range []string{"summary_purge", "summary_delete"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	p := testSetup(t)
	p.Config.DisabledTypes = []string{"summary"}

	tools := NewServer(p, "test").ListTools()
	if len(tools) != 1 {
		t.Errorf("registered tool count = %d, want 1", len(tools))
	}
	if _, ok := tools["transcript_fetch"]; !ok {
		t.Error("transcript_fetch should stay registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	p := testSetup(t)
	p.Config.DisabledTools = AllToolNames()

	if tools := NewServer(p, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabled(t *testing.T) {
	if unknown := ValidateDisabledTools([]string{"summary_purge", "playlist_fetch"}); len(unknown) != 1 || unknown[0] != "playlist_fetch" {
		t.Errorf("ValidateDisabledTools = %v", unknown)
	}
	if unknown := ValidateDisabledTools(AllToolNames()); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"transcript", "playlist"}); len(unknown) != 1 || unknown[0] != "playlist" {
		t.Errorf("ValidateDisabledTypes = %v", unknown)
	}
	if got := GetTypeForTool("transcript_fetch"); got != "transcript" {
		t.Errorf("GetTypeForTool = %q", got)
	}
	if got := GetTypeForTool("nounderscore"); got != "" {
		t.Errorf("GetTypeForTool(no type) = %q", got)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if strings.Contains(errObj["message"].(string), "secret.db") {
		t.Fatal("INTERNAL message leaked the underlying error")
	}
}

func TestErrorResult_PlainErrorIsInternal(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) {
		t.Errorf("code=%v, want INTERNAL", errObj["code"])
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("lookup: %w", errors.NewInvalidURL("nope"))))
	if errObj["code"] != string(errors.ErrInvalidURL) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInvalidURL)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Errorf("expected error %s, got success", expectedCode)
		return
	}
	if code := errorObject(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
