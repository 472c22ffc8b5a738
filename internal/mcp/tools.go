package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/yougpt/internal/export"
	"github.com/hpungsan/yougpt/internal/summary"
)

func formatNames() []string {
	names := make([]string, len(summary.Formats))
	for i, f := range summary.Formats {
		names[i] = f.String()
	}
	return names
}

func lengthNames() []string {
	names := make([]string, len(summary.Lengths))
	for i, l := range summary.Lengths {
		names[i] = l.String()
	}
	return names
}

func kindNames() []string {
	names := make([]string, len(export.Kinds))
	for i, k := range export.Kinds {
		names[i] = string(k)
	}
	return names
}

var generateToolDef = mcp.NewTool("summary_generate",
	mcp.WithDescription("Fetch a YouTube video's captions and produce a summary. "+
		"The result is stored in history and can be fetched, exported, or deleted by id."),
	mcp.WithString("url", mcp.Required(),
		mcp.Description("YouTube link or bare 11-character video id")),
	mcp.WithString("format",
		mcp.Description("Summary format (default: Paragraphs)"),
		mcp.Enum(formatNames()...)),
	mcp.WithString("length",
		mcp.Description("Requested summary size in words (default: 1000)"),
		mcp.Enum(lengthNames()...)),
	mcp.WithOpenWorldHintAnnotation(true),
)

var fetchToolDef = mcp.NewTool("summary_fetch",
	mcp.WithDescription("Fetch a stored summary by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Summary id (ULID)")),
	mcp.WithBoolean("include_deleted", mcp.Description("Also return soft-deleted summaries")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var listToolDef = mcp.NewTool("summary_list",
	mcp.WithDescription("List summary history, newest first."),
	mcp.WithString("video_id", mcp.Description("Only summaries of this video (id or link)")),
	mcp.WithString("format", mcp.Description("Only summaries in this format")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)"), mcp.Min(0), mcp.Max(100)),
	mcp.WithNumber("offset", mcp.Description("Items to skip"), mcp.Min(0)),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted summaries")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deleteToolDef = mcp.NewTool("summary_delete",
	mcp.WithDescription("Soft-delete a summary. It can be recovered until purged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Summary id (ULID)")),
	mcp.WithDestructiveHintAnnotation(false),
)

var purgeToolDef = mcp.NewTool("summary_purge",
	mcp.WithDescription("Permanently remove soft-deleted summaries."),
	mcp.WithNumber("older_than_days",
		mcp.Description("Only purge summaries deleted more than N days ago"), mcp.Min(0)),
	mcp.WithDestructiveHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("summary_export",
	mcp.WithDescription("Write a stored summary to disk as a text or PDF file. "+
		"Default path: ~/.yougpt/exports/summary_<format>-<id>.<ext>."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Summary id (ULID)")),
	mcp.WithString("kind", mcp.Description("Output type (default: from path extension, else txt)"),
		mcp.Enum(kindNames()...)),
	mcp.WithString("path", mcp.Description("Destination file; must sit directly in an allowed directory")),
)

var transcriptToolDef = mcp.NewTool("transcript_fetch",
	mcp.WithDescription("Fetch a YouTube video's caption transcript without summarizing or storing it."),
	mcp.WithString("url", mcp.Required(),
		mcp.Description("YouTube link or bare 11-character video id")),
	mcp.WithBoolean("include_segments", mcp.Description("Include timed caption segments")),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(true),
)
