// Package mcp exposes the summarizer over the Model Context Protocol (stdio).
package mcp

import (
	"log"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/hpungsan/yougpt/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"summary", "transcript"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"summary_generate": {
		def:     generateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGenerate },
	},
	"summary_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"summary_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"summary_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"summary_purge": {
		def:     purgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
	"summary_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"transcript_fetch": {
		def:     transcriptToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTranscript },
	},
}

// AllToolNames returns every registered tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if !slices.Contains(KnownTypes, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "summary_fetch" → "summary").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if slices.Contains(types, GetTypeForTool(name)) {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates an MCP server with the yougpt tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(p *ops.Pipeline, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"yougpt",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(p)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(p.Config.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range p.Config.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves MCP over stdio until stdin closes.
// Logs go to stderr through the pipeline logger; stdout carries the protocol.
func Run(p *ops.Pipeline, version string) error {
	s := NewServer(p, version)
	p.Log.Info().Strs("tools", registeredNames(p)).Msg("mcp server starting")
	return server.ServeStdio(s, server.WithErrorLogger(stdLogger(p.Log)))
}

func registeredNames(p *ops.Pipeline) []string {
	names := make([]string, 0, len(toolRegistry))
	for _, name := range AllToolNames() {
		if slices.Contains(p.Config.DisabledTools, name) ||
			slices.Contains(p.Config.DisabledTypes, GetTypeForTool(name)) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// stdLogger adapts the process logger for mcp-go's *log.Logger hook.
func stdLogger(l zerolog.Logger) *log.Logger {
	return log.New(l.With().Str("component", "mcp").Logger(), "", 0)
}
