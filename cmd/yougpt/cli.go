package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/ops"
	"github.com/hpungsan/yougpt/internal/scheduler"
	"github.com/hpungsan/yougpt/internal/summary"
	"github.com/hpungsan/yougpt/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// p may be nil when only help or version output is needed.
func newCLIApp(p *ops.Pipeline) *cli.App {
	app := &cli.App{
		Name:    "yougpt",
		Usage:   "Summarize YouTube videos from their captions",
		Version: Version,
		Commands: []*cli.Command{
			summarizeCmd(p),
			transcriptCmd(p),
			listCmd(p),
			showCmd(p),
			deleteCmd(p),
			purgeCmd(p),
			exportCmd(p),
			serveCmd(p),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// summarizeResult is the summarize output, plus the saved file when --save is given.
type summarizeResult struct {
	*ops.SummarizeOutput
	Export *ops.ExportOutput `json:"export,omitempty"`
}

func summarizeCmd(p *ops.Pipeline) *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Fetch a video's transcript and store a summary",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: summary.DefaultFormat.String(), Usage: "Summary format: " + joinNames(summary.Formats)},
			&cli.StringFlag{Name: "length", Aliases: []string{"l"}, Value: summary.DefaultLength.String(), Usage: "Summary length in words: " + joinNames(summary.Lengths)},
			&cli.StringFlag{Name: "save", Aliases: []string{"s"}, Usage: "Also write the summary to disk: txt|pdf"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "File path for --save (default: ~/.yougpt/exports/...)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("a YouTube link is required"))
			}
			if c.IsSet("path") && !c.IsSet("save") {
				return outputError(errors.NewInvalidRequest("--path requires --save"))
			}

			out, err := ops.Summarize(c.Context, p, ops.SummarizeInput{
				URL:    c.Args().First(),
				Format: c.String("format"),
				Length: c.String("length"),
			})
			if err != nil {
				return outputError(err)
			}

			result := summarizeResult{SummarizeOutput: out}
			if kind := c.String("save"); kind != "" {
				exported, err := ops.Export(c.Context, p.DB, p.Config, ops.ExportInput{
					ID:   out.ID,
					Kind: kind,
					Path: c.String("path"),
				})
				if err != nil {
					return outputError(err)
				}
				result.Export = exported
			}
			return outputJSON(c, result)
		},
	}
}

func transcriptCmd(p *ops.Pipeline) *cli.Command {
	return &cli.Command{
		Name:      "transcript",
		Usage:     "Print a video's caption text without summarizing it",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "segments", Usage: "Include timed caption segments"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("a YouTube link is required"))
			}
			out, err := ops.Transcript(c.Context, p, ops.TranscriptInput{
				URL:             c.Args().First(),
				IncludeSegments: c.Bool("segments"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

func listCmd(p *ops.Pipeline) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored summaries, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "video-id", Aliases: []string{"video"}, Usage: "Filter by video ID or link"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Filter by summary format"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted summaries"},
		},
		Action: func(c *cli.Context) error {
			out, err := ops.List(c.Context, p.DB, ops.ListInput{
				VideoID:        c.String("video-id"),
				Format:         c.String("format"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

func showCmd(p *ops.Pipeline) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one stored summary",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted summaries"},
		},
		Action: func(c *cli.Context) error {
			out, err := ops.Fetch(c.Context, p.DB, ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

func deleteCmd(p *ops.Pipeline) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a summary",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			out, err := ops.Delete(c.Context, p.DB, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

func purgeCmd(p *ops.Pipeline) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted summaries",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			out, err := ops.Purge(c.Context, p.DB, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

func exportCmd(p *ops.Pipeline) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a stored summary to a .txt or .pdf file",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "txt|pdf (default: from --path extension, else txt)"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.yougpt/exports/summary_<format>-<id>.<ext>)"},
		},
		Action: func(c *cli.Context) error {
			out, err := ops.Export(c.Context, p.DB, p.Config, ops.ExportInput{
				ID:   c.Args().First(),
				Kind: c.String("kind"),
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

func serveCmd(p *ops.Pipeline) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8501, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(p, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(err)
			}

			if days := p.Config.HistoryRetentionDays; days > 0 {
				retention, err := scheduler.New(p.DB, days, p.Config.RetentionSchedule, p.Log)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				retention.Start()
				defer retention.Stop()
			}

			if err := web.Run(c.Context, srv, p.Log); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON writes v to the app's writer (stdout) as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	appErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
}

// joinNames renders choices for flag usage text.
func joinNames[T fmt.Stringer](items []T) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.String()
	}
	return strings.Join(names, "|")
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
