package main

import (
	"fmt"
	"os"

	"github.com/hpungsan/yougpt/internal/config"
	"github.com/hpungsan/yougpt/internal/db"
	"github.com/hpungsan/yougpt/internal/logging"
	"github.com/hpungsan/yougpt/internal/mcp"
	"github.com/hpungsan/yougpt/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"summarize": true, "transcript": true,
	"list": true, "show": true, "delete": true, "purge": true,
	"export": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return isHelpOrVersion(args)
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "--help", "-h", "--version", "-v", "help":
		return true
	}
	return false
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func printBanner() {
	fmt.Println(`
  __   __            ____ ____ _____
  \ \ / /__  _   _  / ___|  _ \_   _|
   \ V / _ \| | | || |  _| |_) || |
    | | (_) | |_| || |_| |  __/ | |
    |_|\___/ \__,_| \____|_|    |_|

  YouTube video summarizer

  Usage: yougpt <command> [options]
         yougpt serve        (web UI on http://127.0.0.1:8501)
         yougpt --help

  MCP server mode requires piped input.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no database
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	if !isCLIMode(os.Args) && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'yougpt --help' for usage.\n")
		os.Exit(1)
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fail("failed to load config: %v", err)
	}

	log := logging.Stderr(cfg.LogLevel)

	database, err := db.Init(baseDir)
	if err != nil {
		fail("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	p := ops.NewPipeline(database, cfg, log)

	if isCLIMode(os.Args) {
		app := newCLIApp(p)
		if err := app.Run(os.Args); err != nil {
			database.Close()
			fail("%v", err)
		}
		return
	}

	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		log.Warn().Str("tool", name).Msg("unknown tool in disabled_tools")
	}
	for _, name := range mcp.ValidateDisabledTypes(cfg.DisabledTypes) {
		log.Warn().Str("type", name).Msg("unknown type in disabled_types")
	}

	if err := mcp.Run(p, Version); err != nil {
		database.Close()
		fail("%v", err)
	}
}
