package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ilikebug/VeloxClip-sub001/internal/config"
	"github.com/ilikebug/VeloxClip-sub001/internal/db"
	"github.com/ilikebug/VeloxClip-sub001/internal/logger"
	"github.com/ilikebug/VeloxClip-sub001/internal/mcp"
	"github.com/ilikebug/VeloxClip-sub001/internal/store"
	"github.com/ilikebug/VeloxClip-sub001/internal/summarize"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "list": true, "show": true, "search": true,
	"favorite": true, "tags": true, "delete": true, "clear": true,
	"settings": true, "serve": true, "browse": true, "watch": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  __     __   _          ___ _ _
  \ \   / /__| | _____  / __| (_)_ __
   \ \ / / _ \ |/ _ \ \/ / |  | | '_ \
    \ V /  __/ | (_) >  <| |__| | |_) |
     \_/ \___|_|\___/_/\_\\____|_| .__/
                                 |_|
  Clipboard history, searchable everywhere

  Usage: veloxclip <command> [options]
         veloxclip --help

  MCP server mode requires piped input.`)
}

// openStore builds the in-memory store over the database and loads the
// persisted history and favorites into it.
func openStore(database *sql.DB, cfg *config.Config, log *zap.Logger) (*store.Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	dbStore := db.NewStore(database)
	s := store.New(dbStore,
		store.WithLimit(func() int { return dbStore.HistoryLimit(cfg.HistoryLimit) }),
		store.WithSummarizer(summarize.Excerpt{}),
		store.WithLogger(log),
	)

	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if err := s.LoadFavorites(ctx); err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	return s, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".veloxclip")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	// Server modes log JSON to stderr; one-shot commands stay quiet.
	serverMode := !isCLIMode() || (len(os.Args) >= 2 && (os.Args[1] == "serve" || os.Args[1] == "browse"))
	log := logger.Nop()
	if serverMode {
		log, err = logger.New(true, os.Getenv("VELOXCLIP_DEBUG") != "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to build logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync(log)

	s, err := openStore(database, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(database, s, cfg)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'veloxclip --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(mcp.NewHandlers(s, database), cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
