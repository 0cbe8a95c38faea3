package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/ilikebug/VeloxClip-sub001/internal/config"
	"github.com/ilikebug/VeloxClip-sub001/internal/db"
	"github.com/ilikebug/VeloxClip-sub001/internal/errors"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
	"github.com/ilikebug/VeloxClip-sub001/internal/store"
	"github.com/ilikebug/VeloxClip-sub001/internal/tui"
	"github.com/ilikebug/VeloxClip-sub001/internal/watch"
	"github.com/ilikebug/VeloxClip-sub001/internal/web"
)

// maxStdinBytes bounds clipboard payloads accepted on stdin.
const maxStdinBytes = 10 << 20

// cliItem is the JSON shape commands print for a history entry. Binary
// payloads are reported by size rather than inlined.
type cliItem struct {
	ID        string   `json:"id"`
	CreatedAt int64    `json:"created_at"`
	Kind      string   `json:"kind"`
	Content   string   `json:"content,omitempty"`
	DataSize  int      `json:"data_size,omitempty"`
	SourceApp string   `json:"source_app,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Sensitive bool     `json:"sensitive,omitempty"`
	Favorite  bool     `json:"favorite,omitempty"`
}

func cliItemOf(it item.Item) cliItem {
	v := cliItem{
		ID:        it.ID,
		CreatedAt: it.CreatedAt,
		Kind:      string(it.Kind),
		DataSize:  len(it.Data),
		Tags:      it.Tags,
		Sensitive: it.Sensitive,
		Favorite:  it.Favorite,
	}
	if it.Content != nil {
		v.Content = *it.Content
	}
	if it.SourceApp != nil {
		v.SourceApp = *it.SourceApp
	}
	if it.Summary != nil {
		v.Summary = *it.Summary
	}
	return v
}

func cliItemsOf(items []item.Item) []cliItem {
	out := make([]cliItem, 0, len(items))
	for _, it := range items {
		out = append(out, cliItemOf(it))
	}
	return out
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, s *store.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "veloxclip",
		Usage:   "Clipboard history manager",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(s),
			listCmd(s),
			showCmd(s),
			searchCmd(database),
			favoriteCmd(s),
			tagsCmd(s),
			deleteCmd(s),
			clearCmd(s),
			settingsCmd(database, cfg),
			serveCmd(database, s, cfg),
			browseCmd(s),
			watchCmd(s),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a history entry (reads content from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "text", Usage: "Payload kind: text|image|file|color|rtf|other"},
			&cli.StringFlag{Name: "data-file", Usage: "Read a binary payload from a file instead of stdin"},
			&cli.StringFlag{Name: "source-app", Usage: "Application the entry came from"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.BoolFlag{Name: "sensitive", Usage: "Mark the entry as sensitive"},
		},
		Action: func(c *cli.Context) error {
			kind := item.Kind(c.String("kind"))
			switch kind {
			case item.KindText, item.KindImage, item.KindFile, item.KindColor, item.KindRTF, item.KindOther:
			default:
				return outputError(errors.NewInvalidRequest("unknown kind: " + c.String("kind")))
			}

			var content string
			var data []byte
			if path := c.String("data-file"); path != "" {
				b, err := os.ReadFile(path)
				if err != nil {
					return outputError(errors.NewInvalidRequest("cannot read data-file: " + err.Error()))
				}
				data = b
			} else {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("content must be piped via stdin"))
				}
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				content = text
			}
			if content == "" && len(data) == 0 {
				return outputError(errors.NewInvalidRequest("content is required"))
			}

			id, err := item.NewID()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			it := item.Item{
				ID:        id,
				Kind:      kind,
				Data:      data,
				Sensitive: c.Bool("sensitive"),
			}
			if content != "" {
				it.Content = &content
			}
			if app := c.String("source-app"); app != "" {
				it.SourceApp = &app
			}
			if tags := c.String("tags"); tags != "" {
				it.Tags = parseTags(tags)
			}

			s.Add(it)
			s.Wait()

			stored, ok := s.Get(id)
			if !ok {
				return outputError(errors.NewStoreUnavailable("item was not persisted"))
			}
			return outputJSON(cliItemOf(stored))
		},
	}
}

// listCmd creates the list command.
func listCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List history entries, newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "favorites", Aliases: []string{"f"}, Usage: "List favorites instead of history"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			items := s.Items()
			if c.Bool("favorites") {
				items = s.Favorites()
			}
			total := len(items)

			offset := c.Int("offset")
			if offset < 0 {
				offset = 0
			}
			if offset > total {
				offset = total
			}
			items = items[offset:]
			if limit := c.Int("limit"); limit > 0 && limit < len(items) {
				items = items[:limit]
			}

			return outputJSON(struct {
				Items []cliItem `json:"items"`
				Total int       `json:"total"`
			}{cliItemsOf(items), total})
		},
	}
}

// showCmd creates the show command.
func showCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a single entry by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			it, ok := s.Get(c.Args().First())
			if !ok {
				return outputError(errors.NewNotFound(c.Args().First()))
			}
			return outputJSON(cliItemOf(it))
		},
	}
}

// searchCmd creates the search command.
func searchCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search history by content, summary, or source app",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("query is required"))
			}
			items, err := db.Search(context.Background(), database, c.Args().First(), c.Int("limit"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(struct {
				Items []cliItem `json:"items"`
				Total int       `json:"total"`
			}{cliItemsOf(items), len(items)})
		},
	}
}

// favoriteCmd creates the favorite command.
func favoriteCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "favorite",
		Usage:     "Toggle the favorite flag on an entry",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			id := c.Args().First()
			before, ok := s.Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}

			s.ToggleFavorite(id)
			s.Wait()

			after, ok := s.Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			if after.Favorite == before.Favorite {
				return outputError(errors.NewStoreUnavailable("favorite toggle was rolled back"))
			}
			return outputJSON(cliItemOf(after))
		},
	}
}

// tagsCmd creates the tags command.
func tagsCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "tags",
		Usage:     "Replace the tags on an entry",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tags", Aliases: []string{"t"}, Required: true, Usage: "Comma-separated tags (empty clears)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			id := c.Args().First()
			if _, ok := s.Get(id); !ok {
				return outputError(errors.NewNotFound(id))
			}

			s.UpdateTags(id, parseTags(c.String("tags")))
			s.Wait()

			after, ok := s.Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(cliItemOf(after))
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete entries by ID",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("at least one id is required"))
			}

			items := s.Items()
			byID := make(map[string]int, len(items))
			for i, it := range items {
				byID[it.ID] = i
			}

			var positions []int
			var deleted []string
			for _, id := range c.Args().Slice() {
				if pos, ok := byID[id]; ok {
					positions = append(positions, pos)
					deleted = append(deleted, id)
				}
			}
			if len(positions) == 0 {
				return outputError(errors.NewNotFound(strings.Join(c.Args().Slice(), ", ")))
			}

			s.DeleteAt(positions)
			s.Wait()

			return outputJSON(struct {
				Deleted   []string `json:"deleted"`
				Remaining int      `json:"remaining"`
			}{deleted, s.Len()})
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete the entire history, favorites included",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation requirement"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("pass --yes to confirm clearing all history"))
			}

			s.Clear()
			s.Wait()

			if s.Len() != 0 {
				return outputError(errors.NewStoreUnavailable("clear failed; history unchanged"))
			}
			return outputJSON(struct {
				Cleared bool `json:"cleared"`
			}{true})
		},
	}
}

// settingsCmd creates the settings command.
func settingsCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change persisted settings",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "history-limit", Usage: "Set the maximum number of retained non-favorite entries"},
		},
		Action: func(c *cli.Context) error {
			dbStore := db.NewStore(database)

			if c.IsSet("history-limit") {
				limit := c.Int("history-limit")
				if limit < 1 {
					return outputError(errors.NewInvalidRequest("history-limit must be at least 1"))
				}
				if err := dbStore.SetHistoryLimit(context.Background(), limit); err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			return outputJSON(struct {
				HistoryLimit int `json:"history_limit"`
			}{dbStore.HistoryLimit(cfg.HistoryLimit)})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(database *sql.DB, s *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to listen on (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := cfg.WebBind
			if b := c.String("bind"); b != "" {
				bind = b
			}
			port := cfg.WebPort
			if p := c.Int("port"); p != 0 {
				port = p
			}

			srv := web.NewServer(s, database, cfg, Version, bind, port)
			if err := web.Run(srv); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// browseCmd creates the browse command.
func browseCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse the history in a terminal UI",
		Action: func(_ *cli.Context) error {
			m := tui.New(tui.Options{Store: s, Version: Version})
			if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll a clipboard-mirror file and record its changes as history entries",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "File mirroring the system clipboard (e.g. written by xclip -o in a loop)"},
			&cli.DurationFlag{Name: "interval", Value: watch.DefaultInterval, Usage: "Poll interval"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("file")
			read := func(_ context.Context) (item.Kind, string, []byte, error) {
				b, err := os.ReadFile(path)
				if err != nil {
					return item.KindText, "", nil, err
				}
				return item.KindText, strings.TrimSpace(string(b)), nil, nil
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			p := watch.NewPoller(read, c.Duration("interval"), nil)
			p.Start(ctx)
			defer p.Stop()

			for {
				select {
				case it, ok := <-p.Items():
					if !ok {
						return nil
					}
					s.Add(it)
					s.Wait()
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if verr, ok := err.(*errors.VeloxError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", verr.Code, verr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads stdin up to maxBytes and errors when the payload is larger.
func readStdin(maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("stdin exceeds %d bytes", maxBytes)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
