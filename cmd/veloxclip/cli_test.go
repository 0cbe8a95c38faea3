package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ilikebug/VeloxClip-sub001/internal/config"
	"github.com/ilikebug/VeloxClip-sub001/internal/db"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
	"github.com/ilikebug/VeloxClip-sub001/internal/store"
)

// setupTestApp creates a temporary database, a loaded store, and the CLI app.
func setupTestApp(t *testing.T) (*cli.App, *store.Store, *sql.DB) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	s, err := openStore(database, cfg, nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return newCLIApp(database, s, cfg), s, database
}

// runApp runs the app with args and returns captured stdout.
func runApp(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := app.Run(append([]string{"veloxclip"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), runErr
}

// addTestItem stores a text entry directly and waits for the commit.
func addTestItem(t *testing.T, s *store.Store, content string) string {
	t.Helper()
	id, err := item.NewID()
	if err != nil {
		t.Fatalf("failed to generate id: %v", err)
	}
	s.Add(item.Item{
		ID:        id,
		CreatedAt: time.Now().Unix(),
		Kind:      item.KindText,
		Content:   &content,
	})
	s.Wait()
	return id
}

// TestParseTags tests the parseTags helper function.
func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single tag",
			input:    "foo",
			expected: []string{"foo"},
		},
		{
			name:     "multiple tags",
			input:    "foo,bar,baz",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "tags with spaces",
			input:    " foo , bar , baz ",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "empty tags filtered",
			input:    "foo,,bar,",
			expected: []string{"foo", "bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTags(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d tags, got %d", len(tt.expected), len(result))
				return
			}
			for i, tag := range result {
				if tag != tt.expected[i] {
					t.Errorf("expected tag[%d]=%q, got %q", i, tt.expected[i], tag)
				}
			}
		})
	}
}

// TestCLIAdd tests the add command.
func TestCLIAdd(t *testing.T) {
	app, _, _ := setupTestApp(t)

	// Create a pipe for stdin
	oldStdin := os.Stdin
	stdinR, stdinW, _ := os.Pipe()
	os.Stdin = stdinR
	defer func() { os.Stdin = oldStdin }()

	go func() {
		_, _ = stdinW.WriteString("hello from the clipboard")
		stdinW.Close()
	}()

	out, err := runApp(t, app, "add", "--tags=foo,bar", "--source-app=TestApp")
	if err != nil {
		t.Fatalf("add command failed: %v", err)
	}

	var got cliItem
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}

	if got.ID == "" {
		t.Error("expected non-empty ID")
	}
	if got.Content != "hello from the clipboard" {
		t.Errorf("expected stored content, got %q", got.Content)
	}
	if got.Kind != "text" {
		t.Errorf("expected kind=text, got %s", got.Kind)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "foo" {
		t.Errorf("expected tags [foo bar], got %v", got.Tags)
	}
	if got.SourceApp != "TestApp" {
		t.Errorf("expected source_app=TestApp, got %s", got.SourceApp)
	}
}

// TestCLIAddRejectsUnknownKind tests kind validation in the add command.
func TestCLIAddRejectsUnknownKind(t *testing.T) {
	app, _, _ := setupTestApp(t)

	_, err := runApp(t, app, "add", "--kind=hologram")
	if err == nil {
		t.Error("expected error for unknown kind, got nil")
	}
}

// TestCLIList tests the list command.
func TestCLIList(t *testing.T) {
	app, s, _ := setupTestApp(t)

	addTestItem(t, s, "one")
	addTestItem(t, s, "two")
	addTestItem(t, s, "three")

	out, err := runApp(t, app, "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}

	var output struct {
		Items []cliItem `json:"items"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if output.Total != 3 {
		t.Errorf("expected total=3, got %d", output.Total)
	}
	if len(output.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(output.Items))
	}
	// Newest first
	if output.Items[0].Content != "three" {
		t.Errorf("expected newest item first, got %q", output.Items[0].Content)
	}

	t.Run("offset and limit", func(t *testing.T) {
		out, err := runApp(t, app, "list", "--offset=1", "--limit=1")
		if err != nil {
			t.Fatalf("list command failed: %v", err)
		}
		if err := json.Unmarshal([]byte(out), &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if len(output.Items) != 1 || output.Items[0].Content != "two" {
			t.Errorf("expected [two], got %v", output.Items)
		}
	})
}

// TestCLIShow tests the show command.
func TestCLIShow(t *testing.T) {
	app, s, _ := setupTestApp(t)
	id := addTestItem(t, s, "shown entry")

	out, err := runApp(t, app, "show", id)
	if err != nil {
		t.Fatalf("show command failed: %v", err)
	}

	var got cliItem
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if got.ID != id {
		t.Errorf("expected ID=%s, got %s", id, got.ID)
	}
}

// TestCLISearch tests the search command.
func TestCLISearch(t *testing.T) {
	app, s, _ := setupTestApp(t)
	addTestItem(t, s, "the needle is here")
	addTestItem(t, s, "nothing to see")

	out, err := runApp(t, app, "search", "needle")
	if err != nil {
		t.Fatalf("search command failed: %v", err)
	}

	var output struct {
		Items []cliItem `json:"items"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if output.Total != 1 {
		t.Errorf("expected 1 match, got %d", output.Total)
	}
}

// TestCLIFavorite tests the favorite command.
func TestCLIFavorite(t *testing.T) {
	app, s, _ := setupTestApp(t)
	id := addTestItem(t, s, "pin me")

	out, err := runApp(t, app, "favorite", id)
	if err != nil {
		t.Fatalf("favorite command failed: %v", err)
	}

	var got cliItem
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if !got.Favorite {
		t.Error("expected favorite=true after toggle")
	}

	if len(s.Favorites()) != 1 {
		t.Errorf("expected 1 favorite in store, got %d", len(s.Favorites()))
	}
}

// TestCLITags tests the tags command.
func TestCLITags(t *testing.T) {
	app, s, _ := setupTestApp(t)
	id := addTestItem(t, s, "tag me")

	out, err := runApp(t, app, "tags", "--tags= work , snippets ,", id)
	if err != nil {
		t.Fatalf("tags command failed: %v", err)
	}

	var got cliItem
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "work" || got.Tags[1] != "snippets" {
		t.Errorf("expected tags [work snippets], got %v", got.Tags)
	}
}

// TestCLIDelete tests the delete command.
func TestCLIDelete(t *testing.T) {
	app, s, _ := setupTestApp(t)
	id1 := addTestItem(t, s, "keep")
	id2 := addTestItem(t, s, "remove")

	out, err := runApp(t, app, "delete", id2, "no-such-id")
	if err != nil {
		t.Fatalf("delete command failed: %v", err)
	}

	var output struct {
		Deleted   []string `json:"deleted"`
		Remaining int      `json:"remaining"`
	}
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(output.Deleted) != 1 || output.Deleted[0] != id2 {
		t.Errorf("expected deleted=[%s], got %v", id2, output.Deleted)
	}
	if output.Remaining != 1 {
		t.Errorf("expected remaining=1, got %d", output.Remaining)
	}
	if _, ok := s.Get(id1); !ok {
		t.Error("expected surviving item to remain")
	}
}

// TestCLIClear tests the clear command.
func TestCLIClear(t *testing.T) {
	app, s, _ := setupTestApp(t)
	addTestItem(t, s, "gone soon")

	t.Run("requires confirmation", func(t *testing.T) {
		_, err := runApp(t, app, "clear")
		if err == nil {
			t.Error("expected error without --yes, got nil")
		}
		if s.Len() != 1 {
			t.Errorf("expected history untouched, got %d items", s.Len())
		}
	})

	t.Run("clears with --yes", func(t *testing.T) {
		out, err := runApp(t, app, "clear", "--yes")
		if err != nil {
			t.Fatalf("clear command failed: %v", err)
		}
		if !strings.Contains(out, `"cleared": true`) {
			t.Errorf("expected cleared=true, got %s", out)
		}
		if s.Len() != 0 {
			t.Errorf("expected empty history, got %d items", s.Len())
		}
	})
}

// TestCLISettings tests the settings command.
func TestCLISettings(t *testing.T) {
	app, _, _ := setupTestApp(t)

	out, err := runApp(t, app, "settings", "--history-limit=42")
	if err != nil {
		t.Fatalf("settings command failed: %v", err)
	}
	if !strings.Contains(out, `"history_limit": 42`) {
		t.Errorf("expected history_limit=42, got %s", out)
	}

	t.Run("persists across invocations", func(t *testing.T) {
		out, err := runApp(t, app, "settings")
		if err != nil {
			t.Fatalf("settings command failed: %v", err)
		}
		if !strings.Contains(out, `"history_limit": 42`) {
			t.Errorf("expected persisted limit, got %s", out)
		}
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		_, err := runApp(t, app, "settings", "--history-limit=0")
		if err == nil {
			t.Error("expected error for zero limit, got nil")
		}
	})
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	app, _, _ := setupTestApp(t)

	t.Run("show not found returns error", func(t *testing.T) {
		_, err := runApp(t, app, "show", "nonexistent")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("delete not found returns error", func(t *testing.T) {
		_, err := runApp(t, app, "delete", "nonexistent")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("search without query returns error", func(t *testing.T) {
		_, err := runApp(t, app, "search")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"veloxclip"},
			expected: false,
		},
		{
			name:     "add command",
			args:     []string{"veloxclip", "add"},
			expected: true,
		},
		{
			name:     "browse command",
			args:     []string{"veloxclip", "browse"},
			expected: true,
		},
		{
			name:     "help flag",
			args:     []string{"veloxclip", "--help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"veloxclip", "--version"},
			expected: true,
		},
		{
			name:     "short help flag",
			args:     []string{"veloxclip", "-h"},
			expected: true,
		},
		{
			name:     "short version flag",
			args:     []string{"veloxclip", "-v"},
			expected: true,
		},
		{
			name:     "unknown arg defaults to MCP",
			args:     []string{"veloxclip", "--unknown"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save and restore os.Args
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isCLIMode()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"veloxclip"},
			expected: false,
		},
		{
			name:     "help flag",
			args:     []string{"veloxclip", "--help"},
			expected: true,
		},
		{
			name:     "short help flag",
			args:     []string{"veloxclip", "-h"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"veloxclip", "--version"},
			expected: true,
		},
		{
			name:     "short version flag",
			args:     []string{"veloxclip", "-v"},
			expected: true,
		},
		{
			name:     "help subcommand",
			args:     []string{"veloxclip", "help"},
			expected: true,
		},
		{
			name:     "add command is not help",
			args:     []string{"veloxclip", "add"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isHelpOrVersion()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestReadStdinWithLimit tests the readStdin function respects size limits.
func TestReadStdinWithLimit(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		content := "small content"
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}

		go func() {
			_, _ = w.WriteString(content)
			w.Close()
		}()

		oldStdin := os.Stdin
		os.Stdin = r
		defer func() { os.Stdin = oldStdin }()

		result, err := readStdin(1000)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != content {
			t.Errorf("expected %q, got %q", content, result)
		}
	})

	t.Run("exceeds limit", func(t *testing.T) {
		content := strings.Repeat("x", 100)
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}

		go func() {
			_, _ = w.WriteString(content)
			w.Close()
		}()

		oldStdin := os.Stdin
		os.Stdin = r
		defer func() { os.Stdin = oldStdin }()

		// Limit is 50 bytes, content is 100
		_, err = readStdin(50)
		if err == nil {
			t.Error("expected error for content exceeding limit, got nil")
		}
	})
}
