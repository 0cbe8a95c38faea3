package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ilikebug/VeloxClip-sub001/internal/db"
	"github.com/ilikebug/VeloxClip-sub001/internal/store"
)

// testSetup creates a temporary database, a store over it, and handlers.
func testSetup(t *testing.T) *Handlers {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	s := store.New(db.NewStore(database))
	return NewHandlers(s, database)
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultPayload unmarshals the first text content of a result.
func resultPayload(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	return payload
}

func addText(t *testing.T, h *Handlers, content string) string {
	t.Helper()
	res, err := h.HandleAdd(context.Background(), makeRequest(map[string]any{
		"content": content,
	}))
	if err != nil {
		t.Fatalf("HandleAdd returned error: %v", err)
	}
	if res.IsError {
		t.Fatalf("HandleAdd failed: %v", resultPayload(t, res))
	}
	payload := resultPayload(t, res)
	it := payload["item"].(map[string]any)
	return it["id"].(string)
}

func TestAddAndGet(t *testing.T) {
	h := testSetup(t)

	id := addText(t, h, "hello clipboard")

	res, err := h.HandleGet(context.Background(), makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("HandleGet returned error: %v", err)
	}
	payload := resultPayload(t, res)
	it := payload["item"].(map[string]any)
	if it["content"] != "hello clipboard" {
		t.Errorf("expected content round trip, got %v", it["content"])
	}
	if it["kind"] != "text" {
		t.Errorf("expected default kind text, got %v", it["kind"])
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	h := testSetup(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown kind", map[string]any{"kind": "hologram", "content": "x"}},
		{"no payload", map[string]any{}},
		{"bad base64", map[string]any{"data_base64": "!!!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.HandleAdd(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !res.IsError {
				t.Fatal("expected error result")
			}
			payload := resultPayload(t, res)
			errObj := payload["error"].(map[string]any)
			if errObj["code"] != "INVALID_REQUEST" {
				t.Errorf("expected INVALID_REQUEST, got %v", errObj["code"])
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	h := testSetup(t)

	res, _ := h.HandleGet(context.Background(), makeRequest(map[string]any{"id": "nope"}))
	if !res.IsError {
		t.Fatal("expected error result")
	}
	payload := resultPayload(t, res)
	errObj := payload["error"].(map[string]any)
	if errObj["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %v", errObj["code"])
	}
}

func TestListNewestFirstWithPaging(t *testing.T) {
	h := testSetup(t)

	addText(t, h, "one")
	addText(t, h, "two")
	addText(t, h, "three")

	res, _ := h.HandleList(context.Background(), makeRequest(map[string]any{
		"limit":  2,
		"offset": 1,
	}))
	payload := resultPayload(t, res)
	if payload["total"].(float64) != 3 {
		t.Errorf("expected total 3, got %v", payload["total"])
	}
	items := payload["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0].(map[string]any)
	if first["content"] != "two" {
		t.Errorf("expected newest-first paging to start at %q, got %v", "two", first["content"])
	}
}

func TestFavoriteToggleAndList(t *testing.T) {
	h := testSetup(t)

	id := addText(t, h, "keep me")
	addText(t, h, "other")

	res, _ := h.HandleFavorite(context.Background(), makeRequest(map[string]any{"id": id}))
	payload := resultPayload(t, res)
	it := payload["item"].(map[string]any)
	if it["favorite"] != true {
		t.Fatalf("expected favorite true, got %v", it["favorite"])
	}
	if _, ok := it["favorited_at"]; !ok {
		t.Error("expected favorited_at to be set")
	}

	res, _ = h.HandleList(context.Background(), makeRequest(map[string]any{"favorites": true}))
	payload = resultPayload(t, res)
	items := payload["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(items))
	}

	// toggle back off
	res, _ = h.HandleFavorite(context.Background(), makeRequest(map[string]any{"id": id}))
	payload = resultPayload(t, res)
	it = payload["item"].(map[string]any)
	if fav, ok := it["favorite"]; ok && fav == true {
		t.Errorf("expected favorite cleared, got %v", fav)
	}
}

func TestUpdateTags(t *testing.T) {
	h := testSetup(t)

	id := addText(t, h, "tagged")
	res, _ := h.HandleUpdateTags(context.Background(), makeRequest(map[string]any{
		"id":   id,
		"tags": []any{"work", "snippet"},
	}))
	payload := resultPayload(t, res)
	it := payload["item"].(map[string]any)
	tags := it["tags"].([]any)
	if len(tags) != 2 || tags[0] != "work" {
		t.Errorf("unexpected tags: %v", tags)
	}
}

func TestSearch(t *testing.T) {
	h := testSetup(t)

	addText(t, h, "deploy checklist for friday")
	addText(t, h, "grocery list")

	res, _ := h.HandleSearch(context.Background(), makeRequest(map[string]any{"query": "checklist"}))
	payload := resultPayload(t, res)
	items := payload["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 match, got %d", len(items))
	}
	it := items[0].(map[string]any)
	if !strings.Contains(it["content"].(string), "checklist") {
		t.Errorf("unexpected match: %v", it["content"])
	}
}

func TestDeleteByIDs(t *testing.T) {
	h := testSetup(t)

	a := addText(t, h, "a")
	addText(t, h, "b")
	c := addText(t, h, "c")

	res, _ := h.HandleDelete(context.Background(), makeRequest(map[string]any{
		"ids": []any{a, c, "unknown-id"},
	}))
	payload := resultPayload(t, res)
	deleted := payload["deleted"].([]any)
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deletions, got %v", deleted)
	}
	if payload["remaining"].(float64) != 1 {
		t.Errorf("expected 1 remaining, got %v", payload["remaining"])
	}
}

func TestClear(t *testing.T) {
	h := testSetup(t)

	addText(t, h, "a")
	addText(t, h, "b")

	res, _ := h.HandleClear(context.Background(), makeRequest(nil))
	payload := resultPayload(t, res)
	if payload["cleared"].(float64) != 2 {
		t.Errorf("expected 2 cleared, got %v", payload["cleared"])
	}

	res, _ = h.HandleList(context.Background(), makeRequest(nil))
	payload = resultPayload(t, res)
	if payload["total"].(float64) != 0 {
		t.Errorf("expected empty history, got %v", payload["total"])
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"clip_add", "clip_teleport"})
	if len(unknown) != 1 || unknown[0] != "clip_teleport" {
		t.Errorf("unexpected unknown tools: %v", unknown)
	}
	if len(AllToolNames()) != len(toolRegistry) {
		t.Error("AllToolNames out of sync with registry")
	}
}
