package mcp

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ilikebug/VeloxClip-sub001/internal/db"
	"github.com/ilikebug/VeloxClip-sub001/internal/errors"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
	"github.com/ilikebug/VeloxClip-sub001/internal/store"
)

// Handlers holds dependencies for MCP tool handlers. Mutations go
// through the store so history-limit eviction and the favorites
// projection apply; search reads the database directly.
type Handlers struct {
	store *store.Store
	db    *sql.DB
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s *store.Store, database *sql.DB) *Handlers {
	return &Handlers{store: s, db: database}
}

// Request types for each tool

// AddRequest represents the arguments for clip_add.
type AddRequest struct {
	Kind       string   `json:"kind,omitempty"`
	Content    string   `json:"content,omitempty"`
	DataBase64 string   `json:"data_base64,omitempty"`
	SourceApp  *string  `json:"source_app,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Sensitive  bool     `json:"sensitive,omitempty"`
}

// ListRequest represents the arguments for clip_list.
type ListRequest struct {
	Favorites bool `json:"favorites,omitempty"`
	Limit     int  `json:"limit,omitempty"`
	Offset    int  `json:"offset,omitempty"`
}

// GetRequest represents the arguments for clip_get.
type GetRequest struct {
	ID string `json:"id"`
}

// SearchRequest represents the arguments for clip_search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// FavoriteRequest represents the arguments for clip_favorite.
type FavoriteRequest struct {
	ID string `json:"id"`
}

// UpdateTagsRequest represents the arguments for clip_update_tags.
type UpdateTagsRequest struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

// DeleteRequest represents the arguments for clip_delete.
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

// itemView is the wire shape of an item in tool results. Binary
// payloads are reported by size, not inlined.
type itemView struct {
	ID          string   `json:"id"`
	CreatedAt   int64    `json:"created_at"`
	Kind        string   `json:"kind"`
	Content     *string  `json:"content,omitempty"`
	DataSize    int      `json:"data_size,omitempty"`
	SourceApp   *string  `json:"source_app,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Summary     *string  `json:"summary,omitempty"`
	Sensitive   bool     `json:"sensitive,omitempty"`
	Favorite    bool     `json:"favorite,omitempty"`
	FavoritedAt *int64   `json:"favorited_at,omitempty"`
}

func viewOf(it item.Item) itemView {
	return itemView{
		ID:          it.ID,
		CreatedAt:   it.CreatedAt,
		Kind:        string(it.Kind),
		Content:     it.Content,
		DataSize:    len(it.Data),
		SourceApp:   it.SourceApp,
		Tags:        it.Tags,
		Summary:     it.Summary,
		Sensitive:   it.Sensitive,
		Favorite:    it.Favorite,
		FavoritedAt: it.FavoritedAt,
	}
}

func viewsOf(items []item.Item) []itemView {
	views := make([]itemView, len(items))
	for i, it := range items {
		views[i] = viewOf(it)
	}
	return views
}

// Handler implementations

// HandleAdd handles the clip_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	kind := item.Kind(input.Kind)
	if input.Kind == "" {
		kind = item.KindText
	}
	switch kind {
	case item.KindText, item.KindImage, item.KindFile, item.KindColor, item.KindRTF, item.KindOther:
	default:
		return errorResult(errors.NewInvalidRequest("unknown kind: " + input.Kind)), nil
	}

	var data []byte
	if input.DataBase64 != "" {
		data, err = base64.StdEncoding.DecodeString(input.DataBase64)
		if err != nil {
			return errorResult(errors.NewInvalidRequest("data_base64 is not valid base64")), nil
		}
	}
	if input.Content == "" && len(data) == 0 {
		return errorResult(errors.NewInvalidRequest("one of content or data_base64 is required")), nil
	}

	id, err := item.NewID()
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	it := item.Item{
		ID:        id,
		CreatedAt: time.Now().Unix(),
		Kind:      kind,
		Data:      data,
		SourceApp: input.SourceApp,
		Tags:      input.Tags,
		Sensitive: input.Sensitive,
	}
	if input.Content != "" {
		it.Content = &input.Content
	}

	h.store.Add(it)
	h.store.Wait()

	stored, ok := h.store.Get(id)
	if !ok {
		return errorResult(errors.NewStoreUnavailable("item was not persisted")), nil
	}
	return successResult(map[string]any{"item": viewOf(stored)})
}

// HandleList handles the clip_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	items := h.store.Items()
	if input.Favorites {
		items = h.store.Favorites()
	}
	total := len(items)

	if input.Offset > 0 {
		if input.Offset >= len(items) {
			items = nil
		} else {
			items = items[input.Offset:]
		}
	}
	if input.Limit > 0 && input.Limit < len(items) {
		items = items[:input.Limit]
	}

	return successResult(map[string]any{
		"total": total,
		"items": viewsOf(items),
	})
}

// HandleGet handles the clip_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	it, ok := h.store.Get(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(map[string]any{"item": viewOf(it)})
}

// HandleSearch handles the clip_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Query == "" {
		return errorResult(errors.NewInvalidRequest("query is required")), nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	items, err := db.Search(ctx, h.db, input.Query, limit)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"query": input.Query,
		"items": viewsOf(items),
	})
}

// HandleFavorite handles the clip_favorite tool call.
func (h *Handlers) HandleFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FavoriteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}
	before, ok := h.store.Get(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	h.store.ToggleFavorite(input.ID)
	h.store.Wait()

	after, ok := h.store.Get(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	if after.Favorite == before.Favorite {
		return errorResult(errors.NewStoreUnavailable("favorite toggle was rolled back")), nil
	}
	return successResult(map[string]any{"item": viewOf(after)})
}

// HandleUpdateTags handles the clip_update_tags tool call.
func (h *Handlers) HandleUpdateTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateTagsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}
	if _, ok := h.store.Get(input.ID); !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	h.store.UpdateTags(input.ID, input.Tags)
	h.store.Wait()

	after, ok := h.store.Get(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(map[string]any{"item": viewOf(after)})
}

// HandleDelete handles the clip_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.IDs) == 0 {
		return errorResult(errors.NewInvalidRequest("ids is required")), nil
	}

	// resolve ids to current positions; unknown ids are skipped
	items := h.store.Items()
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.ID] = i
	}
	var positions []int
	deleted := make([]string, 0, len(input.IDs))
	for _, id := range input.IDs {
		if pos, ok := index[id]; ok {
			positions = append(positions, pos)
			deleted = append(deleted, id)
		}
	}

	h.store.DeleteAt(positions)
	h.store.Wait()

	return successResult(map[string]any{
		"deleted":   deleted,
		"remaining": h.store.Len(),
	})
}

// HandleClear handles the clip_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	before := h.store.Len()
	h.store.Clear()
	h.store.Wait()

	if h.store.Len() != 0 {
		return errorResult(errors.NewStoreUnavailable("clear failed; history unchanged")), nil
	}
	return successResult(map[string]any{"cleared": before})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if vErr, ok := err.(*errors.VeloxError); ok {
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": vErr.Message,
			"status":  vErr.Status,
		}
		if vErr.Code != errors.ErrInternal && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
