package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/ilikebug/VeloxClip-sub001/internal/config"
	"github.com/ilikebug/VeloxClip-sub001/internal/db"
	"github.com/ilikebug/VeloxClip-sub001/internal/errors"
	"github.com/ilikebug/VeloxClip-sub001/internal/highlight"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
	"github.com/ilikebug/VeloxClip-sub001/internal/jsondoc"
	"github.com/ilikebug/VeloxClip-sub001/internal/store"
)

// maxTreeRows caps the flattened structured-data tree on the detail
// page so a giant document cannot produce an unbounded response.
const maxTreeRows = 500

// Handlers contains HTTP route handlers for the web UI. Mutations go
// through the store; search and settings read the database directly.
type Handlers struct {
	store     *store.Store
	db        *sql.DB
	cfg       *config.Config
	renderer  *Renderer
	formatter *jsondoc.Formatter
}

// HandleList handles GET /items — the clipboard history list.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	favorites := parseBoolParam(r, "favorites")
	limit := parseIntParam(r, "limit", 20)
	offset := parseIntParam(r, "offset", 0)

	items := h.store.Items()
	if favorites {
		items = h.store.Favorites()
	}
	total := len(items)

	if offset > 0 {
		if offset >= len(items) {
			items = nil
		} else {
			items = items[offset:]
		}
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	title := "History"
	nav := "items"
	if favorites {
		title = "Favorites"
		nav = "favorites"
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   title,
			Version: h.renderer.version,
			Nav:     nav,
		},
		Items:     items,
		Total:     total,
		Favorites: favorites,
		Limit:     limit,
		Offset:    offset,
	})
}

// HandleSearch handles GET /items/search — substring search over the
// persisted history.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		HasQuery: query != "",
	}

	if query != "" {
		items, err := db.Search(r.Context(), h.db, query, parseIntParam(r, "limit", 20))
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Items = items
	}

	h.renderer.renderPage(w, r, "search", data)
}

// HandleDetail handles GET /items/{id} — a single item with its preview.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("item ID is required"))
		return
	}

	it, ok := h.store.Get(id)
	if !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	text := it.Text()
	preview := item.ClassifyPreview(text)
	// ?view= forces a renderer, e.g. viewing almost-JSON as structured
	// data to see the validation message
	switch v := item.PreviewKind(r.URL.Query().Get("view")); v {
	case item.PreviewText, item.PreviewCode, item.PreviewJSON,
		item.PreviewMarkdown, item.PreviewColor, item.PreviewTable:
		preview = v
	}

	data := DetailPageData{
		PageData: PageData{
			Title:   "Item " + truncate(id, 10),
			Version: h.renderer.version,
			Nav:     "items",
		},
		Item:      it,
		Preview:   preview,
		TagsValue: strings.Join(it.Tags, ", "),
	}
	h.buildPreview(&data, text)

	h.renderer.renderPage(w, r, "detail", data)
}

// buildPreview fills the preview-specific fields for one renderer kind.
func (h *Handlers) buildPreview(data *DetailPageData, text string) {
	switch data.Preview {
	case item.PreviewCode:
		lang := highlight.InferLanguage(text)
		data.Language = string(lang)
		for _, line := range strings.Split(text, "\n") {
			spans := highlight.Tokenize(lang, line)
			data.CodeLines = append(data.CodeLines, template.HTML(highlight.RenderHTML(spans)))
		}
	case item.PreviewJSON:
		data.Doc = h.formatter.Validate(text)
		if data.Doc.Valid {
			root, err := jsondoc.NewTree(data.Doc)
			if err == nil {
				root.ExpandAll()
				for _, row := range jsondoc.Flatten(root) {
					if len(data.TreeRows) == maxTreeRows {
						break
					}
					data.TreeRows = append(data.TreeRows, TreeRow{
						Depth: row.Depth,
						Label: row.Node.Label(),
					})
				}
			}
		}
	case item.PreviewMarkdown:
		data.RenderedHTML = renderMarkdown(text)
	case item.PreviewColor:
		// pre-validated, safe to mark as CSS
		if item.ValidColor(text) {
			data.Swatch = template.CSS("background-color: " + strings.TrimSpace(text))
		}
	case item.PreviewTable:
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			data.TableRows = append(data.TableRows, strings.Split(line, "\t"))
		}
	}
}

// HandleFavorite handles POST /items/{id}/favorite — toggle the flag.
func (h *Handlers) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.store.Get(id); !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	h.store.ToggleFavorite(id)
	h.store.Wait()

	redirectBack(w, r, "/items/"+id)
}

// HandleTags handles POST /items/{id}/tags — replace the tag list from
// a comma-separated form field.
func (h *Handlers) HandleTags(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.store.Get(id); !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	var tags []string
	for _, t := range strings.Split(r.FormValue("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	h.store.UpdateTags(id, tags)
	h.store.Wait()

	redirectBack(w, r, "/items/"+id)
}

// HandleDelete handles DELETE /items/{id} and POST /items/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	pos := -1
	for i, it := range h.store.Items() {
		if it.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	h.store.DeleteAt([]int{pos})
	h.store.Wait()

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/items")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"deleted": id})
		return
	}

	http.Redirect(w, r, "/items", http.StatusFound)
}

// HandleClear handles POST /items/clear — delete the whole history.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	h.store.Clear()
	h.store.Wait()

	if h.store.Len() != 0 {
		h.renderer.renderError(w, r, errors.NewStoreUnavailable("clear failed; history unchanged"))
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/items")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/items", http.StatusFound)
}

// HandleSettings handles GET /settings.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	limit := db.NewStore(h.db).HistoryLimit(h.cfg.HistoryLimit)

	h.renderer.renderPage(w, r, "settings", SettingsPageData{
		PageData: PageData{
			Title:   "Settings",
			Version: h.renderer.version,
			Nav:     "settings",
		},
		HistoryLimit: limit,
		Saved:        parseBoolParam(r, "saved"),
	})
}

// HandleSettingsSave handles POST /settings.
func (h *Handlers) HandleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	limit, err := strconv.Atoi(r.FormValue("history_limit"))
	if err != nil || limit < 1 {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("history_limit must be a positive integer"))
		return
	}

	if err := db.NewStore(h.db).SetHistoryLimit(r.Context(), limit); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/settings?saved=true", http.StatusFound)
}

// redirectBack redirects to the referring page, or to fallback when the
// request carries no referer.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusOK)
		return
	}
	target := r.Header.Get("Referer")
	if target == "" || !strings.HasPrefix(target, "/") && !strings.Contains(target, "://"+r.Host+"/") {
		target = fallback
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
