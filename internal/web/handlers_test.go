package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ilikebug/VeloxClip-sub001/internal/config"
	"github.com/ilikebug/VeloxClip-sub001/internal/db"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
	"github.com/ilikebug/VeloxClip-sub001/internal/store"
)

type testEnv struct {
	store   *store.Store
	handler http.Handler
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	s := store.New(db.NewStore(database))
	srv := NewServer(s, database, config.DefaultConfig(), "test", "127.0.0.1", 0)
	return &testEnv{store: s, handler: srv.Handler}
}

// addItem inserts a text item through the store and waits for it to settle.
func (e *testEnv) addItem(t *testing.T, content string) string {
	t.Helper()
	id, err := item.NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	e.store.Add(item.Item{
		ID:        id,
		CreatedAt: time.Now().Unix(),
		Kind:      item.KindText,
		Content:   &content,
	})
	e.store.Wait()
	return id
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestListEmpty(t *testing.T) {
	env := setupTest(t)

	rec := env.get(t, "/items")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nothing here yet") {
		t.Error("expected empty-state message")
	}
}

func TestListShowsItemsNewestFirst(t *testing.T) {
	env := setupTest(t)
	env.addItem(t, "older entry")
	env.addItem(t, "newer entry")

	rec := env.get(t, "/items")
	body := rec.Body.String()
	newer := strings.Index(body, "newer entry")
	older := strings.Index(body, "older entry")
	if newer < 0 || older < 0 {
		t.Fatal("expected both entries in the list")
	}
	if newer > older {
		t.Error("expected newest entry to render first")
	}
}

func TestRootRedirects(t *testing.T) {
	env := setupTest(t)
	rec := env.get(t, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/items" {
		t.Errorf("expected redirect to /items, got %q", loc)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := setupTest(t)
	rec := env.get(t, "/items")
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options header")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestDetailNotFound(t *testing.T) {
	env := setupTest(t)
	rec := env.get(t, "/items/does-not-exist")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDetailNotFoundJSON(t *testing.T) {
	env := setupTest(t)
	req := httptest.NewRequest(http.MethodGet, "/items/does-not-exist", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected JSON error body: %v", err)
	}
	errObj := payload["error"].(map[string]any)
	if errObj["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %v", errObj["code"])
	}
}

func TestDetailCodePreview(t *testing.T) {
	env := setupTest(t)
	id := env.addItem(t, "package main\n\nfunc main() {\n\treturn\n}")

	rec := env.get(t, "/items/"+id)
	body := rec.Body.String()
	if !strings.Contains(body, `data-language="go"`) {
		t.Error("expected inferred go language")
	}
	if !strings.Contains(body, `<span class="hl-keyword">func</span>`) {
		t.Error("expected highlighted keyword span")
	}
}

func TestDetailJSONPreview(t *testing.T) {
	env := setupTest(t)
	id := env.addItem(t, `{"zeta": 1, "alpha": {"n": [1, 2]}}`)

	rec := env.get(t, "/items/"+id)
	body := rec.Body.String()
	// canonical pretty form sorts keys
	alpha := strings.Index(body, "&#34;alpha&#34;")
	zeta := strings.Index(body, "&#34;zeta&#34;")
	if alpha < 0 || zeta < 0 {
		t.Fatal("expected pretty-printed keys")
	}
	if alpha > zeta {
		t.Error("expected keys sorted in pretty output")
	}
	if !strings.Contains(body, "Tree") {
		t.Error("expected tree section")
	}
}

func TestDetailInvalidJSONShowsError(t *testing.T) {
	env := setupTest(t)
	id := env.addItem(t, `{"broken": `)

	rec := env.get(t, "/items/"+id+"?view=json")
	body := rec.Body.String()
	if !strings.Contains(body, "validation-error") {
		t.Error("expected inline validation message for malformed document")
	}
	if !strings.Contains(body, "broken") {
		t.Error("expected raw text to remain visible")
	}
}

func TestDetailColorPreview(t *testing.T) {
	env := setupTest(t)
	id := env.addItem(t, "#ff8800")

	rec := env.get(t, "/items/"+id)
	if !strings.Contains(rec.Body.String(), "swatch") {
		t.Error("expected color swatch")
	}
}

func TestDetailTablePreview(t *testing.T) {
	env := setupTest(t)
	id := env.addItem(t, "name\tage\nada\t36\ngrace\t45")

	rec := env.get(t, "/items/"+id)
	body := rec.Body.String()
	if !strings.Contains(body, "<table>") || !strings.Contains(body, "<td>grace</td>") {
		t.Error("expected table cells")
	}
}

func TestFavoriteToggle(t *testing.T) {
	env := setupTest(t)
	id := env.addItem(t, "pin me")

	rec := env.postForm(t, "/items/"+id+"/favorite", url.Values{})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	it, ok := env.store.Get(id)
	if !ok || !it.Favorite {
		t.Fatal("expected item to be favorited")
	}
	if len(env.store.Favorites()) != 1 {
		t.Error("expected favorites projection to contain the item")
	}
}

func TestTagsUpdate(t *testing.T) {
	env := setupTest(t)
	id := env.addItem(t, "tag target")

	rec := env.postForm(t, "/items/"+id+"/tags", url.Values{"tags": {" work, snippets ,"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	it, _ := env.store.Get(id)
	if len(it.Tags) != 2 || it.Tags[0] != "work" || it.Tags[1] != "snippets" {
		t.Errorf("unexpected tags: %v", it.Tags)
	}
}

func TestDeleteItem(t *testing.T) {
	env := setupTest(t)
	id := env.addItem(t, "remove me")

	rec := env.postForm(t, "/items/"+id+"/delete", url.Values{})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if _, ok := env.store.Get(id); ok {
		t.Error("expected item to be gone")
	}
}

func TestClearRequiresConfirm(t *testing.T) {
	env := setupTest(t)
	env.addItem(t, "still here")

	rec := env.postForm(t, "/items/clear", url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env.store.Len() != 1 {
		t.Error("expected history untouched without confirm")
	}

	rec = env.postForm(t, "/items/clear", url.Values{"confirm": {"true"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if env.store.Len() != 0 {
		t.Error("expected history cleared")
	}
}

func TestSearch(t *testing.T) {
	env := setupTest(t)
	env.addItem(t, "deploy checklist")
	env.addItem(t, "lunch ideas")

	rec := env.get(t, "/items/search?q=checklist")
	body := rec.Body.String()
	if !strings.Contains(body, "deploy checklist") {
		t.Error("expected matching item")
	}
	if strings.Contains(body, "lunch ideas") {
		t.Error("did not expect non-matching item")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := setupTest(t)

	rec := env.postForm(t, "/settings", url.Values{"history_limit": {"42"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	rec = env.get(t, "/settings?saved=true")
	body := rec.Body.String()
	if !strings.Contains(body, `value="42"`) {
		t.Error("expected saved limit in form")
	}
	if !strings.Contains(body, "Settings saved") {
		t.Error("expected saved confirmation")
	}
}

func TestSettingsRejectsBadLimit(t *testing.T) {
	env := setupTest(t)

	for _, bad := range []string{"", "zero", "0", "-3"} {
		rec := env.postForm(t, "/settings", url.Values{"history_limit": {bad}})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %q: expected 400, got %d", bad, rec.Code)
		}
	}
}
