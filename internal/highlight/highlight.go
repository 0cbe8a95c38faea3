// Package highlight tokenizes clipboard text into styled spans for the
// code preview. Language detection runs once per document; tokenization
// runs per line and is memoized so scrolling never re-scans a line the
// viewer has already seen.
package highlight

import (
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// MaxLineLength bounds per-line tokenization cost. Longer lines
	// render as a single plain span.
	MaxLineLength = 1000

	// DefaultCacheSize caps the per-highlighter span cache.
	DefaultCacheSize = 512
)

// SpanKind classifies a run of styled text.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanKeyword
	SpanString
	SpanNumber
	SpanComment
)

// Span is a contiguous run of one style within a line.
type Span struct {
	Text string
	Kind SpanKind
}

var (
	stringRe = regexp.MustCompile(`"(?:\\.|[^"\\])*"?|'(?:\\.|[^'\\])*'?|` + "`[^`]*`?")
	numberRe = regexp.MustCompile(`\b(?:0[xX][0-9a-fA-F_]+|\d[\d_]*(?:\.\d+)?(?:[eE][+-]?\d+)?)\b`)
)

// Tokenize splits one line into spans for the given language. Four
// pattern classes apply in fixed order: keywords, strings, numbers,
// comments. Later classes overwrite earlier ones where they overlap, so
// a keyword inside a string stays a string and anything after a comment
// marker is a comment.
func Tokenize(lang Language, line string) []Span {
	if len(line) > MaxLineLength {
		return []Span{{Text: line, Kind: SpanPlain}}
	}
	if line == "" {
		return nil
	}

	d := lookup(lang)
	kinds := make([]SpanKind, len(line))

	if d.keywordRe != nil {
		for _, m := range d.keywordRe.FindAllStringIndex(line, -1) {
			fill(kinds, m[0], m[1], SpanKeyword)
		}
	}
	for _, m := range stringRe.FindAllStringIndex(line, -1) {
		fill(kinds, m[0], m[1], SpanString)
	}
	for _, m := range numberRe.FindAllStringIndex(line, -1) {
		// string pass already claimed quoted digits
		if kinds[m[0]] != SpanString {
			fill(kinds, m[0], m[1], SpanNumber)
		}
	}
	markComments(d, line, kinds)

	return coalesce(line, kinds)
}

func fill(kinds []SpanKind, lo, hi int, k SpanKind) {
	for i := lo; i < hi && i < len(kinds); i++ {
		kinds[i] = k
	}
}

// markComments applies line-comment markers (marker to end of line) and
// single-line block comments. Block comments spanning multiple lines are
// not tracked across calls; each line tokenizes independently.
func markComments(d *definition, line string, kinds []SpanKind) {
	for _, marker := range d.lineComments {
		if idx := strings.Index(line, marker); idx >= 0 {
			fill(kinds, idx, len(line), SpanComment)
		}
	}
	if d.blockOpen == "" {
		return
	}
	rest := 0
	for {
		idx := strings.Index(line[rest:], d.blockOpen)
		if idx < 0 {
			return
		}
		start := rest + idx
		end := len(line)
		if rel := strings.Index(line[start+len(d.blockOpen):], d.blockClose); rel >= 0 {
			end = start + len(d.blockOpen) + rel + len(d.blockClose)
		}
		fill(kinds, start, end, SpanComment)
		if end >= len(line) {
			return
		}
		rest = end
	}
}

func coalesce(line string, kinds []SpanKind) []Span {
	var spans []Span
	start := 0
	for i := 1; i <= len(line); i++ {
		if i == len(line) || kinds[i] != kinds[start] {
			spans = append(spans, Span{Text: line[start:i], Kind: kinds[start]})
			start = i
		}
	}
	return spans
}

type cacheKey struct {
	lang     Language
	fontSize int
	line     string
}

// Highlighter tokenizes lines for one active language and font size,
// memoizing results. Changing either clears the cache since downstream
// styling depends on both. Safe for concurrent use.
type Highlighter struct {
	mu       sync.Mutex
	lang     Language
	fontSize int
	cache    *lru.Cache[cacheKey, []Span]
}

// NewHighlighter returns a highlighter with the given cache capacity;
// capacity <= 0 uses DefaultCacheSize.
func NewHighlighter(capacity int) *Highlighter {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, []Span](capacity)
	if err != nil {
		// lru.New only fails on non-positive size
		panic(err)
	}
	return &Highlighter{lang: LangPlain, fontSize: 13, cache: cache}
}

// SetDocument infers the document's language and makes it active,
// returning the inferred language.
func (h *Highlighter) SetDocument(doc string) Language {
	lang := InferLanguage(doc)
	h.SetLanguage(lang)
	return lang
}

// SetLanguage switches the active language, purging the cache on change.
func (h *Highlighter) SetLanguage(lang Language) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if lang == h.lang {
		return
	}
	h.lang = lang
	h.cache.Purge()
}

// SetFontSize records the font size for cache keying, purging on change.
func (h *Highlighter) SetFontSize(size int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if size == h.fontSize {
		return
	}
	h.fontSize = size
	h.cache.Purge()
}

// Language reports the active language.
func (h *Highlighter) Language() Language {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lang
}

// Line tokenizes one line under the active language, consulting the
// cache first. The returned spans are shared; callers must not mutate.
func (h *Highlighter) Line(text string) []Span {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := cacheKey{lang: h.lang, fontSize: h.fontSize, line: text}
	if spans, ok := h.cache.Get(key); ok {
		return spans
	}
	spans := Tokenize(h.lang, text)
	h.cache.Add(key, spans)
	return spans
}

// CacheLen reports the number of cached lines.
func (h *Highlighter) CacheLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cache.Len()
}
