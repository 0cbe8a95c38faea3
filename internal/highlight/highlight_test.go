package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInferLanguage(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Language
	}{
		{"go wins overlap tie", "func struct import", LangGo},
		{"go source", "package main\n\nfunc main() {\n\tdefer f()\n}\n", LangGo},
		{"python source", "def main():\n    import os\n    yield self\n", LangPython},
		{"rust source", "fn main() {\n    let mut x = 1;\n}\nimpl Foo {}\n", LangRust},
		{"zero matches leading brace is json", `{"a": 1, "b": [2, 3]}`, LangJSON},
		{"zero matches leading bracket is json", `[1, 2, 3]`, LangJSON},
		{"markup shape", "<html><body><p>hi</p></body></html>", LangMarkup},
		{"shebang is shell", "#!/bin/sh\nls -la\n", LangShell},
		{"leading path is shell", "/usr/bin/foo --bar\n", LangShell},
		{"prose is plain", "hello world, nothing here\n", LangPlain},
		{"empty is plain", "", LangPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, InferLanguage(tt.doc))
		})
	}
}

func kindsOf(spans []Span) []SpanKind {
	out := make([]SpanKind, len(spans))
	for i, s := range spans {
		out[i] = s.Kind
	}
	return out
}

func joined(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestTokenizeGoLine(t *testing.T) {
	line := `for i := 0; i < 10 { // count`
	spans := Tokenize(LangGo, line)

	require.Equal(t, line, joined(spans))

	var keywords, numbers, comments []string
	for _, s := range spans {
		switch s.Kind {
		case SpanKeyword:
			keywords = append(keywords, s.Text)
		case SpanNumber:
			numbers = append(numbers, s.Text)
		case SpanComment:
			comments = append(comments, s.Text)
		}
	}
	require.Equal(t, []string{"for"}, keywords)
	require.Equal(t, []string{"0", "10"}, numbers)
	require.Equal(t, []string{"// count"}, comments)
}

func TestTokenizeStringOverridesKeyword(t *testing.T) {
	spans := Tokenize(LangGo, `x := "func inside"`)
	require.Equal(t, `x := "func inside"`, joined(spans))
	for _, s := range spans {
		require.NotEqual(t, SpanKeyword, s.Kind, "keyword inside string literal must stay a string: %q", s.Text)
		if strings.Contains(s.Text, "func") {
			require.Equal(t, SpanString, s.Kind)
		}
	}
}

func TestTokenizeCommentOverridesString(t *testing.T) {
	line := `s := "ok" // trailing "quoted" note`
	spans := Tokenize(LangGo, line)
	require.Equal(t, line, joined(spans))

	idx := strings.Index(line, "//")
	pos := 0
	for _, s := range spans {
		if pos >= idx {
			require.Equal(t, SpanComment, s.Kind, "everything after the marker is comment: %q", s.Text)
		}
		pos += len(s.Text)
	}
}

func TestTokenizeBlockComment(t *testing.T) {
	spans := Tokenize(LangGo, `a /* note */ b`)
	require.Equal(t, []Span{
		{Text: "a ", Kind: SpanPlain},
		{Text: "/* note */", Kind: SpanComment},
		{Text: " b", Kind: SpanPlain},
	}, spans)
}

func TestTokenizeJSONLiterals(t *testing.T) {
	spans := Tokenize(LangJSON, `"active": true, "count": 42`)
	var sawKeyword, sawNumber bool
	for _, s := range spans {
		if s.Kind == SpanKeyword && s.Text == "true" {
			sawKeyword = true
		}
		if s.Kind == SpanNumber && s.Text == "42" {
			sawNumber = true
		}
	}
	require.True(t, sawKeyword)
	require.True(t, sawNumber)
}

func TestTokenizeOverlongLineIsPlain(t *testing.T) {
	line := "func " + strings.Repeat("x", MaxLineLength)
	spans := Tokenize(LangGo, line)
	require.Equal(t, []Span{{Text: line, Kind: SpanPlain}}, spans)
}

func TestTokenizeEmptyLine(t *testing.T) {
	require.Empty(t, Tokenize(LangGo, ""))
}

func TestHighlighterCacheBounded(t *testing.T) {
	h := NewHighlighter(2)
	h.SetLanguage(LangGo)

	h.Line("var a = 1")
	h.Line("var b = 2")
	h.Line("var c = 3")

	require.LessOrEqual(t, h.CacheLen(), 2)

	// cached entries stay correct when present
	spans := h.Line("var c = 3")
	require.Equal(t, "var c = 3", joined(spans))
	require.Equal(t, SpanKeyword, spans[0].Kind)
}

func TestHighlighterPurgeOnLanguageChange(t *testing.T) {
	h := NewHighlighter(8)
	h.SetLanguage(LangGo)
	h.Line("func f() {}")
	require.Equal(t, 1, h.CacheLen())

	h.SetLanguage(LangPython)
	require.Equal(t, 0, h.CacheLen())

	// same text, new language, fresh tokenization
	spans := h.Line("def f():")
	require.Equal(t, SpanKeyword, spans[0].Kind)
	require.Equal(t, "def", spans[0].Text)
}

func TestHighlighterPurgeOnFontSizeChange(t *testing.T) {
	h := NewHighlighter(8)
	h.SetLanguage(LangGo)
	h.Line("return nil")
	require.Equal(t, 1, h.CacheLen())

	h.SetFontSize(16)
	require.Equal(t, 0, h.CacheLen())

	h.SetFontSize(16) // no-op
	h.Line("return nil")
	require.Equal(t, 1, h.CacheLen())
}

func TestSetDocumentInfers(t *testing.T) {
	h := NewHighlighter(8)
	lang := h.SetDocument("package main\nfunc main() {}\n")
	require.Equal(t, LangGo, lang)
	require.Equal(t, LangGo, h.Language())
}

func TestRenderHTML(t *testing.T) {
	out := RenderHTML([]Span{
		{Text: "if", Kind: SpanKeyword},
		{Text: " a < ", Kind: SpanPlain},
		{Text: `"<b>"`, Kind: SpanString},
	})
	require.Equal(t, `<span class="hl-keyword">if</span> a &lt; <span class="hl-string">&#34;&lt;b&gt;&#34;</span>`, out)
}

func TestRenderANSIPreservesText(t *testing.T) {
	spans := Tokenize(LangGo, `x := 1 // note`)
	out := RenderANSI(spans)
	require.Contains(t, out, "note")
	require.Contains(t, out, "1")
}
