package highlight

import (
	"regexp"
	"strings"
)

// Language identifies a highlighting language.
type Language string

const (
	LangPlain      Language = "plain"
	LangGo         Language = "go"
	LangSwift      Language = "swift"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangRust       Language = "rust"
	LangShell      Language = "shell"
	LangJSON       Language = "json"
	LangMarkup     Language = "markup"
)

// definition describes how one language is scored and tokenized.
type definition struct {
	lang         Language
	keywords     []string
	keywordRe    *regexp.Regexp // whole-word alternation, compiled once
	lineComments []string
	blockOpen    string
	blockClose   string
}

// definitions lists scored languages in discovery order; inference ties
// keep the earliest entry.
var definitions = []*definition{
	newDefinition(LangGo, []string{
		"func", "struct", "import", "package", "interface", "defer",
		"chan", "select", "fallthrough", "range", "const", "var", "type",
		"return", "switch", "case", "continue", "goto", "else", "for", "map",
	}, []string{"//"}, "/*", "*/"),
	newDefinition(LangSwift, []string{
		"func", "struct", "import", "class", "guard", "protocol",
		"extension", "enum", "init", "deinit", "inout", "typealias",
		"associatedtype", "willset", "didset", "let", "var", "return",
		"switch", "case",
	}, []string{"//"}, "/*", "*/"),
	newDefinition(LangPython, []string{
		"def", "class", "import", "self", "elif", "lambda", "yield",
		"none", "async", "await", "except", "finally", "raise", "pass",
		"global", "nonlocal", "with", "return",
	}, []string{"#"}, "", ""),
	newDefinition(LangJavaScript, []string{
		"function", "const", "let", "var", "return", "typeof",
		"instanceof", "undefined", "async", "await", "export",
		"default", "class", "extends", "new", "this", "switch", "case",
	}, []string{"//"}, "/*", "*/"),
	newDefinition(LangRust, []string{
		"fn", "struct", "impl", "trait", "enum", "match", "mut", "crate",
		"pub", "use", "mod", "unsafe", "dyn", "async", "await", "loop", "let",
	}, []string{"//"}, "/*", "*/"),
	newDefinition(LangShell, []string{
		"echo", "export", "then", "elif", "done", "esac", "local",
		"source", "sudo", "grep", "curl", "while", "read",
	}, []string{"#"}, "", ""),
}

// auxiliary definitions, never scored, reachable via shape heuristics
var (
	jsonDefinition = newDefinition(LangJSON,
		[]string{"true", "false", "null"}, nil, "", "")
	markupDefinition = newDefinition(LangMarkup,
		nil, nil, "<!--", "-->")
	plainDefinition = newDefinition(LangPlain, nil, nil, "", "")
)

func newDefinition(lang Language, keywords, lineComments []string, blockOpen, blockClose string) *definition {
	d := &definition{
		lang:         lang,
		keywords:     keywords,
		lineComments: lineComments,
		blockOpen:    blockOpen,
		blockClose:   blockClose,
	}
	if len(keywords) > 0 {
		escaped := make([]string, len(keywords))
		for i, kw := range keywords {
			escaped[i] = regexp.QuoteMeta(kw)
		}
		d.keywordRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
	}
	return d
}

// lookup returns the definition for a language, defaulting to plain.
func lookup(lang Language) *definition {
	for _, d := range definitions {
		if d.lang == lang {
			return d
		}
	}
	switch lang {
	case LangJSON:
		return jsonDefinition
	case LangMarkup:
		return markupDefinition
	default:
		return plainDefinition
	}
}

// InferLanguage classifies a whole document by keyword frequency: each
// candidate scores one point per reserved keyword appearing as a
// case-insensitive substring; the highest score wins and ties keep the
// first candidate. A zero score falls through to content-shape
// heuristics. Runs once per document, never per line.
func InferLanguage(doc string) Language {
	lowered := strings.ToLower(doc)

	best := LangPlain
	bestScore := 0
	for _, d := range definitions {
		score := 0
		for _, kw := range d.keywords {
			if strings.Contains(lowered, kw) {
				score++
			}
		}
		if score > bestScore {
			best = d.lang
			bestScore = score
		}
	}
	if bestScore > 0 {
		return best
	}

	return inferByShape(lowered)
}

// inferByShape classifies documents with no keyword hits.
func inferByShape(lowered string) Language {
	trimmed := strings.TrimSpace(lowered)
	if trimmed == "" {
		return LangPlain
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return LangJSON
	}

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") ||
		(strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, "</")) {
		return LangMarkup
	}

	firstLine := trimmed
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	if strings.HasPrefix(firstLine, "#!") || strings.HasPrefix(firstLine, "$ ") ||
		strings.HasPrefix(firstLine, "/") || strings.HasPrefix(firstLine, "~/") ||
		strings.HasPrefix(firstLine, "./") {
		return LangShell
	}

	return LangPlain
}
