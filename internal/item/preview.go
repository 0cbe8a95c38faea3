package item

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// PreviewKind selects which preview renderer displays an item's text.
type PreviewKind string

const (
	PreviewText     PreviewKind = "text"
	PreviewCode     PreviewKind = "code"
	PreviewJSON     PreviewKind = "json"
	PreviewMarkdown PreviewKind = "markdown"
	PreviewColor    PreviewKind = "color"
	PreviewDate     PreviewKind = "date"
	PreviewTable    PreviewKind = "table"
)

var (
	hexColorRe  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	rgbColorRe  = regexp.MustCompile(`^rgba?\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*(?:,\s*[\d.]+\s*)?\)$`)
	codeTokenRe = regexp.MustCompile(`\b(func|def|class|import|const|var|let|return|public|private|fn|struct)\b|[{};]\s*$`)
)

// dateLayouts are the formats accepted by the date preview.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ValidColor reports whether s is a hex or rgb() color literal. Callers
// rendering a swatch must check this before embedding s in markup.
func ValidColor(s string) bool {
	trimmed := strings.TrimSpace(s)
	return hexColorRe.MatchString(trimmed) || rgbColorRe.MatchString(trimmed)
}

// ClassifyPreview picks the preview renderer for a piece of clipboard text.
// The checks run cheapest-first; JSON validity is tested with json.Valid
// only when the shape already looks structured.
func ClassifyPreview(text string) PreviewKind {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return PreviewText
	}

	if hexColorRe.MatchString(trimmed) || rgbColorRe.MatchString(trimmed) {
		return PreviewColor
	}

	if len(trimmed) <= 64 && !strings.Contains(trimmed, "\n") {
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, trimmed); err == nil {
				return PreviewDate
			}
		}
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if json.Valid([]byte(trimmed)) {
			return PreviewJSON
		}
	}

	if looksTabular(trimmed) {
		return PreviewTable
	}

	if strings.Contains(trimmed, "```") || strings.HasPrefix(trimmed, "# ") ||
		strings.HasPrefix(trimmed, "## ") {
		return PreviewMarkdown
	}

	if looksLikeCode(trimmed) {
		return PreviewCode
	}

	return PreviewText
}

// looksTabular reports whether every line carries the same positive number
// of tab separators (TSV shape, two rows minimum).
func looksTabular(text string) bool {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return false
	}
	cols := strings.Count(lines[0], "\t")
	if cols == 0 {
		return false
	}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Count(line, "\t") != cols {
			return false
		}
	}
	return true
}

// looksLikeCode uses a light token heuristic: multi-line text where a
// meaningful share of lines carry code-shaped tokens.
func looksLikeCode(text string) bool {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return false
	}
	hits := 0
	for _, line := range lines {
		if codeTokenRe.MatchString(line) {
			hits++
		}
	}
	return hits*4 >= len(lines)
}
