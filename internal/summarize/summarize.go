// Package summarize defines the summary collaborator consumed by the
// clipboard store. The real product backs this with an AI service; the
// core treats it as an opaque text-in/text-out dependency.
package summarize

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Summarizer produces a short summary of clipboard text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// MaxExcerptRunes bounds the length of locally generated summaries.
const MaxExcerptRunes = 80

// Excerpt is the local, network-free summarizer: the first non-empty
// line, truncated on a rune boundary.
type Excerpt struct{}

// Summarize implements Summarizer.
func (Excerpt) Summarize(_ context.Context, text string) (string, error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= MaxExcerptRunes {
			return line, nil
		}
		runes := []rune(line)
		return string(runes[:MaxExcerptRunes-1]) + "…", nil
	}
	return "", nil
}
