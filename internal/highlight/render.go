package highlight

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var ansiStyles = map[SpanKind]lipgloss.Style{
	SpanKeyword: lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true),
	SpanString:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	SpanNumber:  lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
	SpanComment: lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true),
}

// RenderANSI styles spans for terminal output.
func RenderANSI(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		if style, ok := ansiStyles[s.Kind]; ok {
			b.WriteString(style.Render(s.Text))
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

var htmlClasses = map[SpanKind]string{
	SpanKeyword: "hl-keyword",
	SpanString:  "hl-string",
	SpanNumber:  "hl-number",
	SpanComment: "hl-comment",
}

// RenderHTML emits spans as escaped HTML, wrapping styled runs in
// <span class="hl-..."> elements. Plain runs are emitted bare.
func RenderHTML(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		class, ok := htmlClasses[s.Kind]
		if !ok {
			b.WriteString(html.EscapeString(s.Text))
			continue
		}
		b.WriteString(`<span class="`)
		b.WriteString(class)
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(s.Text))
		b.WriteString(`</span>`)
	}
	return b.String()
}
