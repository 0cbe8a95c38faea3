package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilikebug/VeloxClip-sub001/internal/highlight"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
	"github.com/ilikebug/VeloxClip-sub001/internal/pager"
)

// refreshPreview re-targets the preview at the selected item: infers
// its language, resets the incremental loader to the first page, and
// renders. Switching items cancels any pending load.
func (m *Model) refreshPreview() {
	it, ok := m.selectedItem()
	if !ok {
		m.previewID = ""
		m.loader.Reset(0)
		if m.ready {
			m.vp.SetContent(emptyStyle.Render("nothing selected"))
		}
		return
	}

	text := it.Text()
	kind := item.ClassifyPreview(text)
	units := m.previewUnits(kind, text)

	if it.ID != m.previewID {
		m.previewID = it.ID
		m.hl.SetDocument(text)
		m.loader.SetPageSize(pageSizeFor(kind))
		m.loader.Reset(len(units))
		if m.ready {
			m.vp.GotoTop()
		}
	}
	m.renderPreviewContent()
}

// previewUnits splits text into the units the loader pages over: lines
// for code and tables, paragraphs for prose, canonical pretty lines for
// valid structured data.
func (m *Model) previewUnits(kind item.PreviewKind, text string) []string {
	switch kind {
	case item.PreviewText, item.PreviewMarkdown:
		return strings.Split(text, "\n\n")
	case item.PreviewJSON:
		if res := m.fmtr.Validate(text); res.Valid {
			return strings.Split(res.Pretty, "\n")
		}
		return strings.Split(text, "\n")
	default:
		return strings.Split(text, "\n")
	}
}

// renderPreviewContent rebuilds the viewport from the currently
// revealed prefix.
func (m *Model) renderPreviewContent() {
	if !m.ready {
		return
	}
	it, ok := m.selectedItem()
	if !ok {
		return
	}

	text := it.Text()
	kind := item.ClassifyPreview(text)

	var b strings.Builder
	b.WriteString(m.renderPreviewHeader(it, kind))
	b.WriteString("\n\n")

	switch kind {
	case item.PreviewCode:
		m.renderCode(&b, text)
	case item.PreviewJSON:
		m.renderStructured(&b, text)
	case item.PreviewColor:
		m.renderColor(&b, text)
	case item.PreviewTable:
		m.renderPaged(&b, strings.Split(text, "\n"))
	case item.PreviewMarkdown, item.PreviewText, item.PreviewDate:
		if it.Content == nil {
			b.WriteString(emptyStyle.Render(fmt.Sprintf("binary payload · %d bytes", len(it.Data))))
		} else {
			m.renderPaged(&b, m.previewUnits(kind, text))
		}
	}

	m.vp.SetContent(b.String())
}

func (m *Model) renderPreviewHeader(it item.Item, kind item.PreviewKind) string {
	parts := []string{string(it.Kind), string(kind)}
	if kind == item.PreviewCode {
		parts = append(parts, string(m.hl.Language()))
	}
	if it.SourceApp != nil {
		parts = append(parts, *it.SourceApp)
	}
	header := strings.Join(parts, " · ")
	if len(it.Tags) > 0 {
		header += "  [" + strings.Join(it.Tags, ", ") + "]"
	}
	if it.Summary != nil {
		header += "\n" + emptyStyle.Render(*it.Summary)
	}
	return headerStyle.Render(header)
}

// renderCode highlights the revealed lines through the memoized
// highlighter; scrolling back over seen lines costs a cache hit.
func (m *Model) renderCode(b *strings.Builder, text string) {
	lines := strings.Split(text, "\n")
	shown := min(m.loader.Loaded(), len(lines))
	for _, line := range lines[:shown] {
		b.WriteString(highlight.RenderANSI(m.hl.Line(line)))
		b.WriteByte('\n')
	}
	m.writeMoreMarker(b, len(lines)-shown)
}

func (m *Model) renderStructured(b *strings.Builder, text string) {
	res := m.fmtr.Validate(text)
	if !res.Valid {
		b.WriteString(errorStyle.Render("invalid document: " + res.Err))
		b.WriteString("\n\n")
		b.WriteString(res.Raw)
		return
	}
	m.renderPaged(b, strings.Split(res.Pretty, "\n"))
}

func (m *Model) renderColor(b *strings.Builder, text string) {
	color := strings.TrimSpace(text)
	if item.ValidColor(color) && strings.HasPrefix(color, "#") {
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(color)).Render(strings.Repeat(" ", 16))
		for range 4 {
			b.WriteString(swatch)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(color)
}

func (m *Model) renderPaged(b *strings.Builder, units []string) {
	shown := min(m.loader.Loaded(), len(units))
	for i, u := range units[:shown] {
		b.WriteString(u)
		if i < shown-1 {
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	m.writeMoreMarker(b, len(units)-shown)
}

func (m *Model) writeMoreMarker(b *strings.Builder, remaining int) {
	if remaining > 0 {
		b.WriteString(emptyStyle.Render(fmt.Sprintf("… %d more (space to load)", remaining)))
	}
}

// pageSizeFor keeps distinct page sizes per preview shape.
func pageSizeFor(kind item.PreviewKind) int {
	switch kind {
	case item.PreviewTable:
		return pager.PageTableRows
	case item.PreviewText, item.PreviewMarkdown:
		return pager.PageTextParagraphs
	default:
		return pager.PageCodeLines
	}
}
