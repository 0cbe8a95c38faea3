// Package tui provides the Bubble Tea terminal browser for the
// clipboard history: an item list on the left, a lazily revealed
// preview on the right.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ilikebug/VeloxClip-sub001/internal/highlight"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
	"github.com/ilikebug/VeloxClip-sub001/internal/jsondoc"
	"github.com/ilikebug/VeloxClip-sub001/internal/pager"
	"github.com/ilikebug/VeloxClip-sub001/internal/store"
)

const listWidth = 34

// Options configures the browser.
type Options struct {
	Store   *store.Store
	Version string
}

// storeChangedMsg arrives when the store's revision moves.
type storeChangedMsg struct{}

// loaderMsg arrives when the incremental loader reveals another page.
type loaderMsg struct{}

// Model is the root application state for Bubble Tea.
type Model struct {
	store   *store.Store
	version string

	hl     *highlight.Highlighter
	fmtr   *jsondoc.Formatter
	loader *pager.Loader

	storeCh  chan struct{}
	loaderCh chan struct{}

	items         []item.Item
	favoritesOnly bool
	selected      int
	listOffset    int

	previewID string // item the loader state belongs to

	vp       viewport.Model
	width    int
	height   int
	ready    bool
	showHelp bool
	status   string
}

// New creates a new Bubble Tea model over the store.
func New(opts Options) Model {
	loaderCh := make(chan struct{}, 1)
	loader := pager.New(pager.PageCodeLines, pager.WithOnChange(func(int) {
		select {
		case loaderCh <- struct{}{}:
		default:
		}
	}))

	m := Model{
		store:    opts.Store,
		version:  opts.Version,
		hl:       highlight.NewHighlighter(0),
		fmtr:     jsondoc.NewFormatter(0),
		loader:   loader,
		storeCh:  opts.Store.Subscribe(),
		loaderCh: loaderCh,
	}
	m.items = m.visibleItems()
	return m
}

func (m *Model) visibleItems() []item.Item {
	if m.favoritesOnly {
		return m.store.Favorites()
	}
	return m.store.Items()
}

func listenChan(ch chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return msg
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		listenChan(m.storeCh, storeChangedMsg{}),
		listenChan(m.loaderCh, loaderMsg{}),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.vp = viewport.New(m.previewWidth(), m.contentHeight())
			m.ready = true
		} else {
			m.vp.Width = m.previewWidth()
			m.vp.Height = m.contentHeight()
		}
		m.refreshPreview()
		return m, nil

	case storeChangedMsg:
		m.refreshItems()
		return m, listenChan(m.storeCh, storeChangedMsg{})

	case loaderMsg:
		m.renderPreviewContent()
		return m, listenChan(m.loaderCh, loaderMsg{})
	}

	return m, nil
}

func (m *Model) previewWidth() int {
	w := m.width - listWidth - 3
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) contentHeight() int {
	h := m.height - 3
	if h < 3 {
		h = 3
	}
	return h
}

// refreshItems re-reads the store and clamps the selection.
func (m *Model) refreshItems() {
	m.items = m.visibleItems()
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.refreshPreview()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.loader.Close()
		m.store.Unsubscribe(m.storeCh)
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "j", "down":
		if m.selected < len(m.items)-1 {
			m.selected++
			m.refreshPreview()
		}
		return m, nil

	case "k", "up":
		if m.selected > 0 {
			m.selected--
			m.refreshPreview()
		}
		return m, nil

	case "g":
		m.selected = 0
		m.refreshPreview()
		return m, nil

	case "G":
		if len(m.items) > 0 {
			m.selected = len(m.items) - 1
			m.refreshPreview()
		}
		return m, nil

	case "f":
		if it, ok := m.selectedItem(); ok {
			m.store.ToggleFavorite(it.ID)
			m.status = "toggled favorite"
		}
		return m, nil

	case "F":
		m.favoritesOnly = !m.favoritesOnly
		m.selected = 0
		m.refreshItems()
		return m, nil

	case "x", "delete":
		if _, ok := m.selectedItem(); ok && !m.favoritesOnly {
			m.store.DeleteAt([]int{m.selected})
			m.status = "deleted"
		}
		return m, nil

	case "pgdown", "ctrl+d", " ":
		m.vp.HalfViewDown()
		m.maybeLoadMore()
		return m, nil

	case "pgup", "ctrl+u":
		m.vp.HalfViewUp()
		return m, nil
	}

	return m, nil
}

func (m *Model) selectedItem() (item.Item, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return item.Item{}, false
	}
	return m.items[m.selected], true
}

// maybeLoadMore asks the loader for another page when the viewport is
// close to the end of what is revealed.
func (m *Model) maybeLoadMore() {
	if m.vp.AtBottom() && m.loader.Loaded() < m.loader.Total() {
		m.loader.RequestMore()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	list := m.renderList()
	preview := m.vp.View()

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		listPaneStyle.Width(listWidth).Height(m.contentHeight()).Render(list),
		previewPaneStyle.Render(preview),
	)
	return body + "\n" + m.renderFooter()
}

func (m Model) renderList() string {
	if len(m.items) == 0 {
		return emptyStyle.Render("history is empty")
	}

	height := m.contentHeight()
	offset := m.listOffset
	if m.selected < offset {
		offset = m.selected
	}
	if m.selected >= offset+height {
		offset = m.selected - height + 1
	}

	var b strings.Builder
	for i := offset; i < len(m.items) && i-offset < height; i++ {
		it := m.items[i]
		line := fmt.Sprintf("%-5s %s", it.Kind, excerptOf(it))
		if it.Favorite {
			line = "★ " + line
		}
		line = truncateLine(line, listWidth-2)
		if i == m.selected {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) renderFooter() string {
	mode := "history"
	if m.favoritesOnly {
		mode = "favorites"
	}
	left := fmt.Sprintf(" %s · %d items", mode, len(m.items))
	if m.loader.Total() > m.loader.Loaded() {
		left += fmt.Sprintf(" · %d/%d lines", m.loader.Loaded(), m.loader.Total())
	}
	if m.status != "" {
		left += " · " + m.status
	}
	right := "j/k move · f fav · F filter · x delete · space more · ? help · q quit "
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return footerStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	help := `
  VeloxClip ` + m.version + `

  j / down      next item
  k / up        previous item
  g / G         first / last item
  f             toggle favorite
  F             show favorites only
  x             delete selected item
  space         scroll preview, load more
  ?             this help
  q             quit

  press any key to close
`
	return helpStyle.Render(help)
}

func excerptOf(it item.Item) string {
	if it.Content != nil {
		line := *it.Content
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		return line
	}
	return fmt.Sprintf("binary · %d bytes", len(it.Data))
}

func truncateLine(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
