// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/athena/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/athena/internal/core/domain"
)

// SourceList displays the documents cited by an answer.
type SourceList struct {
	sources  []domain.SourceRef
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 8,
	}
}

// Init initialises the list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), "")

	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.sources) {
		end = len(l.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i, &l.sources[i]))
	}
	if len(l.sources) > visible {
		lines = append(lines, l.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", start+1, end, len(l.sources))))
	}

	return strings.Join(lines, "\n")
}

func (l *SourceList) renderSource(index int, src *domain.SourceRef) string {
	title := src.Title
	if title == "" {
		title = fmt.Sprintf("document %d", src.ID)
	}
	detail := fmt.Sprintf("[%s] %s", src.SourceType, src.SourcePath)

	maxTitle := l.width/2 - 4
	if maxTitle < 10 {
		maxTitle = 10
	}
	if len(title) > maxTitle {
		title = title[:maxTitle-3] + "..."
	}

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("> %s  %s", title, detail))
	}
	return "  " + l.styles.Source.Render(title) + "  " + l.styles.Muted.Render(detail)
}

// SetSources replaces the list contents and resets the selection.
func (l *SourceList) SetSources(sources []domain.SourceRef) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the listed sources.
func (l *SourceList) Sources() []domain.SourceRef {
	return l.sources
}

// MoveUp moves the selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// Selected returns the selected index.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedSource returns the selected source, or nil when the list is empty.
func (l *SourceList) SelectedSource() *domain.SourceRef {
	if l.selected < len(l.sources) {
		return &l.sources[l.selected]
	}
	return nil
}

// SetSize sets the render area.
func (l *SourceList) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// Clear removes all sources.
func (l *SourceList) Clear() {
	l.sources = nil
	l.selected = 0
}
