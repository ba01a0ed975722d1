// Package chunks provides the view that shows a document's stored chunks.
package chunks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/athena/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// View is a scrollable listing of one document's chunks in position order.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context
	viewport        viewport.Model

	document *domain.Document
	chunks   []domain.Chunk
	width    int
	height   int
	loading  bool
	err      error
}

// NewView creates a new chunks view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		viewport:        viewport.New(80, 18),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context passed to the document service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetDocument switches to doc and returns a command loading its chunks.
func (v *View) SetDocument(doc domain.Document) tea.Cmd {
	v.document = &doc
	v.chunks = nil
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()

	ctx, svc, id := v.ctx, v.documentService, doc.ID
	return func() tea.Msg {
		if svc == nil {
			return messages.ChunksLoaded{DocumentID: id, Err: ErrNoDocumentService}
		}
		chunks, err := svc.Chunks(ctx, id)
		return messages.ChunksLoaded{DocumentID: id, Chunks: chunks, Err: err}
	}
}

// Update handles messages for the chunks view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewDocuments}
			}
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case messages.ChunksLoaded:
		// Drop responses for a document that is no longer shown.
		if v.document == nil || msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.chunks = msg.Chunks
		v.viewport.SetContent(v.render())
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}
	return v, nil
}

func (v *View) render() string {
	width := v.width - 4
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, c := range v.chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Chunk %d", c.Position)))
		b.WriteString(v.styles.Muted.Render("  " + c.PointID))
		b.WriteString("\n")
		b.WriteString(wrap.Render(c.Text))
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the chunks view.
func (v *View) View() string {
	var b strings.Builder

	title := "Chunks"
	if v.document != nil {
		title = fmt.Sprintf("Chunks - %s (%d)", v.document.Title, len(v.chunks))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chunks..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.chunks) == 0:
		b.WriteString(v.styles.Muted.Render("This document has no chunks."))
	default:
		b.WriteString(v.viewport.View())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [pgup/pgdn] page  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and re-wraps loaded chunks.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-6, 3)
	if len(v.chunks) > 0 {
		v.viewport.SetContent(v.render())
	}
}

// Document returns the document being shown, or nil.
func (v *View) Document() *domain.Document {
	return v.document
}

// Chunks returns the loaded chunks.
func (v *View) Chunks() []domain.Chunk {
	return v.chunks
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
