package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/athena/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/views/chunks"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/athena/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView      *menu.View
	askView       *ask.View
	documentsView *documents.View
	chunksView    *chunks.View

	currentView messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		menuView:      menu.NewView(s),
		askView:       ask.NewView(s, km, ports.Query, ports.Tenant),
		documentsView: documents.NewView(s, ports.Documents),
		chunksView:    chunks.NewView(s, ports.Documents),
		currentView:   messages.ViewMenu,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.chunksView.WithContext(ctx)
	return a
}

// StartInAsk opens the ask view directly instead of the menu.
func (a *App) StartInAsk() *App {
	a.currentView = messages.ViewAsk
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("athena - Document Q&A"),
	}
	if a.currentView == messages.ViewAsk {
		cmds = append(cmds, a.askView.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.routeKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewAsk:
			a.askView.Reset()
			return a, a.askView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewMenu, messages.ViewChunks, messages.ViewHelp:
		}
		return a, nil

	case messages.AnswerCompleted:
		a.err = msg.Err
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded:
		a.err = msg.Err
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		a.currentView = messages.ViewChunks
		return a, a.chunksView.SetDocument(msg.Document)

	case messages.ChunksLoaded:
		a.err = msg.Err
		a.chunksView, cmd = a.chunksView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewChunks:
			a.chunksView, cmd = a.chunksView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Anything else (cursor blinks, viewport ticks) goes to the active view.
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewChunks:
		a.chunksView, cmd = a.chunksView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) routeKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewChunks:
		a.chunksView, cmd = a.chunksView.Update(msg)
	case messages.ViewHelp:
		switch {
		case keymap.Matches(msg.String(), a.keymap.Back):
			a.currentView = messages.ViewMenu
		case keymap.Matches(msg.String(), a.keymap.Quit):
			return tea.Quit
		}
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewChunks:
		return a.chunksView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	sections := []struct {
		name  string
		lines [][2]string
	}{
		{"Menu", [][2]string{{"j/k, ↑/↓", "Navigate options"}, {"enter", "Select option"}, {"q", "Quit"}}},
		{"Ask", [][2]string{
			{"(type)", "Enter a question"},
			{"enter", "Ask"},
			{"n", "New question"},
			{"j/k, ↑/↓", "Move through sources"},
			{"pgup/pgdn", "Scroll the answer"},
		}},
		{"Documents", [][2]string{{"enter", "Show chunks"}, {"r", "Reload"}}},
		{"Anywhere", [][2]string{{"esc", "Back"}, {"ctrl+c", "Quit"}}},
	}

	for _, sec := range sections {
		b.WriteString(a.styles.Subtitle.Render(sec.name))
		b.WriteString("\n")
		for _, l := range sec.lines {
			b.WriteString(fmt.Sprintf("  %-12s %s\n", l[0], l[1]))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI program and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// LastAnswer returns the answer shown in the ask view, or nil.
func (a *App) LastAnswer() *domain.Answer {
	return a.askView.Result()
}

// Err returns the last error reported by any view.
func (a *App) Err() error {
	return a.err
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.chunksView.SetDimensions(width, height)
}
