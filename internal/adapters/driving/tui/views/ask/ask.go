// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/athena/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
)

// ErrNoQueryService indicates that no query service was provided.
var ErrNoQueryService = errors.New("query service is required")

// Rows reserved for the title, input, source list and status bar.
const (
	chromeHeight  = 8
	sourcesHeight = 6
)

// View shows a question input, the generated answer and its sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	answer    viewport.Model
	sources   *list.SourceList
	statusbar *status.Bar

	queryService driving.QueryService
	tenant       string
	ctx          context.Context

	question   string
	result     *domain.Answer
	width      int
	height     int
	ready      bool
	asking     bool
	err        error
	focusInput bool
}

// NewView creates a new ask view. Questions are logged under tenant.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	queryService driving.QueryService,
	tenant string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		answer:       viewport.New(80, 10),
		sources:      list.NewSourceList(s),
		statusbar:    status.NewBar(s, km),
		queryService: queryService,
		tenant:       tenant,
		ctx:          context.Background(),
		width:        80,
		height:       24,
		focusInput:   true,
	}
	return v
}

// WithContext sets the context passed to the query service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.asking = false
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	// Keys are ignored until the pending answer arrives.
	if v.asking {
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.focusInput = true
		v.input.Reset()
		v.statusbar.Clear()
		return v, v.input.Focus()
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.sources.MoveUp()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.sources.MoveDown()
		return v, nil
	}

	// Page keys scroll the answer.
	var cmd tea.Cmd
	v.answer, cmd = v.answer.Update(msg)
	return v, cmd
}

// submit sends the typed question. Blank input is ignored.
func (v *View) submit() tea.Cmd {
	question := v.input.Value()
	if question == "" {
		return nil
	}
	v.question = question
	v.asking = true
	v.err = nil
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateAsking)
	return v.performAsk(question)
}

func (v *View) performAsk(question string) tea.Cmd {
	ctx, svc, tenant := v.ctx, v.queryService, v.tenant
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		answer, err := svc.Answer(ctx, question, tenant)
		return messages.AnswerCompleted{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerCompleted) {
	v.asking = false
	if msg.Err != nil {
		v.err = msg.Err
		v.result = nil
		v.sources.Clear()
		v.answer.SetContent("")
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(errorText(msg.Err))
		return
	}

	v.err = nil
	v.result = msg.Answer
	var sources []domain.SourceRef
	text := ""
	if msg.Answer != nil {
		sources = msg.Answer.Sources
		text = msg.Answer.Answer
	}
	v.sources.SetSources(sources)
	v.answer.SetContent(v.wrap(text))
	v.answer.GotoTop()
	v.statusbar.SetMessage("")
	v.statusbar.SetSourceCount(len(sources))
	v.statusbar.SetState(status.StateAnswered)
}

// errorText prefers the user-facing message of an application error.
func errorText(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (v *View) wrap(text string) string {
	width := v.width - 4
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// View renders the ask view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Athena"))
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")

	switch {
	case v.asking:
		b.WriteString(v.styles.Muted.Render("Thinking about: " + v.question))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(errorText(v.err)))
		b.WriteString("\n")
	case v.result != nil:
		b.WriteString(v.styles.Answer.Render(v.answer.View()))
		b.WriteString("\n\n")
		b.WriteString(v.sources.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

// SetDimensions sets the view dimensions and resizes children.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.sources.SetSize(width, sourcesHeight)

	answerHeight := height - chromeHeight - sourcesHeight
	if answerHeight < 3 {
		answerHeight = 3
	}
	v.answer.Width = width - 2
	v.answer.Height = answerHeight
	if v.result != nil {
		v.answer.SetContent(v.wrap(v.result.Answer))
	}
}

// Reset clears the question, answer and error and focuses the input.
func (v *View) Reset() {
	v.input.Reset()
	v.input.Focus()
	v.focusInput = true
	v.asking = false
	v.question = ""
	v.result = nil
	v.err = nil
	v.sources.Clear()
	v.answer.SetContent("")
	v.statusbar.Clear()
}

// Question returns the last submitted question.
func (v *View) Question() string {
	return v.question
}

// Result returns the last answer, or nil.
func (v *View) Result() *domain.Answer {
	return v.result
}

// Asking reports whether an answer is pending.
func (v *View) Asking() bool {
	return v.asking
}

// InputFocused reports whether keys go to the question input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// SelectedSource returns the highlighted source, or nil.
func (v *View) SelectedSource() *domain.SourceRef {
	return v.sources.SelectedSource()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}
