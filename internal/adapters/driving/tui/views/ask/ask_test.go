package ask

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/athena/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/athena/internal/core/domain"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	AnswerFunc func(ctx context.Context, query, tenant string) (*domain.Answer, error)
}

func (m *MockQueryService) Answer(ctx context.Context, query, tenant string) (*domain.Answer, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, query, tenant)
	}
	return &domain.Answer{Answer: "ok", Sources: []domain.SourceRef{}}, nil
}

func testAnswer() *domain.Answer {
	return &domain.Answer{
		Answer: "Refunds are accepted within 30 days.",
		Sources: []domain.SourceRef{
			{ID: 4, Title: "Refund Policy", SourceType: domain.SourceTypePDF, SourcePath: "refunds.pdf"},
			{ID: 9, Title: "FAQ", SourceType: domain.SourceTypeTXT, SourcePath: "faq.txt"},
		},
	}
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newSizedView(svc *MockQueryService) *View {
	v := NewView(nil, nil, svc, "acme")
	v.SetDimensions(100, 40)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil, "")

	require.NotNil(t, v)
	assert.True(t, v.InputFocused())
	assert.False(t, v.Asking())
	assert.Nil(t, v.Result())
	assert.NotNil(t, v.Init())
}

func TestView_SubmitAsksQueryService(t *testing.T) {
	var gotQuery, gotTenant string
	svc := &MockQueryService{
		AnswerFunc: func(_ context.Context, query, tenant string) (*domain.Answer, error) {
			gotQuery, gotTenant = query, tenant
			return testAnswer(), nil
		},
	}
	v := newSizedView(svc)
	typeText(v, "refund window?")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, v.Asking())
	assert.False(t, v.InputFocused())
	assert.Equal(t, status.StateAsking, v.Status())
	assert.Contains(t, v.View(), "Thinking about: refund window?")

	msg := cmd()
	completed, ok := msg.(messages.AnswerCompleted)
	require.True(t, ok)
	assert.Equal(t, "refund window?", gotQuery)
	assert.Equal(t, "acme", gotTenant)

	v.Update(completed)

	assert.False(t, v.Asking())
	require.NotNil(t, v.Result())
	assert.Equal(t, status.StateAnswered, v.Status())
	out := v.View()
	assert.Contains(t, out, "Refunds are accepted within 30 days.")
	assert.Contains(t, out, "Refund Policy")
	assert.Contains(t, out, "Sources (2)")
}

func TestView_BlankQuestionIgnored(t *testing.T) {
	called := false
	svc := &MockQueryService{
		AnswerFunc: func(context.Context, string, string) (*domain.Answer, error) {
			called = true
			return nil, nil
		},
	}
	v := newSizedView(svc)
	typeText(v, "   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, called)
	assert.True(t, v.InputFocused())
}

func TestView_AnswerError(t *testing.T) {
	v := newSizedView(&MockQueryService{})
	v.Update(messages.AnswerCompleted{
		Question: "q",
		Err:      domain.GenerationError("query.generate", "language model unavailable", errors.New("dial tcp")),
	})

	assert.Error(t, v.Err())
	assert.Nil(t, v.Result())
	assert.Equal(t, status.StateError, v.Status())
	assert.Contains(t, v.View(), "language model unavailable")
}

func TestView_NoQueryService(t *testing.T) {
	v := NewView(nil, nil, nil, "")
	typeText(v, "hello")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg := cmd()
	errMsg, ok := msg.(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, errMsg.Err, ErrNoQueryService)

	v.Update(errMsg)
	assert.False(t, v.Asking())
	assert.Equal(t, status.StateError, v.Status())
}

func TestView_SourceNavigationAndNewQuestion(t *testing.T) {
	v := newSizedView(&MockQueryService{})
	v.focusInput = false
	v.Update(messages.AnswerCompleted{Question: "q", Answer: testAnswer()})

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	require.NotNil(t, v.SelectedSource())
	assert.Equal(t, int64(9), v.SelectedSource().ID)

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, int64(4), v.SelectedSource().ID)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.True(t, v.InputFocused())
	assert.Equal(t, status.StateReady, v.Status())
}

func TestView_KeysIgnoredWhileAsking(t *testing.T) {
	v := newSizedView(&MockQueryService{})
	typeText(v, "q")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.Asking())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.Nil(t, cmd)
	assert.False(t, v.InputFocused())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := newSizedView(&MockQueryService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reset(t *testing.T) {
	v := newSizedView(&MockQueryService{})
	v.focusInput = false
	v.Update(messages.AnswerCompleted{Question: "q", Answer: testAnswer()})

	v.Reset()

	assert.True(t, v.InputFocused())
	assert.Nil(t, v.Result())
	assert.Empty(t, v.Question())
	assert.Nil(t, v.SelectedSource())
	assert.Equal(t, status.StateReady, v.Status())
}
