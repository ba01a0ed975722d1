package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(nil)

	require.NotNil(t, q)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.Equal(t, 60, q.Width())
}

func TestQuestionInput_Value(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetValue("  what is the refund policy?  ")

	assert.Equal(t, "what is the refund policy?", q.Value())
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)

	for _, r := range "why" {
		q, _ = q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "why", q.Value())
}

func TestQuestionInput_FocusAndBlur(t *testing.T) {
	q := NewQuestionInput(nil)

	q.Blur()
	assert.False(t, q.Focused())

	q.Focus()
	assert.True(t, q.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())

	q.SetWidth(10)
	assert.Equal(t, 10, q.Width())
}

func TestQuestionInput_Reset(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("something")

	q.Reset()

	assert.Empty(t, q.Value())
}

func TestQuestionInput_View(t *testing.T) {
	q := NewQuestionInput(nil)

	assert.Contains(t, q.View(), "Ask:")
}
