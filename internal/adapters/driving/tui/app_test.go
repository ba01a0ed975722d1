package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/athena/internal/core/domain"
)

func newTestApp(t *testing.T, query *MockQueryService, docs *MockDocumentService) *App {
	t.Helper()
	ports := NewPorts(query, docs)
	ports.Tenant = "acme"
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

// send delivers msg and then feeds back every application message the
// resulting commands produce. Cursor blink ticks are dropped.
func send(app *App, msg tea.Msg) {
	_, cmd := app.Update(msg)
	for cmd != nil {
		next := cmd()
		switch next.(type) {
		case messages.ViewChanged, messages.AnswerCompleted, messages.DocumentsLoaded,
			messages.DocumentSelected, messages.ChunksLoaded, messages.ErrorOccurred:
			_, cmd = app.Update(next)
		default:
			return
		}
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp(t *testing.T) {
	t.Run("valid ports", func(t *testing.T) {
		app, err := NewApp(NewPorts(&MockQueryService{}, nil))

		require.NoError(t, err)
		assert.Equal(t, messages.ViewMenu, app.CurrentView())
		assert.False(t, app.Ready())
		assert.Equal(t, "Initialising...", app.View())
	})

	t.Run("missing query service", func(t *testing.T) {
		app, err := NewApp(NewPorts(nil, &MockDocumentService{}))

		assert.ErrorIs(t, err, ErrMissingQueryService)
		assert.Nil(t, app)
	})
}

func TestApp_InitAndContext(t *testing.T) {
	app, err := NewApp(NewPorts(&MockQueryService{}, nil))
	require.NoError(t, err)

	type key string
	ctx := context.WithValue(context.Background(), key("k"), "v")
	assert.Same(t, app, app.WithContext(ctx))
	assert.NotNil(t, app.Init())

	assert.Same(t, app, app.StartInAsk())
	assert.Equal(t, messages.ViewAsk, app.CurrentView())
	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(NewPorts(&MockQueryService{}, nil))
	require.NoError(t, err)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Athena")
}

func TestApp_AskFlow(t *testing.T) {
	var gotTenant string
	query := &MockQueryService{
		AnswerFunc: func(_ context.Context, q, tenant string) (*domain.Answer, error) {
			gotTenant = tenant
			return &domain.Answer{
				Answer:  "It is blue.",
				Sources: []domain.SourceRef{{ID: 1, Title: "Sky Facts", SourceType: domain.SourceTypeTXT}},
			}, nil
		},
	}
	app := newTestApp(t, query, nil)

	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, messages.ViewAsk, app.CurrentView())

	for _, r := range "sky colour" {
		app.Update(runes(string(r)))
	}
	send(app, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, app.LastAnswer())
	assert.Equal(t, "It is blue.", app.LastAnswer().Answer)
	assert.Equal(t, "acme", gotTenant)
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "Sky Facts")

	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_AskError(t *testing.T) {
	query := &MockQueryService{
		AnswerFunc: func(context.Context, string, string) (*domain.Answer, error) {
			return nil, errors.New("vector index unavailable")
		},
	}
	app := newTestApp(t, query, nil)
	app.Update(messages.ViewChanged{View: messages.ViewAsk})

	for _, r := range "why" {
		app.Update(runes(string(r)))
	}
	send(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.EqualError(t, app.Err(), "vector index unavailable")
	assert.Nil(t, app.LastAnswer())
	assert.Contains(t, app.View(), "vector index unavailable")
}

func TestApp_DocumentsToChunks(t *testing.T) {
	docs := &MockDocumentService{
		ListFunc: func(context.Context) ([]domain.Document, error) {
			return []domain.Document{{ID: 7, Title: "Handbook", SourceType: domain.SourceTypePDF}}, nil
		},
		ChunksFunc: func(_ context.Context, id int64) ([]domain.Chunk, error) {
			return []domain.Chunk{{DocumentID: id, Position: 0, Text: "Welcome aboard."}}, nil
		},
	}
	app := newTestApp(t, &MockQueryService{}, docs)

	send(app, messages.ViewChanged{View: messages.ViewDocuments})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Contains(t, app.View(), "Handbook")

	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewChunks, app.CurrentView())
	assert.Contains(t, app.View(), "Welcome aboard.")

	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t, &MockQueryService{}, nil)

	send(app, runes("?"))
	require.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "New question")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, &MockQueryService{}, nil)
	app.Update(messages.ViewChanged{View: messages.ViewAsk})

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, &MockQueryService{}, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
