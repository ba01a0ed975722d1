package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

func newTestService(t *testing.T, status int, body string) *LLMService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	svc, err := NewLLMService(context.Background(), Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(context.Background(), Config{})
	assert.Error(t, err)

	svc, err := NewLLMService(context.Background(), Config{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.NoError(t, svc.Close())
}

func TestGenerate(t *testing.T) {
	svc := newTestService(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"The answer "},{"text":"is 4."}]},"finishReason":"STOP"}]}`)

	answer, err := svc.Generate(context.Background(), "2+2?", driven.GenerateOptions{MaxTokens: 32, Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, "The answer is 4.", answer)
}

func TestGenerate_NoCandidates(t *testing.T) {
	svc := newTestService(t, http.StatusOK, `{"candidates":[]}`)

	_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerate_Unavailable(t *testing.T) {
	svc := newTestService(t, http.StatusServiceUnavailable,
		`{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`)

	_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}
