// Package upstream classifies failures from remote AI and vector APIs.
//
// Adapters call CheckResponse after every request so rate limits and
// server-side outages surface as transient errors (domain.IsTransient)
// and everything else as permanent ones.
package upstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider string
	Status   int
	Message  string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.Status, e.Message)
}

// Unwrap exposes domain sentinels for status classes callers care about.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return domain.ErrUnauthorized
	default:
		return nil
	}
}

// IsTransientStatus reports whether a status code is worth retrying.
func IsTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
}

// Classify builds the error for a failed response. Retryable statuses are
// wrapped with domain.MarkTransient.
func Classify(provider string, status int, message string) error {
	err := &StatusError{Provider: provider, Status: status, Message: message}
	if IsTransientStatus(status) {
		return domain.MarkTransient(err)
	}
	return err
}

// CheckResponse returns nil for 2xx responses. Otherwise it drains the body
// and returns a classified error carrying the provider's error message.
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return Classify(provider, resp.StatusCode, ErrorMessage(body))
}

// Transport wraps a network-level failure. Connection errors are treated as
// transient since the remote may simply be restarting.
func Transport(provider string, err error) error {
	return domain.MarkTransient(fmt.Errorf("%s: send request: %w", provider, err))
}

// ErrorMessage extracts a readable message from common error envelopes:
// {"error":{"message":...}}, {"error":"..."}, {"status":{"error":...}}.
func ErrorMessage(body []byte) string {
	var envelope struct {
		Error  json.RawMessage `json:"error"`
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, raw := range []json.RawMessage{envelope.Error, envelope.Status} {
			if msg := rawMessage(raw); msg != "" {
				return msg
			}
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Error
	}
	return ""
}
