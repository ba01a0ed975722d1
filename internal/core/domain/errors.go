package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured or unreachable.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrStorageUnavailable indicates the metadata store could not be opened.
	ErrStorageUnavailable = errors.New("metadata store unavailable")

	// ErrDimensionMismatch indicates a vector whose length disagrees with its collection.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized indicates a missing or wrong API key.
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorKind classifies an AppError.
type ErrorKind string

// Error kinds. Each maps to a default HTTP status.
const (
	KindValidation ErrorKind = "validation"
	KindExtraction ErrorKind = "extraction"
	KindEmbedding  ErrorKind = "embedding"
	KindStorage    ErrorKind = "storage"
	KindGeneration ErrorKind = "generation"
	KindLogging    ErrorKind = "logging"
	KindAuth       ErrorKind = "auth"
	KindInternal   ErrorKind = "internal"
)

// Kind sentinels, usable with errors.Is against any *AppError of that kind.
var (
	ErrValidation = &AppError{Kind: KindValidation}
	ErrExtraction = &AppError{Kind: KindExtraction}
	ErrEmbedding  = &AppError{Kind: KindEmbedding}
	ErrStorage    = &AppError{Kind: KindStorage}
	ErrGeneration = &AppError{Kind: KindGeneration}
	ErrLogging    = &AppError{Kind: KindLogging}
	ErrAuth       = &AppError{Kind: KindAuth}
	ErrInternal   = &AppError{Kind: KindInternal}
)

// Status returns the default HTTP status for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindExtraction:
		return http.StatusUnprocessableEntity
	case KindEmbedding, KindGeneration:
		return http.StatusBadGateway
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the uniform error shape that crosses component boundaries.
// The boundary layer renders it directly to callers.
type AppError struct {
	// Kind is the taxonomy bucket.
	Kind ErrorKind

	// Message is human-readable and safe to return to callers.
	Message string

	// Status is the numeric status code, defaulting to Kind.Status().
	Status int

	// Expected marks operational failures (bad input, upstream outage)
	// as opposed to programming errors.
	Expected bool

	// Transient marks failures a caller may retry (rate limits, outages).
	Transient bool

	// Component names the originating component, e.g. "ingest.embed".
	Component string

	// Context carries extra diagnostic fields.
	Context map[string]any

	// Err is the wrapped cause.
	Err error
}

// Error implements error.
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Component != "" {
		b.WriteString(" [")
		b.WriteString(e.Component)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels: errors.Is(err, ErrValidation).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Component == "" && t.Err == nil && t.Kind == e.Kind
}

// WithContext attaches a diagnostic field and returns e.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewError builds an expected AppError of the given kind.
func NewError(kind ErrorKind, component, message string, cause error) *AppError {
	return &AppError{
		Kind:      kind,
		Message:   message,
		Status:    kind.Status(),
		Expected:  true,
		Component: component,
		Err:       cause,
	}
}

// ValidationError builds a validation failure.
func ValidationError(component, format string, args ...any) *AppError {
	return NewError(KindValidation, component, fmt.Sprintf(format, args...), nil)
}

// ExtractionError builds an extraction failure.
func ExtractionError(component, message string, cause error) *AppError {
	return NewError(KindExtraction, component, message, cause)
}

// EmbeddingError builds an embedding failure. Transient is derived from the
// cause chain (see IsTransient).
func EmbeddingError(component, message string, cause error) *AppError {
	e := NewError(KindEmbedding, component, message, cause)
	e.Transient = IsTransient(cause)
	return e
}

// StorageError builds a storage failure.
func StorageError(component, message string, cause error) *AppError {
	return NewError(KindStorage, component, message, cause)
}

// GenerationError builds a generation failure.
func GenerationError(component, message string, cause error) *AppError {
	e := NewError(KindGeneration, component, message, cause)
	e.Transient = IsTransient(cause)
	return e
}

// AsAppError returns err as an *AppError, wrapping anything else as an
// unexpected internal error attributed to component.
func AsAppError(err error, component string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Kind:      KindInternal,
		Message:   "unexpected error",
		Status:    http.StatusInternalServerError,
		Expected:  false,
		Component: component,
		Err:       err,
	}
}

// TransientError marks an upstream failure as retryable.
type TransientError struct {
	Err error
}

// Error implements error.
func (e *TransientError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped cause.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// MarkTransient wraps err so IsTransient reports true.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err (or anything it wraps) is retryable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Transient
	}
	return false
}
