package domain

import (
	"fmt"
	"strconv"
)

// Payload keys written alongside every chunk vector.
const (
	PayloadDocID    = "doc_id"
	PayloadText     = "text"
	PayloadPosition = "position"
)

// VectorPoint is a vector with its payload, addressed by ID within a collection.
type VectorPoint struct {
	// ID is unique within the collection.
	ID string

	// Vector is the embedding. All points in a collection share its length.
	Vector []float32

	// Payload carries at least doc_id, text and position.
	Payload map[string]any
}

// ScoredPoint is a search hit.
type ScoredPoint struct {
	// ID of the matched point.
	ID string

	// Score is the cosine similarity to the query vector.
	Score float64

	// Payload is nil unless requested.
	Payload map[string]any
}

// Text returns the payload text, or "" when absent or not a string.
func (p ScoredPoint) Text() string {
	s, _ := p.Payload[PayloadText].(string)
	return s
}

// DocID returns the payload document ID. JSON transports decode numbers as
// float64, embedded stores keep int64 or strings, so all three are accepted.
func (p ScoredPoint) DocID() (int64, bool) {
	return payloadInt(p.Payload, PayloadDocID)
}

// Position returns the payload position.
func (p ScoredPoint) Position() (int, bool) {
	v, ok := payloadInt(p.Payload, PayloadPosition)
	return int(v), ok
}

func payloadInt(payload map[string]any, key string) (int64, bool) {
	switch v := payload[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// ValidatePoints checks a batch for upsert into a collection of the given
// dimensionality; dims of zero means the collection does not exist yet.
// It returns the dimensionality shared by the batch.
func ValidatePoints(points []VectorPoint, dims int) (int, error) {
	if len(points) == 0 {
		return 0, fmt.Errorf("%w: no points to upsert", ErrInvalidInput)
	}
	for i, p := range points {
		if p.ID == "" {
			return 0, fmt.Errorf("%w: point %d has no id", ErrInvalidInput, i)
		}
		if len(p.Vector) == 0 {
			return 0, fmt.Errorf("%w: point %s has an empty vector", ErrInvalidInput, p.ID)
		}
		if dims == 0 {
			dims = len(p.Vector)
		}
		if len(p.Vector) != dims {
			return 0, fmt.Errorf("%w: point %s has %d dimensions, want %d",
				ErrDimensionMismatch, p.ID, len(p.Vector), dims)
		}
	}
	return dims, nil
}
