package domain

import "time"

// QueryLog is an append-only audit record for an answered query.
type QueryLog struct {
	ID             int64
	Tenant         string
	QueryText      string
	ResultsCount   int
	ModelUsed      string
	ResponseTimeMS int64
	CreatedAt      time.Time
}

// SourceRef is the minimal description of a document that contributed
// context to an answer.
type SourceRef struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	SourceType SourceType `json:"source_type"`
	SourcePath string     `json:"source_path"`
}

// Answer is the result of a query.
type Answer struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}
