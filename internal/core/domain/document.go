package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceType identifies the format of an ingested file.
// The set is closed: every value has exactly one loader.
type SourceType string

// Supported source types.
const (
	SourceTypePDF  SourceType = "pdf"
	SourceTypeDOCX SourceType = "docx"
	SourceTypeTXT  SourceType = "txt"
)

// ParseSourceType normalises s and returns the matching SourceType.
// Returns ErrUnsupportedType for anything outside the closed set.
func ParseSourceType(s string) (SourceType, error) {
	t := SourceType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
	return t, nil
}

// SourceTypeFromExtension maps a file extension (with or without the dot)
// to a SourceType.
func SourceTypeFromExtension(ext string) (SourceType, bool) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	switch ext {
	case "pdf":
		return SourceTypePDF, true
	case "docx":
		return SourceTypeDOCX, true
	case "txt", "text":
		return SourceTypeTXT, true
	default:
		return "", false
	}
}

// IsValid returns true if the source type is supported.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypePDF, SourceTypeDOCX, SourceTypeTXT:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// AllSourceTypes returns every supported source type.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceTypePDF, SourceTypeDOCX, SourceTypeTXT}
}

// Document represents an ingested file. It is created once per successful
// ingestion and never modified afterwards.
type Document struct {
	// ID is assigned by the metadata store on insert.
	ID int64 `json:"id"`

	// Tenant is an optional grouping tag. It carries no isolation guarantees.
	Tenant string `json:"tenant_id,omitempty"`

	// Title is the human-readable title supplied at ingestion.
	Title string `json:"title"`

	// SourceType is the declared format of the file.
	SourceType SourceType `json:"source_type"`

	// SourcePath is the original filename or path of the upload.
	SourcePath string `json:"source_path"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Tags is optional free text.
	Tags string `json:"tags,omitempty"`

	// CreatedAt is when the document row was inserted.
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a bounded slice of a document's text. Chunks of one document
// have contiguous positions starting at zero.
type Chunk struct {
	// ID is assigned by the metadata store on insert.
	ID int64 `json:"id"`

	// DocumentID links to the owning Document.
	DocumentID int64 `json:"doc_id"`

	// Text is the chunk content.
	Text string `json:"chunk_text"`

	// PointID references the vector index point holding this chunk's vector.
	PointID string `json:"vector_point_id"`

	// Position is the zero-based ordinal within the document.
	Position int `json:"position"`

	// CreatedAt is when the chunk row was inserted.
	CreatedAt time.Time `json:"created_at"`
}

// TextUnit is a span of plain text produced by a loader, e.g. one PDF page.
type TextUnit struct {
	// Text is the extracted content.
	Text string

	// Metadata describes where the text came from (source path, page, ...).
	Metadata map[string]string
}

// TextChunk is a chunker output segment with the metadata of the unit it
// was cut from.
type TextChunk struct {
	Text     string
	Metadata map[string]string
}

// IngestRequest carries everything needed to ingest one file.
type IngestRequest struct {
	// SourceType is the declared format, validated against the closed set.
	SourceType string

	// Title is required.
	Title string

	// Description is optional.
	Description string

	// Tags is optional free text.
	Tags string

	// Tenant is an optional grouping tag.
	Tenant string

	// FilePath must exist and be readable when Ingest is called.
	FilePath string

	// OriginalName is the filename as uploaded. Defaults to the base of FilePath.
	OriginalName string
}

// IngestResult reports a successful ingestion.
type IngestResult struct {
	DocumentID int64 `json:"document_id"`
	ChunkCount int   `json:"chunk_count"`
}
