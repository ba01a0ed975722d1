// Package chunker splits loaded text into overlapping chunks for embedding.
package chunker

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// separators are tried in order: paragraph, line, sentence, word, character.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits text units with a recursive character splitter.
// Output is deterministic for a given input and configuration.
type Processor struct {
	chunkSize int
	overlap   int
	splitter  textsplitter.RecursiveCharacter
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	p.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.overlap),
		textsplitter.WithSeparators(separators),
		textsplitter.WithKeepSeparator(true),
	)

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split cuts each unit into chunks, in unit order. Every chunk carries a
// copy of its unit's metadata plus the unit index.
func (p *Processor) Split(ctx context.Context, units []domain.TextUnit) ([]domain.TextChunk, error) {
	var chunks []domain.TextChunk

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if unit.Text == "" {
			continue
		}

		parts, err := p.splitter.SplitText(unit.Text)
		if err != nil {
			return nil, fmt.Errorf("splitting unit %d: %w", i, err)
		}

		for _, part := range parts {
			meta := make(map[string]string, len(unit.Metadata)+1)
			for k, v := range unit.Metadata {
				meta[k] = v
			}
			meta["unit"] = fmt.Sprint(i)
			chunks = append(chunks, domain.TextChunk{Text: part, Metadata: meta})
		}
	}

	return chunks, nil
}
