package services

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// Canned answers for queries that retrieve nothing usable.
const (
	NoResultsAnswer = "I couldn't find any relevant information in the uploaded documents to answer your question."
	NoContextAnswer = "I found some documents, but they didn't contain readable text context."
)

// ContextSeparator joins retrieved chunk texts in the prompt.
const ContextSeparator = "\n---\n"

const (
	componentQuery       = "query.validate"
	componentQueryEmbed  = "query.embed"
	componentQuerySearch = "query.search"
	componentQuerySource = "query.sources"
)

// QueryService answers questions from ingested documents:
// embed → search → resolve sources → generate → log.
type QueryService struct {
	embedder   driven.EmbeddingService
	vectors    driven.VectorIndex
	store      driven.MetadataStore
	generator  *AnswerGenerator
	collection string
	topK       int
}

// NewQueryService creates a new query service reading from collection.
func NewQueryService(
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	store driven.MetadataStore,
	generator *AnswerGenerator,
	collection string,
) *QueryService {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &QueryService{
		embedder:   embedder,
		vectors:    vectors,
		store:      store,
		generator:  generator,
		collection: collection,
		topK:       domain.DefaultTopK,
	}
}

// SetTopK overrides the number of chunks retrieved per query.
func (s *QueryService) SetTopK(k int) {
	if k > 0 {
		s.topK = k
	}
}

// Answer answers query from the nearest chunks. Finding nothing is a normal
// outcome and returns a canned answer with no sources. The query log write
// never affects the result.
func (s *QueryService) Answer(ctx context.Context, query, tenant string) (*domain.Answer, error) {
	logger.Section("Query")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ValidationError(componentQuery, "query text is required")
	}
	logger.Debug("Query: %q", query)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.EmbeddingError(componentQueryEmbed, "failed to embed query", err)
	}
	if len(vector) == 0 {
		return nil, domain.EmbeddingError(componentQueryEmbed, "embedding model returned an empty vector", nil)
	}

	hits, err := s.vectors.Search(ctx, s.collection, vector, s.topK, true)
	if err != nil {
		return nil, domain.StorageError(componentQuerySearch, "vector search failed", err)
	}
	logger.Debug("Search returned %d hits", len(hits))

	if len(hits) == 0 {
		return &domain.Answer{Answer: NoResultsAnswer, Sources: []domain.SourceRef{}}, nil
	}

	texts := make([]string, 0, len(hits))
	var docIDs []int64
	seen := make(map[int64]bool)
	for _, hit := range hits {
		text := strings.TrimSpace(hit.Text())
		if text == "" {
			continue
		}
		texts = append(texts, text)
		if id, ok := hit.DocID(); ok && !seen[id] {
			seen[id] = true
			docIDs = append(docIDs, id)
		}
	}
	if len(texts) == 0 {
		return &domain.Answer{Answer: NoContextAnswer, Sources: []domain.SourceRef{}}, nil
	}

	docs, err := s.store.GetDocumentsByIDs(ctx, docIDs)
	if err != nil {
		return nil, domain.StorageError(componentQuerySource, "failed to resolve source documents", err)
	}
	sources := orderSources(docIDs, docs)

	start := time.Now()
	answer, err := s.generator.Generate(ctx, query, strings.Join(texts, ContextSeparator))
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	logger.Debug("Generated answer in %s", elapsed)

	s.logQuery(ctx, &domain.QueryLog{
		Tenant:         strings.TrimSpace(tenant),
		QueryText:      query,
		ResultsCount:   len(hits),
		ModelUsed:      s.generator.ModelName(),
		ResponseTimeMS: elapsed.Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	})

	return &domain.Answer{Answer: answer, Sources: sources}, nil
}

// logQuery writes the audit record. Failures are reported and discarded.
func (s *QueryService) logQuery(ctx context.Context, entry *domain.QueryLog) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("query log write panicked: %v", r)
		}
	}()
	if err := s.store.InsertQueryLog(ctx, entry); err != nil {
		logger.Warn("query log write failed: %v", err)
	}
}

// orderSources returns one SourceRef per resolved document, in the order
// the documents were first referenced by search results.
func orderSources(ids []int64, docs []domain.Document) []domain.SourceRef {
	byID := make(map[int64]domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	sources := make([]domain.SourceRef, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			continue
		}
		sources = append(sources, domain.SourceRef{
			ID:         d.ID,
			Title:      d.Title,
			SourceType: d.SourceType,
			SourcePath: d.SourcePath,
		})
	}
	return sources
}
