package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/logger"
)

const componentGenerate = "answer.generate"

// BuildPrompt renders the default answer prompt. Context may be empty.
func BuildPrompt(query, context string) string {
	return RenderPrompt(domain.DefaultAnswerPrompt, query, context)
}

// RenderPrompt fills template in a single pass, so placeholder text inside
// query or context is never expanded.
func RenderPrompt(template, query, context string) string {
	r := strings.NewReplacer(
		domain.PromptContextPlaceholder, context,
		domain.PromptQueryPlaceholder, query,
	)
	return r.Replace(template)
}

// ValidatePromptTemplate checks that template uses both placeholders.
func ValidatePromptTemplate(template string) error {
	for _, p := range []string{domain.PromptContextPlaceholder, domain.PromptQueryPlaceholder} {
		if !strings.Contains(template, p) {
			return domain.ValidationError(componentGenerate, "prompt template is missing %s", p)
		}
	}
	return nil
}

// AnswerGenerator turns a question plus retrieved context into an answer.
type AnswerGenerator struct {
	llm      driven.LLMService
	opts     driven.GenerateOptions
	template string
}

// NewAnswerGenerator creates a generator backed by llm.
// maxTokens of zero leaves the provider default in place.
func NewAnswerGenerator(llm driven.LLMService, maxTokens int) *AnswerGenerator {
	return &AnswerGenerator{
		llm:      llm,
		opts:     driven.GenerateOptions{MaxTokens: maxTokens},
		template: domain.DefaultAnswerPrompt,
	}
}

// SetTemplate replaces the prompt template. An invalid template is
// rejected and the current one kept.
func (g *AnswerGenerator) SetTemplate(template string) error {
	if err := ValidatePromptTemplate(template); err != nil {
		return err
	}
	g.template = template
	return nil
}

// Generate asks the model to answer query strictly from context.
// A blank completion is a generation error.
func (g *AnswerGenerator) Generate(ctx context.Context, query, context string) (string, error) {
	prompt := RenderPrompt(g.template, query, context)
	logger.Debug("Prompt length: %d chars", len(prompt))

	out, err := g.llm.Generate(ctx, prompt, g.opts)
	if err != nil {
		return "", domain.GenerationError(componentGenerate, "text generation failed", err).
			WithContext("model", g.llm.ModelName())
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", domain.GenerationError(componentGenerate, "model returned an empty answer", nil).
			WithContext("model", g.llm.ModelName())
	}
	return out, nil
}

// ModelName returns the underlying model identifier.
func (g *AnswerGenerator) ModelName() string {
	return g.llm.ModelName()
}
