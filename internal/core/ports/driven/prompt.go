package driven

// Prompt names.
const (
	// PromptAnswer is the template used to answer a question from context.
	PromptAnswer = "answer"
)

// PromptStore provides user-editable LLM prompt templates.
type PromptStore interface {
	// Load returns the template for name, or the built-in default.
	Load(name string) (string, error)
}
