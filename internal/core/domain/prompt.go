package domain

// Placeholders substituted into the answer prompt.
const (
	PromptContextPlaceholder = "{context}"
	PromptQueryPlaceholder   = "{query}"
)

// DefaultAnswerPrompt is filled with the retrieved context and the question.
const DefaultAnswerPrompt = `You are a helpful assistant. Use the context below to answer the question accurately.
If the answer is not in the context, say "I don't know based on the provided context."

Context:
{context}

Question:
{query}

Answer:`
