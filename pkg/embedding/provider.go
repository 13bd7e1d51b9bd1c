package embedding

// Provider generates text embeddings for glossary similarity lookups.
// taskType follows the Gemini task-type vocabulary ("SEMANTIC_SIMILARITY",
// "RETRIEVAL_QUERY", ...); providers that have no such notion ignore it.
type Provider interface {
	Generate(text string, taskType string) ([]float32, error)
}
