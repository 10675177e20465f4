package driven

import "context"

// TextGenerator produces a completion for a prompt.
// The call is a single opaque external request: no retries, no streaming.
//
// Implementations may include:
//   - OpenAI-compatible chat completion APIs
//   - Ollama (local models)
type TextGenerator interface {
	// Generate returns the model completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the generation model identity for cache keys.
	ModelName() string
}
