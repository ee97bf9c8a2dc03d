package llm

// Message is a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds per-request options for chat completions.
type ChatParams struct {
	// Model overrides the client's default model when set.
	Model string

	// MaxTokens caps the reply length. 0 means no limit.
	MaxTokens int

	// Temperature controls the randomness of the output. 0 leaves the
	// server default in place.
	Temperature float32
}

// Provider names accepted in configuration.
const (
	// ProviderOpenAI is a cloud API that requires a bearer credential.
	ProviderOpenAI = "openai"
	// ProviderLocal is a llama.cpp or Ollama server exposing the
	// OpenAI-compatible chat completions endpoint.
	ProviderLocal = "local"
	// ProviderOffline fills gaps without any language model.
	ProviderOffline = "offline"
)
