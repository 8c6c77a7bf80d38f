package domain

// ChatMessage is the provider-agnostic chat message shape used by the content
// generator and the LLM integration.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
