// Package llm abstracts chat completion with tool calling.
package llm

import "context"

// Message roles mirror the chat completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    string
	Content string
}

// Tool describes a function the model may call. Parameters is a JSON Schema
// object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCall is the model's request to invoke a tool. Arguments is the raw JSON
// the model produced; callers validate it themselves.
type ToolCall struct {
	Name      string
	Arguments []byte
}

// Completion is a model response: either plain text or a tool call.
type Completion struct {
	Text     string
	ToolCall *ToolCall
}

// ChatModel produces completions. Implementations must return a Completion
// with exactly one of Text or ToolCall set.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message, tools []Tool) (Completion, error)
}
