package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedModel replays a fixed sequence of completions. Each call to
// Complete consumes the next entry; running past the script is an error. It
// also records the requests it saw for assertions.
type ScriptedModel struct {
	mu       sync.Mutex
	script   []Completion
	calls    int
	Requests [][]Message
}

// NewScriptedModel creates a model that returns the given completions in
// order.
func NewScriptedModel(script ...Completion) *ScriptedModel {
	return &ScriptedModel{script: script}
}

func (s *ScriptedModel) Complete(ctx context.Context, messages []Message, tools []Tool) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]Message, len(messages))
	copy(copied, messages)
	s.Requests = append(s.Requests, copied)

	if s.calls >= len(s.script) {
		return Completion{}, fmt.Errorf("scripted model exhausted after %d calls", len(s.script))
	}
	next := s.script[s.calls]
	s.calls++
	return next, nil
}

// TextCompletion is a convenience constructor for a plain-text script entry.
func TextCompletion(text string) Completion {
	return Completion{Text: text}
}

// ToolCompletion is a convenience constructor for a tool-call script entry.
func ToolCompletion(name, arguments string) Completion {
	return Completion{ToolCall: &ToolCall{Name: name, Arguments: []byte(arguments)}}
}
