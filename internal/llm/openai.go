package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds settings for the OpenAI chat client.
type OpenAIConfig struct {
	APIKey      string
	Model       string // e.g. "gpt-4o-mini"
	BaseURL     string // optional, for OpenAI-compatible endpoints
	Temperature float32
}

// OpenAIModel is a ChatModel backed by the OpenAI chat completions API.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIModel creates a chat model backed by the OpenAI API.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIModel{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Complete sends the conversation to the model. When the model elects to call
// a tool, the first tool call is returned and Text is empty.
func (m *OpenAIModel) Complete(ctx context.Context, messages []Message, tools []Tool) (Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
	}

	req.Messages = make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	for _, tool := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		call := choice.ToolCalls[0]
		return Completion{ToolCall: &ToolCall{
			Name:      call.Function.Name,
			Arguments: []byte(call.Function.Arguments),
		}}, nil
	}
	return Completion{Text: choice.Content}, nil
}
