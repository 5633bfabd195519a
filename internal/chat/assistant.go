package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/moviemind-ai/moviemind/internal/llm"
	"github.com/moviemind-ai/moviemind/internal/observability"
	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

// ErrMalformedToolCall marks a tool call the model produced that could not be
// validated. The assistant degrades to an apology instead of failing the
// conversation.
var ErrMalformedToolCall = errors.New("malformed tool call")

// ToolName is the single retrieval tool exposed to the model.
const ToolName = "retrieve_relevant_movies"

// Canned replies for degraded paths. The conversation continues after each of
// them.
const (
	apologyReply     = "Sorry, I could not work out what to look up there. Could you rephrase your question?"
	unavailableReply = "Sorry, the movie catalog is unavailable right now. Please try again in a moment."
	noMatchesReply   = "I could not find any movies matching that. Try loosening the filters or asking differently."
)

const systemPrompt = "You are MovieMind, a movie conversation assistant. " +
	"Answer general movie questions directly from your own knowledge. " +
	"When the user asks for movies matching concrete criteria such as titles, release dates, " +
	"years, ratings, popularity, or language, call the " + ToolName + " tool instead of guessing. " +
	"Keep answers short and conversational."

// Mode selects how retrieval tool calls are resolved.
type Mode string

const (
	// ModeStructured builds a SQL query from the tool call's filters.
	ModeStructured Mode = "structured"

	// ModeSemantic searches the vector index with the user's text.
	ModeSemantic Mode = "semantic"
)

// AssistantConfig controls retrieval resolution.
type AssistantConfig struct {
	Mode      Mode
	SemanticK int
}

// Assistant runs the direct-answer versus retrieve decision for each user
// message.
type Assistant struct {
	model     llm.ChatModel
	retriever *retrieval.Retriever
	logger    *observability.Logger
	cfg       AssistantConfig
}

// NewAssistant wires an assistant.
func NewAssistant(model llm.ChatModel, retriever *retrieval.Retriever, logger *observability.Logger, cfg AssistantConfig) *Assistant {
	if cfg.Mode == "" {
		cfg.Mode = ModeStructured
	}
	if cfg.SemanticK <= 0 {
		cfg.SemanticK = 5
	}
	return &Assistant{
		model:     model,
		retriever: retriever,
		logger:    logger.WithComponent("assistant"),
		cfg:       cfg,
	}
}

// retrievalTool is the schema handed to the model. Every property maps to a
// catalog column; order_by, order_direction and limit shape the result set.
func retrievalTool() llm.Tool {
	return llm.Tool{
		Name: ToolName,
		Description: "Look up movies in the catalog by structured criteria. " +
			"Use release_date with a year number to match a release year, or with a date string for an exact date.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title":             map[string]interface{}{"type": "string", "description": "Full or partial movie title"},
				"release_date":      map[string]interface{}{"description": "Release year as a number, or a date string"},
				"popularity":        map[string]interface{}{"type": "number"},
				"vote_average":      map[string]interface{}{"type": "number"},
				"adult":             map[string]interface{}{"type": "boolean"},
				"original_language": map[string]interface{}{"type": "string", "description": "ISO 639-1 language code"},
				"order_by":          map[string]interface{}{"type": "string", "enum": []string{"title", "release_date", "popularity", "vote_average"}},
				"order_direction":   map[string]interface{}{"type": "string", "enum": []string{"asc", "desc"}},
				"limit":             map[string]interface{}{"type": "integer"},
			},
		},
	}
}

// Respond handles one user message. The model either answers directly or
// requests retrieval; in both cases the exchange is appended to history
// before returning, so history only ever contains completed turns.
func (a *Assistant) Respond(ctx context.Context, history *History, input string) (string, error) {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}
	for _, turn := range history.Turns() {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.User},
			llm.Message{Role: llm.RoleAssistant, Content: turn.Bot},
		)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: input})

	completion, err := a.model.Complete(ctx, messages, []llm.Tool{retrievalTool()})
	if err != nil {
		return "", fmt.Errorf("model completion: %w", err)
	}

	var reply string
	if completion.ToolCall != nil {
		reply, err = a.resolveToolCall(ctx, completion.ToolCall, input)
		if err != nil {
			return "", err
		}
	} else {
		reply = strings.TrimSpace(completion.Text)
	}

	history.Append(input, reply)
	return reply, nil
}

// resolveToolCall validates and executes a retrieval request. Malformed calls
// and catalog outages degrade to canned replies so the session survives.
func (a *Assistant) resolveToolCall(ctx context.Context, call *llm.ToolCall, input string) (string, error) {
	spec, err := a.parseToolCall(call)
	if err != nil {
		a.logger.Warn().Err(err).Str("tool", call.Name).Msg("Degrading malformed tool call to apology")
		return apologyReply, nil
	}

	var movies []storage.Movie
	if a.cfg.Mode == ModeSemantic {
		movies, err = a.retriever.SearchSemantic(ctx, input, a.cfg.SemanticK)
	} else {
		movies, err = a.retriever.Search(ctx, spec, input)
	}
	if err != nil {
		if errors.Is(err, storage.ErrExecution) {
			a.logger.Error().Err(err).Msg("Catalog query failed, degrading to unavailable reply")
			return unavailableReply, nil
		}
		return "", err
	}

	if len(movies) == 0 {
		return noMatchesReply, nil
	}
	return FormatMovies(movies), nil
}

func (a *Assistant) parseToolCall(call *llm.ToolCall) (*retrieval.FilterSpec, error) {
	if call.Name != ToolName {
		return nil, fmt.Errorf("%w: unknown tool %q", ErrMalformedToolCall, call.Name)
	}
	spec, err := retrieval.ParseFilterSpec(call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToolCall, err)
	}
	return spec, nil
}
