package router

import (
	"context"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
)

const classifierPrompt = `You route admin requests for a competitor price monitoring console.
Reply with exactly one word: "pricing" for pricing strategy and price suggestion requests,
"management" for creating, updating, or deleting competitors, prices, notes, or emails,
"analysis" for everything else.`

// LLMRouter classifies intent with a chat model and falls back to the
// keyword router on any failure, so routing never blocks on the model.
// It shares the Router interface with KeywordRouter so the two can be
// swapped without touching tool or permission code.
type LLMRouter struct {
	client   *openaisdk.Client
	model    string
	timeout  time.Duration
	fallback KeywordRouter
}

var _ contractx.Router = (*LLMRouter)(nil)

func NewLLM(client *openaisdk.Client, model string, timeout time.Duration) *LLMRouter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLMRouter{
		client:  client,
		model:   strings.TrimSpace(model),
		timeout: timeout,
	}
}

func (r *LLMRouter) SelectAgent(message string) contractx.AgentType {
	if r.client == nil || r.model == "" {
		return r.fallback.SelectAgent(message)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	resp, err := r.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(r.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(classifierPrompt),
			openaisdk.UserMessage(message),
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("llm routing failed, falling back to keyword router")
		return r.fallback.SelectAgent(message)
	}
	if len(resp.Choices) == 0 {
		return r.fallback.SelectAgent(message)
	}

	switch strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content)) {
	case string(contractx.AgentTypePricing):
		return contractx.AgentTypePricing
	case string(contractx.AgentTypeManagement):
		return contractx.AgentTypeManagement
	case string(contractx.AgentTypeAnalysis):
		return contractx.AgentTypeAnalysis
	default:
		return r.fallback.SelectAgent(message)
	}
}
