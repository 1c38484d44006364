// ABOUTME: OpenAI-style chat-completions backend
// ABOUTME: Prepends the preset as a synthetic system message and extracts the first choice

package provider

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/parlor-bot/parlor/internal/store"
)

// chatBackend implements Backend for OpenAI-style chat models.
type chatBackend struct {
	client      *openai.Client
	temperature float32
	maxTokens   int
}

func newChatBackend(cfg Config) *chatBackend {
	base := cfg.Endpoint
	if cfg.ChatEndpoint != "" {
		base = cfg.ChatEndpoint
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(base, "/") + "/v1"

	return &chatBackend{
		client:      openai.NewClientWithConfig(clientCfg),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete sends a chat-completions request. The system role is synthesized
// here from the preset content; it is never part of the stored history.
func (b *chatBackend) Complete(ctx context.Context, req *Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    store.RoleSystem,
		Content: req.System,
	})
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("response contained no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
