// ABOUTME: Anthropic-style messages backend with hand-rolled request/response types
// ABOUTME: Posts to v1/messages with x-api-key and anthropic-version headers

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/parlor-bot/parlor/internal/store"
)

const anthropicAPIVersion = "2023-06-01"

// messagesRequest is the Anthropic-style messages payload. The preset
// content travels in the top-level system field, not as a message.
type messagesRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []store.Message `json:"messages"`
	Temperature float32         `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type messagesError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// messagesBackend implements Backend for Anthropic-style models.
type messagesBackend struct {
	httpClient  *http.Client
	url         string
	apiKey      string
	temperature float32
	maxTokens   int
}

func newMessagesBackend(cfg Config, httpClient *http.Client) *messagesBackend {
	return &messagesBackend{
		httpClient:  httpClient,
		url:         strings.TrimSuffix(cfg.Endpoint, "/") + "/v1/messages",
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete sends a messages request and extracts content[0].text.
func (b *messagesBackend) Complete(ctx context.Context, req *Request) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       req.Model,
		System:      req.System,
		MaxTokens:   b.maxTokens,
		Messages:    req.Messages,
		Temperature: b.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp messagesError
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(msgResp.Content) == 0 {
		return "", errors.New("response contained no content blocks")
	}

	return msgResp.Content[0].Text, nil
}
