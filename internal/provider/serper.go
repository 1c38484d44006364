// ABOUTME: Serper web-search backend treating the latest user text as the query
// ABOUTME: Posts form-encoded data with bearer auth and formats organic results

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/parlor-bot/parlor/internal/store"
)

const searchPath = "api/v1/openapi/search/serper/v1"

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
	ImageURL string `json:"imageUrl"`
}

// searchBackend implements Backend for the reserved search model.
type searchBackend struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

func newSearchBackend(cfg Config, httpClient *http.Client) *searchBackend {
	return &searchBackend{
		httpClient: httpClient,
		url:        strings.TrimSuffix(cfg.Endpoint, "/") + "/" + searchPath,
		apiKey:     cfg.APIKey,
	}
}

// Complete submits the latest user message as a search query and formats
// the organic results as numbered blocks separated by blank lines.
func (b *searchBackend) Complete(ctx context.Context, req *Request) (string, error) {
	query := latestUserText(req.Messages)
	if query == "" {
		return "", errors.New("no user message to search for")
	}

	form := url.Values{}
	form.Set("query", query)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

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
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(searchResp.Organic) == 0 {
		return "", errors.New("response contained no organic results")
	}

	return formatResults(searchResp.Organic), nil
}

// latestUserText returns the content of the most recent user message.
func latestUserText(messages []store.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == store.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// formatResults renders each organic result as a numbered entry with title
// and link, plus snippet, date, and image reference when present.
func formatResults(results []organicResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s\n%s", i+1, r.Title, r.Link)
		if r.Snippet != "" {
			b.WriteString("\n" + r.Snippet)
		}
		if r.Date != "" {
			b.WriteString("\n" + r.Date)
		}
		if r.ImageURL != "" {
			b.WriteString("\n" + r.ImageURL)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
