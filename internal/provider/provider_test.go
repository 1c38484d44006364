package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlor-bot/parlor/internal/store"
)

func testConfig(endpoint string) Config {
	return Config{
		Endpoint:     endpoint,
		APIKey:       "test-key",
		DefaultModel: "claude-2.1",
		Temperature:  1.0,
		MaxTokens:    1024,
	}
}

func TestKindForModel(t *testing.T) {
	cfg := testConfig("https://api.example.com/")

	assert.Equal(t, KindOpenAI, KindForModel("gpt-4", cfg))
	assert.Equal(t, KindOpenAI, KindForModel("gpt-3.5-turbo", cfg))
	assert.Equal(t, KindSearch, KindForModel("serper", cfg))
	assert.Equal(t, KindAnthropic, KindForModel("claude-2.1", cfg))
	assert.Equal(t, KindAnthropic, KindForModel("claude-3-opus", cfg))
}

func TestKindForModel_ChatOverrideEndpoint(t *testing.T) {
	cfg := testConfig("https://api.example.com/")
	cfg.ChatEndpoint = "https://chat.example.com/"

	// The override endpoint forces the chat route for every identifier
	assert.Equal(t, KindOpenAI, KindForModel("claude-2.1", cfg))
	assert.Equal(t, KindOpenAI, KindForModel("serper", cfg))
}

func TestDispatch_OpenAI(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"chat reply"}}]}`))
	}))
	defer server.Close()

	d := NewDispatcher(testConfig(server.URL+"/"), nil)

	reply, err := d.Dispatch(context.Background(), KindOpenAI, &Request{
		Model:  "gpt-4",
		System: "Be terse.",
		Messages: []store.Message{
			{Role: store.RoleUser, Content: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "chat reply", reply)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4", gotBody.Model)
	assert.Equal(t, 1024, gotBody.MaxTokens)

	// Synthetic system message comes first, then the history
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, store.RoleSystem, gotBody.Messages[0].Role)
	assert.Equal(t, "Be terse.", gotBody.Messages[0].Content)
	assert.Equal(t, store.RoleUser, gotBody.Messages[1].Role)
}

func TestDispatch_Anthropic(t *testing.T) {
	var gotPath, gotAPIKey, gotVersion string
	var gotBody struct {
		Model     string          `json:"model"`
		System    string          `json:"system"`
		MaxTokens int             `json:"max_tokens"`
		Messages  []store.Message `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"claude reply"}]}`))
	}))
	defer server.Close()

	d := NewDispatcher(testConfig(server.URL+"/"), nil)

	reply, err := d.Dispatch(context.Background(), KindAnthropic, &Request{
		Model:  "claude-2.1",
		System: "Be thorough.",
		Messages: []store.Message{
			{Role: store.RoleUser, Content: "hello"},
			{Role: store.RoleAssistant, Content: "hi"},
			{Role: store.RoleUser, Content: "how are you"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "claude reply", reply)

	assert.Equal(t, "/v1/messages", gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "claude-2.1", gotBody.Model)
	assert.Equal(t, "Be thorough.", gotBody.System)
	assert.Equal(t, 1024, gotBody.MaxTokens)
	// History goes through untouched; system stays out of messages
	assert.Len(t, gotBody.Messages, 3)
}

func TestDispatch_Search(t *testing.T) {
	var gotPath, gotAuth, gotContentType, gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("query")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"First","link":"https://a.example","snippet":"about a","date":"Jan 1, 2024"},
			{"title":"Second","link":"https://b.example","imageUrl":"https://b.example/img.png"}
		]}`))
	}))
	defer server.Close()

	d := NewDispatcher(testConfig(server.URL+"/"), nil)

	reply, err := d.Dispatch(context.Background(), KindSearch, &Request{
		Model: SearchModelID,
		Messages: []store.Message{
			{Role: store.RoleUser, Content: "old question"},
			{Role: store.RoleAssistant, Content: "old answer"},
			{Role: store.RoleUser, Content: "latest question"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/openapi/search/serper/v1", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "latest question", gotQuery)

	expected := "1. First\nhttps://a.example\nabout a\nJan 1, 2024" +
		"\n\n" +
		"2. Second\nhttps://b.example\nhttps://b.example/img.png"
	assert.Equal(t, expected, reply)
}

func TestDispatch_FailuresCollapseToSentinel(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"type":"api_error","message":"boom"}}`, http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"content":[]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			d := NewDispatcher(testConfig(server.URL+"/"), nil)
			_, err := d.Dispatch(context.Background(), KindAnthropic, &Request{
				Model:    "claude-2.1",
				Messages: []store.Message{{Role: store.RoleUser, Content: "hi"}},
			})
			assert.ErrorIs(t, err, ErrFailure)
		})
	}
}

func TestDispatch_TransportError(t *testing.T) {
	// Point at a server that is already closed
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	d := NewDispatcher(testConfig(server.URL+"/"), nil)
	_, err := d.Dispatch(context.Background(), KindAnthropic, &Request{
		Model:    "claude-2.1",
		Messages: []store.Message{{Role: store.RoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, ErrFailure)
}

func TestDispatch_SearchNoUserMessage(t *testing.T) {
	d := NewDispatcher(testConfig("https://api.example.com/"), nil)
	_, err := d.Dispatch(context.Background(), KindSearch, &Request{
		Model:    SearchModelID,
		Messages: []store.Message{{Role: store.RoleAssistant, Content: "only a reply"}},
	})
	assert.ErrorIs(t, err, ErrFailure)
}
