// ABOUTME: Provider dispatch for the three model backend families
// ABOUTME: Resolves model IDs to a Kind and routes requests through Backend implementations

package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/parlor-bot/parlor/internal/store"
)

// Kind identifies a backend request/response family. It is resolved once
// when a model is assigned to a room and persisted alongside the model ID.
type Kind string

const (
	// KindOpenAI is the OpenAI-style chat-completions family.
	KindOpenAI Kind = "openai"
	// KindSearch is the serper web-search family.
	KindSearch Kind = "search"
	// KindAnthropic is the Anthropic-style messages family.
	KindAnthropic Kind = "anthropic"
)

// SearchModelID is the reserved model identifier that routes to web search.
const SearchModelID = "serper"

// ErrFailure covers any backend failure: transport errors, non-success
// statuses, and response-shape mismatches. Callers roll back the pending
// turn and show FailureMessage; the underlying cause only reaches the log.
var ErrFailure = errors.New("provider request failed")

// FailureMessage is the fixed user-facing text for a failed backend call.
const FailureMessage = "The model backend did not return a reply. Please try again later."

// Config holds everything the dispatcher needs to reach the backends.
type Config struct {
	Endpoint     string // base URL, e.g. https://apic.ohmygpt.com/
	ChatEndpoint string // override endpoint that forces the OpenAI-style route
	APIKey       string
	DefaultModel string
	Temperature  float32
	MaxTokens    int
}

// KindForModel resolves a model identifier to its backend family.
// Evaluated in order: OpenAI-style chat models (or a configured chat
// override endpoint), then the reserved search token, then Anthropic.
func KindForModel(modelID string, cfg Config) Kind {
	switch {
	case strings.Contains(modelID, "gpt") || cfg.ChatEndpoint != "":
		return KindOpenAI
	case modelID == SearchModelID:
		return KindSearch
	default:
		return KindAnthropic
	}
}

// Request is one backend invocation: the room's model, its preset content
// as system prompt, and the full message history.
type Request struct {
	Model    string
	System   string
	Messages []store.Message
}

// Backend performs one family's request/response transform.
type Backend interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// Dispatcher routes requests to the Backend for a room's provider kind.
type Dispatcher struct {
	cfg      Config
	backends map[Kind]Backend
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher with one backend per family.
func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := &http.Client{Timeout: 5 * time.Minute}

	return &Dispatcher{
		cfg: cfg,
		backends: map[Kind]Backend{
			KindOpenAI:    newChatBackend(cfg),
			KindSearch:    newSearchBackend(cfg, httpClient),
			KindAnthropic: newMessagesBackend(cfg, httpClient),
		},
		logger: logger.With("component", "provider"),
	}
}

// DefaultModel returns the configured fallback model identifier.
func (d *Dispatcher) DefaultModel() string {
	return d.cfg.DefaultModel
}

// KindFor resolves a model identifier against the dispatcher's config.
func (d *Dispatcher) KindFor(modelID string) Kind {
	return KindForModel(modelID, d.cfg)
}

// Dispatch invokes the backend for the given kind. Every failure mode is
// collapsed into ErrFailure; the cause is logged, never propagated raw.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, req *Request) (string, error) {
	backend, ok := d.backends[kind]
	if !ok {
		backend = d.backends[KindAnthropic]
	}

	reply, err := backend.Complete(ctx, req)
	if err != nil {
		d.logger.Error("backend request failed",
			"kind", string(kind),
			"model", req.Model,
			"error", err)
		return "", fmt.Errorf("%w: %s", ErrFailure, err)
	}

	return reply, nil
}
