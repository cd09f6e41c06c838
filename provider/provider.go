package provider

import (
	"context"
	"errors"
	"time"

	openai_provider "github.com/counterpointai/counterpoint/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Message is a chat-style message passed to the completion capability.
type Message = openai_provider.Message

// Provider is the interface all text-generation implementations must satisfy.
// Complete returns the assistant text for the given system prompt and
// conversation, or an error when the capability is unreachable.
type Provider interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message, temperature float64) (string, error)
}

// Options carries the knobs a provider implementation needs.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewProvider creates an LLM client for the requested provider. An empty API
// key returns (nil, nil): the caller runs without a generation capability
// rather than failing, and the gateway degrades to diagnostic replies.
func NewProvider(client Client, opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, nil
	}
	switch client {
	case OpenAI:
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return openai_provider.NewClient(opts.APIKey, opts.BaseURL, opts.Model, timeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
