// Package llm abstracts the LLM providers behind a single Chat interface.
// Each provider file converts between the internal session.Message format and
// the provider's wire types; nothing outside this package knows which
// provider is in use.
package llm

import (
	"context"
	"fmt"

	"github.com/parleyhq/parley/errors"
	"github.com/parleyhq/parley/session"
	"github.com/parleyhq/parley/tools"
)

// Client is the interface for interacting with a Large Language Model.
// Implementations must be safe for concurrent use; the server shares one
// client across all requests.
type Client interface {
	Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error)
}

// New constructs the client selected by provider. Construction fails fast
// when the provider's credential is not present in the environment.
func New(ctx context.Context, provider, model string) (Client, error) {
	switch provider {
	case "openai":
		return NewOpenAIClient(ctx, model)
	case "anthropic":
		return NewAnthropicClient(ctx, model)
	case "gemini":
		return NewGeminiClient(ctx, model)
	case "bedrock":
		return NewBedrockClient(ctx, model)
	case "mock", "":
		return &MockClient{}, nil
	default:
		return nil, errors.New("unknown llm provider %q", provider)
	}
}

// MockClient is a provider stand-in for local development and tests. It
// parrots the last user message and never calls tools.
type MockClient struct{}

func (m *MockClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			last = messages[i].Content
			break
		}
	}
	return &session.Message{
		Role:    "assistant",
		Content: fmt.Sprintf("mock response to: %s", last),
	}, nil
}
