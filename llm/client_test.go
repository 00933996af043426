package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/session"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), "carrier-pigeon", "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestNewDefaultsToMock(t *testing.T) {
	client, err := New(context.Background(), "", "")
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, client)
}

func TestNewFailsFastWithoutCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(context.Background(), "openai", "gpt-4o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err = New(context.Background(), "anthropic", "claude-sonnet-4-0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	t.Setenv("GEMINI_API_KEY", "")
	_, err = New(context.Background(), "gemini", "gemini-2.0-flash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestMockClientEchoesLastUserMessage(t *testing.T) {
	client := &MockClient{}
	resp, err := client.Chat(context.Background(), []session.Message{
		{Role: "system", Content: "be nice"},
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "second"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "assistant", resp.Role)
	assert.Contains(t, resp.Content, "second")
}
