// Package agent combines a system prompt, a set of tools and an LLM client
// into a single process-wide agent. The agent is immutable after
// construction and safe for concurrent invocations; all per-call state lives
// in the session passed to Invoke.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parleyhq/parley/errors"
	"github.com/parleyhq/parley/llm"
	"github.com/parleyhq/parley/session"
	"github.com/parleyhq/parley/tools"
)

type Agent struct {
	client        llm.Client
	tools         []tools.Tool
	toolIndex     map[string]tools.Tool
	systemPrompt  string
	maxIterations int
}

// New constructs an agent. Construction is side-effect free; the system
// prompt must already be loaded (see LoadSystemPrompt).
func New(client llm.Client, activeTools []tools.Tool, systemPrompt string, maxIterations int) *Agent {
	index := make(map[string]tools.Tool, len(activeTools))
	for _, t := range activeTools {
		index[t.Name()] = t
	}
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &Agent{
		client:        client,
		tools:         activeTools,
		toolIndex:     index,
		systemPrompt:  systemPrompt,
		maxIterations: maxIterations,
	}
}

// Tools returns the names of the agent's bound tools, for startup logging.
func (a *Agent) Tools() []string {
	names := make([]string, 0, len(a.tools))
	for _, t := range a.tools {
		names = append(names, t.Name())
	}
	return names
}

// Invoke appends the query to the session and runs the LLM -> tool -> LLM
// loop until the model produces a plain text answer or the iteration cap is
// hit. The session accumulates every turn, including tool calls and results,
// so follow-up invocations carry full context.
func (a *Agent) Invoke(ctx context.Context, sess *session.Session, query string) (string, error) {
	sess.AddMessage(session.Message{Role: "user", Content: query})

	for i := 0; i < a.maxIterations; i++ {
		resp, err := a.client.Chat(ctx, a.withSystemPrompt(sess.Messages), a.tools)
		if err != nil {
			return "", errors.Wrapf(err, "LLM chat failed")
		}
		sess.AddMessage(*resp)

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		for _, tc := range resp.ToolCalls {
			result := a.executeTool(ctx, tc)
			sess.AddMessage(session.Message{
				Role:      "tool",
				Content:   result,
				ToolCalls: []session.ToolCall{{ToolCallID: tc.ToolCallID, Name: tc.Name}},
			})
		}
	}

	return "", errors.New("no final answer after %d tool iterations", a.maxIterations)
}

// withSystemPrompt prepends the system prompt to the outgoing messages. The
// prompt is never persisted in the session, so prompt changes apply to
// resumed sessions too.
func (a *Agent) withSystemPrompt(messages []session.Message) []session.Message {
	if a.systemPrompt == "" {
		return messages
	}
	out := make([]session.Message, 0, len(messages)+1)
	out = append(out, session.Message{Role: "system", Content: a.systemPrompt})
	return append(out, messages...)
}

// executeTool runs one requested tool call. Failures are reported back to
// the model as the tool's textual result rather than aborting the turn.
func (a *Agent) executeTool(ctx context.Context, tc session.ToolCall) string {
	t, ok := a.toolIndex[tc.Name]
	if !ok {
		slog.Warn("model requested unknown tool", "tool", tc.Name)
		return fmt.Sprintf("Error: tool %q is not available.", tc.Name)
	}

	slog.Debug("executing tool", "tool", tc.Name)
	result, err := t.Execute(ctx, tc.Args)
	if err != nil {
		slog.Warn("tool execution failed", "tool", tc.Name, "error", err)
		return fmt.Sprintf("Error executing tool %q: %v", tc.Name, err)
	}
	return result
}
