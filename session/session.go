// Package session defines the conversation types shared by the llm clients
// and the agent, and the stores that persist conversation history between
// /invoke calls when a caller supplies a session id.
package session

import "time"

// ToolCall is a single tool invocation requested by the model, or the
// identity of the call a tool result answers.
type ToolCall struct {
	ToolCallID string                 `json:"tool_call_id" bson:"tool_call_id"`
	Name       string                 `json:"name" bson:"name"`
	Args       map[string]interface{} `json:"args,omitempty" bson:"args,omitempty"`
}

// Message is one turn in a conversation. Role is "user", "assistant", "tool"
// or "system".
type Message struct {
	Role      string     `json:"role" bson:"role"`
	Content   string     `json:"content" bson:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty" bson:"tool_calls,omitempty"`
}

// Session is an append-only conversation history identified by ID.
type Session struct {
	ID        string    `json:"id" bson:"_id"`
	Messages  []Message `json:"messages" bson:"messages"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// AddMessage appends a message to the history.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
}
