package llm

import (
	"context"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/parleyhq/parley/errors"
	"github.com/parleyhq/parley/session"
	"github.com/parleyhq/parley/tools"
	"google.golang.org/api/option"
)

// GeminiClient is a client for the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new GeminiClient. It requires the GEMINI_API_KEY
// environment variable to be set.
func NewGeminiClient(ctx context.Context, modelName string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	return &GeminiClient{client: client, model: modelName}, nil
}

// Chat sends a chat request to the Gemini API.
func (g *GeminiClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	model := g.client.GenerativeModel(g.model)
	model.Tools = convertToolsToGemini(availableTools)

	history, systemPrompt := convertMessagesToGemini(messages)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}
	if len(history) == 0 {
		return nil, errors.New("no messages to send to Gemini")
	}

	last := history[len(history)-1]
	chat := model.StartChat()
	chat.History = history[:len(history)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Gemini")
	}

	return processGeminiResponse(resp)
}

// convertMessagesToGemini converts internal messages to Gemini contents. The
// system prompt is carried separately as a system instruction.
func convertMessagesToGemini(messages []session.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemPrompt = msg.Content
		case "assistant":
			parts := make([]genai.Part, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: tc.Args})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case "tool":
			if len(msg.ToolCalls) != 1 {
				continue
			}
			contents = append(contents, &genai.Content{
				Role: "function",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     msg.ToolCalls[0].Name,
					Response: map[string]interface{}{"result": msg.Content},
				}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	return contents, systemPrompt
}

// convertToolsToGemini converts the Tool interface to Gemini function
// declarations.
func convertToolsToGemini(ts []tools.Tool) []*genai.Tool {
	if len(ts) == 0 {
		return nil
	}
	var funcDecls []*genai.FunctionDeclaration
	for _, t := range ts {
		funcDecls = append(funcDecls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  schemaToGemini(t.Parameters()),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: funcDecls}}
}

// schemaToGemini maps a JSON-schema object onto genai.Schema. Only the
// subset the tool schemas produce is handled.
func schemaToGemini(schema map[string]interface{}) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeObject}

	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	switch schema["type"] {
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
		if items, ok := schema["items"].(map[string]interface{}); ok {
			out.Items = schemaToGemini(items)
		}
	}

	if props, ok := schema["properties"].(map[string]interface{}); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]interface{}); ok {
				out.Properties[name] = schemaToGemini(pm)
			}
		}
	}
	switch required := schema["required"].(type) {
	case []string:
		out.Required = required
	case []interface{}:
		for _, r := range required {
			if name, ok := r.(string); ok {
				out.Required = append(out.Required, name)
			}
		}
	}
	return out
}

// processGeminiResponse converts a Gemini API response into the internal
// session.Message format. Tool execution is left to the agent loop.
func processGeminiResponse(resp *genai.GenerateContentResponse) (*session.Message, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("received an empty response from Gemini")
	}

	var responseContent string
	var toolCalls []session.ToolCall

	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			responseContent += string(v)
		case genai.FunctionCall:
			// Gemini has no call ids; synthesize one from the name so the
			// result can be matched back in history.
			toolCalls = append(toolCalls, session.ToolCall{
				ToolCallID: "call_" + v.Name,
				Name:       v.Name,
				Args:       v.Args,
			})
		default:
			return nil, errors.New("unsupported part type in Gemini response: %T", v)
		}
	}

	return &session.Message{
		Role:      "assistant",
		Content:   responseContent,
		ToolCalls: toolCalls,
	}, nil
}
