package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/parleyhq/parley/errors"
	"github.com/parleyhq/parley/session"
	"github.com/parleyhq/parley/tools"
)

// OpenAIClient is a client for the OpenAI Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAIClient. It requires the OPENAI_API_KEY
// environment variable to be set, and honors OPENAI_BASE_URL for
// compatible endpoints.
func NewOpenAIClient(ctx context.Context, modelName string) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	c := openai.NewClient(opts...)
	return &OpenAIClient{client: &c, model: modelName}, nil
}

// Chat sends a chat request to OpenAI and converts the response into the
// internal session.Message format.
func (o *OpenAIClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: convertMessagesToOpenAI(messages),
		Tools:    convertToolsToOpenAI(availableTools),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to OpenAI")
	}

	return processOpenAIResponse(resp)
}

// processOpenAIResponse converts an OpenAI completion into a session.Message.
func processOpenAIResponse(resp *openai.ChatCompletion) (*session.Message, error) {
	if len(resp.Choices) == 0 {
		return &session.Message{Role: "assistant", Content: ""}, nil
	}

	choice := resp.Choices[0].Message

	if len(choice.ToolCalls) > 0 {
		var toolCalls []session.ToolCall
		for _, tc := range choice.ToolCalls {
			var args map[string]interface{}
			// Arguments arrive as a JSON string holding a flat argument map.
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal tool call arguments from OpenAI")
			}
			toolCalls = append(toolCalls, session.ToolCall{
				ToolCallID: tc.ID,
				Name:       tc.Function.Name,
				Args:       args,
			})
		}
		return &session.Message{
			Role:      "assistant",
			Content:   choice.Content,
			ToolCalls: toolCalls,
		}, nil
	}

	return &session.Message{Role: "assistant", Content: choice.Content}, nil
}

// convertMessagesToOpenAI converts internal messages to OpenAI chat messages.
func convertMessagesToOpenAI(messages []session.Message) []openai.ChatCompletionMessageParamUnion {
	var chatMessages []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			chatMessages = append(chatMessages, openai.SystemMessage(msg.Content))
		case "assistant":
			assistantMessage := openai.ChatCompletionMessage{
				Role:    "assistant",
				Content: msg.Content,
			}
			if len(msg.ToolCalls) > 0 {
				var toolCalls []openai.ChatCompletionMessageToolCallUnion
				for _, tc := range msg.ToolCalls {
					argsBytes, err := json.Marshal(tc.Args)
					if err != nil {
						slog.Warn("could not marshal tool call arguments, dropping call from history", "tool", tc.Name, "error", err)
						continue
					}
					toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnion{
						ID:   tc.ToolCallID,
						Type: "function",
						Function: openai.ChatCompletionMessageFunctionToolCallFunction{
							Name:      tc.Name,
							Arguments: string(argsBytes),
						},
					})
				}
				assistantMessage.ToolCalls = toolCalls
			}
			chatMessages = append(chatMessages, assistantMessage.ToParam())
		case "tool":
			// A tool result needs exactly one ToolCall to carry the call id.
			if len(msg.ToolCalls) != 1 {
				slog.Warn("malformed tool message, skipping", "tool_calls", len(msg.ToolCalls))
				continue
			}
			chatMessages = append(chatMessages, openai.ToolMessage(msg.Content, msg.ToolCalls[0].ToolCallID))
		case "user":
			fallthrough
		default:
			chatMessages = append(chatMessages, openai.UserMessage(msg.Content))
		}
	}
	return chatMessages
}

// convertToolsToOpenAI converts the Tool interface to the OpenAI tool format.
func convertToolsToOpenAI(ts []tools.Tool) []openai.ChatCompletionToolUnionParam {
	if len(ts) == 0 {
		return nil
	}
	var openAITools []openai.ChatCompletionToolUnionParam
	for _, t := range ts {
		openAITools = append(openAITools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String(t.Description()),
			Parameters:  openai.FunctionParameters(t.Parameters()),
		}))
	}
	return openAITools
}
