// Package anthropic implements the completion-provider contract on top of the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/provider"
)

// Options configure the Anthropic adapter (model id, temperature, max tokens,
// API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Client wraps the Anthropic Messages API behind provider.CompletionClient.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// NewClient creates an adapter using the official SDK client.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Client{client: &client, opts: opts}
}

// NewClientFrom creates an adapter from an existing SDK client.
func NewClientFrom(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// WithModel selects the model by plain string id, for callers that do not
// want to import the SDK for its Model type.
func WithModel(model string) func(o *Options) {
	return func(o *Options) { o.Model = anthropic.Model(model) }
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Complete implements provider.CompletionClient.
func (c *Client) Complete(ctx context.Context, req provider.Request) (provider.Result, error) {
	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return provider.Result{}, classify(err)
	}

	var res provider.Result
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			res.Text += block.AsText().Text
		case "tool_use":
			tu := block.AsToolUse()
			args := []byte("{}")
			if tu.Input != nil {
				if b, err := json.Marshal(tu.Input); err == nil {
					args = b
				}
			}
			res.ToolCalls = append(res.ToolCalls, provider.ToolCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: args,
			})
		}
	}
	return res, nil
}

// Info implements provider.CompletionClient.
func (c *Client) Info() provider.Info {
	return provider.Info{Name: string(c.opts.Model), Provider: "anthropic"}
}

// buildMessages converts the session transcript into Anthropic messages.
// Tool calls become assistant tool_use blocks; their results become
// tool_result blocks carried by the following user message, as the
// Messages API requires.
func buildMessages(history []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, m := range history {
		switch m.Kind {
		case core.KindUserTask:
			if m.Payload != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Payload)))
			}
		case core.KindAgentResponse:
			if m.Payload != "" {
				messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Payload)))
			}
		case core.KindToolCall:
			var input any
			if m.Payload != "" {
				if err := json.Unmarshal([]byte(m.Payload), &input); err != nil {
					input = m.Payload
				}
			}
			messages = append(messages, anthropic.NewAssistantMessage(
				anthropic.NewToolUseBlock(m.ToolCallID, input, m.ToolName),
			))
		case core.KindToolResult:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Payload, false),
			))
		}
	}
	return messages
}

// buildTools converts tool definitions to the Anthropic tool format.
func buildTools(tools []provider.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, td := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if td.Parameters != nil {
			if properties, ok := td.Parameters["properties"]; ok {
				schema.Properties = properties
			}
			if required, ok := td.Parameters["required"]; ok {
				switch req := required.(type) {
				case []string:
					schema.Required = req
				case []any:
					for _, r := range req {
						if s, ok := r.(string); ok {
							schema.Required = append(schema.Required, s)
						}
					}
				}
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(schema, td.Name)
		if td.Description != "" {
			out[i].OfTool.Description = anthropic.String(td.Description)
		}
	}
	return out
}

// classify converts SDK errors into core.ProviderError with a reason the
// runtime can explain to the user.
func classify(err error) *core.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.ProviderError{Reason: core.ProviderTimeout, Err: err}
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &core.ProviderError{Reason: core.ProviderAuth, Err: err}
		case http.StatusTooManyRequests:
			return &core.ProviderError{Reason: core.ProviderRateLimit, Err: err}
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return &core.ProviderError{Reason: core.ProviderTimeout, Err: err}
		}
	}
	return &core.ProviderError{Reason: core.ProviderOther, Err: fmt.Errorf("anthropic api error: %w", err)}
}
