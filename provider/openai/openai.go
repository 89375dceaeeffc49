// Package openai implements the completion-provider contract on top of the
// OpenAI Chat Completions API (including function/tool calling). It adapts
// switchboard's normalized Request/Result structures into the SDK's message
// format and back.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"

	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/provider"
)

// Options configure the OpenAI adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind provider.CompletionClient.
type Client struct {
	client *openai.Client
	opts   Options
}

// NewClient creates an adapter using the official SDK client configured
// from the environment.
func NewClient(optFns ...func(o *Options)) *Client {
	c := openai.NewClient()
	return NewClientFrom(&c, optFns...)
}

// NewClientFrom creates an adapter from an existing SDK client.
func NewClientFrom(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Complete implements provider.CompletionClient.
func (c *Client) Complete(ctx context.Context, req provider.Request) (provider.Result, error) {
	params := c.buildParams(req)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return provider.Result{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return provider.Result{}, &core.ProviderError{
			Reason: core.ProviderOther,
			Err:    fmt.Errorf("openai: no choices returned"),
		}
	}

	msg := resp.Choices[0].Message
	res := provider.Result{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		res.ToolCalls = append(res.ToolCalls, provider.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return res, nil
}

// Info implements provider.CompletionClient.
func (c *Client) Info() provider.Info {
	return provider.Info{Name: c.opts.Model, Provider: "openai"}
}

func (c *Client) buildParams(req provider.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, td := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        td.Name,
				Description: openai.String(td.Description),
				Parameters:  td.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// buildMessages converts the session transcript into OpenAI chat messages.
// Tool call/result pairs arrive in order in the history, so the mapping is
// linear: each ToolCall becomes an assistant tool-call message and each
// ToolResult a tool message referencing its call id.
func buildMessages(req provider.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, m := range req.Messages {
		switch m.Kind {
		case core.KindUserTask:
			messages = append(messages, openai.UserMessage(m.Payload))
		case core.KindAgentResponse:
			messages = append(messages, openai.AssistantMessage(m.Payload))
		case core.KindToolCall:
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role: "assistant",
					ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
						ID:   m.ToolCallID,
						Type: "function",
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      m.ToolName,
							Arguments: m.Payload,
						},
					}},
				},
			})
		case core.KindToolResult:
			messages = append(messages, openai.ToolMessage(m.Payload, m.ToolCallID))
		}
	}
	return messages
}

// classify converts SDK errors into core.ProviderError with a reason the
// runtime can explain to the user.
func classify(err error) *core.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.ProviderError{Reason: core.ProviderTimeout, Err: err}
	}

	var apiErr *openai.Error
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
	return &core.ProviderError{Reason: core.ProviderOther, Err: err}
}
