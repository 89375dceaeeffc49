package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/switchkit/switchboard/core"
)

// MockClient is a lightweight in-memory CompletionClient for tests, demos
// and the "mock" provider mode. Responses are scripted against the text of
// the most recent user task; unscripted inputs echo back a canned reply.
type MockClient struct {
	mu        sync.Mutex
	info      Info
	responses map[string]Result
	err       error
	calls     int
}

// NewMockClient constructs an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]Result),
	}
}

// AddResponse scripts a plain text reply for the given user input.
func (m *MockClient) AddResponse(input, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[input] = Result{Text: text}
}

// AddToolCall scripts a tool call (optionally with accompanying text) for
// the given user input.
func (m *MockClient) AddToolCall(input, text, toolName string, args string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[input] = Result{
		Text: text,
		ToolCalls: []ToolCall{{
			ID:        core.NewID(),
			Name:      toolName,
			Arguments: []byte(args),
		}},
	}
}

// Fail makes every subsequent Complete return err.
func (m *MockClient) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many completions have been requested.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete implements CompletionClient.
func (m *MockClient) Complete(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &core.ProviderError{Reason: core.ProviderTimeout, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return Result{}, m.err
	}

	// Script lookup keys off the latest user task; tool results mean the
	// scripted tool round already ran, so close the loop with text.
	var lastTask string
	sawToolResult := false
	for _, msg := range req.Messages {
		switch msg.Kind {
		case core.KindUserTask:
			lastTask = msg.Payload
			sawToolResult = false
		case core.KindToolResult:
			sawToolResult = true
		}
	}

	res, ok := m.responses[lastTask]
	if !ok {
		return Result{Text: fmt.Sprintf("Mock response to: %s", lastTask)}, nil
	}
	if sawToolResult && len(res.ToolCalls) > 0 {
		return Result{Text: fmt.Sprintf("Handled %s with tool support.", lastTask)}, nil
	}
	return res, nil
}

// Info implements CompletionClient.
func (m *MockClient) Info() Info { return m.info }
