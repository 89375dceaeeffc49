// Package provider defines the completion-provider collaborator contract.
// The runtime depends on providers only through CompletionClient: history
// plus task in, text and/or tool calls out. Which vendor, model or prompt
// template sits behind the interface is out of scope for the core.
package provider

import (
	"context"
	"encoding/json"

	"github.com/switchkit/switchboard/core"
)

// ToolCall is a provider-surfaced function call request, unified across
// vendors so downstream logic needs no per-provider branching.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON object of arguments
}

// ParseArguments decodes the call arguments into a generic map. An empty
// argument payload yields an empty map.
func (c ToolCall) ParseArguments() (map[string]any, error) {
	if len(c.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(c.Arguments, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// ToolDefinition declaratively exposes a callable tool to the provider.
// Parameters is a JSON-schema object (minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the normalized completion input: role instructions, the
// session transcript (including the pending task and any tool records
// produced while handling it), and the tool surface the agent exposes.
type Request struct {
	Instructions string
	Messages     []core.Message
	Tools        []ToolDefinition
}

// Result is the provider's decision for one completion round: free text,
// tool calls, or both.
type Result struct {
	Text      string
	ToolCalls []ToolCall
}

// Info describes a provider implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// CompletionClient is the minimal interface agents use to drive generation.
// Implementations must honor ctx cancellation and return *core.ProviderError
// for transport and API failures so the runtime can surface them
// conversationally.
type CompletionClient interface {
	Complete(ctx context.Context, req Request) (Result, error)

	// Info returns metadata about the provider implementation.
	Info() Info
}
