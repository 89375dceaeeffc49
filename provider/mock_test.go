package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchkit/switchboard/core"
)

func TestMockClientScriptedResponse(t *testing.T) {
	client := NewMockClient()
	client.AddResponse("hello", "Hi there!")

	res, err := client.Complete(context.Background(), Request{
		Messages: []core.Message{core.NewUserTask("hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", res.Text)
	assert.Empty(t, res.ToolCalls)
	assert.Equal(t, 1, client.Calls())
}

func TestMockClientToolCallRound(t *testing.T) {
	client := NewMockClient()
	client.AddToolCall("look up alice", "", "get_entity", `{"name":"alice"}`)

	task := core.NewUserTask("look up alice")
	res, err := client.Complete(context.Background(), Request{Messages: []core.Message{task}})
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "get_entity", res.ToolCalls[0].Name)

	args, err := res.ToolCalls[0].ParseArguments()
	require.NoError(t, err)
	assert.Equal(t, "alice", args["name"])

	// After a tool result arrives, the mock closes the round with text.
	history := []core.Message{
		task,
		core.NewToolCall("triage", "get_entity", `{"name":"alice"}`),
		core.NewToolResult("triage", "get_entity", res.ToolCalls[0].ID, `{"found":true}`),
	}
	res, err = client.Complete(context.Background(), Request{Messages: history})
	require.NoError(t, err)
	assert.Empty(t, res.ToolCalls)
	assert.NotEmpty(t, res.Text)
}

func TestMockClientFailure(t *testing.T) {
	client := NewMockClient()
	client.Fail(&core.ProviderError{Reason: core.ProviderRateLimit})

	_, err := client.Complete(context.Background(), Request{
		Messages: []core.Message{core.NewUserTask("anything")},
	})
	require.Error(t, err)

	var perr *core.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.ProviderRateLimit, perr.Reason)
}
