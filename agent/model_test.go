package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/internal/testutil"
	"github.com/switchkit/switchboard/provider"
	"github.com/switchkit/switchboard/tool"
)

func TestModelHandlerPlainResponse(t *testing.T) {
	client := provider.NewMockClient()
	client.AddResponse("hi", "Hello! How can I help?")

	h := NewModelHandler(core.TopicTriage, client, "You are triage.")

	history := testutil.NewSessionBuilder("s1").
		AgentResponse(core.TopicTriage, "Hello!").
		UserTask("hi").
		Build().History()
	task := history[len(history)-1]

	res, err := h.HandleTask(context.Background(), history, task)
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", res.Response)
	assert.Empty(t, res.DelegateTo)
	assert.Empty(t, res.Trace)
	assert.Equal(t, 1, client.Calls())
}

func TestModelHandlerToolRound(t *testing.T) {
	client := provider.NewMockClient()
	client.AddToolCall("check status", "", "project_status", `{}`)

	invoked := false
	tools := tool.MustSet(&tool.Spec{
		Name:        "project_status",
		Description: "Report project status.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			invoked = true
			return "all green", nil
		},
	})

	h := NewModelHandler(core.TopicQuality, client, "You are quality.", func(o *ModelHandlerOptions) {
		o.Tools = tools
	})

	task := core.NewUserTask("check status")
	res, err := h.HandleTask(context.Background(), []core.Message{task}, task)
	require.NoError(t, err)

	assert.True(t, invoked)
	assert.NotEmpty(t, res.Response, "follow-up completion should close the round")
	require.Len(t, res.Trace, 2)
	assert.Equal(t, core.KindToolCall, res.Trace[0].Kind)
	assert.Equal(t, core.KindToolResult, res.Trace[1].Kind)
	assert.Equal(t, "all green", res.Trace[1].Payload)
	assert.Equal(t, res.Trace[0].ToolCallID, res.Trace[1].ToolCallID)
	assert.Equal(t, core.TopicQuality, res.Trace[0].Source)
	assert.Equal(t, 2, client.Calls())
}

func TestModelHandlerDelegateShortCircuits(t *testing.T) {
	client := provider.NewMockClient()
	client.AddToolCall("plan my project", "", "transfer_to_planning", `{}`)

	tools := tool.MustSet(tool.TransferSpec(core.TopicPlanning, "Transfer to planning."))
	h := NewModelHandler(core.TopicTriage, client, "You are triage.", func(o *ModelHandlerOptions) {
		o.Tools = tools
	})

	task := core.NewUserTask("plan my project")
	res, err := h.HandleTask(context.Background(), []core.Message{task}, task)
	require.NoError(t, err)

	assert.Equal(t, core.TopicPlanning, res.DelegateTo)
	assert.Empty(t, res.Trace, "delegation is recorded by the runtime, not the handler")
	assert.Equal(t, 1, client.Calls(), "no follow-up completion after a handoff")
}

func TestModelHandlerUnknownToolIsNonFatal(t *testing.T) {
	client := provider.NewMockClient()
	client.AddToolCall("do something", "", "no_such_tool", `{}`)

	h := NewModelHandler(core.TopicTriage, client, "You are triage.")

	task := core.NewUserTask("do something")
	res, err := h.HandleTask(context.Background(), []core.Message{task}, task)
	require.NoError(t, err)

	require.Len(t, res.Trace, 2)
	assert.Equal(t, core.KindToolResult, res.Trace[1].Kind)
	assert.Contains(t, res.Trace[1].Payload, "unknown tool")
	assert.NotEmpty(t, res.Response)
}

func TestModelHandlerFailingToolStaysInLoop(t *testing.T) {
	client := provider.NewMockClient()
	client.AddToolCall("check status", "", "project_status", `{}`)

	tools := tool.MustSet(&tool.Spec{
		Name:        "project_status",
		Description: "Report project status.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", assert.AnError
		},
	})

	h := NewModelHandler(core.TopicQuality, client, "You are quality.", func(o *ModelHandlerOptions) {
		o.Tools = tools
	})

	task := core.NewUserTask("check status")
	res, err := h.HandleTask(context.Background(), []core.Message{task}, task)
	require.NoError(t, err, "tool failures surface in the trace, not as task errors")

	require.Len(t, res.Trace, 2)
	assert.Contains(t, res.Trace[1].Payload, "Error:")
}

func TestModelHandlerProviderErrorPropagates(t *testing.T) {
	client := provider.NewMockClient()
	client.Fail(&core.ProviderError{Reason: core.ProviderAuth})

	h := NewModelHandler(core.TopicTriage, client, "You are triage.")

	task := core.NewUserTask("hi")
	_, err := h.HandleTask(context.Background(), []core.Message{task}, task)

	var perr *core.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.ProviderAuth, perr.Reason)
}
