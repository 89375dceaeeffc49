package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchkit/switchboard/agent"
	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/session"
)

func newTestRuntime(t *testing.T, agents ...*agent.Agent) *Runtime {
	t.Helper()
	rt := New(session.NewInMemoryStore())
	for _, a := range agents {
		require.NoError(t, rt.Subscribe(a))
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rt.Shutdown(ctx)
	})
	return rt
}

func echoAgent(t *testing.T, topic core.Topic) *agent.Agent {
	t.Helper()
	return agent.MustNew(topic, agent.HandlerFunc(
		func(ctx context.Context, history []core.Message, task core.Message) (agent.Result, error) {
			return agent.Result{Response: string(topic) + ": " + task.Payload}, nil
		},
	))
}

func delegatingAgent(t *testing.T, topic, target core.Topic, response string) *agent.Agent {
	t.Helper()
	return agent.MustNew(topic, agent.HandlerFunc(
		func(ctx context.Context, history []core.Message, task core.Message) (agent.Result, error) {
			return agent.Result{Response: response, DelegateTo: target}, nil
		},
	))
}

func recv(t *testing.T, ch <-chan core.Message) core.Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.True(t, ok, "response channel closed unexpectedly")
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
		return core.Message{}
	}
}

func recvClosed(t *testing.T, ch <-chan core.Message) {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.False(t, ok, "expected closed channel, got %+v", m)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestCreateSessionEmitsExactlyOneGreeting(t *testing.T) {
	rt := newTestRuntime(t, echoAgent(t, core.TopicTriage))

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)

	out, err := rt.Responses(id)
	require.NoError(t, err)

	greeting := recv(t, out)
	assert.Equal(t, core.KindAgentResponse, greeting.Kind)
	assert.Equal(t, DefaultGreeting, greeting.Payload)

	select {
	case m := <-out:
		t.Fatalf("unexpected second frame before input: %+v", m)
	case <-time.After(50 * time.Millisecond):
	}

	history, err := rt.History(id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, core.KindUserLogin, history[0].Kind)
	assert.Equal(t, core.KindAgentResponse, history[1].Kind)
}

func TestSubmitDeliversToActiveTopic(t *testing.T) {
	rt := newTestRuntime(t, echoAgent(t, core.TopicTriage))

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out) // greeting

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "hello"))
	reply := recv(t, out)
	assert.Equal(t, "triage: hello", reply.Payload)
	assert.Equal(t, core.TopicTriage, reply.Source)
}

func TestSubmitUnknownSession(t *testing.T) {
	rt := newTestRuntime(t)

	err := rt.SubmitUserMessage(context.Background(), "nope", "hello")
	var notFound *core.SessionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.SessionID)
}

func TestHistoryOrderingIsStrict(t *testing.T) {
	rt := newTestRuntime(t, echoAgent(t, core.TopicTriage))

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	for i := 0; i < 5; i++ {
		require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "msg"))
		recv(t, out)
	}

	history, err := rt.History(id)
	require.NoError(t, err)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].Seq, history[i-1].Seq,
			"history must be ordered by sequence number")
	}
}

func TestHandoffCarriesFullHistory(t *testing.T) {
	var planningSaw []core.Message
	planning := agent.MustNew(core.TopicPlanning, agent.HandlerFunc(
		func(ctx context.Context, history []core.Message, task core.Message) (agent.Result, error) {
			planningSaw = append([]core.Message{}, history...)
			return agent.Result{Response: "What is the project deadline?"}, nil
		},
	))
	rt := newTestRuntime(t,
		delegatingAgent(t, core.TopicTriage, core.TopicPlanning, ""),
		planning,
	)

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "I want to create a new project plan"))
	reply := recv(t, out)
	assert.Equal(t, "What is the project deadline?", reply.Payload)
	assert.Equal(t, core.TopicPlanning, reply.Source)

	// The receiving agent sees everything the prior agent saw plus the
	// transfer record, in order.
	require.NotEmpty(t, planningSaw)
	kinds := make([]core.Kind, 0, len(planningSaw))
	for _, m := range planningSaw {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []core.Kind{
		core.KindUserLogin,
		core.KindAgentResponse, // greeting
		core.KindUserTask,
		core.KindToolCall,
		core.KindToolResult,
	}, kinds)

	transfer := planningSaw[len(planningSaw)-1]
	assert.Equal(t, "transfer_to_planning", transfer.ToolName)
	assert.Equal(t, "Transferred to planning. Adopt persona immediately.", transfer.Payload)
	assert.Equal(t, transfer.ToolCallID, planningSaw[len(planningSaw)-2].ToolCallID)

	sess, err := rt.History(id)
	require.NoError(t, err)
	assert.Equal(t, core.TopicPlanning, lastActiveTopic(t, rt, id), "active topic moved to planning")
	assert.GreaterOrEqual(t, len(sess), len(planningSaw))
}

func lastActiveTopic(t *testing.T, rt *Runtime, id string) core.Topic {
	t.Helper()
	// Route a probe through the registry-visible state: the store session
	// carries the authoritative active topic.
	sess, err := rtStore(rt).Get(id)
	require.NoError(t, err)
	return sess.ActiveTopic()
}

func rtStore(rt *Runtime) core.SessionStore { return rt.store }

func TestContentAndDelegateTieBreak(t *testing.T) {
	rt := newTestRuntime(t,
		delegatingAgent(t, core.TopicTriage, core.TopicPlanning, "Routing you to planning."),
		echoAgent(t, core.TopicPlanning),
	)

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "plan please"))

	first := recv(t, out)
	assert.Equal(t, "Routing you to planning.", first.Payload)
	assert.Equal(t, core.TopicTriage, first.Source, "content is surfaced before the topic changes")

	second := recv(t, out)
	assert.Equal(t, "planning: plan please", second.Payload)
}

func TestUnroutableDelegateRevertsToTriage(t *testing.T) {
	rt := newTestRuntime(t,
		delegatingAgent(t, core.TopicTriage, core.Topic("execution"), ""),
	)

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "run the tasks"))
	reply := recv(t, out)
	assert.NotEmpty(t, reply.Payload, "user must receive an explanatory message")
	assert.Equal(t, core.TopicTriage, lastActiveTopic(t, rt, id))
}

func TestNoSubscriberForActiveTopicFallsBack(t *testing.T) {
	rt := newTestRuntime(t) // nothing registered at all

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "anyone there?"))
	reply := recv(t, out)
	assert.NotEmpty(t, reply.Payload)
}

func TestDelegationCycleHitsHopLimit(t *testing.T) {
	rt := newTestRuntime(t,
		delegatingAgent(t, core.TopicTriage, core.TopicPlanning, ""),
		delegatingAgent(t, core.TopicPlanning, core.TopicTriage, ""),
	)

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "ping"))
	reply := recv(t, out)
	assert.Equal(t, routingErrorReply, reply.Payload)
	assert.Equal(t, core.TopicTriage, lastActiveTopic(t, rt, id))
}

func TestExitEndsSession(t *testing.T) {
	rt := newTestRuntime(t, echoAgent(t, core.TopicTriage))

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "exit"))
	farewell := recv(t, out)
	assert.NotEmpty(t, farewell.Payload)
	recvClosed(t, out)

	err = rt.SubmitUserMessage(context.Background(), id, "still there?")
	var notFound *core.SessionNotFoundError
	assert.ErrorAs(t, err, &notFound, "ended sessions must not be revivable")
}

func TestHumanEscalationStopsAutomatedDelivery(t *testing.T) {
	calls := 0
	triage := agent.MustNew(core.TopicTriage, agent.HandlerFunc(
		func(ctx context.Context, history []core.Message, task core.Message) (agent.Result, error) {
			calls++
			return agent.Result{DelegateTo: core.TopicHuman}, nil
		},
	))
	rt := newTestRuntime(t, triage)

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "I need a person"))
	notice := recv(t, out)
	assert.NotEmpty(t, notice.Payload)

	// The session stays active and keeps recording input, but no agent
	// handles it anymore.
	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "hello?"))
	select {
	case m := <-out:
		t.Fatalf("expected no automated response after escalation, got %+v", m)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 1, calls)

	history, err := rt.History(id)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, core.KindUserTask, last.Kind)
	assert.Equal(t, "hello?", last.Payload)
}

func TestProviderErrorSurfacedConversationally(t *testing.T) {
	failing := agent.MustNew(core.TopicTriage, agent.HandlerFunc(
		func(ctx context.Context, history []core.Message, task core.Message) (agent.Result, error) {
			return agent.Result{}, &core.ProviderError{Reason: core.ProviderRateLimit}
		},
	))
	rt := newTestRuntime(t, failing)

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "hi"))
	reply := recv(t, out)
	assert.Equal(t, core.KindAgentResponse, reply.Kind)
	assert.NotEmpty(t, reply.Payload)

	// Session continues: the caller may retry by resubmitting.
	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "retry"))
	recv(t, out)
}

func TestToolTraceAppendedWithTopicUnchanged(t *testing.T) {
	planning := agent.MustNew(core.TopicPlanning, agent.HandlerFunc(
		func(ctx context.Context, history []core.Message, task core.Message) (agent.Result, error) {
			call := core.NewToolCall(core.TopicPlanning, "create_entity", `{"entity_type":"Project"}`)
			result := core.NewToolResult(core.TopicPlanning, "create_entity", call.ToolCallID, `{"success":true}`)
			return agent.Result{
				Response: "Created the project for you.",
				Trace:    []core.Message{call, result},
			}, nil
		},
	))
	rt := newTestRuntime(t,
		delegatingAgent(t, core.TopicTriage, core.TopicPlanning, ""),
		planning,
	)

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "create a project"))
	reply := recv(t, out)
	assert.Equal(t, "Created the project for you.", reply.Payload)

	history, err := rt.History(id)
	require.NoError(t, err)

	var sawCall, sawResult bool
	for _, m := range history {
		if m.Kind == core.KindToolCall && m.ToolName == "create_entity" {
			sawCall = true
		}
		if m.Kind == core.KindToolResult && m.ToolName == "create_entity" {
			sawResult = true
		}
	}
	assert.True(t, sawCall, "tool call must be appended to history")
	assert.True(t, sawResult, "tool result must be appended to history")
	assert.Equal(t, core.TopicPlanning, lastActiveTopic(t, rt, id))
}

func TestCloseSessionCancelsInFlightWork(t *testing.T) {
	started := make(chan struct{})
	blocking := agent.MustNew(core.TopicTriage, agent.HandlerFunc(
		func(ctx context.Context, history []core.Message, task core.Message) (agent.Result, error) {
			close(started)
			<-ctx.Done()
			return agent.Result{}, ctx.Err()
		},
	))
	rt := newTestRuntime(t, blocking)

	id, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	out, err := rt.Responses(id)
	require.NoError(t, err)
	recv(t, out)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), id, "block"))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("agent never started")
	}

	rt.CloseSession(id)
	recvClosed(t, out)

	err = rt.SubmitUserMessage(context.Background(), id, "again")
	var notFound *core.SessionNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestSessionsRunIndependently(t *testing.T) {
	release := make(chan struct{})
	slow := agent.MustNew(core.TopicTriage, agent.HandlerFunc(
		func(ctx context.Context, history []core.Message, task core.Message) (agent.Result, error) {
			if task.Payload == "block" {
				select {
				case <-release:
				case <-ctx.Done():
					return agent.Result{}, ctx.Err()
				}
			}
			return agent.Result{Response: "done: " + task.Payload}, nil
		},
	))
	rt := newTestRuntime(t, slow)

	blocked, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	blockedOut, err := rt.Responses(blocked)
	require.NoError(t, err)
	recv(t, blockedOut)

	free, err := rt.CreateSession(context.Background())
	require.NoError(t, err)
	freeOut, err := rt.Responses(free)
	require.NoError(t, err)
	recv(t, freeOut)

	require.NoError(t, rt.SubmitUserMessage(context.Background(), blocked, "block"))

	// The second session must not wait on the first one's provider call.
	require.NoError(t, rt.SubmitUserMessage(context.Background(), free, "quick"))
	reply := recv(t, freeOut)
	assert.Equal(t, "done: quick", reply.Payload)

	close(release)
	reply = recv(t, blockedOut)
	assert.Equal(t, "done: block", reply.Payload)
}
