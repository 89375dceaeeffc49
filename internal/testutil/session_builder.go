package testutil

import (
	"github.com/switchkit/switchboard/core"
)

// SessionBuilder constructs sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").UserTask("hi").Build()
type SessionBuilder struct {
	id       string
	initial  core.Topic
	messages []core.Message
}

// NewSessionBuilder creates a builder for a session with the given id and
// triage as the initial active topic.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, initial: core.TopicTriage}
}

// ActiveTopic overrides the initial active topic (chainable).
func (b *SessionBuilder) ActiveTopic(t core.Topic) *SessionBuilder {
	b.initial = t
	return b
}

// Message appends an arbitrary message to the transcript (chainable).
func (b *SessionBuilder) Message(m core.Message) *SessionBuilder {
	b.messages = append(b.messages, m)
	return b
}

// UserTask appends a user task message (chainable).
func (b *SessionBuilder) UserTask(text string) *SessionBuilder {
	return b.Message(core.NewUserTask(text))
}

// AgentResponse appends an agent response from the given topic (chainable).
func (b *SessionBuilder) AgentResponse(source core.Topic, text string) *SessionBuilder {
	return b.Message(core.NewAgentResponse(source, text))
}

// ToolRound appends a matched ToolCall/ToolResult pair (chainable).
func (b *SessionBuilder) ToolRound(source core.Topic, toolName, args, result string) *SessionBuilder {
	call := core.NewToolCall(source, toolName, args)
	b.Message(call)
	return b.Message(core.NewToolResult(source, toolName, call.ToolCallID, result))
}

// Build materializes the session, appending all queued messages in order.
func (b *SessionBuilder) Build() *core.Session {
	sess := core.NewSession(b.id, b.initial)
	for _, m := range b.messages {
		sess.Append(m)
	}
	return sess
}
