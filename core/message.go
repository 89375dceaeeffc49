package core

import (
	"time"

	"github.com/google/uuid"
)

// Kind categorizes a message in a session's history.
type Kind string

// Message kinds. The set is closed; the runtime refuses nothing but only
// these values are ever produced.
const (
	// KindUserLogin records session creation, before any user input.
	KindUserLogin Kind = "user_login"
	// KindUserTask is an inbound user request routed to the active agent.
	KindUserTask Kind = "user_task"
	// KindAgentResponse is user-visible agent output.
	KindAgentResponse Kind = "agent_response"
	// KindToolCall records an agent invoking a tool (including transfers).
	KindToolCall Kind = "tool_call"
	// KindToolResult records the outcome of a tool call.
	KindToolResult Kind = "tool_result"
)

// Message is the unit of session history. After being appended to a session
// it must be treated as immutable. Seq is assigned by the session on append,
// is strictly increasing per session, and defines delivery order.
type Message struct {
	SessionID  string    `json:"session_id"`
	Kind       Kind      `json:"kind"`
	Source     Topic     `json:"source"` // authoring topic, or TopicUser
	Payload    string    `json:"payload"`
	ToolName   string    `json:"tool_name,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	Seq        uint64    `json:"seq"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewUserLogin creates the session-creation marker message.
func NewUserLogin() Message {
	return Message{Kind: KindUserLogin, Source: TopicUser}
}

// NewUserTask wraps inbound user text as a task for the active agent.
func NewUserTask(text string) Message {
	return Message{Kind: KindUserTask, Source: TopicUser, Payload: text}
}

// NewAgentResponse creates user-visible output authored by the given topic.
func NewAgentResponse(source Topic, text string) Message {
	return Message{Kind: KindAgentResponse, Source: source, Payload: text}
}

// NewToolCall records a tool invocation request. A fresh call id correlates
// the call with its result.
func NewToolCall(source Topic, toolName, args string) Message {
	return Message{
		Kind:       KindToolCall,
		Source:     source,
		Payload:    args,
		ToolName:   toolName,
		ToolCallID: NewID(),
	}
}

// NewToolResult records the outcome of the tool call identified by callID.
func NewToolResult(source Topic, toolName, callID, payload string) Message {
	return Message{
		Kind:       KindToolResult,
		Source:     source,
		Payload:    payload,
		ToolName:   toolName,
		ToolCallID: callID,
	}
}

// NewID returns a new unique identifier for sessions and tool calls.
func NewID() string { return uuid.NewString() }

// IsUserVisible reports whether the message becomes a frame on the
// user-facing channel.
func (m Message) IsUserVisible() bool { return m.Kind == KindAgentResponse }
