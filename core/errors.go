package core

import "fmt"

// RoutingError reports a topic with no registered subscriber, either as the
// active topic at delivery time or as a delegate target. It is recovered
// locally by reverting the session to triage.
type RoutingError struct {
	Topic Topic
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("no subscriber registered for topic %q", e.Topic)
}

// ToolExecutionError reports an argument validation failure or a tool
// handler failure. It is non-fatal: the session continues after the failure
// is surfaced as an agent response.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// ProviderReason classifies provider failures for human-readable surfacing.
type ProviderReason string

// Provider failure classes.
const (
	ProviderTimeout   ProviderReason = "timeout"
	ProviderAuth      ProviderReason = "auth"
	ProviderRateLimit ProviderReason = "rate_limit"
	ProviderOther     ProviderReason = "other"
)

// ProviderError reports a completion-provider failure (timeout, auth
// failure, rate limit). Recoverable: the session continues and the caller
// may retry by resubmitting.
type ProviderError struct {
	Reason ProviderReason
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider failure (%s): %v", e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Describe returns the conversational explanation surfaced to the user.
func (e *ProviderError) Describe() string {
	switch e.Reason {
	case ProviderTimeout:
		return "The assistant took too long to respond. Please try sending your message again."
	case ProviderAuth:
		return "The assistant is not available right now due to a configuration problem. Please contact support."
	case ProviderRateLimit:
		return "The assistant is handling too many requests at the moment. Please wait a moment and try again."
	default:
		return "I encountered an error while processing your request. Please try again or contact support."
	}
}

// SessionNotFoundError reports an operation against an unknown or ended
// session. Fatal to the requesting connection only; no session is created.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}
