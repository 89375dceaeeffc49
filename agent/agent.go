package agent

import (
	"context"
	"fmt"

	"github.com/switchkit/switchboard/core"
)

// Result is a handler's decision for one task.
//
// Exactly one of Response / DelegateTo is meaningful for routing: a non-empty
// DelegateTo asks the runtime to hand the conversation off to that topic. When
// both are set the surfaced text is delivered before the handoff is recorded.
// Trace carries the tool call/result records produced while handling the task
// so the runtime can append them to the session transcript in order.
type Result struct {
	Response   string
	DelegateTo core.Topic
	Trace      []core.Message
}

// Handler processes one user task against the session transcript.
//
// Contract: history is a read-only snapshot ordered by sequence number, with
// task as its final element. Handlers must honor ctx cancellation and return
// provider failures as *core.ProviderError so the runtime can surface them
// conversationally rather than tearing the session down.
type Handler interface {
	HandleTask(ctx context.Context, history []core.Message, task core.Message) (Result, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, history []core.Message, task core.Message) (Result, error)

// HandleTask implements Handler.
func (f HandlerFunc) HandleTask(ctx context.Context, history []core.Message, task core.Message) (Result, error) {
	return f(ctx, history, task)
}

// Options configures an Agent.
type Options struct {
	Description string
}

// Agent is a named participant bound to a topic. The topic doubles as the
// agent's address: delegate tools target topics, never agent instances.
type Agent struct {
	topic       core.Topic
	description string
	handler     Handler
}

// New creates an agent subscribed to topic with the given handler.
func New(topic core.Topic, handler Handler, optFns ...func(o *Options)) (*Agent, error) {
	if topic == "" {
		return nil, fmt.Errorf("agent: topic must not be empty")
	}
	if topic.Reserved() {
		return nil, fmt.Errorf("agent: topic %q is reserved", topic)
	}
	if handler == nil {
		return nil, fmt.Errorf("agent: handler must not be nil")
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Agent{
		topic:       topic,
		description: opts.Description,
		handler:     handler,
	}, nil
}

// MustNew is like New but panics on error. Intended for static team wiring.
func MustNew(topic core.Topic, handler Handler, optFns ...func(o *Options)) *Agent {
	a, err := New(topic, handler, optFns...)
	if err != nil {
		panic(err)
	}
	return a
}

// Topic returns the topic this agent subscribes to.
func (a *Agent) Topic() core.Topic { return a.topic }

// Description returns the human-readable role summary.
func (a *Agent) Description() string { return a.description }

// HandleTask delegates to the configured handler.
func (a *Agent) HandleTask(ctx context.Context, history []core.Message, task core.Message) (Result, error) {
	return a.handler.HandleTask(ctx, history, task)
}
