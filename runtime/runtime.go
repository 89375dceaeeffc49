// Package runtime implements the message bus at the center of switchboard:
// session creation, per-session ordered dispatch to the active agent, the
// handoff state machine, and delivery of agent responses back to the
// user-facing channel.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/switchkit/switchboard/agent"
	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/logging"
)

const (
	// DefaultGreeting is emitted once on session creation, before any input.
	DefaultGreeting = "Hello! I'm your project assistant. How can I help you today?"

	// DefaultExitCommand ends the session when received as a user task.
	DefaultExitCommand = "exit"

	routingErrorReply   = "I couldn't reach the right specialist for that request, so I've brought you back to triage. Could you rephrase what you need?"
	escalationReply     = "Your request has been escalated to a human operator. An operator will review the conversation and follow up with you."
	farewellReply       = "Goodbye! Your session has ended."
	genericFailureReply = "I encountered an error while processing your request. Please try again or contact support."
)

// Options configure a Runtime.
type Options struct {
	Logger      logging.Logger
	Greeting    string
	ExitCommand string
	QueueSize   int
	MaxHops     int
}

// Runtime owns sessions and routes messages between the user-facing channel
// and agent topics.
//
// Contract: messages within one session are processed strictly in sequence
// order by a dedicated worker; distinct sessions run in parallel. Sessions
// are owned exclusively by their worker - agents only ever see history
// snapshots and return values.
type Runtime struct {
	store    core.SessionStore
	registry *Registry
	logger   logging.Logger
	opts     Options

	mu      sync.Mutex
	workers map[string]*worker
	closed  bool
	wg      sync.WaitGroup
}

// worker is the per-session dispatch loop state. queue carries inbound user
// text in arrival order; out carries user-visible responses. The worker
// goroutine is the only writer to out and closes it on exit.
type worker struct {
	sess   *core.Session
	queue  chan string
	out    chan core.Message
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Runtime on top of the given session store.
func New(store core.SessionStore, optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Logger:      logging.NoOpLogger{},
		Greeting:    DefaultGreeting,
		ExitCommand: DefaultExitCommand,
		QueueSize:   16,
		MaxHops:     5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runtime{
		store:    store,
		registry: NewRegistry(),
		logger:   opts.Logger,
		opts:     opts,
		workers:  make(map[string]*worker),
	}
}

// Subscribe registers an agent with the runtime's topic registry. Intended
// to be called during startup wiring, before sessions are created.
func (r *Runtime) Subscribe(a *agent.Agent) error {
	return r.registry.Subscribe(a)
}

// Registry exposes the topic registry for inspection.
func (r *Runtime) Registry() *Registry { return r.registry }

// CreateSession creates a new session with triage as the active topic,
// starts its worker, and emits exactly one greeting response before any
// input is accepted. It returns the opaque session id.
func (r *Runtime) CreateSession(ctx context.Context) (string, error) {
	id := core.NewID()

	sess, err := r.store.Create(id, core.TopicTriage)
	if err != nil {
		return "", fmt.Errorf("runtime: create session: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.store.Delete(id)
		return "", fmt.Errorf("runtime: shut down")
	}

	wctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		sess:   sess,
		queue:  make(chan string, r.opts.QueueSize),
		out:    make(chan core.Message, r.opts.QueueSize),
		ctx:    wctx,
		cancel: cancel,
	}
	r.workers[id] = w
	r.mu.Unlock()

	sess.Append(core.NewUserLogin())
	greeting := sess.Append(core.NewAgentResponse(core.TopicTriage, r.opts.Greeting))
	w.out <- greeting

	r.wg.Add(1)
	go r.run(w)

	r.logger.Info("session created", "session_id", id)
	return id, nil
}

// SubmitUserMessage queues one user task for the session. Unknown or ended
// sessions yield *core.SessionNotFoundError. Ordering across calls from a
// single goroutine is preserved.
func (r *Runtime) SubmitUserMessage(ctx context.Context, sessionID, text string) error {
	r.mu.Lock()
	w, ok := r.workers[sessionID]
	r.mu.Unlock()
	if !ok {
		return &core.SessionNotFoundError{SessionID: sessionID}
	}

	select {
	case w.queue <- text:
		return nil
	case <-w.ctx.Done():
		return &core.SessionNotFoundError{SessionID: sessionID}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Responses returns the session's outbound channel of user-visible
// responses. The channel is closed when the session ends.
func (r *Runtime) Responses(sessionID string) (<-chan core.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[sessionID]
	if !ok {
		return nil, &core.SessionNotFoundError{SessionID: sessionID}
	}
	return w.out, nil
}

// History returns a snapshot of the session transcript.
func (r *Runtime) History(sessionID string) ([]core.Message, error) {
	sess, err := r.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}

// CloseSession ends a session: the worker context is cancelled, aborting any
// in-flight provider call, the session is marked ended and its resources are
// released. Closing an unknown session is a no-op.
func (r *Runtime) CloseSession(sessionID string) {
	r.mu.Lock()
	w, ok := r.workers[sessionID]
	if ok {
		delete(r.workers, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	w.sess.End()
	w.cancel()
	r.store.Delete(sessionID)
	r.logger.Info("session closed", "session_id", sessionID)
}

// Shutdown closes every session and waits for workers to drain, or for ctx.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.CloseSession(id)
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the per-session worker loop. It is the sole goroutine mutating the
// session, which is what makes the per-session ordering invariant hold.
func (r *Runtime) run(w *worker) {
	defer r.wg.Done()
	defer close(w.out)

	for {
		select {
		case <-w.ctx.Done():
			return
		case text := <-w.queue:
			if r.process(w, text) {
				return
			}
		}
	}
}

// process handles one inbound user task. It returns true when the session
// ended and the worker should exit.
func (r *Runtime) process(w *worker, text string) bool {
	sess := w.sess

	if text == r.opts.ExitCommand {
		sess.Append(core.NewUserTask(text))
		r.emit(w, core.TopicTriage, farewellReply)
		r.release(sess.ID())
		return true
	}

	task := sess.Append(core.NewUserTask(text))

	// After a human escalation automated delivery stops: input is still
	// recorded for the operator but no agent sees it.
	if sess.Escalated() {
		r.logger.Debug("message recorded for escalated session", "session_id", sess.ID())
		return false
	}

	r.deliver(w, task)
	return false
}

// deliver runs the handoff state machine for one task: dispatch to the
// active agent, follow delegate instructions, stop on a terminal response,
// escalation or routing failure.
func (r *Runtime) deliver(w *worker, task core.Message) {
	sess := w.sess

	for hops := 0; ; hops++ {
		topic := sess.ActiveTopic()

		if hops >= r.opts.MaxHops {
			r.logger.Warn("delegation hop limit reached", "session_id", sess.ID(), "topic", topic)
			r.routingFallback(w)
			return
		}

		target, ok := r.registry.Lookup(topic)
		if !ok {
			r.logger.Warn("routing failed",
				"session_id", sess.ID(), "error", &core.RoutingError{Topic: topic})
			r.routingFallback(w)
			return
		}

		res, err := target.HandleTask(w.ctx, sess.History(), task)
		for _, m := range res.Trace {
			sess.Append(m)
		}
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			r.logger.Error("agent failed", "session_id", sess.ID(), "topic", topic, "error", err)
			r.emit(w, topic, describeFailure(err))
			return
		}

		// Content accompanying a delegate instruction is surfaced before
		// the topic changes.
		if res.Response != "" {
			r.emit(w, topic, res.Response)
		}

		if res.DelegateTo == "" {
			return
		}

		if res.DelegateTo == core.TopicHuman {
			r.escalate(w, topic)
			return
		}

		if !r.registry.Has(res.DelegateTo) {
			r.logger.Warn("delegate target unroutable",
				"session_id", sess.ID(), "from", topic,
				"error", &core.RoutingError{Topic: res.DelegateTo})
			r.routingFallback(w)
			return
		}

		r.recordTransfer(sess, topic, res.DelegateTo)
		sess.SetActiveTopic(res.DelegateTo)
		r.logger.Info("session handed off",
			"session_id", sess.ID(), "from", topic, "to", res.DelegateTo)
	}
}

// recordTransfer appends the ToolCall/ToolResult pair documenting a handoff.
// The receiving agent sees it at the end of the history it inherits.
func (r *Runtime) recordTransfer(sess *core.Session, from, to core.Topic) {
	call := sess.Append(core.NewToolCall(from, "transfer_to_"+to.String(), "{}"))
	sess.Append(core.NewToolResult(
		from,
		call.ToolName,
		call.ToolCallID,
		fmt.Sprintf("Transferred to %s. Adopt persona immediately.", to),
	))
}

// escalate marks the session for external handling. The session stays
// active; automated delivery stops.
func (r *Runtime) escalate(w *worker, from core.Topic) {
	r.recordTransfer(w.sess, from, core.TopicHuman)
	w.sess.SetActiveTopic(core.TopicHuman)
	w.sess.Escalate()
	r.emit(w, from, escalationReply)
	r.logger.Info("session escalated to human", "session_id", w.sess.ID(), "from", from)
}

// routingFallback reverts the session to triage and tells the user why.
func (r *Runtime) routingFallback(w *worker) {
	w.sess.SetActiveTopic(core.TopicTriage)
	r.emit(w, core.TopicTriage, routingErrorReply)
}

// emit appends a user-visible response to history and pushes it to the
// outbound channel, giving up if the session is being torn down.
func (r *Runtime) emit(w *worker, source core.Topic, text string) {
	msg := w.sess.Append(core.NewAgentResponse(source, text))
	select {
	case w.out <- msg:
	case <-w.ctx.Done():
	}
}

// release tears down worker bookkeeping from inside the worker itself, used
// on the exit-command path.
func (r *Runtime) release(sessionID string) {
	r.mu.Lock()
	w, ok := r.workers[sessionID]
	if ok {
		delete(r.workers, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	w.sess.End()
	r.store.Delete(sessionID)
	r.logger.Info("session ended by user", "session_id", sessionID)
}

// describeFailure converts an agent failure into the conversational reply
// the user sees. Provider errors carry their own reason-specific wording.
func describeFailure(err error) string {
	var perr *core.ProviderError
	if errors.As(err, &perr) {
		return perr.Describe()
	}
	var terr *core.ToolExecutionError
	if errors.As(err, &terr) {
		return fmt.Sprintf("The %s tool failed while handling your request. Please try again.", terr.Tool)
	}
	return genericFailureReply
}
