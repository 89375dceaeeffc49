// Package switchboard provides a high-level façade over the runtime, agent
// team and session store, enabling rapid construction of conversational
// multi-agent routers. Most applications interact with this package by:
//  1. Creating a Switchboard via New() with a completion provider
//  2. Optionally registering extra agents beyond the standard team
//  3. Creating sessions and exchanging messages over their channels
//
// The façade delegates orchestration to runtime.Runtime while keeping setup
// ergonomics concise. All defaults are safe for local development and tests;
// server deployments typically use the server package instead.
package switchboard

import (
	"context"

	"github.com/switchkit/switchboard/agent"
	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/knowledge"
	"github.com/switchkit/switchboard/logging"
	"github.com/switchkit/switchboard/provider"
	"github.com/switchkit/switchboard/runtime"
	"github.com/switchkit/switchboard/session"
)

// Options configures the Switchboard instance.
type Options struct {
	// Logger used by every component. Defaults to a no-op logger.
	Logger logging.Logger
	// Store holds sessions. Defaults to the in-memory store.
	Store core.SessionStore
	// Knowledge enables the knowledge-base tools for the standard team.
	Knowledge *knowledge.Service
	// Greeting overrides the initial response emitted on session creation.
	Greeting string
	// SkipStandardTeam suppresses registration of the default
	// project-management team, for callers wiring their own agents.
	SkipStandardTeam bool
}

// Switchboard bundles a runtime with the standard agent team.
type Switchboard struct {
	rt *runtime.Runtime
}

// New constructs a Switchboard backed by the given completion provider.
func New(client provider.CompletionClient, optFns ...func(o *Options)) (*Switchboard, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = session.NewInMemoryStore()
	}

	rt := runtime.New(opts.Store, func(o *runtime.Options) {
		o.Logger = opts.Logger
		if opts.Greeting != "" {
			o.Greeting = opts.Greeting
		}
	})

	if !opts.SkipStandardTeam {
		team, err := agent.Team(client, func(o *agent.TeamOptions) {
			o.Logger = opts.Logger
			o.Knowledge = opts.Knowledge
		})
		if err != nil {
			return nil, err
		}
		for _, a := range team {
			if err := rt.Subscribe(a); err != nil {
				return nil, err
			}
		}
	}

	return &Switchboard{rt: rt}, nil
}

// Runtime exposes the underlying runtime for advanced wiring.
func (s *Switchboard) Runtime() *runtime.Runtime { return s.rt }

// Subscribe registers an additional agent.
func (s *Switchboard) Subscribe(a *agent.Agent) error { return s.rt.Subscribe(a) }

// CreateSession creates a session and returns its opaque id.
func (s *Switchboard) CreateSession(ctx context.Context) (string, error) {
	return s.rt.CreateSession(ctx)
}

// SubmitUserMessage queues one user task for a session.
func (s *Switchboard) SubmitUserMessage(ctx context.Context, sessionID, text string) error {
	return s.rt.SubmitUserMessage(ctx, sessionID, text)
}

// Responses returns the session's channel of user-visible responses.
func (s *Switchboard) Responses(sessionID string) (<-chan core.Message, error) {
	return s.rt.Responses(sessionID)
}

// History returns a snapshot of the session transcript.
func (s *Switchboard) History(sessionID string) ([]core.Message, error) {
	return s.rt.History(sessionID)
}

// CloseSession ends a session and releases its resources.
func (s *Switchboard) CloseSession(sessionID string) { s.rt.CloseSession(sessionID) }

// Shutdown closes all sessions and waits for workers to drain.
func (s *Switchboard) Shutdown(ctx context.Context) error { return s.rt.Shutdown(ctx) }
