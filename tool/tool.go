// Package tool implements the tool-calling subsystem: static tool
// descriptors with schema-validated arguments, a startup-built registry,
// and the dispatcher agents use to execute calls. Delegate tools — whose
// only effect is to yield a handoff target — share the same descriptor
// shape so the transfer mechanism stays uniform across agents.
package tool

import (
	"context"
	"fmt"

	"github.com/switchkit/switchboard/core"
)

// Handler executes a tool with already-validated arguments and returns a
// string result for the conversation transcript. Handlers must be safe for
// concurrent use; any per-session state belongs in the session, never in
// the tool.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Spec is a static tool descriptor, registered once at startup.
//
// For regular tools Handler runs the business logic. For delegate tools
// (Delegate=true) Handler is nil and Target names the topic the session is
// handed off to; delegate tools never execute business logic themselves.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON-schema subset; nil means no arguments
	Delegate    bool
	Target      core.Topic
	Handler     Handler
}

// Validate reports structural problems in the descriptor.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("tool spec missing name")
	}
	if s.Delegate {
		if s.Target == "" {
			return fmt.Errorf("delegate tool %q missing target topic", s.Name)
		}
		if s.Handler != nil {
			return fmt.Errorf("delegate tool %q must not carry a handler", s.Name)
		}
		return nil
	}
	if s.Handler == nil {
		return fmt.Errorf("tool %q missing handler", s.Name)
	}
	return nil
}

// Set is an immutable, ordered tool registry built once at startup. Lookup
// is by name; iteration order is registration order so provider tool
// definitions stay stable.
type Set struct {
	specs map[string]*Spec
	order []string
}

// NewSet builds a registry from specs, rejecting duplicates and invalid
// descriptors.
func NewSet(specs ...*Spec) (*Set, error) {
	s := &Set{specs: make(map[string]*Spec, len(specs))}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.specs[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", spec.Name)
		}
		s.specs[spec.Name] = spec
		s.order = append(s.order, spec.Name)
	}
	return s, nil
}

// MustSet is NewSet that panics on error; for wiring code where the specs
// are compile-time constants.
func MustSet(specs ...*Spec) *Set {
	s, err := NewSet(specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Resolve returns the spec registered under name.
func (s *Set) Resolve(name string) (*Spec, bool) {
	if s == nil {
		return nil, false
	}
	spec, ok := s.specs[name]
	return spec, ok
}

// Specs returns all registered specs in registration order.
func (s *Set) Specs() []*Spec {
	if s == nil {
		return nil
	}
	out := make([]*Spec, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.specs[name])
	}
	return out
}

// Len returns the number of registered tools.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}
