package runtime

import (
	"fmt"
	"sync"

	"github.com/switchkit/switchboard/agent"
	"github.com/switchkit/switchboard/core"
)

// Registry maps topics to their subscribed agents. Multiple agents may
// subscribe to the same topic; delivery targets the first subscriber in
// registration order. Intended usage is write-once at startup, read-many
// afterwards; registration is serialized for the dynamic case.
type Registry struct {
	mu          sync.RWMutex
	subscribers map[core.Topic][]*agent.Agent
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{subscribers: make(map[core.Topic][]*agent.Agent)}
}

// Subscribe registers an agent under its topic.
func (r *Registry) Subscribe(a *agent.Agent) error {
	if a == nil {
		return fmt.Errorf("runtime: cannot subscribe nil agent")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	topic := a.Topic()
	r.subscribers[topic] = append(r.subscribers[topic], a)
	return nil
}

// Lookup returns the delivery target for a topic: the first subscriber in
// registration order, or false when the topic has none.
func (r *Registry) Lookup(topic core.Topic) (*agent.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := r.subscribers[topic]
	if len(subs) == 0 {
		return nil, false
	}
	return subs[0], true
}

// Subscribers returns all agents subscribed to a topic, in registration order.
func (r *Registry) Subscribers(topic core.Topic) []*agent.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*agent.Agent, len(r.subscribers[topic]))
	copy(out, r.subscribers[topic])
	return out
}

// Has reports whether at least one agent subscribes to the topic.
func (r *Registry) Has(topic core.Topic) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[topic]) > 0
}

// Topics returns the set of topics with at least one subscriber.
func (r *Registry) Topics() []core.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]core.Topic, 0, len(r.subscribers))
	for t := range r.subscribers {
		topics = append(topics, t)
	}
	return topics
}
