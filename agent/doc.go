// Package agent defines the subscriber side of the switchboard: named
// participants bound to topics that handle user tasks and decide, per task,
// whether to answer directly or hand the conversation off to a peer.
//
// The central abstraction is Handler, which receives the session transcript
// plus the pending task and returns a Result. ModelHandler is the production
// implementation driving a completion provider through a bounded tool loop;
// tests and simple deployments can plug in scripted handlers instead.
package agent
