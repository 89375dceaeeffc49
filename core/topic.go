package core

// Topic is an immutable identifier naming a routed destination: either an
// agent role or the user-facing channel. Topics are plain strings so they
// can travel inside messages and tool results without conversion.
type Topic string

// Reserved topics with runtime-level semantics.
const (
	// TopicUser is the user-facing channel. Agent responses published here
	// become frames on the realtime channel.
	TopicUser Topic = "user"

	// TopicTriage is the default entry point for every new session and the
	// fallback target whenever routing fails.
	TopicTriage Topic = "triage"

	// TopicHuman marks terminal escalation: delegating here stops automated
	// delivery for the session until it is explicitly closed.
	TopicHuman Topic = "human"
)

// Standard specialist roles wired by the default team. They carry no special
// runtime semantics; any string is a valid agent topic.
const (
	TopicPlanning     Topic = "planning"
	TopicUserStories  Topic = "user_stories"
	TopicQuality      Topic = "quality"
	TopicUserProfiler Topic = "user_profiler"
)

// String returns the topic identifier.
func (t Topic) String() string { return string(t) }

// Reserved reports whether the topic has runtime-level semantics and must
// not be claimed by a regular agent subscription.
func (t Topic) Reserved() bool { return t == TopicUser || t == TopicHuman }
