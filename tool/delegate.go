package tool

import (
	"fmt"

	"github.com/switchkit/switchboard/core"
)

// NewDelegateSpec builds a delegate tool descriptor. Invoking it yields the
// target topic; the runtime interprets that as a session handoff carrying
// the full conversation history.
func NewDelegateSpec(name, description string, target core.Topic) *Spec {
	return &Spec{
		Name:        name,
		Description: description,
		Delegate:    true,
		Target:      target,
	}
}

// TransferSpec is a convenience for the common "transfer_to_<topic>"
// delegate naming used by the standard team.
func TransferSpec(target core.Topic, description string) *Spec {
	return NewDelegateSpec(fmt.Sprintf("transfer_to_%s", target), description, target)
}

// EscalateSpec builds the terminal escalation delegate to the human topic.
func EscalateSpec() *Spec {
	return NewDelegateSpec(
		"escalate_to_human",
		"Escalate the conversation to a human operator for requests that cannot be handled automatically.",
		core.TopicHuman,
	)
}
