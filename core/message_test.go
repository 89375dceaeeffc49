package core

import "testing"

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		kind    Kind
		source  Topic
		visible bool
	}{
		{"login", NewUserLogin(), KindUserLogin, TopicUser, false},
		{"task", NewUserTask("do it"), KindUserTask, TopicUser, false},
		{"response", NewAgentResponse(TopicPlanning, "done"), KindAgentResponse, TopicPlanning, true},
		{"tool call", NewToolCall(TopicQuality, "query_entities", "{}"), KindToolCall, TopicQuality, false},
		{"tool result", NewToolResult(TopicQuality, "query_entities", "id-1", "[]"), KindToolResult, TopicQuality, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.msg.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", tt.msg.Kind, tt.kind)
			}
			if tt.msg.Source != tt.source {
				t.Errorf("source = %q, want %q", tt.msg.Source, tt.source)
			}
			if tt.msg.IsUserVisible() != tt.visible {
				t.Errorf("IsUserVisible = %v, want %v", tt.msg.IsUserVisible(), tt.visible)
			}
		})
	}
}

func TestToolCallCorrelation(t *testing.T) {
	call := NewToolCall(TopicTriage, "transfer_to_planning", "{}")
	if call.ToolCallID == "" {
		t.Fatal("tool calls need a correlation id")
	}
	res := NewToolResult(TopicTriage, call.ToolName, call.ToolCallID, "planning")
	if res.ToolCallID != call.ToolCallID {
		t.Error("result should carry the originating call id")
	}
}
