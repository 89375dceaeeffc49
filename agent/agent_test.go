package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/knowledge"
	"github.com/switchkit/switchboard/provider"
)

func TestNewAgentValidation(t *testing.T) {
	echo := HandlerFunc(func(ctx context.Context, history []core.Message, task core.Message) (Result, error) {
		return Result{Response: task.Payload}, nil
	})

	tests := []struct {
		name    string
		topic   core.Topic
		handler Handler
		wantErr bool
	}{
		{name: "valid", topic: core.TopicTriage, handler: echo},
		{name: "empty topic", topic: "", handler: echo, wantErr: true},
		{name: "reserved user topic", topic: core.TopicUser, handler: echo, wantErr: true},
		{name: "reserved human topic", topic: core.TopicHuman, handler: echo, wantErr: true},
		{name: "nil handler", topic: core.TopicTriage, handler: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.topic, tt.handler)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.topic, a.Topic())
		})
	}
}

func TestTeamConstruction(t *testing.T) {
	svc, err := knowledge.NewService(t.TempDir())
	require.NoError(t, err)

	team, err := Team(provider.NewMockClient(), func(o *TeamOptions) {
		o.Knowledge = svc
	})
	require.NoError(t, err)
	require.Len(t, team, 5)

	topics := make(map[core.Topic]bool)
	for _, a := range team {
		topics[a.Topic()] = true
		assert.NotEmpty(t, a.Description())
	}
	for _, want := range []core.Topic{
		core.TopicTriage,
		core.TopicPlanning,
		core.TopicUserStories,
		core.TopicQuality,
		core.TopicUserProfiler,
	} {
		assert.True(t, topics[want], "missing %s", want)
	}
}

func TestTeamWithoutKnowledge(t *testing.T) {
	team, err := Team(provider.NewMockClient())
	require.NoError(t, err)
	assert.Len(t, team, 5)
}
