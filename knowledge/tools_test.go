package knowledge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchkit/switchboard/tool"
)

func TestToolsFormValidSet(t *testing.T) {
	svc := newTestService(t)

	set, err := tool.NewSet(Tools(svc)...)
	require.NoError(t, err)
	assert.Equal(t, 8, set.Len())

	_, ok := set.Resolve("create_entity")
	assert.True(t, ok)
	_, ok = set.Resolve("get_full_project_context")
	assert.True(t, ok)
}

func TestCreateEntityTool(t *testing.T) {
	svc := newTestService(t)
	set := tool.MustSet(Tools(svc)...)
	dispatcher := tool.NewDispatcher()

	spec, ok := set.Resolve("create_entity")
	require.True(t, ok)

	out, err := dispatcher.Invoke(context.Background(), spec, map[string]any{
		"entity_type":      "Milestone",
		"entity_data_json": `{"name":"Beta launch"}`,
	})
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "Milestone", result["entity_type"])
	assert.NotEmpty(t, result["entity_id"])
}

func TestUnknownEntityTypeSurfacesAsErrorPayload(t *testing.T) {
	svc := newTestService(t)
	set := tool.MustSet(Tools(svc)...)
	dispatcher := tool.NewDispatcher()

	spec, ok := set.Resolve("query_entities")
	require.True(t, ok)

	out, err := dispatcher.Invoke(context.Background(), spec, map[string]any{
		"entity_type": "Spaceship",
	})
	require.NoError(t, err, "domain failures are payloads, not tool errors")

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Contains(t, result["error"], "unknown entity type")
}
