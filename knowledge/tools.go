package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/switchkit/switchboard/tool"
)

// Tools exposes the knowledge base to agents as callable tools.
//
// Domain failures (unknown type, entity not found, malformed JSON arguments)
// come back as {"error": ...} payloads rather than Go errors so the model can
// read them and recover within the conversation.
func Tools(svc *Service) []*tool.Spec {
	return []*tool.Spec{
		{
			Name:        "get_entity_types",
			Description: "Get the list of entity types. Returns JSON string representation of the entity types.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				return asJSON(svc.EntityTypes())
			},
		},
		{
			Name:        "get_full_project_context",
			Description: "Get the full context of a project including all related entities (epics, team, risks, milestones, etc.). Returns JSON string.",
			Parameters: objectSchema(map[string]any{
				"project_id": map[string]any{"type": "string", "description": "UUID of the project"},
			}, "project_id"),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				doc, err := svc.ProjectContext(stringArg(args, "project_id"))
				if err != nil {
					return errJSON(err), nil
				}
				return asJSON(doc)
			},
		},
		{
			Name:        "get_entity_by_id",
			Description: "Get a specific entity by ID without loading relationships. Returns JSON string representation of the entity.",
			Parameters: objectSchema(map[string]any{
				"entity_type": map[string]any{"type": "string", "description": "Entity type, e.g. Project, Epic, UserStory"},
				"entity_id":   map[string]any{"type": "string", "description": "UUID of the entity"},
			}, "entity_type", "entity_id"),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				doc, err := svc.Get(stringArg(args, "entity_type"), stringArg(args, "entity_id"), false)
				if err != nil {
					return errJSON(err), nil
				}
				return asJSON(doc)
			},
		},
		{
			Name:        "get_entity_with_relationships",
			Description: "Get a specific entity by ID with all its relationships loaded. Returns JSON string representation with related entities.",
			Parameters: objectSchema(map[string]any{
				"entity_type": map[string]any{"type": "string", "description": "Entity type, e.g. Project, Epic, UserStory"},
				"entity_id":   map[string]any{"type": "string", "description": "UUID of the entity"},
			}, "entity_type", "entity_id"),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				doc, err := svc.Get(stringArg(args, "entity_type"), stringArg(args, "entity_id"), true)
				if err != nil {
					return errJSON(err), nil
				}
				return asJSON(doc)
			},
		},
		{
			Name:        "create_entity",
			Description: "Create a new entity without providing an ID. The system will generate a UUID. Returns JSON string with the generated ID.",
			Parameters: objectSchema(map[string]any{
				"entity_type":      map[string]any{"type": "string", "description": "Entity type to create"},
				"entity_data_json": map[string]any{"type": "string", "description": "JSON object with the entity's fields, without an id"},
			}, "entity_type", "entity_data_json"),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				entityType := stringArg(args, "entity_type")
				var data map[string]any
				if err := json.Unmarshal([]byte(stringArg(args, "entity_data_json")), &data); err != nil {
					return errJSON(fmt.Errorf("invalid entity data: %w", err)), nil
				}
				id, err := svc.Create(entityType, data)
				if err != nil {
					return errJSON(err), nil
				}
				return asJSON(map[string]any{
					"success":     true,
					"entity_id":   id,
					"entity_type": entityType,
					"message":     fmt.Sprintf("%s created successfully", entityType),
				})
			},
		},
		{
			Name:        "update_entity",
			Description: "Update an existing entity by ID. Returns JSON string with success status.",
			Parameters: objectSchema(map[string]any{
				"entity_type":  map[string]any{"type": "string", "description": "Entity type to update"},
				"entity_id":    map[string]any{"type": "string", "description": "UUID of the entity"},
				"updates_json": map[string]any{"type": "string", "description": "JSON object with the fields to change"},
			}, "entity_type", "entity_id", "updates_json"),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				entityType := stringArg(args, "entity_type")
				id := stringArg(args, "entity_id")
				var updates map[string]any
				if err := json.Unmarshal([]byte(stringArg(args, "updates_json")), &updates); err != nil {
					return errJSON(fmt.Errorf("invalid updates: %w", err)), nil
				}
				if err := svc.Update(entityType, id, updates); err != nil {
					return errJSON(err), nil
				}
				return asJSON(map[string]any{
					"success":     true,
					"entity_id":   id,
					"entity_type": entityType,
					"message":     fmt.Sprintf("%s updated successfully", entityType),
				})
			},
		},
		{
			Name:        "delete_entity",
			Description: "Delete an entity by ID. Returns JSON string with success status.",
			Parameters: objectSchema(map[string]any{
				"entity_type": map[string]any{"type": "string", "description": "Entity type to delete"},
				"entity_id":   map[string]any{"type": "string", "description": "UUID of the entity"},
			}, "entity_type", "entity_id"),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				entityType := stringArg(args, "entity_type")
				id := stringArg(args, "entity_id")
				if err := svc.Delete(entityType, id); err != nil {
					return errJSON(err), nil
				}
				return asJSON(map[string]any{
					"success":     true,
					"entity_id":   id,
					"entity_type": entityType,
					"message":     fmt.Sprintf("%s deleted successfully", entityType),
				})
			},
		},
		{
			Name:        "query_entities",
			Description: "Query entities of a specific type with optional filters. Returns JSON string representation of matching entities.",
			Parameters: objectSchema(map[string]any{
				"entity_type":  map[string]any{"type": "string", "description": "Entity type to query"},
				"filters_json": map[string]any{"type": "string", "description": "JSON object of field equality filters; optional"},
			}, "entity_type"),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				filters := map[string]any{}
				if raw := stringArg(args, "filters_json"); raw != "" {
					if err := json.Unmarshal([]byte(raw), &filters); err != nil {
						return errJSON(fmt.Errorf("invalid filters: %w", err)), nil
					}
				}
				docs, err := svc.Query(stringArg(args, "entity_type"), filters)
				if err != nil {
					return errJSON(err), nil
				}
				if docs == nil {
					docs = []map[string]any{}
				}
				return asJSON(docs)
			},
		},
	}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func asJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("knowledge: encode tool result: %w", err)
	}
	return string(b), nil
}

func errJSON(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}
