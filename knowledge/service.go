// Package knowledge implements the project knowledge base: a file-backed
// store of typed project-management entities (projects, epics, user stories,
// risks, ...) that agents read and write through tool calls. Entities are
// schemaless JSON documents grouped per type; relationships are held as id
// references and expanded on demand.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/switchkit/switchboard/logging"
)

// TypeInfo describes one entity type in the catalogue.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// entityTypes is the catalogue of supported entity types. Lookup is
// case-sensitive; the slice preserves presentation order.
var entityTypes = []TypeInfo{
	{"Project", "Top-level project with scope, team, epics, risks, milestones and stakeholders."},
	{"Epic", "Large body of work decomposed into user stories."},
	{"UserStory", "Single user story with acceptance criteria, linked to an epic."},
	{"Issue", "Tracked problem or impediment."},
	{"Risk", "Identified project risk with probability and impact."},
	{"Milestone", "Scheduled checkpoint with due date."},
	{"Deliverable", "Concrete output owed to a stakeholder."},
	{"Team", "Delivery team with member references."},
	{"Person", "Individual contributor or user."},
	{"Stakeholder", "Interested party with communication needs."},
	{"Requirement", "Captured functional or non-functional requirement."},
	{"Backlog", "Ordered collection of pending work items."},
	{"Sprint", "Time-boxed iteration with committed stories."},
	{"ChangeRequest", "Requested change to agreed scope."},
	{"Baseline", "Approved snapshot of scope, schedule or cost."},
	{"TestCase", "Verification case for a requirement or story."},
	{"Phase", "Lifecycle phase of the project."},
	{"WorkStream", "Parallel track of related work."},
	{"Documentation", "Project document or reference material."},
	{"Repository", "Source or artifact repository reference."},
	{"Metric", "Tracked measurement with target and actuals."},
	{"CommunicationPlan", "Who gets informed of what, and when."},
	{"AIWorkProduct", "Artifact produced by an agent on the project's behalf."},
	{"Scope", "In/out of scope statement for the project."},
}

// ServiceOptions configure a Service.
type ServiceOptions struct {
	Logger logging.Logger
}

// Service is a file-backed entity store. Each entity lives in
// <dir>/<type>/<id>.json; a process-wide mutex serializes writers.
type Service struct {
	mu     sync.RWMutex
	dir    string
	logger logging.Logger
	types  map[string]TypeInfo
}

// NewService creates a Service rooted at dir, creating it if needed.
func NewService(dir string, optFns ...func(o *ServiceOptions)) (*Service, error) {
	opts := ServiceOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("knowledge: create storage dir: %w", err)
	}

	types := make(map[string]TypeInfo, len(entityTypes))
	for _, ti := range entityTypes {
		types[ti.Type] = ti
	}

	return &Service{dir: dir, logger: opts.Logger, types: types}, nil
}

// EntityTypes returns the catalogue of supported entity types.
func (s *Service) EntityTypes() []TypeInfo {
	out := make([]TypeInfo, len(entityTypes))
	copy(out, entityTypes)
	return out
}

// Create stores a new entity of the given type and returns its generated id.
// Timestamps created_date and last_updated are stamped on the stored copy.
func (s *Service) Create(entityType string, data map[string]any) (string, error) {
	if err := s.checkType(entityType); err != nil {
		return "", err
	}

	id := uuid.NewString()
	doc := make(map[string]any, len(data)+3)
	for k, v := range data {
		doc[k] = v
	}
	now := time.Now().Format(time.RFC3339)
	doc["id"] = id
	doc["created_date"] = now
	doc["last_updated"] = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store(entityType, id, doc); err != nil {
		return "", err
	}
	s.logger.Info("entity created", "type", entityType, "id", id)
	return id, nil
}

// Get loads one entity. With expand set, known relationship fields are
// replaced by the referenced entities.
func (s *Service) Get(entityType, id string, expand bool) (map[string]any, error) {
	if err := s.checkType(entityType); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, err := s.load(entityType, id)
	if err != nil {
		return nil, err
	}
	if expand {
		s.expandRelationships(entityType, doc)
	}
	return doc, nil
}

// Update applies a partial update to an entity and bumps last_updated.
// The id field cannot be changed.
func (s *Service) Update(entityType, id string, updates map[string]any) error {
	if err := s.checkType(entityType); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(entityType, id)
	if err != nil {
		return err
	}
	for k, v := range updates {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	doc["last_updated"] = time.Now().Format(time.RFC3339)

	if err := s.store(entityType, id, doc); err != nil {
		return err
	}
	s.logger.Info("entity updated", "type", entityType, "id", id)
	return nil
}

// Delete removes an entity.
func (s *Service) Delete(entityType, id string) error {
	if err := s.checkType(entityType); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path(entityType, id)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("knowledge: %s %s not found", entityType, id)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("knowledge: delete %s %s: %w", entityType, id, err)
	}
	s.logger.Info("entity deleted", "type", entityType, "id", id)
	return nil
}

// Query returns all entities of a type matching the given equality filters.
// Nil or empty filters match everything.
func (s *Service) Query(entityType string, filters map[string]any) ([]map[string]any, error) {
	if err := s.checkType(entityType); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := s.loadAll(entityType)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return docs, nil
	}

	var matched []map[string]any
	for _, doc := range docs {
		ok := true
		for field, want := range filters {
			if got, present := doc[field]; !present || got != want {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

// ProjectContext loads a project and expands all its top-level relationship
// fields (epics, team, risks, milestones, stakeholders, scope).
func (s *Service) ProjectContext(projectID string) (map[string]any, error) {
	if err := checkID(projectID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, err := s.load("Project", projectID)
	if err != nil {
		return nil, err
	}

	s.expandList(doc, "epics", "Epic")
	s.expandOne(doc, "team", "Team")
	s.expandList(doc, "risks", "Risk")
	s.expandList(doc, "milestones", "Milestone")
	s.expandList(doc, "stakeholders", "Stakeholder")
	s.expandOne(doc, "scope", "Scope")
	return doc, nil
}

// expandRelationships expands the known per-type relationship fields.
func (s *Service) expandRelationships(entityType string, doc map[string]any) {
	switch entityType {
	case "Project":
		s.expandList(doc, "epics", "Epic")
		s.expandOne(doc, "team", "Team")
		s.expandList(doc, "risks", "Risk")
		s.expandList(doc, "milestones", "Milestone")
		s.expandList(doc, "stakeholders", "Stakeholder")
		s.expandOne(doc, "scope", "Scope")
	case "Epic":
		s.expandList(doc, "user_stories", "UserStory")
	case "UserStory":
		if id, ok := doc["epic_id"].(string); ok && id != "" {
			if epic, err := s.load("Epic", id); err == nil {
				doc["epic"] = epic
			}
		}
	case "Team":
		s.expandList(doc, "members", "Person")
	}
}

func (s *Service) expandOne(doc map[string]any, field, refType string) {
	id, ok := doc[field].(string)
	if !ok || id == "" {
		return
	}
	ref, err := s.load(refType, id)
	if err != nil {
		return
	}
	doc[field] = ref
}

func (s *Service) expandList(doc map[string]any, field, refType string) {
	ids, ok := doc[field].([]any)
	if !ok {
		return
	}
	var refs []map[string]any
	for _, v := range ids {
		id, ok := v.(string)
		if !ok {
			continue
		}
		ref, err := s.load(refType, id)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	if refs != nil {
		doc[field] = refs
	}
}

func (s *Service) checkType(entityType string) error {
	if _, ok := s.types[entityType]; !ok {
		return fmt.Errorf("knowledge: unknown entity type %q", entityType)
	}
	return nil
}

// checkID rejects ids that are not UUIDs, which also keeps user-supplied
// input out of filesystem paths.
func checkID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("knowledge: invalid entity id %q", id)
	}
	return nil
}

func (s *Service) path(entityType, id string) string {
	return filepath.Join(s.dir, strings.ToLower(entityType), id+".json")
}

func (s *Service) store(entityType, id string, doc map[string]any) error {
	path := s.path(entityType, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("knowledge: create type dir: %w", err)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("knowledge: encode %s %s: %w", entityType, id, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("knowledge: write %s %s: %w", entityType, id, err)
	}
	return nil
}

func (s *Service) load(entityType, id string) (map[string]any, error) {
	b, err := os.ReadFile(s.path(entityType, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("knowledge: %s %s not found", entityType, id)
		}
		return nil, fmt.Errorf("knowledge: read %s %s: %w", entityType, id, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("knowledge: decode %s %s: %w", entityType, id, err)
	}
	return doc, nil
}

func (s *Service) loadAll(entityType string) ([]map[string]any, error) {
	dir := filepath.Join(s.dir, strings.ToLower(entityType))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("knowledge: read type dir: %w", err)
	}

	var docs []map[string]any
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		doc, err := s.load(entityType, id)
		if err != nil {
			s.logger.Warn("skipping unreadable entity", "type", entityType, "file", e.Name(), "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
