package session

import (
	"errors"
	"testing"

	"github.com/switchkit/switchboard/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStoreLifecycle(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Create("s1", core.TopicTriage)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ActiveTopic() != core.TopicTriage {
		t.Fatalf("expected triage active topic, got %s", sess.ActiveTopic())
	}

	if _, err := store.Create("s1", core.TopicTriage); err == nil {
		t.Fatal("expected duplicate Create to fail")
	}

	got, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != sess {
		t.Fatal("Get should return the shared session instance")
	}

	store.Delete("s1")
	_, err = store.Get("s1")
	var notFound *core.SessionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SessionNotFoundError, got %v", err)
	}
	if notFound.SessionID != "s1" {
		t.Fatalf("unexpected session id in error: %s", notFound.SessionID)
	}

	// Deleting again is a no-op.
	store.Delete("s1")
}
