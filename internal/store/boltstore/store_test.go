package boltstore

import (
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/mzhao/parley/internal/models"
)

func newTestStore(t *testing.T) (*BoltStore, string) {
	path := filepath.Join(t.TempDir(), "parley.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestLoadDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	state, err := s.LoadAuthState()
	if err != nil {
		t.Fatalf("LoadAuthState failed: %v", err)
	}
	if state.CurrentUser != nil || len(state.Users) != 0 {
		t.Errorf("Expected empty auth state, got %+v", state)
	}

	messages, err := s.LoadMessages()
	if err != nil {
		t.Fatalf("LoadMessages failed: %v", err)
	}
	if messages == nil {
		t.Error("Expected non-nil message map")
	}
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.db")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	user := models.User{ID: "u1", Name: "alice", Email: "alice@example.com"}
	if err := s.SaveAuthState(models.AuthState{Users: []models.User{user}, RecentLogins: []string{"u1"}}); err != nil {
		t.Fatalf("SaveAuthState failed: %v", err)
	}
	if err := s.SaveChats([]models.Chat{{ID: "c1", Participants: []string{"u1"}, UnreadCount: 3}}); err != nil {
		t.Fatalf("SaveChats failed: %v", err)
	}
	if err := s.SaveMessages(map[string][]models.Message{"c1": {{ID: "m1", ChatID: "c1", Content: "hi"}}}); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	state, _ := s.LoadAuthState()
	if len(state.Users) != 1 || state.Users[0].ID != "u1" {
		t.Errorf("Auth state not preserved across reopen: %+v", state)
	}
	chats, _ := s.LoadChats()
	if len(chats) != 1 || chats[0].UnreadCount != 3 {
		t.Errorf("Chats not preserved across reopen: %+v", chats)
	}
	messages, _ := s.LoadMessages()
	if len(messages["c1"]) != 1 || messages["c1"][0].Content != "hi" {
		t.Errorf("Messages not preserved across reopen: %+v", messages)
	}
}

func TestCorruptValueFallsBackToDefault(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte("chats"), []byte("{not json"))
	})
	if err != nil {
		t.Fatal(err)
	}

	chats, err := s.LoadChats()
	if err != nil {
		t.Fatalf("LoadChats failed: %v", err)
	}
	if len(chats) != 0 {
		t.Errorf("Expected empty default for corrupt value, got %+v", chats)
	}
}
