package store

import "github.com/mzhao/parley/internal/models"

// Logical keys under which the three aggregates are persisted. Every backend
// uses these same names so state written by one backend is readable by another.
const (
	KeyAuthState = "auth-state"
	KeyChats     = "chats"
	KeyMessages  = "messages"
)

// Store persists the three aggregates as whole-value snapshots. Load methods
// return the schema-defined empty default when the key is absent or its stored
// bytes no longer decode; an error means the backend itself failed. Save
// methods overwrite the whole value, no merging. Callers own serialization:
// a read-modify-write of one key must not interleave with another.
type Store interface {
	LoadAuthState() (models.AuthState, error)
	SaveAuthState(state models.AuthState) error

	LoadChats() ([]models.Chat, error)
	SaveChats(chats []models.Chat) error

	LoadMessages() (map[string][]models.Message, error)
	SaveMessages(messages map[string][]models.Message) error

	Close() error
}
