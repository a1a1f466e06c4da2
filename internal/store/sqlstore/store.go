package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mzhao/parley/internal/models"
	"github.com/mzhao/parley/internal/store"
)

// SQLStore persists each logical key as one JSON blob row. The whole-value
// snapshot contract makes a key/value table the right shape even on SQL; rows
// per entity would invite partial updates the contract forbids.
type SQLStore struct {
	db *sql.DB
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{db: db}, nil
}

// get returns the stored value for key, or nil if absent.
func (s *SQLStore) get(key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLStore) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, data,
	)
	return err
}

func (s *SQLStore) LoadAuthState() (models.AuthState, error) {
	data, err := s.get(store.KeyAuthState)
	if err != nil {
		return models.AuthState{}, err
	}
	var state models.AuthState
	if data == nil || json.Unmarshal(data, &state) != nil {
		return models.AuthState{}, nil
	}
	return state, nil
}

func (s *SQLStore) SaveAuthState(state models.AuthState) error {
	return s.put(store.KeyAuthState, state)
}

func (s *SQLStore) LoadChats() ([]models.Chat, error) {
	data, err := s.get(store.KeyChats)
	if err != nil {
		return nil, err
	}
	var chats []models.Chat
	if data == nil || json.Unmarshal(data, &chats) != nil {
		return nil, nil
	}
	return chats, nil
}

func (s *SQLStore) SaveChats(chats []models.Chat) error {
	return s.put(store.KeyChats, chats)
}

func (s *SQLStore) LoadMessages() (map[string][]models.Message, error) {
	data, err := s.get(store.KeyMessages)
	if err != nil {
		return nil, err
	}
	messages := make(map[string][]models.Message)
	if data == nil {
		return messages, nil
	}
	if err := json.Unmarshal(data, &messages); err != nil {
		return make(map[string][]models.Message), nil
	}
	return messages, nil
}

func (s *SQLStore) SaveMessages(messages map[string][]models.Message) error {
	return s.put(store.KeyMessages, messages)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
