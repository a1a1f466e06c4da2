package boltstore

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mzhao/parley/internal/models"
	"github.com/mzhao/parley/internal/store"
)

var stateBucket = []byte("state")

// BoltStore keeps each logical key as one JSON value in a single bbolt bucket.
type BoltStore struct {
	db *bbolt.DB
}

func New(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// get returns the raw stored value for key, or nil if absent.
func (s *BoltStore) get(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(stateBucket).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, err
}

func (s *BoltStore) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(key), data)
	})
}

func (s *BoltStore) LoadAuthState() (models.AuthState, error) {
	data, err := s.get(store.KeyAuthState)
	if err != nil {
		return models.AuthState{}, err
	}
	var state models.AuthState
	if data == nil || json.Unmarshal(data, &state) != nil {
		// Absent or corrupt snapshot: the empty default.
		return models.AuthState{}, nil
	}
	return state, nil
}

func (s *BoltStore) SaveAuthState(state models.AuthState) error {
	return s.put(store.KeyAuthState, state)
}

func (s *BoltStore) LoadChats() ([]models.Chat, error) {
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

func (s *BoltStore) SaveChats(chats []models.Chat) error {
	return s.put(store.KeyChats, chats)
}

func (s *BoltStore) LoadMessages() (map[string][]models.Message, error) {
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

func (s *BoltStore) SaveMessages(messages map[string][]models.Message) error {
	return s.put(store.KeyMessages, messages)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
