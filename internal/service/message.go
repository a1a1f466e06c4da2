package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mzhao/parley/internal/models"
	"github.com/mzhao/parley/internal/store"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrNotParticipant = errors.New("user is not a chat participant")
	ErrNoParticipants = errors.New("chat needs at least one participant")
)

// idSource issues string ids that are strictly increasing in creation order.
// Ids are millisecond timestamps; collisions within one millisecond are bumped
// forward so the id doubles as the ordering key.
type idSource struct {
	mu   sync.Mutex
	last int64
}

func (g *idSource) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return strconv.FormatInt(id, 10)
}

// OutgoingMessage is the caller-supplied part of a message; id, timestamp and
// read state are assigned on send. The file fields are set for non-text types.
type OutgoingMessage struct {
	ChatID   string
	SenderID string
	Content  string
	Type     models.MessageType
	FileName string
	FileSize int64
	FileURL  string
}

// MessageService owns the chat and message aggregates. Every mutation is a
// locked load-compute-save over the store snapshot, and the observable ones
// are published through the notifier.
type MessageService struct {
	store    store.Store
	notifier *Notifier
	ids      idSource
	mu       sync.Mutex
}

func NewMessageService(st store.Store, notifier *Notifier) *MessageService {
	return &MessageService{store: st, notifier: notifier}
}

// Subscribe registers a listener for mutation events. The returned
// subscription is the handle to pass to Unsubscribe.
func (s *MessageService) Subscribe(fn Listener) *Subscription {
	return s.notifier.Subscribe(fn)
}

func (s *MessageService) Unsubscribe(sub *Subscription) {
	s.notifier.Unsubscribe(sub)
}

// CreateChat always creates a fresh chat, even when an equivalent participant
// set already has one; dedup is the caller's concern. Direct chats take their
// avatar from the second participant, groups from the chat name.
func (s *MessageService) CreateChat(participants []string, name string, isGroup bool, createdBy string) (models.Chat, error) {
	if len(participants) == 0 {
		return models.Chat{}, ErrNoParticipants
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	avatar := avatarURL("shapes", name)
	if !isGroup {
		seed := participants[0]
		if len(participants) > 1 {
			seed = participants[1]
		}
		avatar = avatarURL("avataaars", seed)
	}

	chat := models.Chat{
		ID:           s.ids.next(),
		Participants: participants,
		IsGroup:      isGroup,
		Name:         name,
		Avatar:       avatar,
		UnreadCount:  0,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
	}

	chats, err := s.store.LoadChats()
	if err != nil {
		return models.Chat{}, fmt.Errorf("load chats: %w", err)
	}
	chats = append(chats, chat)
	if err := s.store.SaveChats(chats); err != nil {
		return models.Chat{}, fmt.Errorf("save chats: %w", err)
	}

	s.notifier.Publish(Event{Type: EventNewChat, Chat: &chat})
	return chat, nil
}

// GetChat looks a chat up by id.
func (s *MessageService) GetChat(chatID string) (models.Chat, error) {
	chats, err := s.store.LoadChats()
	if err != nil {
		return models.Chat{}, fmt.Errorf("load chats: %w", err)
	}
	for _, c := range chats {
		if c.ID == chatID {
			return c, nil
		}
	}
	return models.Chat{}, ErrChatNotFound
}

func (s *MessageService) GetUserChats(userID string) ([]models.Chat, error) {
	chats, err := s.store.LoadChats()
	if err != nil {
		return nil, fmt.Errorf("load chats: %w", err)
	}

	var out []models.Chat
	for _, c := range chats {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetChatMessages returns the chat's messages in creation order, empty when
// the chat has none (or does not exist).
func (s *MessageService) GetChatMessages(chatID string) ([]models.Message, error) {
	messages, err := s.store.LoadMessages()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return messages[chatID], nil
}

// SendMessage appends a message to its chat, refreshes the chat's last-message
// cache and bumps the unread counter once per participant other than the
// sender. The sender must be a participant of an existing chat.
func (s *MessageService) SendMessage(out OutgoingMessage) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.store.LoadChats()
	if err != nil {
		return models.Message{}, fmt.Errorf("load chats: %w", err)
	}

	idx := -1
	for i, c := range chats {
		if c.ID == out.ChatID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Message{}, ErrChatNotFound
	}
	if !chats[idx].HasParticipant(out.SenderID) {
		return models.Message{}, ErrNotParticipant
	}

	msgType := out.Type
	if msgType == "" {
		msgType = models.TypeText
	}

	now := time.Now().UTC()
	msg := models.Message{
		ID:        s.ids.next(),
		ChatID:    out.ChatID,
		SenderID:  out.SenderID,
		Content:   out.Content,
		Timestamp: now,
		Type:      msgType,
		FileName:  out.FileName,
		FileSize:  out.FileSize,
		FileURL:   out.FileURL,
	}

	messages, err := s.store.LoadMessages()
	if err != nil {
		return models.Message{}, fmt.Errorf("load messages: %w", err)
	}
	messages[msg.ChatID] = append(messages[msg.ChatID], msg)
	if err := s.store.SaveMessages(messages); err != nil {
		return models.Message{}, fmt.Errorf("save messages: %w", err)
	}

	chats[idx].LastMessage = msg.Content
	chats[idx].LastMessageTime = now
	for _, participant := range chats[idx].Participants {
		if participant != msg.SenderID {
			chats[idx].UnreadCount++
		}
	}
	if err := s.store.SaveChats(chats); err != nil {
		return models.Message{}, fmt.Errorf("save chats: %w", err)
	}

	s.notifier.Publish(Event{Type: EventNewMessage, Message: &msg})
	return msg, nil
}

// MarkChatAsRead zeroes the chat's unread counter and marks every message not
// sent by the reader as read.
func (s *MessageService) MarkChatAsRead(chatID, readerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.store.LoadChats()
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}

	idx := -1
	for i, c := range chats {
		if c.ID == chatID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrChatNotFound
	}

	chats[idx].UnreadCount = 0
	if err := s.store.SaveChats(chats); err != nil {
		return fmt.Errorf("save chats: %w", err)
	}

	messages, err := s.store.LoadMessages()
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	if msgs, ok := messages[chatID]; ok {
		for i := range msgs {
			if msgs[i].SenderID != readerID {
				msgs[i].IsRead = true
			}
		}
		messages[chatID] = msgs
		if err := s.store.SaveMessages(messages); err != nil {
			return fmt.Errorf("save messages: %w", err)
		}
	}
	return nil
}

// DeleteChat removes the chat and all of its messages. Only a participant may
// delete; a failed delete mutates nothing and emits no event.
func (s *MessageService) DeleteChat(chatID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.store.LoadChats()
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}

	idx := -1
	for i, c := range chats {
		if c.ID == chatID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrChatNotFound
	}
	if !chats[idx].HasParticipant(userID) {
		return ErrNotParticipant
	}

	chats = append(chats[:idx:idx], chats[idx+1:]...)
	if err := s.store.SaveChats(chats); err != nil {
		return fmt.Errorf("save chats: %w", err)
	}

	messages, err := s.store.LoadMessages()
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	delete(messages, chatID)
	if err := s.store.SaveMessages(messages); err != nil {
		return fmt.Errorf("save messages: %w", err)
	}

	s.notifier.Publish(Event{Type: EventChatDeleted, ChatID: chatID, UserID: userID})
	return nil
}

// UploadFile encodes the file's bytes into a self-contained data URL, standing
// in for an object-storage upload. The read error is the only failure mode and
// is retryable at the call site.
func (s *MessageService) UploadFile(r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
