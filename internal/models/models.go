package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Avatar    string    `json:"avatar,omitempty"`
	Password  string    `json:"password"` // placeholder digest, not a real hash
	CreatedAt time.Time `json:"createdAt"`
	IsOnline  bool      `json:"isOnline"`
}

// AuthState is the whole-value snapshot persisted under the auth-state key.
type AuthState struct {
	CurrentUser  *User    `json:"currentUser"`
	Users        []User   `json:"users"`
	RecentLogins []string `json:"recentLogins"`
}

type Chat struct {
	ID              string    `json:"id"`
	Participants    []string  `json:"participants"`
	IsGroup         bool      `json:"isGroup"`
	Name            string    `json:"name"`
	Avatar          string    `json:"avatar,omitempty"`
	LastMessage     string    `json:"lastMessage,omitempty"`
	LastMessageTime time.Time `json:"lastMessageTime,omitzero"`
	UnreadCount     int       `json:"unreadCount"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

// HasParticipant reports whether userID is in the chat's participant set.
func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVideo MessageType = "video"
	TypeAudio MessageType = "audio"
	TypeFile  MessageType = "file"
)

type Message struct {
	ID        string      `json:"id"`
	ChatID    string      `json:"chatId"`
	SenderID  string      `json:"senderId"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
	FileName  string      `json:"fileName,omitempty"`
	FileSize  int64       `json:"fileSize,omitempty"`
	FileURL   string      `json:"fileUrl,omitempty"`
	IsRead    bool        `json:"isRead"`
}
