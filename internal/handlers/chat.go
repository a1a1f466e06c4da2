package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mzhao/parley/internal/middleware"
	"github.com/mzhao/parley/internal/models"
	"github.com/mzhao/parley/internal/service"
)

type ChatHandler struct {
	Messages *service.MessageService
}

func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		http.Error(w, "Chat not found", http.StatusNotFound)
	case errors.Is(err, service.ErrNotParticipant):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, service.ErrNoParticipants):
		http.Error(w, "Chat needs participants", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req struct {
		Participants []string `json:"participants"`
		Name         string   `json:"name"`
		IsGroup      bool     `json:"isGroup"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The creator is always a participant, whether or not the client listed it.
	participants := req.Participants
	found := false
	for _, id := range participants {
		if id == userID {
			found = true
			break
		}
	}
	if !found {
		participants = append([]string{userID}, participants...)
	}

	chat, err := h.Messages.CreateChat(participants, req.Name, req.IsGroup, userID)
	if err != nil {
		serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(chat)
}

func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Messages.GetUserChats(middleware.UserID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	json.NewEncoder(w).Encode(chats)
}

// userChat returns the chat when the requesting user is one of its
// participants.
func (h *ChatHandler) userChat(r *http.Request) (*models.Chat, error) {
	chatID := mux.Vars(r)["id"]
	chats, err := h.Messages.GetUserChats(middleware.UserID(r))
	if err != nil {
		return nil, err
	}
	for i := range chats {
		if chats[i].ID == chatID {
			return &chats[i], nil
		}
	}
	return nil, service.ErrNotParticipant
}

func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	chat, err := h.userChat(r)
	if err != nil {
		serviceError(w, err)
		return
	}

	messages, err := h.Messages.GetChatMessages(chat.ID)
	if err != nil {
		serviceError(w, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	json.NewEncoder(w).Encode(messages)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string             `json:"content"`
		Type     models.MessageType `json:"type"`
		FileName string             `json:"fileName"`
		FileSize int64              `json:"fileSize"`
		FileURL  string             `json:"fileUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Messages.SendMessage(service.OutgoingMessage{
		ChatID:   mux.Vars(r)["id"],
		SenderID: middleware.UserID(r),
		Content:  req.Content,
		Type:     req.Type,
		FileName: req.FileName,
		FileSize: req.FileSize,
		FileURL:  req.FileURL,
	})
	if err != nil {
		serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Messages.MarkChatAsRead(mux.Vars(r)["id"], middleware.UserID(r)); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := h.Messages.DeleteChat(mux.Vars(r)["id"], middleware.UserID(r)); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload accepts a multipart file and returns the data URL the client should
// attach to its next message.
func (h *ChatHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.Messages.UploadFile(file, header.Header.Get("Content-Type"))
	if err != nil {
		// Upload failures are retryable, not fatal.
		http.Error(w, "Upload failed", http.StatusBadGateway)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"url":      url,
		"fileName": header.Filename,
		"fileSize": header.Size,
	})
}
