package ws

import (
	"encoding/json"
	"log"

	"github.com/mzhao/parley/internal/service"
)

// Hub relays service events to connected websocket clients, playing the role
// of the presentation layer's subscription to the core.
type Hub struct {
	messages *service.MessageService

	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Events forwarded from the service notifier.
	events chan service.Event

	sub *service.Subscription
}

func NewHub(messages *service.MessageService) *Hub {
	h := &Hub{
		messages:   messages,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan service.Event, 16),
	}
	h.sub = messages.Subscribe(func(e service.Event) {
		h.events <- e
	})
	return h
}

// Close detaches the hub from the notifier.
func (h *Hub) Close() {
	h.messages.Unsubscribe(h.sub)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case event := <-h.events:
			h.relay(event)
		}
	}
}

// relay forwards an event to every connected client that should see it:
// participants of the affected chat, or everyone when the chat is already
// gone (CHAT_DELETED).
func (h *Hub) relay(event service.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: encode event: %v", err)
		return
	}

	audience := h.audience(event)
	for client := range h.clients {
		if audience != nil && !audience[client.userID] {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// audience returns the set of user ids the event concerns, or nil for
// broadcast.
func (h *Hub) audience(event service.Event) map[string]bool {
	var participants []string
	switch event.Type {
	case service.EventNewChat:
		if event.Chat != nil {
			participants = event.Chat.Participants
		}
	case service.EventNewMessage:
		if event.Message != nil {
			chat, err := h.messages.GetChat(event.Message.ChatID)
			if err != nil {
				log.Printf("ws: look up chat %s: %v", event.Message.ChatID, err)
				return map[string]bool{}
			}
			participants = chat.Participants
		}
	case service.EventChatDeleted:
		// The chat is gone; clients that never saw it ignore the event.
		return nil
	}

	set := make(map[string]bool, len(participants))
	for _, id := range participants {
		set[id] = true
	}
	return set
}
