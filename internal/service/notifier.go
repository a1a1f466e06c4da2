package service

import (
	"log"
	"sync"
	"time"

	"github.com/mzhao/parley/internal/models"
)

type EventType string

const (
	EventNewMessage  EventType = "NEW_MESSAGE"
	EventNewChat     EventType = "NEW_CHAT"
	EventChatDeleted EventType = "CHAT_DELETED"
)

// Event is the payload delivered to subscribers. Exactly one of Message, Chat
// or the ChatID/UserID pair is set, depending on Type.
type Event struct {
	Type    EventType       `json:"type"`
	Message *models.Message `json:"message,omitempty"`
	Chat    *models.Chat    `json:"chat,omitempty"`
	ChatID  string          `json:"chatId,omitempty"`
	UserID  string          `json:"userId,omitempty"`
}

type Listener func(Event)

// Subscription identifies one registered listener. Func values are not
// comparable, so the subscription pointer stands in for listener identity.
type Subscription struct {
	fn Listener
}

// Notifier fans events out to subscribers after a fixed delay, standing in
// for a real push transport. Swap the delay to zero in tests.
type Notifier struct {
	delay time.Duration

	mu   sync.Mutex
	subs []*Subscription
}

func NewNotifier(delay time.Duration) *Notifier {
	return &Notifier{delay: delay}
}

func (n *Notifier) Subscribe(fn Listener) *Subscription {
	sub := &Subscription{fn: fn}
	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()
	return sub
}

func (n *Notifier) Unsubscribe(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// Publish schedules delivery of event to every subscriber registered at
// dispatch time, in registration order. Delivery is fire-and-forget: there is
// no ordering guarantee between events published close together.
func (n *Notifier) Publish(event Event) {
	go func() {
		if n.delay > 0 {
			time.Sleep(n.delay)
		}

		// Iterate over a snapshot so a listener can unsubscribe itself
		// mid-dispatch without corrupting the walk.
		n.mu.Lock()
		snapshot := make([]*Subscription, len(n.subs))
		copy(snapshot, n.subs)
		n.mu.Unlock()

		for _, sub := range snapshot {
			deliver(sub.fn, event)
		}
	}()
}

// deliver isolates listener panics so one bad subscriber cannot starve the
// rest of the fan-out.
func deliver(fn Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notifier: listener panic: %v", r)
		}
	}()
	fn(event)
}
