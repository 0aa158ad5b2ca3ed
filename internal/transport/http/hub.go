package http

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trivia-bot/internal/domain"
)

// Outbound message types sent to websocket clients.
const (
	TypeJoined       = "joined"
	TypeChat         = "chat"
	TypeAnnouncement = "announcement"
	TypeRoundStarted = "roundStarted"
	TypeAnswerResult = "answerResult"
	TypeError        = "error"
)

// Message is one event delivered to the listeners of a chat channel.
type Message struct {
	Type    string    `json:"type"`
	Channel string    `json:"channel"`
	User    string    `json:"user,omitempty"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sentAt"`
}

// Hub fans chat traffic and round announcements out to every websocket connected to a
// channel. It implements app.Announcer.
type Hub struct {
	mu       sync.Mutex
	now      func() time.Time
	channels map[string]map[chan Message]struct{}
}

func NewHub() *Hub {
	return &Hub{
		now:      time.Now,
		channels: make(map[string]map[chan Message]struct{}),
	}
}

// Subscribe registers a listener on channel. The caller must invoke the returned cancel
// function to avoid leaks.
func (h *Hub) Subscribe(channel string) (<-chan Message, func()) {
	ch := make(chan Message, 16)

	h.mu.Lock()
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[chan Message]struct{})
		h.channels[channel] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.channels[channel]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	return ch, cancel
}

// Listeners reports how many connections are subscribed to channel.
func (h *Hub) Listeners(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

// Send broadcasts an announcement. It fails with ErrDeliveryFailed when nobody listens.
func (h *Hub) Send(_ context.Context, channel, text string) error {
	delivered := h.Publish(Message{Type: TypeAnnouncement, Channel: channel, Text: text})
	if delivered == 0 {
		return fmt.Errorf("%w: no listeners on %s", domain.ErrDeliveryFailed, channel)
	}
	return nil
}

// Publish broadcasts msg to msg.Channel and returns the number of listeners reached.
func (h *Hub) Publish(msg Message) int {
	if msg.SentAt.IsZero() {
		msg.SentAt = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.channels[msg.Channel]
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			// Slow listener: drop its oldest pending message to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
	return len(subs)
}
