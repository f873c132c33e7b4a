package watch

import (
	"sync"

	"github.com/google/uuid"
)

// Topic names for the per-user watch channels.
func FriendsTopic(userID string) string   { return "friends:" + userID }
func RequestsTopic(userID string) string  { return "requests:" + userID }
func GreetingsTopic(userID string) string { return "greetings:" + userID }

// Hub is an in-process publish/subscribe fan-out. Publishes carry no
// payload; subscribers re-query full state when woken, so a burst of
// publishes coalesces into a single wakeup.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[string]chan struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[string]chan struct{})}
}

// Subscription is a handle on one topic. Receive wakeups from C; call
// Close to detach.
type Subscription struct {
	ID    string
	C     <-chan struct{}
	hub   *Hub
	topic string
}

func (h *Hub) Subscribe(topic string) *Subscription {
	ch := make(chan struct{}, 1)
	id := uuid.NewString()

	h.mu.Lock()
	subs := h.topics[topic]
	if subs == nil {
		subs = make(map[string]chan struct{})
		h.topics[topic] = subs
	}
	subs[id] = ch
	h.mu.Unlock()

	return &Subscription{ID: id, C: ch, hub: h, topic: topic}
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.hub.mu.Lock()
	if subs := s.hub.topics[s.topic]; subs != nil {
		delete(subs, s.ID)
		if len(subs) == 0 {
			delete(s.hub.topics, s.topic)
		}
	}
	s.hub.mu.Unlock()
	s.hub = nil
}

// Publish wakes every subscriber of the topic. A subscriber with a
// pending wakeup is not woken twice.
func (h *Hub) Publish(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.topics[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
