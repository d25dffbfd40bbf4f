package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Interaction lifecycle event types.
const (
	InteractionResponded      = "interaction.responded"
	InteractionDeferred       = "interaction.deferred"
	InteractionFollowedUp     = "interaction.followed_up"
	InteractionFollowUpFailed = "interaction.followup_failed"
	InteractionGraceExpired   = "interaction.grace_expired"
)

const (
	defaultHistory   = 100
	subscriberBuffer = 64
)

// Event is one published lifecycle event. Data is a single-line JSON object.
type Event struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// InteractionData is the payload of every interaction lifecycle event.
type InteractionData struct {
	InteractionID string `json:"interaction_id"`
	DeliveryID    string `json:"delivery_id,omitempty"`
	Label         string `json:"label,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
}

// Publisher is the producer side of a Hub.
type Publisher interface {
	Publish(eventType string, data any)
}

// Hub fans events out to live subscribers and keeps the most recent ones
// so a reconnecting client can resume from its Last-Event-ID.
type Hub struct {
	seq     atomic.Int64
	dropped atomic.Int64

	mu      sync.Mutex
	limit   int
	history []Event
	subs    map[chan Event]struct{}
}

func NewHub(history int) *Hub {
	if history <= 0 {
		history = defaultHistory
	}
	return &Hub{
		limit:   history,
		history: make([]Event, 0, history),
		subs:    make(map[chan Event]struct{}),
	}
}

// Publish records an event and offers it to every subscriber. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(eventType string, data any) {
	ev := Event{
		ID:   h.seq.Add(1),
		Type: eventType,
		At:   time.Now().UTC(),
		Data: encode(data),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.history) == h.limit {
		copy(h.history, h.history[1:])
		h.history = h.history[:h.limit-1]
	}
	h.history = append(h.history, ev)

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

func encode(data any) json.RawMessage {
	if data == nil {
		return json.RawMessage("{}")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}

// Subscribe registers a live listener. The returned cancel closes the
// channel and may be called more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// SnapshotSince returns retained events with ID > lastID, oldest first.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, len(h.history))
	for _, ev := range h.history {
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

// Subscribers is the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(string, any) {}
