package events

import (
	"sync"
	"time"
)

// Topic names. These are the in-process analog of the original app's
// window-level custom events.
const (
	TopicShowPopup         = "show-popup"
	TopicInAppNotification = "in-app-notification"
	TopicPomodoroStart     = "pomodoro-start"
	TopicPomodoroStop      = "pomodoro-stop"
	TopicPomodoroReset     = "pomodoro-reset"
	TopicPomodoroComplete  = "pomodoro-complete"

	TopicRemindersUpdated   = "reminders-updated"
	TopicTasksUpdated       = "tasks-updated"
	TopicHabitsUpdated      = "habits-updated"
	TopicMedicationsUpdated = "medications-updated"
)

// Event is a topic plus an arbitrary payload.
type Event struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Handler receives events for a subscribed topic. Handlers run
// synchronously on the publisher's goroutine, so they must not block.
type Handler func(Event)

// Bus is a minimal topic-keyed publish/subscribe emitter.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a single topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// SubscribeAll registers a handler for every topic. Used by the SSE bridge.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the event to topic subscribers, then to catch-all
// subscribers, synchronously and in subscription order.
func (b *Bus) Publish(topic string, payload interface{}) {
	ev := Event{Topic: topic, Payload: payload, At: time.Now()}

	b.mu.RLock()
	topical := b.handlers[topic]
	all := b.all
	b.mu.RUnlock()

	for _, h := range topical {
		h(ev)
	}
	for _, h := range all {
		h(ev)
	}
}
