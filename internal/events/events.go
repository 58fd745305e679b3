package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Reservation lifecycle event types.
const (
	ReservationCreated  = "reservation.created"
	ReservationUpdated  = "reservation.updated"
	ReservationDeleted  = "reservation.deleted"
	ItemQuantityChanged = "item.quantity_changed"
)

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the event payload into out.
func (e Event) Decode(out any) error {
	return json.Unmarshal(e.Payload, out)
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
		logger:      logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish encodes payload as JSON and notifies subscribers of eventType.
// Handlers run synchronously; a failing handler is logged and does not stop the others.
func (b *EventBus) Publish(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error().Err(err).Str("type", eventType).Msg("failed to encode event payload")
		return
	}

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[eventType]...)
	b.mu.RUnlock()

	event := Event{Type: eventType, Payload: data, CreatedAt: time.Now()}
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("type", eventType).Msg("event handler failed")
		}
	}
}
