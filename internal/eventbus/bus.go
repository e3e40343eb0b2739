// Package eventbus delivers application events to subscribers asynchronously, in publish order.
package eventbus

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"zarafe/internal/logger"
)

type EventType string

const (
	EventsChanged   EventType = "events_changed"
	RecordingLoaded EventType = "recording_loaded"
	SessionSaved    EventType = "session_saved"
	ConfigReloaded  EventType = "config_reloaded"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Recording string
	SessionID uuid.UUID
	Count     int
	Complete  bool
	Err       error
}

type EventHandler interface {
	Handle(event Event)
	GetID() string
}

type handlerFunc struct {
	id string
	fn func(Event)
}

func (h handlerFunc) Handle(e Event) { h.fn(e) }
func (h handlerFunc) GetID() string  { return h.id }

// HandlerFunc wraps fn as an EventHandler with a fresh ID.
func HandlerFunc(fn func(Event)) EventHandler {
	return handlerFunc{id: uuid.NewString(), fn: fn}
}

type Bus struct {
	subscribers map[EventType][]EventHandler
	mu          sync.RWMutex
	buffer      chan Event
	closed      bool
	closeMu     sync.RWMutex
	wg          sync.WaitGroup
	log         logger.Logger
}

func NewBus(bufferSize int, log logger.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	bus := &Bus{
		subscribers: make(map[EventType][]EventHandler),
		buffer:      make(chan Event, bufferSize),
		log:         log,
	}
	bus.startWorker()
	return bus
}

// Publish queues event for delivery. It never blocks: when the buffer is full the event is dropped.
func (b *Bus) Publish(event Event) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return false
	}

	select {
	case b.buffer <- event:
		return true
	default:
		b.log.Warning("eventbus", "event dropped, buffer full", map[string]interface{}{
			"type": string(event.Type),
		})
		return false
	}
}

func (b *Bus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

func (b *Bus) Unsubscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.subscribers[eventType]
	for i, h := range handlers {
		if h.GetID() == handler.GetID() {
			b.subscribers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
			break
		}
	}
}

// Shutdown stops accepting events and waits until the queued ones are delivered.
func (b *Bus) Shutdown() {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return
	}
	b.closed = true
	close(b.buffer)
	b.closeMu.Unlock()

	b.wg.Wait()
}

func (b *Bus) startWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for event := range b.buffer {
			b.dispatchEvent(event)
		}
	}()
}

// dispatchEvent runs the handlers one after another on the worker goroutine, so each handler sees
// events in publish order.
func (b *Bus) dispatchEvent(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.subscribers[event.Type]))
	copy(handlers, b.subscribers[event.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.deliver(handler, event)
	}
}

func (b *Bus) deliver(h EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("eventbus", fmt.Errorf("handler panic: %v", r), map[string]interface{}{
				"type":    string(event.Type),
				"handler": h.GetID(),
			})
		}
	}()
	h.Handle(event)
}
