// Package events provides the fire-and-forget notification bus.
//
// Delivery is at-most-once and best-effort: emitting never blocks the
// caller, a full queue drops the event with a log line, and subscriber
// errors are logged and swallowed. Nothing in the ledger's write paths may
// fail because a notification did.
package events

import (
	"log/slog"
	"sync"
)

// Topics emitted by the ledger.
const (
	DisbursementCreated   = "disbursement.created"
	DisbursementCompleted = "disbursement.completed"
)

// Event is one notification.
type Event struct {
	Topic   string
	Payload any
}

// Handler consumes one event. Handlers run on the emitter's dispatch
// goroutine and should hand long work off themselves.
type Handler func(Event)

// Emitter is an in-process pub/sub bus.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	queue    chan Event
	done     chan struct{}
	closed   sync.Once
}

// NewEmitter starts an emitter with the given queue depth.
func NewEmitter(buffer int) *Emitter {
	if buffer < 1 {
		buffer = 64
	}
	e := &Emitter{
		handlers: make(map[string][]Handler),
		queue:    make(chan Event, buffer),
		done:     make(chan struct{}),
	}
	go e.dispatch()
	return e
}

// Subscribe registers a handler for a topic.
func (e *Emitter) Subscribe(topic string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[topic] = append(e.handlers[topic], h)
}

// Emit queues an event without blocking. A full queue drops the event.
func (e *Emitter) Emit(topic string, payload any) {
	select {
	case e.queue <- Event{Topic: topic, Payload: payload}:
	default:
		slog.Warn("event queue full, dropping event", "topic", topic)
	}
}

func (e *Emitter) dispatch() {
	for {
		select {
		case ev := <-e.queue:
			e.mu.RLock()
			hs := e.handlers[ev.Topic]
			e.mu.RUnlock()
			for _, h := range hs {
				e.deliver(h, ev)
			}
		case <-e.done:
			return
		}
	}
}

func (e *Emitter) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "topic", ev.Topic, "panic", r)
		}
	}()
	h(ev)
}

// Close stops the dispatch goroutine. Queued events are discarded.
func (e *Emitter) Close() {
	e.closed.Do(func() { close(e.done) })
}
