// Package events provides the orchestration kernel's event bus: typed
// pub/sub with backpressure control and a priority path for events that
// must never be dropped.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is the base interface implemented by every published event.
type Event interface {
	EventType() string
	Timestamp() time.Time
	TaskID() string
}

// BaseEvent provides the fields common to every event. Per-task ordering
// (spec'd at the task-mutex level) makes TaskID, not a project or workflow
// identifier, the natural routing and filtering key here.
type BaseEvent struct {
	Type string    `json:"type"`
	Time time.Time `json:"timestamp"`
	Task string    `json:"task_id"`
}

func (e BaseEvent) EventType() string    { return e.Type }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) TaskID() string       { return e.Task }

// NewBaseEvent creates a BaseEvent for the given type and task.
func NewBaseEvent(eventType, taskID string) BaseEvent {
	return BaseEvent{Type: eventType, Time: time.Now(), Task: taskID}
}

// Subscriber represents a single subscription.
type Subscriber struct {
	ch       chan Event
	types    map[string]bool // empty means all types
	priority bool
}

// EventBus routes published events to matching subscribers.
type EventBus struct {
	mu           sync.RWMutex
	subscribers  []*Subscriber
	prioritySubs []*Subscriber
	bufferSize   int
	droppedCount int64
	closed       bool
}

// New creates an EventBus with the given per-subscriber buffer size.
func New(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{bufferSize: bufferSize}
}

// Subscribe creates a subscription for the given event types. With no
// types given, the subscription receives every event. Publish never
// blocks on this channel: a full buffer drops the oldest queued event.
func (eb *EventBus) Subscribe(types ...string) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	sub := &Subscriber{ch: make(chan Event, eb.bufferSize), types: toTypeSet(types)}
	eb.subscribers = append(eb.subscribers, sub)
	return sub.ch
}

// SubscribePriority creates a subscription that PublishPriority delivers
// to with a blocking send, for events (workflow failures, rollback
// failures) that must never be silently dropped.
func (eb *EventBus) SubscribePriority(types ...string) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	sub := &Subscriber{ch: make(chan Event, 50), types: toTypeSet(types), priority: true}
	eb.prioritySubs = append(eb.prioritySubs, sub)
	return sub.ch
}

func toTypeSet(types []string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// Unsubscribe removes a subscription and closes its channel.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = removeSubscriber(eb.subscribers, ch)
	eb.prioritySubs = removeSubscriber(eb.prioritySubs, ch)
}

func removeSubscriber(subs []*Subscriber, ch <-chan Event) []*Subscriber {
	result := make([]*Subscriber, 0, len(subs))
	for _, sub := range subs {
		if sub.ch == ch {
			close(sub.ch)
			continue
		}
		result = append(result, sub)
	}
	return result
}

// Publish delivers event to every matching regular subscriber, dropping
// the oldest buffered event for any subscriber whose buffer is full.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return
	}
	eventType := event.EventType()
	for _, sub := range eb.subscribers {
		if matchesType(sub, eventType) {
			eb.deliverWithRingBuffer(sub, event)
		}
	}
}

func matchesType(sub *Subscriber, eventType string) bool {
	return len(sub.types) == 0 || sub.types[eventType]
}

func (eb *EventBus) deliverWithRingBuffer(sub *Subscriber, event Event) {
	select {
	case sub.ch <- event:
		return
	default:
	}
	select {
	case <-sub.ch:
		atomic.AddInt64(&eb.droppedCount, 1)
	default:
	}
	select {
	case sub.ch <- event:
	default:
		atomic.AddInt64(&eb.droppedCount, 1)
	}
}

// PublishPriority delivers event to regular subscribers the same way
// Publish does, then blocks delivering it to every priority subscriber.
func (eb *EventBus) PublishPriority(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return
	}
	eventType := event.EventType()
	for _, sub := range eb.subscribers {
		if matchesType(sub, eventType) {
			eb.deliverWithRingBuffer(sub, event)
		}
	}
	for _, sub := range eb.prioritySubs {
		if matchesType(sub, eventType) {
			sub.ch <- event
		}
	}
}

// DroppedCount returns the number of events dropped from full
// non-priority subscriber buffers so far.
func (eb *EventBus) DroppedCount() int64 {
	return atomic.LoadInt64(&eb.droppedCount)
}

// Close shuts the bus down, closing every subscriber channel. Publish and
// PublishPriority become no-ops afterward.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	for _, sub := range eb.subscribers {
		close(sub.ch)
	}
	for _, sub := range eb.prioritySubs {
		close(sub.ch)
	}
	eb.subscribers = nil
	eb.prioritySubs = nil
}
