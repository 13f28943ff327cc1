package events

import (
	"sync"
)

// DefaultBufferSize is the subscriber channel buffer used when none is given.
const DefaultBufferSize = 256

// EventBus is a channel-based pub-sub bus. Task observers subscribe to a
// per-task topic, the monitor subscribes to all topics. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type EventBus struct {
	mu           sync.RWMutex
	subs         map[string][]chan Event
	allSubs      []chan Event
	closedTopics map[string]bool
	closed       bool
}

// NewEventBus creates an open bus with no subscribers.
func NewEventBus() *EventBus {
	return &EventBus{
		subs:         make(map[string][]chan Event),
		closedTopics: make(map[string]bool),
	}
}

// Subscribe returns a channel receiving events published to topic.
// Subscribing to a topic that was already closed (a terminal task) yields a
// closed channel, so consumers can range over it uniformly.
func (b *EventBus) Subscribe(topic string, bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	ch := make(chan Event, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.closedTopics[topic] {
		close(ch)
		return ch
	}

	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

// SubscribeAll returns a channel receiving events from every topic.
func (b *EventBus) SubscribeAll(bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	ch := make(chan Event, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}

	b.allSubs = append(b.allSubs, ch)
	return ch
}

// Publish delivers event to topic subscribers and all-topic subscribers.
// Full subscriber buffers drop the event rather than stalling the publisher.
func (b *EventBus) Publish(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
		}
	}

	for _, ch := range b.allSubs {
		select {
		case ch <- event:
		default:
		}
	}
}

// CloseTopic closes every subscriber of topic and releases its entries.
// Called by the scheduler once a task's terminal event has been published so
// observer channels end instead of idling forever. Idempotent.
func (b *EventBus) CloseTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.closedTopics[topic] {
		return
	}

	for _, ch := range b.subs[topic] {
		close(ch)
	}
	delete(b.subs, topic)
	b.closedTopics[topic] = true
}

// SubscriberCount returns the live subscriber count for topic.
func (b *EventBus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close closes the bus and every subscriber channel. Idempotent.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.allSubs {
		close(ch)
	}
	b.subs = nil
	b.allSubs = nil
}
