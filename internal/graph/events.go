package graph

import (
	"context"
	"sync"
	"time"
)

type EventType string

const (
	EventNodeAdded        EventType = "node.added"
	EventNodeUpdated      EventType = "node.updated"
	EventNodeRemoved      EventType = "node.removed"
	EventNodesReplaced    EventType = "nodes.replaced"
	EventEdgeAdded        EventType = "edge.added"
	EventEdgeRemoved      EventType = "edge.removed"
	EventEdgesReplaced    EventType = "edges.replaced"
	EventSelectionChanged EventType = "selection.changed"
	EventChatAppended     EventType = "chat.appended"
	EventChatCleared      EventType = "chat.cleared"
	EventExecutionChanged EventType = "execution.changed"
	EventGraphReplaced    EventType = "graph.replaced"
)

// Event describes one store mutation. ID is the node, edge, message or
// execution the mutation touched, when there is a single one.
type Event struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type EventHandler func(Event)

// EventBus fans store events out to subscribers synchronously.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[int]EventHandler
	next     int
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[int]EventHandler)}
}

// Subscribe registers handler and returns a function that removes it.
func (b *EventBus) Subscribe(handler EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(event)
	}
}

// Channel delivers events into a buffered channel until ctx is done. Events
// that do not fit the buffer are dropped.
func (b *EventBus) Channel(ctx context.Context, bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	var mu sync.Mutex
	closed := false
	unsubscribe := b.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

// Reset drops every subscriber.
func (b *EventBus) Reset() {
	b.mu.Lock()
	b.handlers = make(map[int]EventHandler)
	b.mu.Unlock()
}
