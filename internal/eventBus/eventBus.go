package eventBus

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventPlacementStarted  EventType = "PLACEMENT_STARTED"
	EventAnchorReseeded    EventType = "ANCHOR_RESEEDED"
	EventNodePlaced        EventType = "NODE_PLACED"
	EventPlacementFinished EventType = "PLACEMENT_FINISHED"
	EventPlacementFailed   EventType = "PLACEMENT_FAILED"
	EventTopologyAnalysed  EventType = "TOPOLOGY_ANALYSED"
)

// Event holds details that the front end and the collector need.
type Event struct {
	Type        EventType `json:"type"`
	RunID       uuid.UUID `json:"run_id"`
	Iteration   int       `json:"iteration,omitempty"`
	NodeIndex   int       `json:"node_index"`
	ParentIndex int       `json:"parent_index"`
	Attempts    int       `json:"attempts,omitempty"`
	Payload     string    `json:"payload,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
}

// EventBus manages a set of subscribers and publishes events to them.
type EventBus struct {
	subscribers []chan Event
	mu          sync.RWMutex
}

// NewEventBus creates a new EventBus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan Event, 0),
	}
}

// Publish sends an event to all subscribers. A nil bus drops the event.
func (eb *EventBus) Publish(e Event) {
	if eb == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, sub := range eb.subscribers {
		// Use a non-blocking send in case a subscriber is busy.
		select {
		case sub <- e:
		default:
			log.WithField("type", e.Type).Debug("dropping event: subscriber channel is full")
		}
	}
}

// Subscribe returns a new channel that will receive published events.
func (eb *EventBus) Subscribe() chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	ch := make(chan Event, 256)
	eb.subscribers = append(eb.subscribers, ch)
	return ch
}

// Unsubscribe removes ch from the bus and closes it.
func (eb *EventBus) Unsubscribe(ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes every subscriber channel so consumers ranging over them return.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for _, sub := range eb.subscribers {
		close(sub)
	}
	eb.subscribers = nil
}
