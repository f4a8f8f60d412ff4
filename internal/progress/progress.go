// Package progress streams a running CBS search to websocket subscribers:
// node expansions, detected conflicts, and the final solution. It adapts
// the observer pattern the teacher's interactive GUI used internally
// (internal/vis/observer in the repo this was adapted from) to a
// network-facing broadcaster instead of an in-process GUI callback.
package progress

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/highlevel"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// EventType tags the kind of Event delivered to subscribers.
type EventType string

const (
	EventNodeExpanded     EventType = "node_expanded"
	EventConflictDetected EventType = "conflict_detected"
	EventSolutionFound    EventType = "solution_found"
)

// Event is one message broadcast to subscribers, serialized as JSON.
type Event struct {
	Type EventType `json:"type"`

	Node *highlevel.NodeInfo `json:"node,omitempty"`
	Conf *mapf.Conflict      `json:"conflict,omitempty"`
	Plan mapf.JointPlan      `json:"plan,omitempty"`
}

// Broadcaster implements highlevel.Hook, fanning events out to every
// currently-connected websocket subscriber. It never blocks CBS on a slow
// subscriber: each subscriber's send channel is buffered, and an event that
// finds it full is dropped for that subscriber only; the subscriber stays
// connected.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	upgrader    websocket.Upgrader
}

// NewBroadcaster returns an empty Broadcaster ready to accept subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: map[chan Event]struct{}{},
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

const subscriberBuffer = 64

func (b *Broadcaster) subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *Broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// Subscriber is behind; drop this event for it rather than
			// stall the search that's feeding the broadcaster.
		}
	}
}

// OnNodeExpanded implements highlevel.Hook.
func (b *Broadcaster) OnNodeExpanded(n highlevel.NodeInfo) {
	b.publish(Event{Type: EventNodeExpanded, Node: &n})
}

// OnConflictDetected implements highlevel.Hook.
func (b *Broadcaster) OnConflictDetected(c mapf.Conflict) {
	b.publish(Event{Type: EventConflictDetected, Conf: &c})
}

// OnSolutionFound implements highlevel.Hook.
func (b *Broadcaster) OnSolutionFound(plan mapf.JointPlan) {
	b.publish(Event{Type: EventSolutionFound, Plan: plan})
}

// ServeHTTP upgrades the request to a websocket and streams every
// subsequent Event to it as JSON until the connection closes.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	for e := range ch {
		payload, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
