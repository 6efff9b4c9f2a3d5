// Package ws fans processed events out to live stream subscribers over
// websocket and SSE.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
)

// AllAgents subscribes a client to every agent's events.
const AllAgents = "*"

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub manages event stream subscriptions by agent ID.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

type message struct {
	agentID string
	payload []byte
}

type subscription struct {
	agentID string
	client  Subscriber
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.agentID]; !ok {
				h.clients[sub.agentID] = make(map[Subscriber]struct{})
			}
			h.clients[sub.agentID][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.agentID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.agentID)
				}
			}
		case msg := <-h.broadcast:
			h.deliver(msg.agentID, msg.payload)
			if msg.agentID != AllAgents {
				h.deliver(AllAgents, msg.payload)
			}
		}
	}
}

func (h *Hub) deliver(key string, payload []byte) {
	clients, ok := h.clients[key]
	if !ok {
		return
	}
	for c := range clients {
		if err := c.Send(payload); err != nil {
			c.Close()
			delete(clients, c)
		}
	}
	if len(clients) == 0 {
		delete(h.clients, key)
	}
}

// Register adds a client to an agent's stream. Use AllAgents to follow
// every agent.
func (h *Hub) Register(agentID string, client Subscriber) {
	h.register <- subscription{agentID: agentID, client: client}
}

// Unregister removes a client.
func (h *Hub) Unregister(agentID string, client Subscriber) {
	h.unreg <- subscription{agentID: agentID, client: client}
}

// Broadcast sends payload to the agent's subscribers and to wildcard
// subscribers.
func (h *Hub) Broadcast(agentID string, payload []byte) {
	h.broadcast <- message{agentID: agentID, payload: payload}
}

// BroadcastEvent publishes a processed event as a JSON frame.
func (h *Hub) BroadcastEvent(ev *domain.Event) {
	payload, err := json.Marshal(map[string]any{
		"id":         ev.ID,
		"timestamp":  ev.Timestamp.UTC().Format(time.RFC3339Nano),
		"agent_id":   ev.AgentID,
		"event_type": ev.EventType,
		"level":      ev.Level,
		"channel":    ev.Channel,
		"session_id": ev.SessionID,
		"is_error":   ev.IsError(),
	})
	if err != nil {
		return
	}
	h.Broadcast(ev.AgentID, payload)
}
