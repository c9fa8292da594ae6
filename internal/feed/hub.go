// Package feed broadcasts complaint lifecycle events to connected staff
// dashboard clients over WebSocket. The hub owns the client set; clients
// come and go through the register/unregister channels.
package feed

import (
	"log"
	"time"
)

// Event types published by intake and the card lifecycle.
const (
	EventCreated  = "created"
	EventTaken    = "taken"
	EventDeclined = "declined"
	EventDone     = "done"
	EventClosed   = "closed"
)

// Event is one complaint lifecycle change.
type Event struct {
	Type        string    `json:"type"`
	ComplaintID string    `json:"complaint_id"`
	Status      string    `json:"status"`
	Category    string    `json:"category,omitempty"`
	AssigneeID  *int64    `json:"assignee_id,omitempty"`
	At          time.Time `json:"at"`
}

// Hub fans events out to every registered client.
type Hub struct {
	RegisterCh   chan *Client
	UnregisterCh chan *Client
	BroadcastCh  chan Event

	clients map[*Client]bool
}

// NewHub creates an empty hub. Call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		RegisterCh:   make(chan *Client),
		UnregisterCh: make(chan *Client),
		BroadcastCh:  make(chan Event, 64),
		clients:      make(map[*Client]bool),
	}
}

// Run is the hub's dispatch loop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.RegisterCh:
			h.clients[c] = true
			log.Printf("feed: client registered (%d connected)", len(h.clients))
		case c := <-h.UnregisterCh:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Close()
			}
		case e := <-h.BroadcastCh:
			for c := range h.clients {
				select {
				case c.Send <- e:
				default:
					// Slow consumer: drop it rather than stall the hub.
					delete(h.clients, c)
					c.Close()
				}
			}
		}
	}
}

// Publish enqueues an event without ever blocking a bot handler; if the
// buffer is full the event is dropped and logged.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case h.BroadcastCh <- e:
	default:
		log.Printf("WARN: feed buffer full, dropping %s event for %s", e.Type, e.ComplaintID)
	}
}
