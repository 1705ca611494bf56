package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RunEvent describes one finished scheduler run
type RunEvent struct {
	Target    string    `json:"target"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	Took      string    `json:"took"`
	Timestamp time.Time `json:"timestamp"`
}

// RunHub fans run events out to Server-Sent Events clients and remembers the
// last event per target
type RunHub struct {
	clients    map[chan RunEvent]bool
	clientsMu  sync.RWMutex
	register   chan chan RunEvent
	unregister chan chan RunEvent
	broadcast  chan RunEvent

	lastMu sync.RWMutex
	last   map[string]RunEvent
}

// NewRunHub creates a hub whose dispatch loop stops with ctx
func NewRunHub(ctx context.Context) *RunHub {
	hub := &RunHub{
		clients:    make(map[chan RunEvent]bool),
		register:   make(chan chan RunEvent, 10),
		unregister: make(chan chan RunEvent, 10),
		broadcast:  make(chan RunEvent, 100),
		last:       make(map[string]RunEvent),
	}

	go hub.run(ctx)
	return hub
}

func (h *RunHub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client)
			}
			h.clientsMu.Unlock()
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			log.Printf("[SSE] Client registered (total clients: %d)", len(h.clients))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client)
				log.Printf("[SSE] Client unregistered (remaining clients: %d)", len(h.clients))
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for client := range h.clients {
				select {
				case client <- event:
				default:
					log.Printf("[SSE] Client channel full, skipping %s event", event.Target)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Publish records event as the latest for its target and broadcasts it
func (h *RunHub) Publish(event RunEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	h.lastMu.Lock()
	h.last[event.Target] = event
	h.lastMu.Unlock()

	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping %s event", event.Target)
	}
}

// Last returns the most recent event per target
func (h *RunHub) Last() map[string]RunEvent {
	h.lastMu.RLock()
	defer h.lastMu.RUnlock()
	out := make(map[string]RunEvent, len(h.last))
	for k, v := range h.last {
		out[k] = v
	}
	return out
}

// ClientCount returns the number of connected stream clients
func (h *RunHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// HandleSSE streams run events until the client disconnects
func (h *RunHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan RunEvent, 10)
	select {
	case h.register <- clientChan:
	default:
		c.JSON(500, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- clientChan:
		default:
		}
	}()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-clientChan:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("run", string(eventJSON))
			return true

		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}
