package sse

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/kbukum/flowpipe/logger"
	"github.com/kbukum/flowpipe/observability"
)

const clientBuffer = 256

// Client is one subscribed connection.
type Client struct {
	id      string
	pattern string
	events  chan Event
}

// NewClient creates a client following topics that match pattern.
func NewClient(id, pattern string) *Client {
	return &Client{
		id:      id,
		pattern: pattern,
		events:  make(chan Event, clientBuffer),
	}
}

// ID returns the client id.
func (c *Client) ID() string { return c.id }

// Pattern returns the topic pattern the client follows.
func (c *Client) Pattern() string { return c.pattern }

// Events returns the channel the client reads from. It is closed when the
// client is unregistered or the hub stops.
func (c *Client) Events() <-chan Event { return c.events }

// send queues e without blocking. A full buffer drops the event.
func (c *Client) send(e Event) bool {
	select {
	case c.events <- e:
		return true
	default:
		logger.Warn("[SSE] Client buffer full, dropping event", map[string]interface{}{
			"client_id": c.id,
			"event":     e.Type,
		})
		return false
	}
}

type message struct {
	topic string
	event Event
}

// Hub routes published events to matching clients. All client bookkeeping
// happens on the goroutine running Run.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	publish    chan message
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	mu         sync.RWMutex
	dropped    atomic.Int64
}

// NewHub creates a hub. Call Run (or Start) before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan message, clientBuffer),
		done:       make(chan struct{}),
	}
}

// Run routes events until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			logger.Debug("[SSE_HUB] Client registered", map[string]interface{}{
				"client_id":     c.id,
				"pattern":       c.pattern,
				"total_clients": n,
			})

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.events)
			}
			h.mu.Unlock()

		case m := <-h.publish:
			h.route(m)
		}
	}
}

// Start runs the hub on its own goroutine.
func (h *Hub) Start(context.Context) error {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.Run()
	}()
	return nil
}

// Stop closes every client and ends Run. Safe to call more than once.
func (h *Hub) Stop(context.Context) error {
	h.stopOnce.Do(func() { close(h.done) })
	h.wg.Wait()
	return nil
}

// Register subscribes c. It returns false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues e for every client whose pattern matches topic. Events
// published after Stop are discarded.
func (h *Hub) Publish(topic string, e Event) {
	select {
	case h.publish <- message{topic: topic, event: e}:
	case <-h.done:
	}
}

func (h *Hub) route(m message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		matched, err := filepath.Match(c.pattern, m.topic)
		if err != nil {
			logger.Error("[SSE_HUB] Bad client pattern", map[string]interface{}{
				"client_id":       c.id,
				"pattern":         c.pattern,
				logger.FieldError: err.Error(),
			})
			continue
		}
		if matched && !c.send(m.event) {
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.events)
		delete(h.clients, id)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CheckHealth reports the hub as down once stopped and as degraded once a
// slow client has missed events.
func (h *Hub) CheckHealth(context.Context) observability.Health {
	dropped := h.dropped.Load()
	health := observability.Health{
		Name:   "events",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"clients": strconv.Itoa(h.ClientCount()),
			"dropped": strconv.FormatInt(dropped, 10),
		},
	}
	if dropped > 0 {
		health.Status = observability.HealthStatusDegraded
		health.Message = "events dropped for slow clients"
	}
	select {
	case <-h.done:
		health.Status = observability.HealthStatusDown
		health.Message = "hub stopped"
	default:
	}
	return health
}
