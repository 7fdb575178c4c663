package relay

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// clientBuffer is the number of messages queued per client before the hub
// starts dropping for it.
const clientBuffer = 16

// mirrorBuffer bounds the events waiting for the mirrors.
const mirrorBuffer = 64

// Mirror receives a copy of every broadcast event. Publish runs on the
// hub's forwarding goroutine, in broadcast order.
type Mirror interface {
	Publish(event string, payload []byte) error
}

// Client is one registered receiver. Messages arrive on Send; the hub closes
// it when the client is unregistered.
type Client struct {
	ID   string
	send chan []byte
}

func (c *Client) Send() <-chan []byte { return c.send }

// Hub fans broadcast messages out to every registered client. Sends never
// block: a client whose buffer is full misses the message and the drop is
// counted.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	mirrors []Mirror
	mirrorQ chan mirrored
	closed  bool

	broadcasts    uint64
	dropped       map[string]uint64
	mirrorDropped uint64
}

type mirrored struct {
	event string
	msg   []byte
}

func NewHub(mirrors ...Mirror) *Hub {
	h := &Hub{
		clients: make(map[string]*Client),
		mirrors: mirrors,
		dropped: make(map[string]uint64),
	}
	if len(mirrors) > 0 {
		h.mirrorQ = make(chan mirrored, mirrorBuffer)
		go h.forward(h.mirrorQ)
	}
	return h
}

// forward publishes queued events until the hub closes the queue.
func (h *Hub) forward(q <-chan mirrored) {
	for ev := range q {
		for _, m := range h.mirrors {
			if err := m.Publish(ev.event, ev.msg); err != nil {
				slog.Warn("relay: mirror publish failed", "event", ev.event, "error", err)
			}
		}
	}
}

func (h *Hub) Register() (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	c := &Client{ID: uuid.New().String(), send: make(chan []byte, clientBuffer)}
	h.clients[c.ID] = c
	h.dropped[c.ID] = 0

	slog.Info("relay: client registered", "client_id", c.ID, "total_clients", len(h.clients))
	return c, nil
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	delete(h.dropped, c.ID)
	close(c.send)

	slog.Info("relay: client unregistered", "client_id", c.ID, "total_clients", len(h.clients))
}

// Broadcast queues msg for every client and for the mirrors. It never waits
// on a mirror: when the mirror queue is full the event is dropped for them.
func (h *Hub) Broadcast(event string, msg []byte) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped[id]++
			slog.Debug("relay: message dropped for client", "client_id", id, "event", event)
		}
	}
	h.broadcasts++
	if h.mirrorQ != nil {
		select {
		case h.mirrorQ <- mirrored{event, msg}:
		default:
			h.mirrorDropped++
			slog.Warn("relay: mirror queue full, event dropped", "event", event)
		}
	}
	h.mu.Unlock()
	return nil
}

// Close unregisters every client. Later broadcasts and registrations fail
// with ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	if h.mirrorQ != nil {
		close(h.mirrorQ)
	}
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
		delete(h.dropped, id)
	}
}

type HubStats struct {
	Clients       int
	Broadcasts    uint64
	Dropped       map[string]uint64
	MirrorDropped uint64
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := make(map[string]uint64, len(h.dropped))
	for k, v := range h.dropped {
		dropped[k] = v
	}
	return HubStats{
		Clients:       len(h.clients),
		Broadcasts:    h.broadcasts,
		Dropped:       dropped,
		MirrorDropped: h.mirrorDropped,
	}
}
