package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types pushed to connected clients.
const (
	EventSaleCreated     = "sale.created"
	EventSaleUpdated     = "sale.updated"
	EventSaleDeleted     = "sale.deleted"
	EventInstallmentPaid = "installment.paid"
	EventDaybookCreated  = "daybook.created"
	EventLedgerCreated   = "ledger.created"
	EventPurchaseCreated = "purchase.created"
)

// Event is the envelope written to every websocket client.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type userEvent struct {
	UserID uuid.UUID
	Event  Event
}

// Hub keeps one room of connections per user. Every event is scoped to the
// user who owns the data, so two accounts never see each other's updates.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *userEvent

	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.userID] == nil {
				h.rooms[client.userID] = make(map[*Client]bool)
			}
			h.rooms[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			message, err := json.Marshal(ev.Event)
			if err != nil {
				zap.L().Error("marshal websocket event", zap.String("type", ev.Event.Type), zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[ev.UserID] {
				select {
				case client.send <- message:
				default:
					// slow consumer
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// subscribe hands c to Run. It reports false once the hub has stopped.
func (h *Hub) subscribe(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// unsubscribe hands c to Run for removal. After shutdown Run has already
// closed every client, so there is nothing left to do.
func (h *Hub) unsubscribe(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// removeLocked drops a client from its room. Callers hold h.mu.
func (h *Hub) removeLocked(c *Client) {
	clients, ok := h.rooms[c.userID]
	if !ok {
		return
	}
	if _, exists := clients[c]; !exists {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.userID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.rooms {
		for c := range clients {
			close(c.send)
		}
		delete(h.rooms, userID)
	}
}

// ClientCount returns the number of open connections for a user.
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// BroadcastToUser queues an event for every connection of userID. It never
// blocks the caller: when the queue is full the event is dropped.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &userEvent{UserID: userID, Event: event}:
	default:
		zap.L().Warn("websocket broadcast queue full, dropping event",
			zap.String("type", event.Type), zap.String("user_id", userID.String()))
	}
}

// Publish marshals payload and broadcasts it under eventType. A nil hub is a
// no-op so callers can run without realtime updates.
func (h *Hub) Publish(userID uuid.UUID, eventType string, payload any) {
	if h == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("marshal websocket payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.BroadcastToUser(userID, Event{Type: eventType, Payload: raw})
}
