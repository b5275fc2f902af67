package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a connected WebSocket client
type Client struct {
	Hub      *Hub
	UserID   uint
	UserType string // "customer" or "worker"
	Conn     *websocket.Conn
	Send     chan []byte
}

// Hub manages all WebSocket connections and pushes booking events
type Hub struct {
	// Registered clients keyed by user ID
	Clients map[uint]*Client

	// Broadcast channel for events to all clients
	Broadcast chan *Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mu sync.RWMutex
}

// Event is one pushed notification
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[uint]*Client),
		Broadcast:  make(chan *Event),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("🔌 Client registered: ID=%d, Type=%s", client.UserID, client.UserType)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; ok {
				delete(h.Clients, client.UserID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Client unregistered: ID=%d, Type=%s", client.UserID, client.UserType)

		case event := <-h.Broadcast:
			h.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends an event to all connected clients
func (h *Hub) broadcastEvent(event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Error marshaling event: %v", err)
		return
	}

	for _, client := range h.Clients {
		select {
		case client.Send <- data:
		default:
			close(client.Send)
			delete(h.Clients, client.UserID)
		}
	}
}

// SendToUser sends an event to a specific connected user
func (h *Hub) SendToUser(userID uint, event *Event) {
	h.mu.RLock()
	client, exists := h.Clients[userID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Error marshaling event: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("⚠️ User %d's send buffer is full", userID)
	}
}

// NotifyBookingRequested pushes a new booking request to the assigned worker
func (h *Hub) NotifyBookingRequested(workerUserID uint, payload interface{}) {
	h.SendToUser(workerUserID, &Event{
		Type:      "booking_requested",
		Timestamp: time.Now(),
		Data:      payload,
	})
}

// NotifyBookingUpdated pushes a status change to the customer
func (h *Hub) NotifyBookingUpdated(customerUserID uint, payload interface{}) {
	h.SendToUser(customerUserID, &Event{
		Type:      "booking_updated",
		Timestamp: time.Now(),
		Data:      payload,
	})
}
