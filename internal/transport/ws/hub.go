package ws

import (
	"encoding/json"
	"sync"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
)

// MessageType defines the type of WebSocket message
type MessageType string

// MsgConnected is sent once a subscriber is registered. Other message
// types are the service events passed through BroadcastToPurchase.
const MsgConnected MessageType = "connected"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans purchase events out to the owner's open connections
type Hub struct {
	// purchase public ID -> connections
	conns map[string]map[*Connection]bool

	mu  sync.RWMutex
	log *logger.Logger

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	PurchaseID string
	UserID     string
	Send       chan []byte
	Hub        *Hub
}

// BroadcastMessage is a message for every subscriber of a purchase
type BroadcastMessage struct {
	PurchaseID string
	Message    *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]bool),
		log:        log.Component("ws"),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.PurchaseID] == nil {
				h.conns[conn.PurchaseID] = make(map[*Connection]bool)
			}
			h.conns[conn.PurchaseID][conn] = true
			h.mu.Unlock()

			data, _ := json.Marshal(&Message{Type: MsgConnected, Payload: json.RawMessage(`{}`)})
			deliver(conn, data)
			h.log.WithField("public_id", conn.PurchaseID).WithField("user_id", conn.UserID).Debug("subscriber connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.conns[conn.PurchaseID]; ok && subs[conn] {
				delete(subs, conn)
				close(conn.Send)
				if len(subs) == 0 {
					delete(h.conns, conn.PurchaseID)
				}
				h.log.WithField("public_id", conn.PurchaseID).Debug("subscriber disconnected")
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.WithError(err).Warn("failed to encode broadcast")
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.PurchaseID] {
				deliver(conn, data)
			}
			h.mu.RUnlock()
		}
	}
}

// deliver drops the message when the connection buffer is full
func deliver(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Subscribers counts the open connections of a purchase
func (h *Hub) Subscribers(purchaseID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[purchaseID])
}

// BroadcastToPurchase sends an event to every subscriber of a purchase (implements service.Broadcaster)
func (h *Hub) BroadcastToPurchase(purchaseID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).Warn("failed to encode payload")
		return
	}
	h.broadcast <- &BroadcastMessage{
		PurchaseID: purchaseID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
