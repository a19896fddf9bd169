package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub keeps the open notification sockets of each user.
type Hub struct {
	UserClients map[string]map[*websocket.Conn]*Client
	Mutex       sync.RWMutex
}

var H = NewHub()

func NewHub() *Hub {
	return &Hub{UserClients: make(map[string]map[*websocket.Conn]*Client)}
}

type BadgeUpdate struct {
	Type        string `json:"type"`
	UnreadCount int64  `json:"unread_count"`
}

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

func (h *Hub) RegisterUser(userID string, conn *websocket.Conn) *Client {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if _, ok := h.UserClients[userID]; !ok {
		h.UserClients[userID] = make(map[*websocket.Conn]*Client)
	}
	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	h.UserClients[userID][conn] = client

	go h.writePump(client)
	return client
}

func (h *Hub) UnregisterUser(userID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if clients, ok := h.UserClients[userID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.UserClients, userID)
		}
	}
}

// SendToUser queues data on every socket of the user. Slow sockets drop the message.
func (h *Hub) SendToUser(userID string, data []byte) int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	sent := 0
	for _, client := range h.UserClients[userID] {
		select {
		case client.Send <- data:
			sent++
		default:
		}
	}
	return sent
}

func (h *Hub) GetStats() map[string]int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	conns := 0
	for _, clients := range h.UserClients {
		conns += len(clients)
	}
	return map[string]int{
		"users":       len(h.UserClients),
		"connections": conns,
	}
}

func (h *Hub) writePump(client *Client) {
	defer client.Conn.Close()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// SendBadgeUpdate pushes the unread notification count of a user.
func SendBadgeUpdate(userID string, count int64) {
	sendJSONTo(userID, BadgeUpdate{Type: "badge_update", UnreadCount: count})
}

func SendEvent(userID, eventType string, payload interface{}) {
	sendJSONTo(userID, Event{Type: eventType, Payload: payload})
}

func sendJSONTo(userID string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("ws marshal")
		return
	}
	H.SendToUser(userID, data)
}
