package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/gorilla/websocket"
)

// Event is the envelope written to every subscriber.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const EventNewMessage = "newMessage"

type Client struct {
	UserID uint
	Send   chan []byte
	Conn   *websocket.Conn
}

// Hub is a single broadcast topic: every published event goes to every
// connected session, not just conversation participants. Clients filter
// incoming events for relevance themselves.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
		case data := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- data:
				default:
					// a full buffer means a slow or dead subscriber;
					// drop it rather than hold up everyone else
					delete(h.clients, client)
					close(client.Send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishNewMessage pushes a message-created event to all sessions.
// Fire-and-forget: delivery failures never reach the publisher.
func (h *Hub) PublishNewMessage(ev models.NewMessageEvent) {
	data, err := json.Marshal(Event{Type: EventNewMessage, Data: ev})
	if err != nil {
		log.Printf("PublishNewMessage marshal error: %v", err)
		return
	}
	h.Broadcast <- data
}

// ClientCount reports how many sessions are currently subscribed.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
