package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans reservation events out to every connected websocket client.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> remote address
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

// Register adds a connection to the broadcast set.
func (h *Hub) Register(conn *websocket.Conn, remote string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = remote
	utils.InfoLogger.Printf("Event feed client connected: %s (%d clients)", remote, len(h.clients))
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.remove(conn)
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish implements services.EventPublisher.
func (h *Hub) Publish(event string, data interface{}) {
	h.broadcast(Message{Event: event, Data: data})
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling %s event: %v", msg.Event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, remote := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Dropping event feed client %s: %v", remote, err)
			h.remove(conn)
		}
	}
}

// remove expects h.mutex to be held.
func (h *Hub) remove(conn *websocket.Conn) {
	if remote, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		utils.InfoLogger.Printf("Event feed client disconnected: %s", remote)
	}
	conn.Close()
}
