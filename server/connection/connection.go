// Package connection tracks the live websocket clients and fans
// outbound payloads to them.
package connection

import (
	"sync"

	"github.com/gorilla/websocket"
)

// sendBuffer bounds the per-client outbound queue. A client that cannot
// drain it loses messages rather than stalling the tables.
const sendBuffer = 256

// Client is one connected player. The connection ID doubles as the
// seat ID at the table the client sits at.
type Client struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	TableID string
}

// NewClient wraps an upgraded websocket connection
func NewClient(id string, conn *websocket.Conn, tableID string) *Client {
	return &Client{
		ID:      id,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		TableID: tableID,
	}
}

// Manager handles all client connections
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

// NewManager creates a new connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start begins processing connection events
func (m *Manager) Start() {
	for {
		select {
		case client := <-m.Register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.mutex.Unlock()
		case client := <-m.Unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				close(client.Send)
			}
			m.mutex.Unlock()
		}
	}
}

// SendToClient queues a message for one client. The send never blocks;
// a full queue drops the message and reports false.
func (m *Manager) SendToClient(clientID string, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	client, ok := m.clients[clientID]
	if !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}

// SendToTable queues a message for every client at a table
func (m *Manager) SendToTable(tableID string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		if client.TableID != tableID {
			continue
		}
		select {
		case client.Send <- message:
		default:
		}
	}
}

// ClientCount returns the number of registered clients
func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}
