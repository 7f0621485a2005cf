package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"communityhub/internal/metrics"
	"communityhub/pkg/logger"
	"communityhub/pkg/utils"
)

// Manager tracks every open connection, grouped by user and by chat room.
// A user may hold several connections; each one focuses a single room.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
	metrics    *metrics.Metrics
}

func NewManager(m *metrics.Metrics) *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		metrics:    m,
	}
}

// Start runs the manager's main loop until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.addClient(client)
			case client := <-m.Unregister:
				m.removeClient(client)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) addClient(c *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[c.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		m.clients[c.UserID] = conns
	}
	conns[c] = struct{}{}
	m.metrics.ConnectionOpened()
	logger.Debug("Client registered: %s (%d connections)", c.UserID, len(conns))
}

func (m *Manager) removeClient(c *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}

	delete(conns, c)
	if len(conns) == 0 {
		delete(m.clients, c.UserID)
	}
	for chatID := range m.rooms {
		m.leaveLocked(chatID, c)
	}
	close(c.Send)
	m.metrics.ConnectionClosed()
	logger.Debug("Client unregistered: %s", c.UserID)
}

func (m *Manager) hasOtherConnections(c *Client) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for other := range m.clients[c.UserID] {
		if other != c {
			return true
		}
	}
	return false
}

// JoinRoom moves c into chatID, leaving any room it was in.
func (m *Manager) JoinRoom(chatID string, c *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[c.UserID][c]; !ok {
		return
	}
	for id := range m.rooms {
		if id != chatID {
			m.leaveLocked(id, c)
		}
	}

	room, ok := m.rooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		m.rooms[chatID] = room
	}
	room[c] = struct{}{}
}

func (m *Manager) LeaveRoom(chatID string, c *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.leaveLocked(chatID, c)
}

func (m *Manager) leaveLocked(chatID string, c *Client) {
	room, ok := m.rooms[chatID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(m.rooms, chatID)
	}
}

// SendToUser pushes an event to every connection of userID.
func (m *Manager) SendToUser(userID, eventType string, data interface{}) {
	payload, ok := encode(Event{Type: eventType, Data: data})
	if !ok {
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for c := range m.clients[userID] {
		m.enqueueLocked(c, payload)
	}
}

// BroadcastToChat pushes an event to the chat room, skipping exceptUserID.
func (m *Manager) BroadcastToChat(chatID, eventType string, data interface{}, exceptUserID string) {
	payload, ok := encode(Event{Type: eventType, ChatID: chatID, Data: data})
	if !ok {
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for c := range m.rooms[chatID] {
		if c.UserID == exceptUserID {
			continue
		}
		m.enqueueLocked(c, payload)
	}
}

// deliver sends ev to a single connection if it is still registered.
func (m *Manager) deliver(c *Client, ev Event) {
	payload, ok := encode(ev)
	if !ok {
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if _, ok := m.clients[c.UserID][c]; ok {
		m.enqueueLocked(c, payload)
	}
}

// enqueueLocked never blocks; a full buffer drops the frame for that client.
func (m *Manager) enqueueLocked(c *Client, payload []byte) {
	select {
	case c.Send <- payload:
	default:
		logger.Warn("WebSocket: send buffer full for %s, dropping frame", c.UserID)
	}
}

func encode(ev Event) ([]byte, bool) {
	if ev.Timestamp == 0 {
		ev.Timestamp = utils.NowMillis()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s event: %v", ev.Type, err)
		return nil, false
	}
	return payload, true
}
