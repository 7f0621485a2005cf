package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"communityhub/internal/domain/chatview"
	"communityhub/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 64

	// Domain calls triggered by a frame run detached from the connection.
	sessionTimeout = 10 * time.Second
)

// Client represents a WebSocket connection client
type Client struct {
	UserID  string
	Conn    *websocket.Conn
	Send    chan []byte
	manager *Manager
	session SessionHandler

	// guard drops join results that resolve after the client switched chats.
	guard chatview.Guard
}

func NewClient(conn *websocket.Conn, userID string, manager *Manager, session SessionHandler) *Client {
	return &Client{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, sendBufferSize),
		manager: manager,
		session: session,
	}
}

// ReadPump reads frames until the connection closes, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		active := c.guard.Active()
		c.guard.Clear()
		c.manager.Unregister <- c
		c.Conn.Close()
		c.disconnected(active)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	c.session.Connected(ctx, c.UserID)
	cancel()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithFields(logrus.Fields{"user_id": c.UserID}).Errorf("WebSocket read error: %v", err)
			}
			return
		}
		c.handle(message)
	}
}

// WritePump sends queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("WebSocket write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(raw []byte) {
	ev, err := parseEvent(raw)
	if err != nil {
		c.sendError("", "Invalid message format")
		return
	}

	switch ev.Type {
	case EventPing:
		ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
		c.session.Heartbeat(ctx, c.UserID)
		cancel()
		c.manager.deliver(c, Event{Type: EventPong})

	case EventJoinChat:
		if ev.ChatID == "" {
			c.sendError("", "Missing chat_id")
			return
		}
		c.join(ev.ChatID)

	case EventLeaveChat:
		if ev.ChatID == "" || c.guard.Active() != ev.ChatID {
			return
		}
		c.guard.Clear()
		c.manager.LeaveRoom(ev.ChatID, c)
		c.manager.BroadcastToChat(ev.ChatID, EventPresence, PresenceData{UserID: c.UserID, Online: false}, c.UserID)

	case EventMarkRead:
		chatID := ev.ChatID
		if chatID == "" {
			chatID = c.guard.Active()
		}
		if chatID == "" {
			c.sendError("", "Missing chat_id")
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
			defer cancel()
			if err := c.session.MarkChatRead(ctx, c.UserID, chatID); err != nil {
				c.sendError(chatID, err.Error())
			}
		}()

	default:
		c.sendError("", "Unknown message type")
	}
}

// join focuses chatID. The membership check runs asynchronously; its result
// is applied only if the client has not switched context in the meantime.
func (c *Client) join(chatID string) {
	previous := c.guard.Active()
	ticket := c.guard.Begin(chatID, c.UserID)
	if previous != "" && previous != chatID {
		c.manager.LeaveRoom(previous, c)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
		defer cancel()

		count, err := c.session.JoinChat(ctx, c.UserID, chatID)
		if err != nil {
			if c.guard.ClearIf(ticket) {
				c.sendError(chatID, err.Error())
			}
			return
		}

		joined := c.guard.AcceptAndApply(ticket, func() {
			c.manager.JoinRoom(chatID, c)
		})
		if !joined {
			logger.Debug("WebSocket: dropping stale join of %s for %s", chatID, c.UserID)
			return
		}
		c.manager.deliver(c, Event{Type: EventUnreadCount, ChatID: chatID, Data: UnreadCountData{ChatID: chatID, Count: count}})
		c.manager.BroadcastToChat(chatID, EventPresence, PresenceData{UserID: c.UserID, Online: true}, c.UserID)
	}()
}

func (c *Client) disconnected(activeChat string) {
	if c.manager.hasOtherConnections(c) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()

	lastSeen := c.session.Disconnected(ctx, c.UserID)
	if activeChat != "" {
		c.manager.BroadcastToChat(activeChat, EventPresence, PresenceData{UserID: c.UserID, Online: false, LastSeen: lastSeen}, c.UserID)
	}
}

func (c *Client) sendError(chatID, message string) {
	c.manager.deliver(c, Event{Type: EventError, ChatID: chatID, Data: ErrorData{Error: message}})
}
