package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"communityhub/internal/adapter/api/middleware"
	ws "communityhub/internal/infrastructure/websocket"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
	session   ws.SessionHandler
	upgrader  gorillaws.Upgrader
}

// NewWebSocketHandler accepts handshakes from allowedOrigins; an empty
// list accepts any origin.
func NewWebSocketHandler(wsManager *ws.Manager, session ws.SessionHandler, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebSocketHandler{
		wsManager: wsManager,
		session:   session,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(origins) == 0 || origins[r.Header.Get("Origin")]
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logger.Warn("WebSocket upgrade failed for %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(conn, userID, h.wsManager, h.session)

	h.wsManager.Register <- client

	go client.ReadPump()
	go client.WritePump()

	return nil
}
