package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"communityhub/internal/adapter/api/handler"
	"communityhub/internal/adapter/api/middleware"
)

type Handlers struct {
	Chat      *handler.ChatHandler
	Unread    *handler.UnreadHandler
	Wallet    *handler.WalletHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
}

// Setup mounts every route. gatherer may be nil to skip /metrics.
func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, gatherer prometheus.Gatherer) {
	SetupHealthRouter(e, h.Health)
	SetupChatRouter(e, h.Chat, h.Unread, authMiddleware)
	SetupWalletRouter(e, h.Wallet, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
