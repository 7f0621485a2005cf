package router

import (
	"github.com/labstack/echo/v4"

	"communityhub/internal/adapter/api/handler"
	"communityhub/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, unreadHandler *handler.UnreadHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("", chatHandler.StartChat)
	chatGroup.GET("", chatHandler.ListUserChats)
	chatGroup.GET("/:id", chatHandler.GetChat)
	chatGroup.GET("/:id/participants", chatHandler.GetChatParticipants)
	chatGroup.GET("/:id/messages", chatHandler.ListMessages)
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.POST("/:id/attachments", chatHandler.UploadAttachment)
	chatGroup.PUT("/:id/read", unreadHandler.MarkChatAsRead)
	chatGroup.GET("/:id/unread", unreadHandler.GetUnreadCount)

	unreadGroup := e.Group("/v1/unread")
	unreadGroup.Use(authMiddleware.Authenticate)

	unreadGroup.GET("", unreadHandler.GetTotalUnreadCount)
	unreadGroup.GET("/messages", unreadHandler.GetUnreadMessageIDs)

	e.PUT("/v1/messages/:id/read", unreadHandler.UpdateMessageReadStatus, authMiddleware.Authenticate)
}
