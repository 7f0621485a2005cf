package handler

import (
	"github.com/labstack/echo/v4"

	"communityhub/internal/adapter/api/middleware"
	"communityhub/pkg/errors"
	"communityhub/pkg/response"
)

type UnreadHandler struct {
	unreadUseCase UnreadService
}

func NewUnreadHandler(unreadUseCase UnreadService) *UnreadHandler {
	return &UnreadHandler{
		unreadUseCase: unreadUseCase,
	}
}

type readStatusRequest struct {
	IsRead *bool `json:"is_read" validate:"required"`
}

// softResult renders an unread service result. Rejected input is a 400;
// backend failures keep the partial data under a 200 with success=false.
func softResult(c echo.Context, data interface{}, errMsg string, invalid bool) error {
	if invalid {
		return response.Error(c, errors.Validation(errMsg))
	}
	if errMsg != "" {
		return response.SoftError(c, errors.CodeUnread, errMsg, data)
	}
	return response.Success(c, data)
}

func (h *UnreadHandler) GetUnreadCount(c echo.Context) error {
	result := h.unreadUseCase.GetUnreadCount(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	return softResult(c, result, result.Error, result.Invalid)
}

func (h *UnreadHandler) GetTotalUnreadCount(c echo.Context) error {
	result := h.unreadUseCase.GetTotalUnreadCount(c.Request().Context(), middleware.UserID(c))
	return softResult(c, result, result.Error, result.Invalid)
}

func (h *UnreadHandler) GetUnreadMessageIDs(c echo.Context) error {
	result := h.unreadUseCase.GetUnreadMessageIDs(c.Request().Context(), middleware.UserID(c))
	return softResult(c, result, result.Error, result.Invalid)
}

func (h *UnreadHandler) UpdateMessageReadStatus(c echo.Context) error {
	var req readStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result := h.unreadUseCase.UpdateMessageReadStatus(c.Request().Context(), c.Param("id"), middleware.UserID(c), *req.IsRead)
	return softResult(c, result, result.Error, result.Invalid)
}

func (h *UnreadHandler) MarkChatAsRead(c echo.Context) error {
	result := h.unreadUseCase.MarkChatAsRead(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	return softResult(c, result, result.Error, result.Invalid)
}
