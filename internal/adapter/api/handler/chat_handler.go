package handler

import (
	"github.com/labstack/echo/v4"

	"communityhub/internal/adapter/api/middleware"
	"communityhub/internal/infrastructure/storage"
	"communityhub/internal/usecase"
	"communityhub/pkg/errors"
	"communityhub/pkg/response"
	"communityhub/pkg/utils"
)

type ChatHandler struct {
	chatUseCase        ChatService
	participantUseCase ParticipantService
}

func NewChatHandler(chatUseCase ChatService, participantUseCase ParticipantService) *ChatHandler {
	return &ChatHandler{
		chatUseCase:        chatUseCase,
		participantUseCase: participantUseCase,
	}
}

type startChatRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

type sendMessageRequest struct {
	Text     string `json:"text" validate:"max=4000"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,url"`
	VoiceURL string `json:"voice_url,omitempty" validate:"omitempty,url"`
}

type uploadResponse struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// StartChat opens (or returns) the direct chat with recipient_id.
func (h *ChatHandler) StartChat(c echo.Context) error {
	var req startChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.StartChat(c.Request().Context(), middleware.UserID(c), req.RecipientID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *ChatHandler) ListUserChats(c echo.Context) error {
	page := utils.GetPaginationParams(c)

	chats, total, err := h.chatUseCase.ListUserChats(c.Request().Context(), middleware.UserID(c), page)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, chats, total, page.Page, page.PageSize)
}

func (h *ChatHandler) GetChat(c echo.Context) error {
	chat, err := h.chatUseCase.GetChat(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

// GetChatParticipants lists the chat's users with presence. Unknown chats
// yield an empty list; callers outside a known chat are refused.
func (h *ChatHandler) GetChatParticipants(c echo.Context) error {
	userID := middleware.UserID(c)

	users, err := h.participantUseCase.GetChatParticipants(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	if len(users) > 0 {
		member := false
		for _, u := range users {
			if u.UID == userID {
				member = true
				break
			}
		}
		if !member {
			return response.Error(c, errors.Forbidden("You are not a participant in this chat", nil))
		}
	}

	return response.Success(c, users)
}

// ListMessages returns one page of the conversation shaped for rendering.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	page, err := h.chatUseCase.ListMessages(
		c.Request().Context(),
		middleware.UserID(c),
		c.Param("id"),
		utils.GetPaginationParams(c),
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, page)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), middleware.UserID(c), c.Param("id"), usecase.SendMessageInput{
		Text:     req.Text,
		ImageURL: req.ImageURL,
		VoiceURL: req.VoiceURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// UploadAttachment stores a multipart "file" as an image or voice note.
func (h *ChatHandler) UploadAttachment(c echo.Context) error {
	kind := c.FormValue("kind")
	if kind != storage.KindImage && kind != storage.KindVoice {
		return response.Error(c, errors.Validation("kind must be one of: image voice"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.Validation("file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Unable to read uploaded file", err))
	}
	defer file.Close()

	url, err := h.chatUseCase.UploadAttachment(
		c.Request().Context(),
		middleware.UserID(c),
		c.Param("id"),
		kind,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, uploadResponse{URL: url, Kind: kind})
}
