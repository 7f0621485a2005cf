package handler

import (
	"context"
	"io"

	"communityhub/internal/domain/entity"
	"communityhub/internal/usecase"
	"communityhub/pkg/utils"
)

// The handlers depend on these narrow views of the usecases.

type ChatService interface {
	StartChat(ctx context.Context, userID, otherID string) (*entity.Chat, error)
	GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error)
	ListUserChats(ctx context.Context, userID string, page utils.PaginationParams) ([]*usecase.ChatSummary, int64, error)
	ListMessages(ctx context.Context, userID, chatID string, page utils.PaginationParams) (*usecase.MessagePage, error)
	SendMessage(ctx context.Context, userID, chatID string, input usecase.SendMessageInput) (*entity.Message, error)
	UploadAttachment(ctx context.Context, userID, chatID, kind, contentType string, file io.Reader) (string, error)
}

type ParticipantService interface {
	GetChatParticipants(ctx context.Context, chatID string) ([]*entity.User, error)
}

type UnreadService interface {
	GetUnreadCount(ctx context.Context, chatID, userID string) usecase.UnreadCountResult
	GetTotalUnreadCount(ctx context.Context, userID string) usecase.UnreadCountResult
	GetUnreadMessageIDs(ctx context.Context, userID string) usecase.UnreadIDsResult
	UpdateMessageReadStatus(ctx context.Context, messageID, readerID string, isRead bool) usecase.ReadStatusResult
	MarkChatAsRead(ctx context.Context, chatID, userID string) usecase.ReadStatusResult
}

type WalletService interface {
	GetUserWallet(ctx context.Context, userID string) (*entity.Wallet, error)
	GetUserTransactions(ctx context.Context, userID string, page, pageSize int, filter entity.TransactionFilter) (*usecase.TransactionPage, error)
	InitiateWithdrawal(ctx context.Context, userID string, amount float64) usecase.WithdrawalResult
	CreateReferralLink(ctx context.Context, userID, eventID string) (string, error)
	GetUserReferrals(ctx context.Context, userID string) ([]*entity.Referral, error)
	GetReferralByCode(ctx context.Context, code string) (*entity.Referral, error)
	BuildReferralURL(code, eventID string) string
}

var (
	_ ChatService        = (*usecase.ChatUseCase)(nil)
	_ ParticipantService = (*usecase.ParticipantUseCase)(nil)
	_ UnreadService      = (*usecase.UnreadUseCase)(nil)
	_ WalletService      = (*usecase.WalletUseCase)(nil)
)
