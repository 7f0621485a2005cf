package usecase

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityhub/internal/domain/chatview"
	"communityhub/internal/domain/entity"
	ws "communityhub/internal/infrastructure/websocket"
	"communityhub/pkg/errors"
	"communityhub/pkg/utils"
)

type fakeAttachments struct {
	uploaded []string
}

func (f *fakeAttachments) UploadAttachment(ctx context.Context, chatID, kind, contentType string, file io.Reader) (string, error) {
	body, _ := io.ReadAll(file)
	f.uploaded = append(f.uploaded, string(body))
	return "https://storage.googleapis.com/bucket/chats/" + chatID + "/" + kind + "/x", nil
}

type chatFixture struct {
	uc         *ChatUseCase
	chats      *memChatRepo
	messages   *memMessageRepo
	users      *memUserRepo
	publisher  *recordingPublisher
	dispatcher *fakeDispatcher
	files      *fakeAttachments
}

func newChatFixture(limiter RateLimiter) *chatFixture {
	f := &chatFixture{
		chats:    newMemChatRepo(),
		messages: newMemMessageRepo(),
		users: newMemUserRepo(
			&entity.User{UID: "A", DisplayName: "Alice", PhotoURL: "https://img/a.png"},
			&entity.User{UID: "B", DisplayName: "Bob"},
		),
		publisher:  &recordingPublisher{},
		dispatcher: &fakeDispatcher{},
		files:      &fakeAttachments{},
	}
	f.uc = NewChatUseCase(ChatDependencies{
		ChatRepo:    f.chats,
		MessageRepo: f.messages,
		UserRepo:    f.users,
		Dispatcher:  f.dispatcher,
		Realtime:    f.publisher,
		Attachments: f.files,
		RateLimiter: limiter,
	})
	f.uc.async = func(fn func()) { fn() }
	return f
}

func TestStartChatIsIdempotent(t *testing.T) {
	f := newChatFixture(allowAll{})
	ctx := context.Background()

	first, err := f.uc.StartChat(ctx, "A", "B")
	require.NoError(t, err)
	second, err := f.uc.StartChat(ctx, "A", "B")
	require.NoError(t, err)
	reversed, err := f.uc.StartChat(ctx, "B", "A")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, reversed.ID)
	assert.Equal(t, 1, f.chats.creates)
	assert.Equal(t, []string{"A", "B"}, first.Participants)
}

func TestStartChatExistingSkipsRateLimit(t *testing.T) {
	f := newChatFixture(allowAll{})
	_, err := f.uc.StartChat(context.Background(), "A", "B")
	require.NoError(t, err)

	f.uc.rateLimiter = denyAll{}
	_, err = f.uc.StartChat(context.Background(), "A", "B")
	assert.NoError(t, err)
}

func TestStartChatValidation(t *testing.T) {
	f := newChatFixture(allowAll{})
	ctx := context.Background()

	_, err := f.uc.StartChat(ctx, "A", "A")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = f.uc.StartChat(ctx, "A", "")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.uc.StartChat(ctx, "A", "ghost")
	assert.True(t, errors.IsNotFound(err))

	f.uc.rateLimiter = denyAll{}
	_, err = f.uc.StartChat(ctx, "A", "B")
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestSendMessageFlow(t *testing.T) {
	f := newChatFixture(allowAll{})
	ctx := context.Background()
	chat, err := f.uc.StartChat(ctx, "A", "B")
	require.NoError(t, err)

	m, err := f.uc.SendMessage(ctx, "A", chat.ID, SendMessageInput{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "B", m.RecipientID)
	assert.False(t, m.Read)
	assert.NotZero(t, m.Timestamp)

	stored, err := f.chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessage)
	assert.Equal(t, "hello", stored.LastMessage.Text)
	assert.Equal(t, "A", stored.LastMessage.SenderID)

	assert.Equal(t, []string{"chat:" + chat.ID + "/" + ws.EventNewMessage, "user:B/" + ws.EventUnreadCount}, f.publisher.kinds())

	require.Len(t, f.dispatcher.sent, 1)
	n := f.dispatcher.sent[0]
	assert.Equal(t, "B", n.UserID)
	assert.Equal(t, "Alice", n.Title)
	assert.Equal(t, "hello", n.Body)
	assert.Equal(t, "https://img/a.png", n.ImageURL)
	assert.Equal(t, chat.ID, n.Data["chatId"])
	assert.Equal(t, m.ID, n.Data["messageId"])
}

func TestSendMessageVoicePreview(t *testing.T) {
	f := newChatFixture(allowAll{})
	ctx := context.Background()
	chat, _ := f.uc.StartChat(ctx, "A", "B")

	_, err := f.uc.SendMessage(ctx, "B", chat.ID, SendMessageInput{VoiceURL: "https://v"})
	require.NoError(t, err)

	stored, _ := f.chats.GetByID(ctx, chat.ID)
	assert.Equal(t, "Voice message", stored.LastMessage.Text)
	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, "Bob", f.dispatcher.sent[0].Title)
	assert.Equal(t, "Voice message", f.dispatcher.sent[0].Body)
	assert.Equal(t, "A", f.dispatcher.sent[0].UserID)
}

func TestSendMessageRejections(t *testing.T) {
	f := newChatFixture(allowAll{})
	ctx := context.Background()
	chat, _ := f.uc.StartChat(ctx, "A", "B")

	_, err := f.uc.SendMessage(ctx, "A", chat.ID, SendMessageInput{})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.uc.SendMessage(ctx, "A", chat.ID, SendMessageInput{Text: strings.Repeat("x", 4001)})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.uc.SendMessage(ctx, "C", chat.ID, SendMessageInput{Text: "intrude"})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.uc.SendMessage(ctx, "A", "missing", SendMessageInput{Text: "hi"})
	assert.True(t, errors.IsNotFound(err))

	f.uc.rateLimiter = denyAll{}
	_, err = f.uc.SendMessage(ctx, "A", chat.ID, SendMessageInput{Text: "hi"})
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))

	assert.Empty(t, f.dispatcher.sent)
}

func TestListMessagesOrdersAndGroups(t *testing.T) {
	f := newChatFixture(allowAll{})
	ctx := context.Background()
	chat, _ := f.uc.StartChat(ctx, "A", "B")

	for _, m := range []*entity.Message{
		{ID: "m3", ChatID: chat.ID, SenderID: "A", RecipientID: "B", Text: "third", Timestamp: 3, Read: true},
		{ID: "m1", ChatID: chat.ID, SenderID: "A", RecipientID: "B", Text: "first", Timestamp: 1},
		{ID: "m2", ChatID: chat.ID, SenderID: "B", RecipientID: "A", Text: "second", Timestamp: 2},
	} {
		require.NoError(t, f.messages.Create(ctx, m))
	}

	page, err := f.uc.ListMessages(ctx, "A", chat.ID, utils.NewPagination(1, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	conv := page.Conversation
	assert.Equal(t, "B", conv.OtherUserID)
	require.Len(t, conv.Groups, 3)
	assert.Equal(t, "m1", conv.Groups[0].Bubbles[0].Message.ID)
	assert.Equal(t, "m2", conv.Groups[1].Bubbles[0].Message.ID)
	assert.Equal(t, "m3", conv.Groups[2].Bubbles[0].Message.ID)
	assert.True(t, conv.Groups[0].Own)
	assert.False(t, conv.Groups[1].Own)
	assert.Equal(t, chatview.ReceiptDelivered, conv.Groups[0].Bubbles[0].Receipt)
	assert.Equal(t, chatview.ReceiptNone, conv.Groups[1].Bubbles[0].Receipt)
	assert.Equal(t, chatview.ReceiptRead, conv.Groups[2].Bubbles[0].Receipt)

	_, err = f.uc.ListMessages(ctx, "C", chat.ID, utils.NewPagination(1, 50))
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestListUserChatsSummaries(t *testing.T) {
	f := newChatFixture(allowAll{})
	ctx := context.Background()
	chat, _ := f.uc.StartChat(ctx, "A", "B")
	_, err := f.uc.SendMessage(ctx, "A", chat.ID, SendMessageInput{Text: "one"})
	require.NoError(t, err)
	_, err = f.uc.SendMessage(ctx, "A", chat.ID, SendMessageInput{Text: "two"})
	require.NoError(t, err)

	summaries, total, err := f.uc.ListUserChats(ctx, "B", utils.NewPagination(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].UnreadCount)
	require.NotNil(t, summaries[0].OtherUser)
	assert.Equal(t, "A", summaries[0].OtherUser.UID)
}

func TestUploadAttachment(t *testing.T) {
	f := newChatFixture(allowAll{})
	ctx := context.Background()
	chat, _ := f.uc.StartChat(ctx, "A", "B")

	url, err := f.uc.UploadAttachment(ctx, "A", chat.ID, "image", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, "/chats/"+chat.ID+"/image/")
	assert.Equal(t, []string{"png-bytes"}, f.files.uploaded)

	_, err = f.uc.UploadAttachment(ctx, "A", chat.ID, "video", "video/mp4", strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.uc.UploadAttachment(ctx, "A", chat.ID, "voice", "image/png", strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.uc.UploadAttachment(ctx, "C", chat.ID, "image", "image/png", strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}
