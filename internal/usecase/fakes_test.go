package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/internal/infrastructure/notification"
	"communityhub/internal/infrastructure/presence"
	"communityhub/pkg/errors"
	"communityhub/pkg/utils"
)

type memChatRepo struct {
	mu      sync.Mutex
	chats   map[string]*entity.Chat
	creates int
	err     error
}

func newMemChatRepo(chats ...*entity.Chat) *memChatRepo {
	r := &memChatRepo{chats: map[string]*entity.Chat{}}
	for _, c := range chats {
		r.chats[c.ID] = c
	}
	return r
}

func (r *memChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	cp := *c
	return &cp, nil
}

func (r *memChatRepo) CreateIfAbsent(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.chats[chat.ID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	r.creates++
	chat.CreatedAt = utils.NowMillis()
	chat.UpdatedAt = chat.CreatedAt
	cp := *chat
	r.chats[chat.ID] = &cp
	return chat, true, nil
}

func (r *memChatRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Chat{}
	for _, c := range r.chats {
		if c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], total, nil
}

func (r *memChatRepo) UpdateLastMessage(ctx context.Context, chatID string, last *entity.LastMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	cp := *last
	c.LastMessage = &cp
	c.UpdatedAt = last.Timestamp
	return nil
}

func (r *memChatRepo) MarkLastMessageRead(ctx context.Context, chatID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok || c.LastMessage == nil || c.LastMessage.SenderID == readerID {
		return nil
	}
	c.LastMessage.Read = true
	return nil
}

type memMessageRepo struct {
	mu        sync.Mutex
	messages  map[string]*entity.Message
	markCalls [][]string
	err       error
}

func newMemMessageRepo(msgs ...*entity.Message) *memMessageRepo {
	r := &memMessageRepo{messages: map[string]*entity.Message{}}
	for _, m := range msgs {
		r.messages[m.ID] = m
	}
	return r
}

func (r *memMessageRepo) Create(ctx context.Context, m *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if m.ID == "" {
		m.ID = fmt.Sprintf("m%d", len(r.messages)+1)
	}
	cp := *m
	r.messages[m.ID] = &cp
	return nil
}

func (r *memMessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	cp := *m
	return &cp, nil
}

func (r *memMessageRepo) ListByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Message{}
	for _, m := range r.messages {
		if m.ChatID == chatID {
			cp := *m
			out = append(out, &cp)
		}
	}
	// Unordered on purpose: the presentation layer owns ordering.
	return out, int64(len(out)), nil
}

func (r *memMessageRepo) unread(recipientID, chatID string) []*entity.Message {
	out := []*entity.Message{}
	for _, m := range r.messages {
		if m.RecipientID == recipientID && !m.Read && (chatID == "" || m.ChatID == chatID) {
			out = append(out, m)
		}
	}
	return out
}

func (r *memMessageRepo) CountUnread(ctx context.Context, recipientID, chatID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return len(r.unread(recipientID, chatID)), nil
}

func (r *memMessageRepo) ListUnreadIDs(ctx context.Context, recipientID, chatID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	ids := []string{}
	for _, m := range r.unread(recipientID, chatID) {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memMessageRepo) MarkRead(ctx context.Context, ids []string, readAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.markCalls = append(r.markCalls, append([]string(nil), ids...))
	for _, id := range ids {
		if m, ok := r.messages[id]; ok {
			m.Read = true
			m.ReadAt = readAt
		}
	}
	return nil
}

func (r *memMessageRepo) isRead(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[id].Read
}

type memUserRepo struct {
	mu       sync.Mutex
	users    map[string]*entity.User
	presence map[string]bool
	err      error
}

func newMemUserRepo(users ...*entity.User) *memUserRepo {
	r := &memUserRepo{users: map[string]*entity.User{}, presence: map[string]bool{}}
	for _, u := range users {
		r.users[u.UID] = u
	}
	return r
}

func (r *memUserRepo) GetByID(ctx context.Context, uid string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByIDs(ctx context.Context, uids []string) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []*entity.User{}
	// Reverse order to prove callers do not rely on it.
	for i := len(uids) - 1; i >= 0; i-- {
		if u, ok := r.users[uids[i]]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUserRepo) UpdatePresence(ctx context.Context, uid string, online bool, lastSeen int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence[uid] = online
	return nil
}

type memWalletRepo struct {
	mu           sync.Mutex
	wallets      map[string]*entity.Wallet
	transactions []*entity.Transaction
	lastFilter   entity.TransactionFilter
	lastLimit    int
	lastOffset   int
	err          error
	createErr    error
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{wallets: map[string]*entity.Wallet{}}
}

func (r *memWalletRepo) GetWallet(ctx context.Context, userID string) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	w, ok := r.wallets[userID]
	if !ok {
		return nil, errors.NotFound("Wallet", nil)
	}
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) ListTransactions(ctx context.Context, userID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter, r.lastLimit, r.lastOffset = filter, limit, offset
	matched := []*entity.Transaction{}
	for _, t := range r.transactions {
		if t.UserID != userID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.From > 0 && t.CreatedAt < filter.From {
			continue
		}
		if filter.To > 0 && t.CreatedAt > filter.To {
			continue
		}
		matched = append(matched, t)
	}
	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	end := len(matched)
	if offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (r *memWalletRepo) CreateWithdrawal(ctx context.Context, userID string, amount float64, description string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	w, ok := r.wallets[userID]
	if !ok {
		return nil, errors.NotFound("Wallet", nil)
	}
	if utils.ToCents(amount) > utils.ToCents(w.AvailableBalance) {
		return nil, repository.ErrInsufficientBalance
	}
	w.AvailableBalance = utils.FromCents(utils.ToCents(w.AvailableBalance) - utils.ToCents(amount))
	txn := &entity.Transaction{
		ID:          fmt.Sprintf("t%d", len(r.transactions)+1),
		UserID:      userID,
		Type:        entity.TransactionWithdrawal,
		Amount:      amount,
		Status:      entity.StatusPending,
		Description: description,
		CreatedAt:   utils.NowMillis(),
	}
	r.transactions = append(r.transactions, txn)
	return txn, nil
}

type memReferralRepo struct {
	mu        sync.Mutex
	referrals []*entity.Referral
	inserts   int
}

func (r *memReferralRepo) find(match func(*entity.Referral) bool) (*entity.Referral, error) {
	for _, ref := range r.referrals {
		if match(ref) {
			cp := *ref
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Referral", nil)
}

func (r *memReferralRepo) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*entity.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(ref *entity.Referral) bool { return ref.UserID == userID && ref.EventID == eventID })
}

func (r *memReferralRepo) GetByCode(ctx context.Context, code string) (*entity.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(ref *entity.Referral) bool { return ref.Code == code })
}

func (r *memReferralRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Referral{}
	for _, ref := range r.referrals {
		if ref.UserID == userID {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (r *memReferralRepo) CreateIfAbsent(ctx context.Context, referral *entity.Referral) (*entity.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ref := range r.referrals {
		if ref.Code == referral.Code || (ref.UserID == referral.UserID && ref.EventID == referral.EventID) {
			return r.find(func(x *entity.Referral) bool { return x.UserID == referral.UserID && x.EventID == referral.EventID })
		}
	}
	r.inserts++
	cp := *referral
	cp.ID = "r" + referral.Code
	cp.CreatedAt = utils.NowMillis()
	r.referrals = append(r.referrals, &cp)
	out := cp
	return &out, nil
}

type publishedEvent struct {
	target string
	kind   string
	data   interface{}
	except string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) SendToUser(userID, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{target: "user:" + userID, kind: eventType, data: data})
}

func (p *recordingPublisher) BroadcastToChat(chatID, eventType string, data interface{}, exceptUserID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{target: "chat:" + chatID, kind: eventType, data: data, except: exceptUserID})
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{}
	for _, e := range p.events {
		out = append(out, e.target+"/"+e.kind)
	}
	return out
}

type fakePresence struct {
	online  map[string]presence.Presence
	offline []string
	err     error
}

func (p *fakePresence) SetOnline(ctx context.Context, uid string) error {
	if p.online == nil {
		p.online = map[string]presence.Presence{}
	}
	p.online[uid] = presence.Presence{Online: true, LastSeen: utils.NowMillis()}
	return nil
}

func (p *fakePresence) SetOffline(ctx context.Context, uid string) (int64, error) {
	p.offline = append(p.offline, uid)
	delete(p.online, uid)
	return 1234, nil
}

func (p *fakePresence) Lookup(ctx context.Context, uids []string) (map[string]presence.Presence, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := map[string]presence.Presence{}
	for _, uid := range uids {
		if pr, ok := p.online[uid]; ok {
			out[uid] = pr
		}
	}
	return out, nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, n entity.Notification) (notification.DispatchResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return notification.DispatchResult{ID: "n1"}, nil
}

type allowAll struct{}

func (allowAll) Allow(string, string) (bool, time.Duration) { return true, 0 }

type denyAll struct{}

func (denyAll) Allow(string, string) (bool, time.Duration) { return false, 30 * time.Second }
