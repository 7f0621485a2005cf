package chatview

import "sync"

// Ticket identifies one fetch started for a chat context.
type Ticket struct {
	ChatID string
	UserID string
	seq    uint64
}

// Guard tracks the active chat context of one session so that a fetch
// which resolves after the session moved on is dropped instead of applied.
type Guard struct {
	mu     sync.Mutex
	seq    uint64
	chatID string
	userID string
}

// Begin switches the active context and returns a ticket for the fetch
// started for it. Any ticket issued earlier becomes stale.
func (g *Guard) Begin(chatID, userID string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	g.chatID = chatID
	g.userID = userID
	return Ticket{ChatID: chatID, UserID: userID, seq: g.seq}
}

// Clear leaves the active context; every outstanding ticket becomes stale.
func (g *Guard) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	g.chatID = ""
	g.userID = ""
}

// ClearIf leaves the active context only if t is still current.
func (g *Guard) ClearIf(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.currentLocked(t) {
		return false
	}
	g.seq++
	g.chatID = ""
	g.userID = ""
	return true
}

// Accept reports whether a result fetched under t may still be applied.
func (g *Guard) Accept(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.currentLocked(t)
}

func (g *Guard) currentLocked(t Ticket) bool {
	return t.seq == g.seq && t.ChatID == g.chatID && t.UserID == g.userID
}

// AcceptAndApply runs apply while t is still current and reports whether it
// ran. No Begin or Clear can interleave between the check and apply.
func (g *Guard) AcceptAndApply(t Ticket, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.currentLocked(t) {
		return false
	}
	apply()
	return true
}

// Active returns the chat currently in focus, or "".
func (g *Guard) Active() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.chatID
}
