package entity

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// chatNamespace seeds the UUIDv5 ids of direct chats.
var chatNamespace = uuid.MustParse("5b1f6a8e-2f0c-4c43-9d7e-0c8f3e7a2b61")

// LastMessage is the denormalised snapshot shown in chat lists.
type LastMessage struct {
	Text      string `json:"text" firestore:"text"`
	SenderID  string `json:"sender_id" firestore:"senderId"`
	Timestamp int64  `json:"timestamp" firestore:"timestamp"`
	Read      bool   `json:"read" firestore:"read"`
}

type Chat struct {
	ID           string       `json:"id" firestore:"id"`
	Participants []string     `json:"participants" firestore:"participants"`
	PairKey      string       `json:"-" firestore:"pairKey"`
	LastMessage  *LastMessage `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	CreatedAt    int64        `json:"created_at" firestore:"createdAt"`
	UpdatedAt    int64        `json:"updated_at" firestore:"updatedAt"`
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// PairKey returns an order-independent key for a two-party chat.
func PairKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// DirectChatID derives the chat id for a user pair, so both
// participants always address the same document.
func DirectChatID(userA, userB string) string {
	return uuid.NewSHA1(chatNamespace, []byte(PairKey(userA, userB))).String()
}

// SortedParticipants returns the pair in the order stored on the chat row.
func SortedParticipants(userA, userB string) []string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return ids
}
