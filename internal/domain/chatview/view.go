// Package chatview shapes stored chats and messages into what a client
// renders: ordering, sender grouping, own/other attribution, read
// receipts and attachment layout. Nothing here writes to the backend.
package chatview

import (
	"sort"

	"communityhub/internal/domain/entity"
)

type Receipt string

const (
	ReceiptNone      Receipt = "none"
	ReceiptDelivered Receipt = "delivered"
	ReceiptRead      Receipt = "read"
)

type Layout string

const (
	LayoutEmpty          Layout = "empty"
	LayoutText           Layout = "text"
	LayoutImage          Layout = "image"
	LayoutVoice          Layout = "voice"
	LayoutTextImage      Layout = "text_image"
	LayoutTextVoice      Layout = "text_voice"
	LayoutImageVoice     Layout = "image_voice"
	LayoutTextImageVoice Layout = "text_image_voice"
)

type Bubble struct {
	Message *entity.Message `json:"message"`
	Own     bool            `json:"own"`
	Receipt Receipt         `json:"receipt"`
	Layout  Layout          `json:"layout"`
}

type Group struct {
	SenderID string   `json:"sender_id"`
	Own      bool     `json:"own"`
	Bubbles  []Bubble `json:"bubbles"`
}

type Conversation struct {
	ChatID        string  `json:"chat_id"`
	CurrentUserID string  `json:"current_user_id"`
	OtherUserID   string  `json:"other_user_id,omitempty"`
	Groups        []Group `json:"groups"`
	MessageCount  int     `json:"message_count"`
}

// SortMessages returns a copy of msgs in ascending timestamp order.
// Equal timestamps fall back to id so the order is deterministic.
func SortMessages(msgs []*entity.Message) []*entity.Message {
	sorted := make([]*entity.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// OtherParticipant returns the first participant that is not currentUID.
func OtherParticipant(chat *entity.Chat, currentUID string) string {
	if chat == nil {
		return ""
	}
	for _, p := range chat.Participants {
		if p != currentUID {
			return p
		}
	}
	return ""
}

func IsOwn(msg *entity.Message, currentUID string) bool {
	return currentUID != "" && msg.SenderID == currentUID
}

// ReceiptFor derives the indicator for own messages from the stored read flag.
func ReceiptFor(msg *entity.Message, currentUID string) Receipt {
	if !IsOwn(msg, currentUID) {
		return ReceiptNone
	}
	if msg.Read {
		return ReceiptRead
	}
	return ReceiptDelivered
}

func AttachmentLayout(msg *entity.Message) Layout {
	text, image, voice := msg.Text != "", msg.ImageURL != "", msg.VoiceURL != ""
	switch {
	case text && image && voice:
		return LayoutTextImageVoice
	case text && image:
		return LayoutTextImage
	case text && voice:
		return LayoutTextVoice
	case image && voice:
		return LayoutImageVoice
	case text:
		return LayoutText
	case image:
		return LayoutImage
	case voice:
		return LayoutVoice
	}
	return LayoutEmpty
}

// GroupBySender sorts msgs and splits them into consecutive runs by sender.
func GroupBySender(msgs []*entity.Message, currentUID string) []Group {
	groups := []Group{}
	for _, msg := range SortMessages(msgs) {
		bubble := Bubble{
			Message: msg,
			Own:     IsOwn(msg, currentUID),
			Receipt: ReceiptFor(msg, currentUID),
			Layout:  AttachmentLayout(msg),
		}
		if n := len(groups); n > 0 && groups[n-1].SenderID == msg.SenderID {
			groups[n-1].Bubbles = append(groups[n-1].Bubbles, bubble)
			continue
		}
		groups = append(groups, Group{
			SenderID: msg.SenderID,
			Own:      bubble.Own,
			Bubbles:  []Bubble{bubble},
		})
	}
	return groups
}

// Build assembles the conversation view for currentUID.
func Build(chat *entity.Chat, msgs []*entity.Message, currentUID string) Conversation {
	conv := Conversation{
		CurrentUserID: currentUID,
		OtherUserID:   OtherParticipant(chat, currentUID),
		Groups:        GroupBySender(msgs, currentUID),
		MessageCount:  len(msgs),
	}
	if chat != nil {
		conv.ChatID = chat.ID
	}
	return conv
}
