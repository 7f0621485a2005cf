package entity

type Message struct {
	ID          string `json:"id" firestore:"id"`
	ChatID      string `json:"chat_id" firestore:"chatId"`
	SenderID    string `json:"sender_id" firestore:"senderId"`
	RecipientID string `json:"recipient_id" firestore:"recipientId"`
	Text        string `json:"text,omitempty" firestore:"text,omitempty"`
	ImageURL    string `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	VoiceURL    string `json:"voice_url,omitempty" firestore:"voiceUrl,omitempty"`
	Timestamp   int64  `json:"timestamp" firestore:"timestamp"`
	Read        bool   `json:"read" firestore:"read"`
	ReadAt      int64  `json:"read_at,omitempty" firestore:"readAt,omitempty"`
}

// Kind names the dominant content of a message for counters and previews.
func (m *Message) Kind() string {
	switch {
	case m.VoiceURL != "":
		return "voice"
	case m.ImageURL != "":
		return "image"
	case m.Text != "":
		return "text"
	default:
		return "empty"
	}
}

// Preview is the text stored on the chat's last-message snapshot.
func (m *Message) Preview() string {
	if m.Text != "" {
		return m.Text
	}
	switch m.Kind() {
	case "voice":
		return "Voice message"
	case "image":
		return "Photo"
	}
	return ""
}
