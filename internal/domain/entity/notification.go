package entity

const NotificationNewMessage = "new_message"

type Notification struct {
	ID        string            `json:"id" firestore:"id"`
	UserID    string            `json:"user_id" firestore:"userId"`
	Type      string            `json:"type" firestore:"type"`
	Title     string            `json:"title" firestore:"title"`
	Body      string            `json:"body" firestore:"body"`
	ImageURL  string            `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	ActionURL string            `json:"action_url,omitempty" firestore:"actionUrl,omitempty"`
	Data      map[string]string `json:"data,omitempty" firestore:"data,omitempty"`
	Read      bool              `json:"read" firestore:"read"`
	CreatedAt int64             `json:"created_at" firestore:"createdAt"`
}
