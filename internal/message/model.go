package message

import "time"

// Conversation is a thread tying one advert, its owner, and one inquiring
// user. OwnerID is copied from the advert at creation time and never
// re-validated afterwards.
type Conversation struct {
	ID       int    `json:"id"`
	Topic    string `json:"topic"`
	OwnerID  int    `json:"owner_id"`
	UserID   int    `json:"user_id"`
	AdvertID int    `json:"advert_id"`
}

type Message struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation_id"`
	UserID         int       `json:"user_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	Login          string    `json:"login"` // author login, joined for display
}
