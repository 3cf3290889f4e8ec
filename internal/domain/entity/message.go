package entity

import "time"

type Message struct {
	ID         string    `json:"id" db:"id"`
	SenderID   string    `json:"senderId" db:"sender_id"`
	ReceiverID string    `json:"receiverId" db:"receiver_id"`
	ListingID  string    `json:"listingId,omitempty" db:"listing_id"`
	Content    string    `json:"content" db:"content"`
	IsRead     bool      `json:"isRead" db:"is_read"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Conversation агрегат последних сообщений с одним собеседником.
type Conversation struct {
	PeerID      string    `json:"peerId" db:"peer_id"`
	LastMessage string    `json:"lastMessage" db:"last_message"`
	LastAt      time.Time `json:"lastAt" db:"last_at"`
	Unread      int       `json:"unread" db:"unread"`
	ListingID   string    `json:"listingId,omitempty" db:"listing_id"`
}
