package entity

import "time"

// Favorite связь "аккаунт — объявление", уникальная на пару. Счётчик лайков
// объявления меняется строго вместе с созданием/удалением записи.
type Favorite struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ListingID string    `json:"listingId" db:"listing_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
