package entity

import (
	"time"

	"topar_market/internal/domain/value"
)

type User struct {
	ID           string         `json:"id" db:"id"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Username     string         `json:"username" db:"username"`
	Phone        string         `json:"phone" db:"phone"`
	Telegram     string         `json:"telegram" db:"telegram"`
	FirstName    string         `json:"firstName" db:"first_name"`
	LastName     string         `json:"lastName" db:"last_name"`
	Avatar       string         `json:"avatar" db:"avatar"`
	IsVerified   bool           `json:"isVerified" db:"is_verified"`
	VerifiedAt   *time.Time     `json:"verifiedAt,omitempty" db:"verified_at"`
	Rating       float64        `json:"rating" db:"rating"`
	ReviewCount  int            `json:"reviewCount" db:"review_count"`
	Location     value.Location `json:"location"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
}

// AccountSummary денормализованная карточка пользователя для вложенных
// ответов (сделки, объявления).
type AccountSummary struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	Username    string  `json:"username"`
	Avatar      string  `json:"avatar"`
	Telegram    string  `json:"telegram"`
	IsVerified  bool    `json:"isVerified"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

func (u *User) Summary() AccountSummary {
	return AccountSummary{
		ID:          u.ID,
		FirstName:   u.FirstName,
		Username:    u.Username,
		Avatar:      u.Avatar,
		Telegram:    u.Telegram,
		IsVerified:  u.IsVerified,
		Rating:      u.Rating,
		ReviewCount: u.ReviewCount,
	}
}
