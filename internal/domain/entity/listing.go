package entity

import (
	"time"

	"topar_market/internal/domain/value"
)

type Listing struct {
	ID              string                 `json:"id" db:"id"`
	Title           string                 `json:"title" db:"title"`
	Description     string                 `json:"description" db:"description"`
	Price           int64                  `json:"price" db:"price"`
	Currency        value.Currency         `json:"currency" db:"currency"`
	Category        string                 `json:"category" db:"category"`
	Subcategory     string                 `json:"subcategory" db:"subcategory"`
	Images          []string               `json:"images"`
	SellerID        string                 `json:"sellerId" db:"seller_id"`
	Location        value.Location         `json:"location"`
	IsUrgent        bool                   `json:"isUrgent" db:"is_urgent"`
	IsVip           bool                   `json:"isVip" db:"is_vip"`
	IsSafeDeal      bool                   `json:"isSafeDeal" db:"is_safe_deal"`
	Views           int                    `json:"views" db:"views"`
	Likes           int                    `json:"likes" db:"likes"`
	DeliveryOptions []value.DeliveryOption `json:"deliveryOptions"`
	Status          value.ListingStatus    `json:"status" db:"status"`
	ExpiresAt       *time.Time             `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt       time.Time              `json:"createdAt" db:"created_at"`
}

// ListingSummary денормализованная карточка объявления внутри сделки.
type ListingSummary struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Images   []string       `json:"images"`
	Price    int64          `json:"price"`
	Currency value.Currency `json:"currency"`
}

func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		ID:       l.ID,
		Title:    l.Title,
		Images:   l.Images,
		Price:    l.Price,
		Currency: l.Currency,
	}
}

// ListingView объявление глазами конкретного аккаунта.
type ListingView struct {
	Listing
	IsFavorite bool            `json:"isFavorite"`
	Seller     *AccountSummary `json:"seller,omitempty"`
}

// OffersDelivery проверяет, что выбранный способ доставки входит в набор,
// предложенный продавцом.
func (l *Listing) OffersDelivery(t value.DeliveryType) bool {
	for _, option := range l.DeliveryOptions {
		if option.Type == t {
			return true
		}
	}

	return false
}
