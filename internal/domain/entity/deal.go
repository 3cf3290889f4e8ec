package entity

import (
	"time"

	"topar_market/internal/domain/value"
)

// Deal одна попытка покупки через Safe Deal. Продавец копируется из
// объявления при создании и дальше не пересчитывается.
type Deal struct {
	ID             string             `json:"id" db:"id"`
	ListingID      string             `json:"listingId" db:"listing_id"`
	BuyerID        string             `json:"buyerId" db:"buyer_id"`
	SellerID       string             `json:"sellerId" db:"seller_id"`
	Amount         int64              `json:"amount" db:"amount"`
	Currency       value.Currency     `json:"currency" db:"currency"`
	DeliveryOption value.DeliveryType `json:"deliveryOption" db:"delivery_option"`
	Status         value.DealStatus   `json:"status" db:"status"`
	DisputeReason  *string            `json:"disputeReason,omitempty" db:"dispute_reason"`
	DisputedBy     *string            `json:"disputedBy,omitempty" db:"disputed_by"`
	CreatedAt      time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" db:"updated_at"`
}

// RoleOf вычисляет роль участника. Вызывается только после проверки
// IsParticipant: всякий, кто не покупатель, является продавцом.
func (d *Deal) RoleOf(accountID string) value.Role {
	if accountID == d.BuyerID {
		return value.RoleBuyer
	}

	return value.RoleSeller
}

func (d *Deal) IsParticipant(accountID string) bool {
	return accountID == d.BuyerID || accountID == d.SellerID
}

// DealView сделка, обогащённая ролью вызывающего и карточками сторон.
type DealView struct {
	Deal
	Role    value.Role      `json:"role"`
	Listing *ListingSummary `json:"listing,omitempty"`
	Buyer   *AccountSummary `json:"buyer,omitempty"`
	Seller  *AccountSummary `json:"seller,omitempty"`
}
