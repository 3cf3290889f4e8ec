// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

import "time"

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`
}

// ErrorCode Код ошибки
type ErrorCode string

type Location struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat,omitempty"`
	Lng  float64 `json:"lng,omitempty"`
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	Username    string    `json:"username"`
	Phone       string    `json:"phone,omitempty"`
	Telegram    string    `json:"telegram"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Avatar      string    `json:"avatar"`
	IsVerified  bool      `json:"isVerified"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	Location    *Location `json:"location,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AccountSummary сокращённая карточка пользователя для вложенных ответов.
type AccountSummary struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	Username    string  `json:"username"`
	Avatar      string  `json:"avatar,omitempty"`
	Telegram    string  `json:"telegram,omitempty"`
	IsVerified  bool    `json:"isVerified"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

type DeliveryOption struct {
	Type        string `json:"type" validate:"required,oneof=pickup courier pickup_point"`
	Price       int64  `json:"price" validate:"gte=0"`
	Description string `json:"description"`
}

type Listing struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Price           int64            `json:"price"`
	Currency        string           `json:"currency"`
	Category        string           `json:"category"`
	Subcategory     string           `json:"subcategory,omitempty"`
	Images          []string         `json:"images"`
	Seller          *AccountSummary  `json:"seller,omitempty"`
	Location        *Location        `json:"location,omitempty"`
	IsUrgent        bool             `json:"isUrgent"`
	IsVip           bool             `json:"isVip"`
	IsSafeDeal      bool             `json:"isSafeDeal"`
	Views           int              `json:"views"`
	Likes           int              `json:"likes"`
	DeliveryOptions []DeliveryOption `json:"deliveryOptions"`
	Status          string           `json:"status"`
	IsFavorite      bool             `json:"isFavorite"`
	ExpiresAt       *time.Time       `json:"expiresAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// ListingSummary сокращённая карточка объявления внутри сделки.
type ListingSummary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Images   []string `json:"images"`
	Price    int64    `json:"price"`
	Currency string   `json:"currency"`
}

type Feed struct {
	Listings   []Listing `json:"listings"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

type Deal struct {
	ID             string          `json:"id"`
	ListingID      string          `json:"listingId"`
	BuyerID        string          `json:"buyerId"`
	SellerID       string          `json:"sellerId"`
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	DeliveryOption string          `json:"deliveryOption"`
	Status         string          `json:"status"`
	DisputeReason  *string         `json:"disputeReason,omitempty"`
	DisputedBy     *string         `json:"disputedBy,omitempty"`
	Role           string          `json:"role,omitempty"`
	Listing        *ListingSummary `json:"listing,omitempty"`
	Buyer          *AccountSummary `json:"buyer,omitempty"`
	Seller         *AccountSummary `json:"seller,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	ListingID  string    `json:"listingId,omitempty"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Conversation struct {
	ID          string          `json:"id"`
	User        *AccountSummary `json:"user"`
	LastMessage string          `json:"lastMessage"`
	Time        time.Time       `json:"time"`
	Unread      int             `json:"unread"`
	ListingID   string          `json:"listingId,omitempty"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type PriceSuggestion struct {
	SuggestedPrice int64      `json:"suggestedPrice"`
	Confidence     float64    `json:"confidence"`
	PriceRange     PriceRange `json:"priceRange"`
	Factors        []string   `json:"factors"`
}

type ToggleFavorite struct {
	IsFavorite bool `json:"isFavorite"`
	Likes      int  `json:"likes"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Phone    string `json:"phone" validate:"required"`
	Telegram string `json:"telegram" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string   `json:"firstName" validate:"omitempty,max=64"`
	LastName  *string   `json:"lastName" validate:"omitempty,max=64"`
	Avatar    *string   `json:"avatar" validate:"omitempty,url"`
	Location  *Location `json:"location"`
}

type VerifyRequest struct {
	SelfieURL string `json:"selfieUrl" validate:"required,url"`
}

type CreateListingRequest struct {
	Title           string           `json:"title" validate:"required,max=128"`
	Description     string           `json:"description" validate:"required"`
	Price           int64            `json:"price" validate:"required,gt=0"`
	Currency        string           `json:"currency" validate:"omitempty,oneof=UZS USD"`
	Category        string           `json:"category" validate:"required"`
	Subcategory     string           `json:"subcategory"`
	Images          []string         `json:"images" validate:"omitempty,dive,url"`
	Location        *Location        `json:"location"`
	IsUrgent        bool             `json:"isUrgent"`
	IsSafeDeal      *bool            `json:"isSafeDeal"`
	DeliveryOptions []DeliveryOption `json:"deliveryOptions" validate:"omitempty,dive"`
}

type UpdateListingRequest struct {
	Title           *string          `json:"title" validate:"omitempty,max=128"`
	Description     *string          `json:"description"`
	Price           *int64           `json:"price" validate:"omitempty,gt=0"`
	Images          []string         `json:"images" validate:"omitempty,dive,url"`
	Location        *Location        `json:"location"`
	IsUrgent        *bool            `json:"isUrgent"`
	IsSafeDeal      *bool            `json:"isSafeDeal"`
	DeliveryOptions []DeliveryOption `json:"deliveryOptions" validate:"omitempty,dive"`
}

type CreateDealRequest struct {
	ListingID      string `json:"listingId" validate:"required"`
	DeliveryOption string `json:"deliveryOption" validate:"required,oneof=pickup courier pickup_point"`
	Amount         *int64 `json:"amount" validate:"omitempty,gt=0"`
}

type DisputeDealRequest struct {
	Reason string `json:"reason" validate:"required,max=1024"`
}

type SendMessageRequest struct {
	Content   string `json:"content" validate:"required,max=4096"`
	ListingID string `json:"listingId"`
}

type SuggestPriceRequest struct {
	Category    string `json:"category" validate:"required"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
