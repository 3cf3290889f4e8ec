package persistence

import (
	"encoding/json"
	"time"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/value"
)

// userSchema — представление таблицы users в БД.
type userSchema struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Username     string     `db:"username"`
	Phone        string     `db:"phone"`
	Telegram     string     `db:"telegram"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	Avatar       string     `db:"avatar"`
	IsVerified   bool       `db:"is_verified"`
	VerifiedAt   *time.Time `db:"verified_at"`
	Rating       float64    `db:"rating"`
	ReviewCount  int        `db:"review_count"`
	Location     []byte     `db:"location"`
	CreatedAt    time.Time  `db:"created_at"`
}

func fromUser(e *entity.User) (*userSchema, error) {
	location, err := json.Marshal(e.Location)
	if err != nil {
		return nil, err
	}

	return &userSchema{
		ID:           e.ID,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Username:     e.Username,
		Phone:        e.Phone,
		Telegram:     e.Telegram,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Avatar:       e.Avatar,
		IsVerified:   e.IsVerified,
		VerifiedAt:   e.VerifiedAt,
		Rating:       e.Rating,
		ReviewCount:  e.ReviewCount,
		Location:     location,
		CreatedAt:    e.CreatedAt,
	}, nil
}

func (s *userSchema) toDomain() (*entity.User, error) {
	var location value.Location
	if len(s.Location) > 0 {
		if err := json.Unmarshal(s.Location, &location); err != nil {
			return nil, err
		}
	}

	return &entity.User{
		ID:           s.ID,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		Username:     s.Username,
		Phone:        s.Phone,
		Telegram:     s.Telegram,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		Avatar:       s.Avatar,
		IsVerified:   s.IsVerified,
		VerifiedAt:   s.VerifiedAt,
		Rating:       s.Rating,
		ReviewCount:  s.ReviewCount,
		Location:     location,
		CreatedAt:    s.CreatedAt,
	}, nil
}

// listingSchema — представление таблицы listings в БД.
type listingSchema struct {
	ID              string     `db:"id"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	Price           int64      `db:"price"`
	Currency        string     `db:"currency"`
	Category        string     `db:"category"`
	Subcategory     string     `db:"subcategory"`
	Images          []byte     `db:"images"`
	SellerID        string     `db:"seller_id"`
	Location        []byte     `db:"location"`
	IsUrgent        bool       `db:"is_urgent"`
	IsVip           bool       `db:"is_vip"`
	IsSafeDeal      bool       `db:"is_safe_deal"`
	Views           int        `db:"views"`
	Likes           int        `db:"likes"`
	DeliveryOptions []byte     `db:"delivery_options"`
	Status          string     `db:"status"`
	ExpiresAt       *time.Time `db:"expires_at"`
	CreatedAt       time.Time  `db:"created_at"`
}

func fromListing(e *entity.Listing) (*listingSchema, error) {
	images, err := json.Marshal(e.Images)
	if err != nil {
		return nil, err
	}

	location, err := json.Marshal(e.Location)
	if err != nil {
		return nil, err
	}

	deliveryOptions, err := json.Marshal(e.DeliveryOptions)
	if err != nil {
		return nil, err
	}

	return &listingSchema{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Price:           e.Price,
		Currency:        e.Currency.String(),
		Category:        e.Category,
		Subcategory:     e.Subcategory,
		Images:          images,
		SellerID:        e.SellerID,
		Location:        location,
		IsUrgent:        e.IsUrgent,
		IsVip:           e.IsVip,
		IsSafeDeal:      e.IsSafeDeal,
		Views:           e.Views,
		Likes:           e.Likes,
		DeliveryOptions: deliveryOptions,
		Status:          e.Status.String(),
		ExpiresAt:       e.ExpiresAt,
		CreatedAt:       e.CreatedAt,
	}, nil
}

func (s *listingSchema) toDomain() (*entity.Listing, error) {
	currency, err := value.ParseCurrency(s.Currency)
	if err != nil {
		return nil, err
	}

	status, err := value.ParseListingStatus(s.Status)
	if err != nil {
		return nil, err
	}

	var images []string
	if len(s.Images) > 0 {
		if err := json.Unmarshal(s.Images, &images); err != nil {
			return nil, err
		}
	}

	var location value.Location
	if len(s.Location) > 0 {
		if err := json.Unmarshal(s.Location, &location); err != nil {
			return nil, err
		}
	}

	var deliveryOptions []value.DeliveryOption
	if len(s.DeliveryOptions) > 0 {
		if err := json.Unmarshal(s.DeliveryOptions, &deliveryOptions); err != nil {
			return nil, err
		}
	}

	return &entity.Listing{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		Price:           s.Price,
		Currency:        currency,
		Category:        s.Category,
		Subcategory:     s.Subcategory,
		Images:          images,
		SellerID:        s.SellerID,
		Location:        location,
		IsUrgent:        s.IsUrgent,
		IsVip:           s.IsVip,
		IsSafeDeal:      s.IsSafeDeal,
		Views:           s.Views,
		Likes:           s.Likes,
		DeliveryOptions: deliveryOptions,
		Status:          status,
		ExpiresAt:       s.ExpiresAt,
		CreatedAt:       s.CreatedAt,
	}, nil
}

// dealSchema — представление таблицы deals в БД.
type dealSchema struct {
	ID             string    `db:"id"`
	ListingID      string    `db:"listing_id"`
	BuyerID        string    `db:"buyer_id"`
	SellerID       string    `db:"seller_id"`
	Amount         int64     `db:"amount"`
	Currency       string    `db:"currency"`
	DeliveryOption string    `db:"delivery_option"`
	Status         string    `db:"status"`
	DisputeReason  *string   `db:"dispute_reason"`
	DisputedBy     *string   `db:"disputed_by"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func fromDeal(e *entity.Deal) *dealSchema {
	return &dealSchema{
		ID:             e.ID,
		ListingID:      e.ListingID,
		BuyerID:        e.BuyerID,
		SellerID:       e.SellerID,
		Amount:         e.Amount,
		Currency:       e.Currency.String(),
		DeliveryOption: e.DeliveryOption.String(),
		Status:         e.Status.String(),
		DisputeReason:  e.DisputeReason,
		DisputedBy:     e.DisputedBy,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (s *dealSchema) toDomain() (*entity.Deal, error) {
	currency, err := value.ParseCurrency(s.Currency)
	if err != nil {
		return nil, err
	}

	deliveryOption, err := value.ParseDeliveryType(s.DeliveryOption)
	if err != nil {
		return nil, err
	}

	status, err := value.ParseDealStatus(s.Status)
	if err != nil {
		return nil, err
	}

	return &entity.Deal{
		ID:             s.ID,
		ListingID:      s.ListingID,
		BuyerID:        s.BuyerID,
		SellerID:       s.SellerID,
		Amount:         s.Amount,
		Currency:       currency,
		DeliveryOption: deliveryOption,
		Status:         status,
		DisputeReason:  s.DisputeReason,
		DisputedBy:     s.DisputedBy,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}, nil
}

// messageSchema — представление таблицы messages в БД.
type messageSchema struct {
	ID         string    `db:"id"`
	SenderID   string    `db:"sender_id"`
	ReceiverID string    `db:"receiver_id"`
	ListingID  *string   `db:"listing_id"`
	Content    string    `db:"content"`
	IsRead     bool      `db:"is_read"`
	CreatedAt  time.Time `db:"created_at"`
}

func fromMessage(e *entity.Message) *messageSchema {
	s := &messageSchema{
		ID:         e.ID,
		SenderID:   e.SenderID,
		ReceiverID: e.ReceiverID,
		Content:    e.Content,
		IsRead:     e.IsRead,
		CreatedAt:  e.CreatedAt,
	}

	if e.ListingID != "" {
		s.ListingID = &e.ListingID
	}

	return s
}

func (s *messageSchema) toDomain() *entity.Message {
	m := &entity.Message{
		ID:         s.ID,
		SenderID:   s.SenderID,
		ReceiverID: s.ReceiverID,
		Content:    s.Content,
		IsRead:     s.IsRead,
		CreatedAt:  s.CreatedAt,
	}

	if s.ListingID != nil {
		m.ListingID = *s.ListingID
	}

	return m
}
