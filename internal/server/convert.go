package server

import (
	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/listing"
	"topar_market/internal/domain/service/message"
	"topar_market/internal/domain/service/pricing"
	"topar_market/internal/domain/value"
	"topar_market/pkg/lox"
	"topar_market/pkg/rest"
)

func newRESTUser(user *entity.User) rest.User {
	u := rest.User{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Phone:       user.Phone,
		Telegram:    user.Telegram,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Avatar:      user.Avatar,
		IsVerified:  user.IsVerified,
		Rating:      user.Rating,
		ReviewCount: user.ReviewCount,
		CreatedAt:   user.CreatedAt,
	}

	if user.Location.City != "" {
		location := newRESTLocation(user.Location)
		u.Location = &location
	}

	return u
}

// newRESTPublicUser профиль без контактных данных.
func newRESTPublicUser(user *entity.User) rest.User {
	u := newRESTUser(user)
	u.Email = ""
	u.Phone = ""

	return u
}

func newRESTAccountSummary(summary entity.AccountSummary) rest.AccountSummary {
	return rest.AccountSummary{
		ID:          summary.ID,
		FirstName:   summary.FirstName,
		Username:    summary.Username,
		Avatar:      summary.Avatar,
		Telegram:    summary.Telegram,
		IsVerified:  summary.IsVerified,
		Rating:      summary.Rating,
		ReviewCount: summary.ReviewCount,
	}
}

func newRESTLocation(location value.Location) rest.Location {
	return rest.Location{
		City: location.City,
		Lat:  location.Lat,
		Lng:  location.Lng,
	}
}

func newDomainLocation(location *rest.Location) value.Location {
	if location == nil {
		return value.Location{}
	}

	return value.Location{
		City: location.City,
		Lat:  location.Lat,
		Lng:  location.Lng,
	}
}

func newRESTListing(l *entity.Listing) rest.Listing {
	result := rest.Listing{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Currency:    l.Currency.String(),
		Category:    l.Category,
		Subcategory: l.Subcategory,
		Images:      l.Images,
		IsUrgent:    l.IsUrgent,
		IsVip:       l.IsVip,
		IsSafeDeal:  l.IsSafeDeal,
		Views:       l.Views,
		Likes:       l.Likes,
		Status:      l.Status.String(),
		ExpiresAt:   l.ExpiresAt,
		CreatedAt:   l.CreatedAt,
	}

	if l.Location.City != "" {
		location := newRESTLocation(l.Location)
		result.Location = &location
	}

	for _, option := range l.DeliveryOptions {
		result.DeliveryOptions = append(result.DeliveryOptions, rest.DeliveryOption{
			Type:        option.Type.String(),
			Price:       option.Price,
			Description: option.Description,
		})
	}

	return result
}

func newRESTListingView(view *entity.ListingView) rest.Listing {
	result := newRESTListing(&view.Listing)
	result.IsFavorite = view.IsFavorite

	if view.Seller != nil {
		seller := newRESTAccountSummary(*view.Seller)
		result.Seller = &seller
	}

	return result
}

func newRESTListingSummary(summary entity.ListingSummary) rest.ListingSummary {
	return rest.ListingSummary{
		ID:       summary.ID,
		Title:    summary.Title,
		Images:   summary.Images,
		Price:    summary.Price,
		Currency: summary.Currency.String(),
	}
}

func newRESTFeed(page *listing.FeedPage) rest.Feed {
	listings := lox.Map(page.Items, newRESTListing)

	totalPages := 0
	if page.Limit > 0 {
		totalPages = (page.Total + page.Limit - 1) / page.Limit
	}

	return rest.Feed{
		Listings:   listings,
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: totalPages,
	}
}

func newRESTDeal(d *entity.Deal) rest.Deal {
	return rest.Deal{
		ID:             d.ID,
		ListingID:      d.ListingID,
		BuyerID:        d.BuyerID,
		SellerID:       d.SellerID,
		Amount:         d.Amount,
		Currency:       d.Currency.String(),
		DeliveryOption: d.DeliveryOption.String(),
		Status:         d.Status.String(),
		DisputeReason:  d.DisputeReason,
		DisputedBy:     d.DisputedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func newRESTDealView(view *entity.DealView) rest.Deal {
	result := newRESTDeal(&view.Deal)
	result.Role = view.Role.String()

	if view.Listing != nil {
		summary := newRESTListingSummary(*view.Listing)
		result.Listing = &summary
	}

	if view.Buyer != nil {
		buyer := newRESTAccountSummary(*view.Buyer)
		result.Buyer = &buyer
	}

	if view.Seller != nil {
		seller := newRESTAccountSummary(*view.Seller)
		result.Seller = &seller
	}

	return result
}

func newRESTMessage(m *entity.Message) rest.Message {
	return rest.Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		ListingID:  m.ListingID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

func newRESTConversation(c message.ConversationView) rest.Conversation {
	result := rest.Conversation{
		ID:          c.PeerID,
		LastMessage: c.LastMessage,
		Time:        c.LastAt,
		Unread:      c.Unread,
		ListingID:   c.ListingID,
	}

	if c.Peer != nil {
		peer := newRESTAccountSummary(*c.Peer)
		result.User = &peer
	}

	return result
}

func newRESTPriceSuggestion(s *pricing.Suggestion) rest.PriceSuggestion {
	return rest.PriceSuggestion{
		SuggestedPrice: s.SuggestedPrice,
		Confidence:     s.Confidence,
		PriceRange: rest.PriceRange{
			Min: s.Min,
			Max: s.Max,
		},
		Factors: s.Factors,
	}
}

func newDomainDeliveryOptions(options []rest.DeliveryOption) ([]value.DeliveryOption, error) {
	return lox.MapErr(options, func(option rest.DeliveryOption) (value.DeliveryOption, error) {
		t, err := value.ParseDeliveryType(option.Type)
		if err != nil {
			return value.DeliveryOption{}, err
		}

		return value.DeliveryOption{
			Type:        t,
			Price:       option.Price,
			Description: option.Description,
		}, nil
	})
}
