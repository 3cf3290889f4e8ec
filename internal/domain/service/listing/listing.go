package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/rs/xid"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/value"
	"topar_market/pkg/errcodes"
)

const (
	defaultLimit     = 20
	maxLimit         = 100
	urgentListingTTL = 24 * time.Hour
)

type listingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	// GetForView атомарно инкрементирует счётчик просмотров и возвращает
	// объявление. Удалённые объявления не находятся.
	GetForView(ctx context.Context, id string) (*entity.Listing, error)
	Feed(ctx context.Context, params FeedParams) ([]*entity.Listing, int, error)
	Update(ctx context.Context, listing *entity.Listing) error
	SetStatus(ctx context.Context, id string, status value.ListingStatus) error
	MarkVip(ctx context.Context, id string) error
	ListBySeller(ctx context.Context, sellerID string, status *value.ListingStatus) ([]*entity.Listing, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type favoriteRepository interface {
	// Toggle создаёт или удаляет избранное и меняет счётчик лайков в одной
	// транзакции. Возвращает новое состояние пары и счётчик.
	Toggle(ctx context.Context, accountID, listingID string) (favorited bool, likes int, err error)
	IsFavorite(ctx context.Context, accountID, listingID string) (bool, error)
	ListingIDs(ctx context.Context, accountID string) ([]string, error)
}

type accountProvider interface {
	Summaries(ctx context.Context, ids []string) (map[string]entity.AccountSummary, error)
}

// feedCache срезает повторные запросы ленты. Промах и ошибка кэша
// равнозначны: лента всегда собирается из базы.
type feedCache interface {
	Get(ctx context.Context, key string) (*FeedPage, bool)
	Set(ctx context.Context, key string, page *FeedPage)
}

type FeedPage struct {
	Items []*entity.Listing `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type FeedSort string

const (
	FeedSortNewest    FeedSort = "newest"
	FeedSortPriceAsc  FeedSort = "price_asc"
	FeedSortPriceDesc FeedSort = "price_desc"
	FeedSortViews     FeedSort = "views"
)

type FeedParams struct {
	Category    string
	Subcategory string
	PriceMin    *int64
	PriceMax    *int64
	City        string
	Urgent      *bool
	Sort        FeedSort
	Page        int
	Limit       int
}

func (p *FeedParams) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}

	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}

	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	switch p.Sort {
	case FeedSortNewest, FeedSortPriceAsc, FeedSortPriceDesc, FeedSortViews:
	default:
		p.Sort = FeedSortNewest
	}
}

func (p FeedParams) cacheKey() string {
	var b strings.Builder

	b.WriteString("feed:")
	b.WriteString(p.Category)
	b.WriteByte(':')
	b.WriteString(p.Subcategory)
	b.WriteByte(':')

	if p.PriceMin != nil {
		b.WriteString(strconv.FormatInt(*p.PriceMin, 10))
	}

	b.WriteByte(':')

	if p.PriceMax != nil {
		b.WriteString(strconv.FormatInt(*p.PriceMax, 10))
	}

	b.WriteByte(':')
	b.WriteString(p.City)
	b.WriteByte(':')

	if p.Urgent != nil {
		b.WriteString(strconv.FormatBool(*p.Urgent))
	}

	b.WriteByte(':')
	b.WriteString(string(p.Sort))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(p.Page))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(p.Limit))

	return b.String()
}

type Service struct {
	listings  listingRepository
	favorites favoriteRepository
	accounts  accountProvider
	cache     feedCache
	now       func() time.Time
}

// NewService создаёт сервис реестра объявлений. cache может быть nil, тогда
// лента всегда читается из базы.
func NewService(
	listings listingRepository,
	favorites favoriteRepository,
	accounts accountProvider,
	cache feedCache,
) *Service {
	return &Service{
		listings:  listings,
		favorites: favorites,
		accounts:  accounts,
		cache:     cache,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now

	return s
}

type CreateParams struct {
	Title           string
	Description     string
	Price           int64
	Currency        string
	Category        string
	Subcategory     string
	Images          []string
	Location        value.Location
	IsUrgent        bool
	IsSafeDeal      bool
	DeliveryOptions []value.DeliveryOption
}

// Create публикует объявление. Валюта по умолчанию UZS, доставка по
// умолчанию бесплатный самовывоз, срочные объявления живут 24 часа.
func (s *Service) Create(ctx context.Context, sellerID string, params CreateParams) (*entity.Listing, error) {
	if params.Price <= 0 {
		return nil, failure.NewInvalidArgumentError(
			"price must be positive",
			failure.WithCode(errcodes.InvalidAmount),
		)
	}

	currency, err := value.ParseCurrency(params.Currency)
	if err != nil {
		return nil, failure.NewInvalidArgumentError(
			"unknown currency "+params.Currency,
			failure.WithCode(errcodes.ValidationError),
		)
	}

	deliveryOptions := params.DeliveryOptions
	if len(deliveryOptions) == 0 {
		deliveryOptions = value.DefaultDeliveryOptions()
	}

	now := s.now()
	listing := &entity.Listing{
		ID:              xid.New().String(),
		Title:           params.Title,
		Description:     params.Description,
		Price:           params.Price,
		Currency:        currency,
		Category:        params.Category,
		Subcategory:     params.Subcategory,
		Images:          params.Images,
		SellerID:        sellerID,
		Location:        params.Location,
		IsUrgent:        params.IsUrgent,
		IsSafeDeal:      params.IsSafeDeal,
		DeliveryOptions: deliveryOptions,
		Status:          value.ListingStatusActive,
		CreatedAt:       now,
	}

	if params.IsUrgent {
		expiresAt := now.Add(urgentListingTTL)
		listing.ExpiresAt = &expiresAt
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("listings.Create: %w", err)
	}

	return listing, nil
}

// Get возвращает объявление и засчитывает просмотр. callerID может быть
// пустым для анонимного запроса.
func (s *Service) Get(ctx context.Context, callerID, listingID string) (*entity.ListingView, error) {
	listing, err := s.listings.GetForView(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("listings.GetForView: %w", err)
	}

	view := &entity.ListingView{Listing: *listing}

	if callerID != "" {
		isFavorite, err := s.favorites.IsFavorite(ctx, callerID, listingID)
		if err != nil {
			return nil, fmt.Errorf("favorites.IsFavorite: %w", err)
		}

		view.IsFavorite = isFavorite
	}

	sellers, err := s.accounts.Summaries(ctx, []string{listing.SellerID})
	if err != nil {
		return nil, fmt.Errorf("accounts.Summaries: %w", err)
	}

	if seller, ok := sellers[listing.SellerID]; ok {
		view.Seller = &seller
	}

	return view, nil
}

// Feed возвращает страницу ленты активных объявлений.
func (s *Service) Feed(ctx context.Context, params FeedParams) (*FeedPage, error) {
	params.normalize()

	key := params.cacheKey()

	if s.cache != nil {
		if page, ok := s.cache.Get(ctx, key); ok {
			return page, nil
		}
	}

	items, total, err := s.listings.Feed(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("listings.Feed: %w", err)
	}

	page := &FeedPage{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, page)
	}

	return page, nil
}

type UpdateParams struct {
	Title       *string
	Description *string
	Price       *int64
	Category    *string
	Subcategory *string
	Images      []string
	Location    *value.Location
	IsSafeDeal  *bool
}

// Update правит объявление. Разрешено только продавцу и только пока
// объявление не продано.
func (s *Service) Update(ctx context.Context, callerID, listingID string, params UpdateParams) (*entity.Listing, error) {
	listing, err := s.ownedListing(ctx, callerID, listingID)
	if err != nil {
		return nil, err
	}

	if listing.Status == value.ListingStatusSold || listing.Status == value.ListingStatusReserved {
		return nil, failure.NewConflictError(
			"listing status is "+listing.Status.String(),
			failure.WithCode(errcodes.ListingUnavailable),
			failure.WithDescription("Listing cannot be edited in its current status"),
		)
	}

	if params.Title != nil {
		listing.Title = *params.Title
	}

	if params.Description != nil {
		listing.Description = *params.Description
	}

	if params.Price != nil {
		if *params.Price <= 0 {
			return nil, failure.NewInvalidArgumentError(
				"price must be positive",
				failure.WithCode(errcodes.InvalidAmount),
			)
		}

		listing.Price = *params.Price
	}

	if params.Category != nil {
		listing.Category = *params.Category
	}

	if params.Subcategory != nil {
		listing.Subcategory = *params.Subcategory
	}

	if params.Images != nil {
		listing.Images = params.Images
	}

	if params.Location != nil {
		listing.Location = *params.Location
	}

	if params.IsSafeDeal != nil {
		listing.IsSafeDeal = *params.IsSafeDeal
	}

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("listings.Update: %w", err)
	}

	return listing, nil
}

// Delete мягко удаляет объявление.
func (s *Service) Delete(ctx context.Context, callerID, listingID string) error {
	if _, err := s.ownedListing(ctx, callerID, listingID); err != nil {
		return err
	}

	if err := s.listings.SetStatus(ctx, listingID, value.ListingStatusDeleted); err != nil {
		return fmt.Errorf("listings.SetStatus: %w", err)
	}

	return nil
}

// Boost поднимает объявление в VIP-блок.
func (s *Service) Boost(ctx context.Context, callerID, listingID string) (*entity.Listing, error) {
	listing, err := s.ownedListing(ctx, callerID, listingID)
	if err != nil {
		return nil, err
	}

	if err := s.listings.MarkVip(ctx, listingID); err != nil {
		return nil, fmt.Errorf("listings.MarkVip: %w", err)
	}

	listing.IsVip = true

	return listing, nil
}

// ListForSeller возвращает объявления продавца с необязательным фильтром по
// статусу.
func (s *Service) ListForSeller(ctx context.Context, sellerID string, status *value.ListingStatus) ([]*entity.Listing, error) {
	listings, err := s.listings.ListBySeller(ctx, sellerID, status)
	if err != nil {
		return nil, fmt.Errorf("listings.ListBySeller: %w", err)
	}

	return listings, nil
}

// ExpireOverdue переводит просроченные активные объявления в expired.
// Запускается периодической задачей.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := s.listings.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("listings.ExpireOverdue: %w", err)
	}

	return expired, nil
}

// ToggleFavorite добавляет объявление в избранное либо убирает, если оно
// уже там. Счётчик лайков меняется вместе с записью.
func (s *Service) ToggleFavorite(ctx context.Context, callerID, listingID string) (bool, int, error) {
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return false, 0, fmt.Errorf("listings.GetByID: %w", err)
	}

	favorited, likes, err := s.favorites.Toggle(ctx, callerID, listingID)
	if err != nil {
		return false, 0, fmt.Errorf("favorites.Toggle: %w", err)
	}

	return favorited, likes, nil
}

// ListFavorites возвращает избранные объявления аккаунта с карточками
// продавцов.
func (s *Service) ListFavorites(ctx context.Context, callerID string) ([]entity.ListingView, error) {
	ids, err := s.favorites.ListingIDs(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("favorites.ListingIDs: %w", err)
	}

	views := make([]entity.ListingView, 0, len(ids))
	sellerIDs := make([]string, 0, len(ids))

	for _, id := range ids {
		listing, err := s.listings.GetByID(ctx, id)
		if err != nil {
			if failure.IsNotFoundError(err) {
				continue
			}

			return nil, fmt.Errorf("listings.GetByID: %w", err)
		}

		views = append(views, entity.ListingView{Listing: *listing, IsFavorite: true})
		sellerIDs = append(sellerIDs, listing.SellerID)
	}

	sellers, err := s.accounts.Summaries(ctx, sellerIDs)
	if err != nil {
		return nil, fmt.Errorf("accounts.Summaries: %w", err)
	}

	for i := range views {
		if seller, ok := sellers[views[i].SellerID]; ok {
			views[i].Seller = &seller
		}
	}

	return views, nil
}

func (s *Service) ownedListing(ctx context.Context, callerID, listingID string) (*entity.Listing, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("listings.GetByID: %w", err)
	}

	if listing.Status == value.ListingStatusDeleted {
		return nil, failure.NewNotFoundError(
			"listing is deleted",
			failure.WithCode(errcodes.ListingNotFound),
		)
	}

	if listing.SellerID != callerID {
		return nil, failure.NewForbiddenError(
			"caller does not own the listing",
			failure.WithCode(errcodes.Forbidden),
			failure.WithDescription("Not authorized"),
		)
	}

	return listing, nil
}
