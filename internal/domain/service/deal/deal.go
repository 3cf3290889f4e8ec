package deal

import (
	"context"
	"fmt"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/rs/xid"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/value"
	"topar_market/pkg/errcodes"
)

// dealRepository отвечает за атомарность переходов: условные обновления по
// ожидаемому статусу и транзакции, затрагивающие и сделку, и объявление.
type dealRepository interface {
	Create(ctx context.Context, deal *entity.Deal) error
	GetByID(ctx context.Context, id string) (*entity.Deal, error)
	ListByParticipant(ctx context.Context, accountID string) ([]*entity.Deal, error)
	UpdateStatus(ctx context.Context, id string, from, to value.DealStatus) (*entity.Deal, error)
	CompleteAndMarkSold(ctx context.Context, dealID, listingID string) (*entity.Deal, error)
	MarkDisputed(ctx context.Context, id, reason, accountID string) (*entity.Deal, error)
	RefundAndRelease(ctx context.Context, dealID, listingID string) (*entity.Deal, error)
}

type listingProvider interface {
	GetForDeal(ctx context.Context, id string) (*entity.Listing, error)
	Summaries(ctx context.Context, ids []string) (map[string]entity.ListingSummary, error)
}

type accountProvider interface {
	Summaries(ctx context.Context, ids []string) (map[string]entity.AccountSummary, error)
}

type Service struct {
	deals    dealRepository
	listings listingProvider
	accounts accountProvider
	now      func() time.Time
}

// NewService создаёт сервис Safe Deal сделок.
func NewService(
	deals dealRepository,
	listings listingProvider,
	accounts accountProvider,
) *Service {
	return &Service{
		deals:    deals,
		listings: listings,
		accounts: accounts,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now

	return s
}

type InitiateParams struct {
	ListingID      string
	DeliveryOption value.DeliveryType
	Amount         *int64
}

// Initiate создаёт сделку в статусе pending и резервирует объявление.
// Вызывающий становится покупателем; продавец и валюта снимаются с
// объявления в момент создания.
func (s *Service) Initiate(ctx context.Context, buyerID string, params InitiateParams) (*entity.Deal, error) {
	listing, err := s.listings.GetForDeal(ctx, params.ListingID)
	if err != nil {
		return nil, fmt.Errorf("listings.GetForDeal: %w", err)
	}

	if !listing.IsSafeDeal {
		return nil, failure.NewInvalidArgumentError(
			"listing is not enrolled in safe deal",
			failure.WithCode(errcodes.SafeDealUnavailable),
			failure.WithDescription("Safe deal not available for this listing"),
		)
	}

	if listing.SellerID == buyerID {
		return nil, failure.NewInvalidArgumentError(
			"buyer owns the listing",
			failure.WithCode(errcodes.SelfPurchase),
			failure.WithDescription("Cannot buy your own listing"),
		)
	}

	if listing.Status != value.ListingStatusActive {
		return nil, failure.NewInvalidArgumentError(
			"listing status is "+listing.Status.String(),
			failure.WithCode(errcodes.ListingUnavailable),
			failure.WithDescription("Listing is not available for purchase"),
		)
	}

	if !listing.OffersDelivery(params.DeliveryOption) {
		return nil, failure.NewInvalidArgumentError(
			"delivery option not offered: "+params.DeliveryOption.String(),
			failure.WithCode(errcodes.InvalidDeliveryOption),
			failure.WithDescription("Delivery option is not offered by the seller"),
		)
	}

	amount := listing.Price
	if params.Amount != nil {
		amount = *params.Amount
	}

	if amount <= 0 {
		return nil, failure.NewInvalidArgumentError(
			"amount must be positive",
			failure.WithCode(errcodes.InvalidAmount),
		)
	}

	now := s.now()
	deal := &entity.Deal{
		ID:             xid.New().String(),
		ListingID:      listing.ID,
		BuyerID:        buyerID,
		SellerID:       listing.SellerID,
		Amount:         amount,
		Currency:       listing.Currency,
		DeliveryOption: params.DeliveryOption,
		Status:         value.DealStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("deals.Create: %w", err)
	}

	transitionsTotal.WithLabelValues(value.DealStatusPending.String()).Inc()

	return deal, nil
}

// Pay переводит сделку pending -> paid. Разрешено только покупателю.
func (s *Service) Pay(ctx context.Context, callerID, dealID string) (*entity.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("deals.GetByID: %w", err)
	}

	if deal.BuyerID != callerID {
		return nil, errForbidden("only buyer can pay")
	}

	updated, err := s.deals.UpdateStatus(ctx, deal.ID, value.DealStatusPending, value.DealStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("deals.UpdateStatus: %w", err)
	}

	transitionsTotal.WithLabelValues(value.DealStatusPaid.String()).Inc()

	return updated, nil
}

// Ship переводит сделку paid -> shipped. Разрешено только продавцу.
func (s *Service) Ship(ctx context.Context, callerID, dealID string) (*entity.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("deals.GetByID: %w", err)
	}

	if deal.SellerID != callerID {
		return nil, errForbidden("only seller can mark as shipped")
	}

	updated, err := s.deals.UpdateStatus(ctx, deal.ID, value.DealStatusPaid, value.DealStatusShipped)
	if err != nil {
		return nil, fmt.Errorf("deals.UpdateStatus: %w", err)
	}

	transitionsTotal.WithLabelValues(value.DealStatusShipped.String()).Inc()

	return updated, nil
}

// Confirm завершает сделку: shipped -> completed, объявление -> sold.
// Оба изменения фиксируются одной транзакцией, частичного состояния
// наблюдать нельзя.
func (s *Service) Confirm(ctx context.Context, callerID, dealID string) (*entity.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("deals.GetByID: %w", err)
	}

	if deal.BuyerID != callerID {
		return nil, errForbidden("only buyer can confirm")
	}

	updated, err := s.deals.CompleteAndMarkSold(ctx, deal.ID, deal.ListingID)
	if err != nil {
		return nil, fmt.Errorf("deals.CompleteAndMarkSold: %w", err)
	}

	transitionsTotal.WithLabelValues(value.DealStatusCompleted.String()).Inc()

	return updated, nil
}

// Dispute открывает спор из любого нетерминального статуса. Статус
// объявления не меняется.
func (s *Service) Dispute(ctx context.Context, callerID, dealID, reason string) (*entity.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("deals.GetByID: %w", err)
	}

	if !deal.IsParticipant(callerID) {
		return nil, errForbidden("caller is not a party to the deal")
	}

	updated, err := s.deals.MarkDisputed(ctx, deal.ID, reason, callerID)
	if err != nil {
		return nil, fmt.Errorf("deals.MarkDisputed: %w", err)
	}

	transitionsTotal.WithLabelValues(value.DealStatusDisputed.String()).Inc()

	return updated, nil
}

// Refund закрывает спор возвратом: disputed -> refunded, объявление
// возвращается в active. Разрешено только продавцу.
func (s *Service) Refund(ctx context.Context, callerID, dealID string) (*entity.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("deals.GetByID: %w", err)
	}

	if deal.SellerID != callerID {
		return nil, errForbidden("only seller can refund")
	}

	updated, err := s.deals.RefundAndRelease(ctx, deal.ID, deal.ListingID)
	if err != nil {
		return nil, fmt.Errorf("deals.RefundAndRelease: %w", err)
	}

	transitionsTotal.WithLabelValues(value.DealStatusRefunded.String()).Inc()

	return updated, nil
}

// Get возвращает сделку с ролью вызывающего и карточками сторон. Доступ
// только участникам.
func (s *Service) Get(ctx context.Context, callerID, dealID string) (*entity.DealView, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("deals.GetByID: %w", err)
	}

	if !deal.IsParticipant(callerID) {
		return nil, errForbidden("caller is not a party to the deal")
	}

	views, err := s.enrich(ctx, callerID, []*entity.Deal{deal})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// ListForAccount возвращает сделки, где аккаунт выступает покупателем или
// продавцом, свежие первыми. Роль вычисляется независимо для каждой сделки.
func (s *Service) ListForAccount(ctx context.Context, accountID string) ([]entity.DealView, error) {
	deals, err := s.deals.ListByParticipant(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("deals.ListByParticipant: %w", err)
	}

	return s.enrich(ctx, accountID, deals)
}

func (s *Service) enrich(ctx context.Context, callerID string, deals []*entity.Deal) ([]entity.DealView, error) {
	listingIDs := make([]string, 0, len(deals))
	accountIDs := make([]string, 0, len(deals)*2)

	for _, d := range deals {
		listingIDs = append(listingIDs, d.ListingID)
		accountIDs = append(accountIDs, d.BuyerID, d.SellerID)
	}

	listings, err := s.listings.Summaries(ctx, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("listings.Summaries: %w", err)
	}

	accounts, err := s.accounts.Summaries(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("accounts.Summaries: %w", err)
	}

	views := make([]entity.DealView, 0, len(deals))

	for _, d := range deals {
		view := entity.DealView{
			Deal: *d,
			Role: d.RoleOf(callerID),
		}

		if listing, ok := listings[d.ListingID]; ok {
			view.Listing = &listing
		}

		if buyer, ok := accounts[d.BuyerID]; ok {
			view.Buyer = &buyer
		}

		if seller, ok := accounts[d.SellerID]; ok {
			view.Seller = &seller
		}

		views = append(views, view)
	}

	return views, nil
}

func errForbidden(message string) error {
	return failure.NewForbiddenError(
		message,
		failure.WithCode(errcodes.Forbidden),
		failure.WithDescription("Not authorized"),
	)
}
