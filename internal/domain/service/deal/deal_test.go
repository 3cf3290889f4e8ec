package deal_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/stretchr/testify/require"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/deal"
	"topar_market/internal/domain/value"
	"topar_market/pkg/errcodes"
)

var errStorageFault = errors.New("storage fault")

const (
	buyerID  = "buyer-1"
	sellerID = "seller-1"
	otherID  = "other-1"
)

// fakeStore мимикрирует условные обновления и транзакционность реального
// репозитория: все проверки и записи выполняются под одной блокировкой.
type fakeStore struct {
	mu               sync.Mutex
	deals            map[string]*entity.Deal
	listings         map[string]*entity.Listing
	failListingWrite bool
}

func newFakeStore(listings ...*entity.Listing) *fakeStore {
	s := &fakeStore{
		deals:    map[string]*entity.Deal{},
		listings: map[string]*entity.Listing{},
	}

	for _, l := range listings {
		s.listings[l.ID] = l
	}

	return s
}

func (s *fakeStore) Create(_ context.Context, d *entity.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[d.ListingID]
	if !ok {
		return notFound(errcodes.ListingNotFound)
	}

	if listing.Status != value.ListingStatusActive {
		return conflict(errcodes.ListingUnavailable)
	}

	if s.failListingWrite {
		return errStorageFault
	}

	copied := *d
	s.deals[d.ID] = &copied
	listing.Status = value.ListingStatusReserved

	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*entity.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok {
		return nil, notFound(errcodes.DealNotFound)
	}

	copied := *d

	return &copied, nil
}

func (s *fakeStore) ListByParticipant(_ context.Context, accountID string) ([]*entity.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*entity.Deal

	for _, d := range s.deals {
		if d.BuyerID == accountID || d.SellerID == accountID {
			copied := *d
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, from, to value.DealStatus) (*entity.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok {
		return nil, notFound(errcodes.DealNotFound)
	}

	if d.Status != from {
		return nil, conflict(errcodes.InvalidDealStatus)
	}

	d.Status = to
	d.UpdatedAt = time.Now()
	copied := *d

	return &copied, nil
}

func (s *fakeStore) CompleteAndMarkSold(_ context.Context, dealID, listingID string) (*entity.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[dealID]
	if !ok {
		return nil, notFound(errcodes.DealNotFound)
	}

	if d.Status != value.DealStatusShipped {
		return nil, conflict(errcodes.InvalidDealStatus)
	}

	// Имитация отказа хранилища между двумя записями: транзакция
	// откатывается целиком, сделка остаётся как была.
	if s.failListingWrite {
		return nil, errStorageFault
	}

	d.Status = value.DealStatusCompleted
	d.UpdatedAt = time.Now()

	if listing, ok := s.listings[listingID]; ok {
		listing.Status = value.ListingStatusSold
	}

	copied := *d

	return &copied, nil
}

func (s *fakeStore) MarkDisputed(_ context.Context, id, reason, accountID string) (*entity.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok {
		return nil, notFound(errcodes.DealNotFound)
	}

	if !d.Status.CanDispute() {
		return nil, conflict(errcodes.InvalidDealStatus)
	}

	d.Status = value.DealStatusDisputed
	d.DisputeReason = &reason
	d.DisputedBy = &accountID
	d.UpdatedAt = time.Now()
	copied := *d

	return &copied, nil
}

func (s *fakeStore) RefundAndRelease(_ context.Context, dealID, listingID string) (*entity.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[dealID]
	if !ok {
		return nil, notFound(errcodes.DealNotFound)
	}

	if d.Status != value.DealStatusDisputed {
		return nil, conflict(errcodes.InvalidDealStatus)
	}

	d.Status = value.DealStatusRefunded
	d.UpdatedAt = time.Now()

	if listing, ok := s.listings[listingID]; ok {
		listing.Status = value.ListingStatusActive
	}

	copied := *d

	return &copied, nil
}

func (s *fakeStore) GetForDeal(_ context.Context, id string) (*entity.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, notFound(errcodes.ListingNotFound)
	}

	copied := *l

	return &copied, nil
}

func (s *fakeStore) Summaries(_ context.Context, ids []string) (map[string]entity.ListingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := map[string]entity.ListingSummary{}

	for _, id := range ids {
		if l, ok := s.listings[id]; ok {
			result[id] = l.Summary()
		}
	}

	return result, nil
}

func (s *fakeStore) listingStatus(id string) value.ListingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listings[id].Status
}

func (s *fakeStore) dealStatus(id string) value.DealStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deals[id].Status
}

type fakeAccounts struct {
	users map[string]entity.AccountSummary
}

func (f fakeAccounts) Summaries(_ context.Context, ids []string) (map[string]entity.AccountSummary, error) {
	result := map[string]entity.AccountSummary{}

	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			result[id] = u
		}
	}

	return result, nil
}

func notFound(code failure.ErrorCode) error {
	return failure.NewNotFoundError("not found", failure.WithCode(code))
}

func conflict(code failure.ErrorCode) error {
	return failure.NewConflictError("conflict", failure.WithCode(code))
}

func testListing() *entity.Listing {
	return &entity.Listing{
		ID:         "listing-1",
		Title:      "iPhone 15",
		Price:      100,
		Currency:   value.CurrencyUZS,
		SellerID:   sellerID,
		IsSafeDeal: true,
		Status:     value.ListingStatusActive,
		DeliveryOptions: []value.DeliveryOption{
			{Type: value.DeliveryTypePickup},
			{Type: value.DeliveryTypeCourier, Price: 20},
		},
	}
}

func newService(store *fakeStore) *deal.Service {
	accounts := fakeAccounts{users: map[string]entity.AccountSummary{
		buyerID:  {ID: buyerID, Username: "buyer"},
		sellerID: {ID: sellerID, Username: "seller"},
	}}

	return deal.NewService(store, store, accounts)
}

func TestInitiate(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore(testListing())
	svc := newService(store)

	created, err := svc.Initiate(ctx, buyerID, deal.InitiateParams{
		ListingID:      "listing-1",
		DeliveryOption: value.DeliveryTypeCourier,
	})
	rq.NoError(err)

	rq.NotEmpty(created.ID)
	rq.Equal(value.DealStatusPending, created.Status)
	rq.Equal(buyerID, created.BuyerID)
	rq.Equal(sellerID, created.SellerID)
	rq.Equal(int64(100), created.Amount, "amount defaults to listing price")
	rq.Equal(value.CurrencyUZS, created.Currency, "currency is snapshotted")
	rq.Equal(value.ListingStatusReserved, store.listingStatus("listing-1"))
}

func TestInitiateExplicitAmount(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore(testListing())
	svc := newService(store)

	amount := int64(90)

	created, err := svc.Initiate(ctx, buyerID, deal.InitiateParams{
		ListingID:      "listing-1",
		DeliveryOption: value.DeliveryTypePickup,
		Amount:         &amount,
	})
	rq.NoError(err)
	rq.Equal(int64(90), created.Amount)
}

func TestInitiateRejections(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		listing func() *entity.Listing
		buyer   string
		params  deal.InitiateParams
		check   func(rq *require.Assertions, err error)
	}{
		{
			name:    "listing not found",
			listing: testListing,
			buyer:   buyerID,
			params:  deal.InitiateParams{ListingID: "missing", DeliveryOption: value.DeliveryTypePickup},
			check: func(rq *require.Assertions, err error) {
				rq.True(failure.IsNotFoundError(err))
			},
		},
		{
			name: "not enrolled in safe deal",
			listing: func() *entity.Listing {
				l := testListing()
				l.IsSafeDeal = false
				return l
			},
			buyer:  buyerID,
			params: deal.InitiateParams{ListingID: "listing-1", DeliveryOption: value.DeliveryTypePickup},
			check: func(rq *require.Assertions, err error) {
				rq.Equal(errcodes.SafeDealUnavailable, failure.Code(err))
			},
		},
		{
			name:    "self purchase",
			listing: testListing,
			buyer:   sellerID,
			params:  deal.InitiateParams{ListingID: "listing-1", DeliveryOption: value.DeliveryTypePickup},
			check: func(rq *require.Assertions, err error) {
				rq.Equal(errcodes.SelfPurchase, failure.Code(err))
			},
		},
		{
			name: "listing already reserved",
			listing: func() *entity.Listing {
				l := testListing()
				l.Status = value.ListingStatusReserved
				return l
			},
			buyer:  buyerID,
			params: deal.InitiateParams{ListingID: "listing-1", DeliveryOption: value.DeliveryTypePickup},
			check: func(rq *require.Assertions, err error) {
				rq.Equal(errcodes.ListingUnavailable, failure.Code(err))
			},
		},
		{
			name:    "delivery option not offered",
			listing: testListing,
			buyer:   buyerID,
			params:  deal.InitiateParams{ListingID: "listing-1", DeliveryOption: value.DeliveryTypePickupPoint},
			check: func(rq *require.Assertions, err error) {
				rq.Equal(errcodes.InvalidDeliveryOption, failure.Code(err))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			store := newFakeStore(tc.listing())
			svc := newService(store)

			_, err := svc.Initiate(ctx, tc.buyer, tc.params)
			rq.Error(err)
			tc.check(rq, err)
			rq.Empty(store.deals, "no deal must be created")
		})
	}
}

func TestHappyPath(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore(testListing())
	svc := newService(store)

	created, err := svc.Initiate(ctx, buyerID, deal.InitiateParams{
		ListingID:      "listing-1",
		DeliveryOption: value.DeliveryTypePickup,
	})
	rq.NoError(err)
	rq.Equal(value.DealStatusPending, created.Status)
	rq.Equal(value.ListingStatusReserved, store.listingStatus("listing-1"))

	paid, err := svc.Pay(ctx, buyerID, created.ID)
	rq.NoError(err)
	rq.Equal(value.DealStatusPaid, paid.Status)

	shipped, err := svc.Ship(ctx, sellerID, created.ID)
	rq.NoError(err)
	rq.Equal(value.DealStatusShipped, shipped.Status)

	completed, err := svc.Confirm(ctx, buyerID, created.ID)
	rq.NoError(err)
	rq.Equal(value.DealStatusCompleted, completed.Status)
	rq.Equal(value.ListingStatusSold, store.listingStatus("listing-1"))

	// Терминальный статус: спор больше не открыть.
	_, err = svc.Dispute(ctx, buyerID, created.ID, "changed my mind")
	rq.Error(err)
	rq.Equal(errcodes.InvalidDealStatus, failure.Code(err))
	rq.Equal(value.DealStatusCompleted, store.dealStatus(created.ID))
}

func TestTransitionGuards(t *testing.T) {
	ctx := context.Background()

	type action func(svc *deal.Service, dealID string) error

	pay := func(caller string) action {
		return func(svc *deal.Service, dealID string) error {
			_, err := svc.Pay(ctx, caller, dealID)
			return err
		}
	}
	ship := func(caller string) action {
		return func(svc *deal.Service, dealID string) error {
			_, err := svc.Ship(ctx, caller, dealID)
			return err
		}
	}
	confirm := func(caller string) action {
		return func(svc *deal.Service, dealID string) error {
			_, err := svc.Confirm(ctx, caller, dealID)
			return err
		}
	}
	refund := func(caller string) action {
		return func(svc *deal.Service, dealID string) error {
			_, err := svc.Refund(ctx, caller, dealID)
			return err
		}
	}

	testCases := []struct {
		name     string
		status   value.DealStatus
		act      action
		wantCode failure.ErrorCode
		wantKind func(error) bool
	}{
		{name: "pay by seller", status: value.DealStatusPending, act: pay(sellerID), wantKind: failure.IsForbiddenError},
		{name: "pay by stranger", status: value.DealStatusPending, act: pay(otherID), wantKind: failure.IsForbiddenError},
		{name: "pay twice", status: value.DealStatusPaid, act: pay(buyerID), wantCode: errcodes.InvalidDealStatus},
		{name: "ship by buyer", status: value.DealStatusPaid, act: ship(buyerID), wantKind: failure.IsForbiddenError},
		{name: "ship before payment", status: value.DealStatusPending, act: ship(sellerID), wantCode: errcodes.InvalidDealStatus},
		{name: "confirm by seller", status: value.DealStatusShipped, act: confirm(sellerID), wantKind: failure.IsForbiddenError},
		{name: "confirm before shipping", status: value.DealStatusPaid, act: confirm(buyerID), wantCode: errcodes.InvalidDealStatus},
		{name: "refund by buyer", status: value.DealStatusDisputed, act: refund(buyerID), wantKind: failure.IsForbiddenError},
		{name: "refund without dispute", status: value.DealStatusPaid, act: refund(sellerID), wantCode: errcodes.InvalidDealStatus},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			store := newFakeStore(testListing())
			svc := newService(store)

			store.deals["deal-1"] = &entity.Deal{
				ID:        "deal-1",
				ListingID: "listing-1",
				BuyerID:   buyerID,
				SellerID:  sellerID,
				Status:    tc.status,
			}

			err := tc.act(svc, "deal-1")
			rq.Error(err)

			if tc.wantKind != nil {
				rq.True(tc.wantKind(err))
			}

			if tc.wantCode != "" {
				rq.Equal(tc.wantCode, failure.Code(err))
			}

			rq.Equal(tc.status, store.dealStatus("deal-1"), "status must stay unchanged")
		})
	}
}

func TestDispute(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore(testListing())
	svc := newService(store)

	created, err := svc.Initiate(ctx, buyerID, deal.InitiateParams{
		ListingID:      "listing-1",
		DeliveryOption: value.DeliveryTypePickup,
	})
	rq.NoError(err)

	_, err = svc.Pay(ctx, buyerID, created.ID)
	rq.NoError(err)

	disputed, err := svc.Dispute(ctx, sellerID, created.ID, "buyer unreachable")
	rq.NoError(err)
	rq.Equal(value.DealStatusDisputed, disputed.Status)
	rq.NotNil(disputed.DisputeReason)
	rq.Equal("buyer unreachable", *disputed.DisputeReason)
	rq.NotNil(disputed.DisputedBy)
	rq.Equal(sellerID, *disputed.DisputedBy)

	// Статус объявления спор не трогает.
	rq.Equal(value.ListingStatusReserved, store.listingStatus("listing-1"))

	_, err = svc.Dispute(ctx, otherID, created.ID, "I just do not like it")
	rq.Error(err)
	rq.True(failure.IsForbiddenError(err))
}

func TestRefund(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore(testListing())
	svc := newService(store)

	created, err := svc.Initiate(ctx, buyerID, deal.InitiateParams{
		ListingID:      "listing-1",
		DeliveryOption: value.DeliveryTypePickup,
	})
	rq.NoError(err)

	_, err = svc.Pay(ctx, buyerID, created.ID)
	rq.NoError(err)

	_, err = svc.Dispute(ctx, buyerID, created.ID, "item not as described")
	rq.NoError(err)

	refunded, err := svc.Refund(ctx, sellerID, created.ID)
	rq.NoError(err)
	rq.Equal(value.DealStatusRefunded, refunded.Status)
	rq.Equal(value.ListingStatusActive, store.listingStatus("listing-1"), "listing is released back to the market")
}

func TestConcurrentPay(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore(testListing())
	svc := newService(store)

	created, err := svc.Initiate(ctx, buyerID, deal.InitiateParams{
		ListingID:      "listing-1",
		DeliveryOption: value.DeliveryTypePickup,
	})
	rq.NoError(err)

	const attempts = 2

	errs := make(chan error, attempts)

	var wg sync.WaitGroup

	for range attempts {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.Pay(ctx, buyerID, created.ID)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var succeeded, conflicted int

	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case failure.Code(err) == errcodes.InvalidDealStatus:
			conflicted++
		default:
			rq.FailNow("unexpected error", err)
		}
	}

	rq.Equal(1, succeeded, "exactly one pay must win")
	rq.Equal(1, conflicted)
	rq.Equal(value.DealStatusPaid, store.dealStatus(created.ID))
}

func TestConfirmAtomicity(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore(testListing())
	svc := newService(store)

	created, err := svc.Initiate(ctx, buyerID, deal.InitiateParams{
		ListingID:      "listing-1",
		DeliveryOption: value.DeliveryTypePickup,
	})
	rq.NoError(err)

	_, err = svc.Pay(ctx, buyerID, created.ID)
	rq.NoError(err)
	_, err = svc.Ship(ctx, sellerID, created.ID)
	rq.NoError(err)

	store.failListingWrite = true

	_, err = svc.Confirm(ctx, buyerID, created.ID)
	rq.Error(err)

	// Ни одна из двух записей не зафиксирована.
	rq.Equal(value.DealStatusShipped, store.dealStatus(created.ID))
	rq.Equal(value.ListingStatusReserved, store.listingStatus("listing-1"))

	store.failListingWrite = false

	completed, err := svc.Confirm(ctx, buyerID, created.ID)
	rq.NoError(err)
	rq.Equal(value.DealStatusCompleted, completed.Status)
	rq.Equal(value.ListingStatusSold, store.listingStatus("listing-1"))
}

func TestGet(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore(testListing())
	svc := newService(store)

	created, err := svc.Initiate(ctx, buyerID, deal.InitiateParams{
		ListingID:      "listing-1",
		DeliveryOption: value.DeliveryTypePickup,
	})
	rq.NoError(err)

	asBuyer, err := svc.Get(ctx, buyerID, created.ID)
	rq.NoError(err)
	rq.Equal(value.RoleBuyer, asBuyer.Role)
	rq.NotNil(asBuyer.Listing)
	rq.Equal("iPhone 15", asBuyer.Listing.Title)
	rq.NotNil(asBuyer.Buyer)
	rq.NotNil(asBuyer.Seller)
	rq.Equal("seller", asBuyer.Seller.Username)

	asSeller, err := svc.Get(ctx, sellerID, created.ID)
	rq.NoError(err)
	rq.Equal(value.RoleSeller, asSeller.Role)

	_, err = svc.Get(ctx, otherID, created.ID)
	rq.Error(err)
	rq.True(failure.IsForbiddenError(err))
}

func TestListForAccount(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Now()

	store := newFakeStore(testListing())
	svc := newService(store)

	// Один и тот же аккаунт покупает в одной сделке и продаёт в другой:
	// роль обязана вычисляться по каждой сделке отдельно.
	store.deals["deal-old"] = &entity.Deal{
		ID:        "deal-old",
		ListingID: "listing-1",
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Status:    value.DealStatusCompleted,
		CreatedAt: now.Add(-time.Hour),
	}
	store.deals["deal-new"] = &entity.Deal{
		ID:        "deal-new",
		ListingID: "listing-1",
		BuyerID:   otherID,
		SellerID:  buyerID,
		Status:    value.DealStatusPending,
		CreatedAt: now,
	}

	views, err := svc.ListForAccount(ctx, buyerID)
	rq.NoError(err)
	rq.Len(views, 2)

	rq.Equal("deal-new", views[0].ID, "newest first")
	rq.Equal(value.RoleSeller, views[0].Role)
	rq.Equal("deal-old", views[1].ID)
	rq.Equal(value.RoleBuyer, views[1].Role)
}
