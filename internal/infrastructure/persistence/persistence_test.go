package persistence_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"git.appkode.ru/pub/go/failure"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"
	"github.com/stretchr/testify/require"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/value"
	"topar_market/internal/infrastructure/persistence"
	"topar_market/pkg/dbtest"
	"topar_market/pkg/errcodes"
	"topar_market/pkg/tests"
)

// testDB подключается к базе из TEST_POSTGRES_DSN и накатывает схему.
// Без переменной окружения тест пропускается: юнит-прогон не требует postgres.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`DROP TABLE IF EXISTS messages, favorites, deals, listings, users CASCADE`)
	require.NoError(t, err)

	require.NoError(t, dbtest.MigrateFromFile(db, "../../../migrations/0001_init.sql"))

	return db
}

func seedUser(t *testing.T, db *sqlx.DB, username string) *entity.User {
	t.Helper()

	random := tests.NewRandomizer()

	user := &entity.User{
		ID:        xid.New().String(),
		Email:     username + "@example.com",
		Username:  username,
		Phone:     fmt.Sprintf("+99890%07d", int(random.Float64()*1e7)),
		Telegram:  "@" + username,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	repo := persistence.NewUserRepository(db)
	require.NoError(t, repo.Create(context.Background(), user))

	return user
}

func seedListing(t *testing.T, db *sqlx.DB, sellerID string) *entity.Listing {
	t.Helper()

	random := tests.NewRandomizer()

	listing := &entity.Listing{
		ID:          xid.New().String(),
		Title:       "Велосипед Forward",
		Description: "Почти не катался",
		Price:       1_000_000 + int64(random.Float64()*1_000_000),
		Currency:    value.CurrencyUZS,
		Category:    "hobby",
		Images:      []string{"https://cdn.example.com/bike.jpg"},
		SellerID:    sellerID,
		IsUrgent:    random.Bool(),
		IsSafeDeal:  true,
		DeliveryOptions: []value.DeliveryOption{
			{Type: value.DeliveryTypePickup},
		},
		Status:    value.ListingStatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	repo := persistence.NewListingRepository(db)
	require.NoError(t, repo.Create(context.Background(), listing))

	return listing
}

func TestDealRepositoryLifecycle(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := testDB(t)

	seller := seedUser(t, db, "seller_one")
	buyer := seedUser(t, db, "buyer_one")
	listing := seedListing(t, db, seller.ID)

	deals := persistence.NewDealRepository(db)
	listings := persistence.NewListingRepository(db)

	deal := &entity.Deal{
		ID:             xid.New().String(),
		ListingID:      listing.ID,
		BuyerID:        buyer.ID,
		SellerID:       seller.ID,
		Amount:         listing.Price,
		Currency:       listing.Currency,
		DeliveryOption: value.DeliveryTypePickup,
		Status:         value.DealStatusPending,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	rq.NoError(deals.Create(ctx, deal))

	// создание сделки резервирует объявление
	stored, err := listings.GetByID(ctx, listing.ID)
	rq.NoError(err)
	rq.Equal(value.ListingStatusReserved, stored.Status)

	// вторая сделка на то же объявление не проходит
	second := *deal
	second.ID = xid.New().String()
	err = deals.Create(ctx, &second)
	rq.Error(err)
	rq.True(failure.IsConflictError(err))

	// условный переход срабатывает один раз
	paid, err := deals.UpdateStatus(ctx, deal.ID, value.DealStatusPending, value.DealStatusPaid)
	rq.NoError(err)
	rq.Equal(value.DealStatusPaid, paid.Status)

	_, err = deals.UpdateStatus(ctx, deal.ID, value.DealStatusPending, value.DealStatusPaid)
	rq.Error(err)
	rq.True(failure.IsConflictError(err))
	rq.Equal(errcodes.InvalidDealStatus, failure.Code(err))

	_, err = deals.UpdateStatus(ctx, deal.ID, value.DealStatusPaid, value.DealStatusShipped)
	rq.NoError(err)

	// завершение закрывает сделку и объявление атомарно
	completed, err := deals.CompleteAndMarkSold(ctx, deal.ID, listing.ID)
	rq.NoError(err)
	rq.Equal(value.DealStatusCompleted, completed.Status)

	stored, err = listings.GetByID(ctx, listing.ID)
	rq.NoError(err)
	rq.Equal(value.ListingStatusSold, stored.Status)

	views, err := deals.ListByParticipant(ctx, buyer.ID)
	rq.NoError(err)
	rq.Len(views, 1)
}

func TestFavoriteRepositoryToggle(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := testDB(t)

	seller := seedUser(t, db, "seller_one")
	buyer := seedUser(t, db, "buyer_one")
	listing := seedListing(t, db, seller.ID)

	favorites := persistence.NewFavoriteRepository(db)

	favorited, likes, err := favorites.Toggle(ctx, buyer.ID, listing.ID)
	rq.NoError(err)
	rq.True(favorited)
	rq.Equal(1, likes)

	ids, err := favorites.ListingIDs(ctx, buyer.ID)
	rq.NoError(err)
	rq.Equal([]string{listing.ID}, ids)

	favorited, likes, err = favorites.Toggle(ctx, buyer.ID, listing.ID)
	rq.NoError(err)
	rq.False(favorited)
	rq.Equal(0, likes)

	// счётчик не уходит в минус даже при рассинхроне
	favorited, likes, err = favorites.Toggle(ctx, buyer.ID, listing.ID)
	rq.NoError(err)
	rq.True(favorited)
	rq.Equal(1, likes)
}

func TestListingRepositoryViewsAndStatus(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := testDB(t)

	seller := seedUser(t, db, "seller_one")
	first := seedListing(t, db, seller.ID)
	second := seedListing(t, db, seller.ID)

	listings := persistence.NewListingRepository(db)

	viewed, err := listings.GetForView(ctx, first.ID)
	rq.NoError(err)
	rq.Equal(1, viewed.Views)

	rq.NoError(listings.SetStatus(ctx, second.ID, value.ListingStatusDeleted))

	_, err = listings.GetForView(ctx, second.ID)
	rq.Error(err)
	rq.True(failure.IsNotFoundError(err))

	count, err := listings.CountActiveBySeller(ctx, seller.ID)
	rq.NoError(err)
	rq.Equal(1, count)
}

func TestFavoriteToggleConcurrentAccounts(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := testDB(t)

	seller := seedUser(t, db, "seller_one")
	listing := seedListing(t, db, seller.ID)

	// N разных аккаунтов жмут одновременно: относительная дельта
	// likes = likes + 1 не должна терять обновления.
	const fans = 16

	fanIDs := make([]string, fans)
	for i := range fans {
		fanIDs[i] = seedUser(t, db, "fan_"+strconv.Itoa(i)).ID
	}

	favorites := persistence.NewFavoriteRepository(db)

	var wg sync.WaitGroup

	for _, fanID := range fanIDs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			favorited, _, err := favorites.Toggle(ctx, fanID, listing.ID)
			rq.NoError(err)
			rq.True(favorited)
		}()
	}

	wg.Wait()

	listings := persistence.NewListingRepository(db)

	stored, err := listings.GetByID(ctx, listing.ID)
	rq.NoError(err)
	rq.Equal(fans, stored.Likes)

	ids, err := favorites.ListingIDs(ctx, fanIDs[0])
	rq.NoError(err)
	rq.Equal([]string{listing.ID}, ids)
}
