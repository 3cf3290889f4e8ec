package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/jmoiron/sqlx"

	"topar_market/internal/domain"
	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/listing"
	"topar_market/internal/domain/value"
	"topar_market/pkg/errcodes"
)

const listingColumns = `id, title, description, price, currency, category, subcategory,
	images, seller_id, location, is_urgent, is_vip, is_safe_deal, views, likes,
	delivery_options, status, expires_at, created_at`

type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository создаёт новый экземпляр репозитория.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create сохраняет новое объявление.
func (r *ListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	schema, err := fromListing(listing)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to map listing")
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (:id, :title, :description, :price, :currency, :category, :subcategory,
			:images, :seller_id, :location, :is_urgent, :is_vip, :is_safe_deal, :views, :likes,
			:delivery_options, :status, :expires_at, :created_at)`,
		schema)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert listing")
	}

	return nil
}

// GetByID возвращает объявление по идентификатору.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	var schema listingSchema

	err := r.db.GetContext(ctx, &schema,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errListingNotFound()
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get listing")
	}

	return schema.toDomain()
}

// GetForDeal возвращает объявление для проверки перед созданием сделки.
func (r *ListingRepository) GetForDeal(ctx context.Context, id string) (*entity.Listing, error) {
	return r.GetByID(ctx, id)
}

// GetForView атомарно засчитывает просмотр и возвращает объявление.
// Удалённые объявления не находятся.
func (r *ListingRepository) GetForView(ctx context.Context, id string) (*entity.Listing, error) {
	var schema listingSchema

	err := r.db.GetContext(ctx, &schema, `
		UPDATE listings SET views = views + 1
		WHERE id = $1 AND status <> $2
		RETURNING `+listingColumns,
		id, value.ListingStatusDeleted.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errListingNotFound()
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to count view")
	}

	return schema.toDomain()
}

// Feed возвращает страницу активных объявлений по фильтрам вместе с общим
// количеством. VIP-объявления всегда впереди.
func (r *ListingRepository) Feed(ctx context.Context, params listing.FeedParams) ([]*entity.Listing, int, error) {
	where := []string{"status = $1"}
	args := []any{value.ListingStatusActive.String()}

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if params.Category != "" {
		where = append(where, "category = "+arg(params.Category))
	}

	if params.Subcategory != "" {
		where = append(where, "subcategory = "+arg(params.Subcategory))
	}

	if params.PriceMin != nil {
		where = append(where, "price >= "+arg(*params.PriceMin))
	}

	if params.PriceMax != nil {
		where = append(where, "price <= "+arg(*params.PriceMax))
	}

	if params.City != "" {
		where = append(where, "location->>'city' = "+arg(params.City))
	}

	if params.Urgent != nil {
		where = append(where, "is_urgent = "+arg(*params.Urgent))
	}

	condition := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM listings WHERE "+condition, args...); err != nil {
		return nil, 0, domain.WrapError(err, errcodes.InternalServerError, "failed to count feed")
	}

	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE %s ORDER BY is_vip DESC, %s LIMIT %s OFFSET %s",
		listingColumns, condition, feedOrder(params.Sort),
		arg(params.Limit), arg((params.Page-1)*params.Limit))

	var schemas []listingSchema
	if err := r.db.SelectContext(ctx, &schemas, query, args...); err != nil {
		return nil, 0, domain.WrapError(err, errcodes.InternalServerError, "failed to query feed")
	}

	listings := make([]*entity.Listing, 0, len(schemas))

	for _, s := range schemas {
		l, err := s.toDomain()
		if err != nil {
			return nil, 0, domain.WrapError(err, errcodes.InternalServerError, "failed to map listing")
		}

		listings = append(listings, l)
	}

	return listings, total, nil
}

func feedOrder(sort listing.FeedSort) string {
	switch sort {
	case listing.FeedSortPriceAsc:
		return "price ASC"
	case listing.FeedSortPriceDesc:
		return "price DESC"
	case listing.FeedSortViews:
		return "views DESC"
	default:
		return "created_at DESC"
	}
}

// Update перезаписывает редактируемые поля объявления.
func (r *ListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	schema, err := fromListing(listing)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to map listing")
	}

	result, err := r.db.NamedExecContext(ctx, `
		UPDATE listings SET title = :title, description = :description, price = :price,
			category = :category, subcategory = :subcategory, images = :images,
			location = :location, is_safe_deal = :is_safe_deal, delivery_options = :delivery_options
		WHERE id = :id`,
		schema)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update listing")
	}

	return checkAffected(result, errListingNotFound)
}

// SetStatus переводит объявление в указанный статус.
func (r *ListingRepository) SetStatus(ctx context.Context, id string, status value.ListingStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET status = $1 WHERE id = $2`, status.String(), id)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to set listing status")
	}

	return checkAffected(result, errListingNotFound)
}

// MarkVip поднимает объявление в VIP-блок.
func (r *ListingRepository) MarkVip(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET is_vip = TRUE WHERE id = $1`, id)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to mark listing vip")
	}

	return checkAffected(result, errListingNotFound)
}

// ListBySeller возвращает объявления продавца, свежие первыми.
func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID string, status *value.ListingStatus) ([]*entity.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE seller_id = $1`
	args := []any{sellerID}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, status.String())
	}

	query += ` ORDER BY created_at DESC`

	var schemas []listingSchema
	if err := r.db.SelectContext(ctx, &schemas, query, args...); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list seller listings")
	}

	listings := make([]*entity.Listing, 0, len(schemas))

	for _, s := range schemas {
		l, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to map listing")
		}

		listings = append(listings, l)
	}

	return listings, nil
}

// CountActiveBySeller возвращает число активных объявлений продавца.
func (r *ListingRepository) CountActiveBySeller(ctx context.Context, sellerID string) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM listings WHERE seller_id = $1 AND status = $2`,
		sellerID, value.ListingStatusActive.String())
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to count listings")
	}

	return count, nil
}

// ExpireOverdue переводит просроченные активные объявления в expired.
func (r *ListingRepository) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE listings SET status = $1
		WHERE status = $2 AND expires_at IS NOT NULL AND expires_at < $3`,
		value.ListingStatusExpired.String(), value.ListingStatusActive.String(), now)
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to expire listings")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to check rows affected")
	}

	return int(rows), nil
}

// Summaries возвращает карточки объявлений для вложенных ответов.
func (r *ListingRepository) Summaries(ctx context.Context, ids []string) (map[string]entity.ListingSummary, error) {
	if len(ids) == 0 {
		return map[string]entity.ListingSummary{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, title, images, price, currency FROM listings WHERE id IN (?)`, ids)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to build query")
	}

	type summarySchema struct {
		ID       string `db:"id"`
		Title    string `db:"title"`
		Images   []byte `db:"images"`
		Price    int64  `db:"price"`
		Currency string `db:"currency"`
	}

	var schemas []summarySchema
	if err := r.db.SelectContext(ctx, &schemas, r.db.Rebind(query), args...); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get summaries")
	}

	result := make(map[string]entity.ListingSummary, len(schemas))

	for _, s := range schemas {
		currency, err := value.ParseCurrency(s.Currency)
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to map summary")
		}

		var images []string
		if len(s.Images) > 0 {
			if err := json.Unmarshal(s.Images, &images); err != nil {
				return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to map summary")
			}
		}

		result[s.ID] = entity.ListingSummary{
			ID:       s.ID,
			Title:    s.Title,
			Images:   images,
			Price:    s.Price,
			Currency: currency,
		}
	}

	return result, nil
}

func checkAffected(result sql.Result, missing func() error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check rows affected")
	}

	if rows == 0 {
		return missing()
	}

	return nil
}

func errListingNotFound() error {
	return failure.NewNotFoundError(
		"listing not found",
		failure.WithCode(errcodes.ListingNotFound),
	)
}
