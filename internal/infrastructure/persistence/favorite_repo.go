package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"topar_market/internal/domain"
	"topar_market/internal/domain/entity"
	"topar_market/pkg/errcodes"
)

type FavoriteRepository struct {
	db *sqlx.DB
}

// NewFavoriteRepository создаёт новый экземпляр репозитория.
func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// withTx выполняет функцию в транзакции.
func (r *FavoriteRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// Toggle добавляет или снимает избранное. Запись и счётчик лайков меняются
// в одной транзакции, дельта считается относительным обновлением, поэтому
// конкурентные вызовы разных аккаунтов не теряются.
func (r *FavoriteRepository) Toggle(ctx context.Context, accountID, listingID string) (bool, int, error) {
	var (
		favorited bool
		likes     int
	)

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`,
			accountID, listingID)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to delete favorite")
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to check rows affected")
		}

		if deleted > 0 {
			favorited = false

			err = tx.GetContext(ctx, &likes, `
				UPDATE listings SET likes = GREATEST(likes - 1, 0)
				WHERE id = $1
				RETURNING likes`, listingID)
			if err != nil {
				return domain.WrapError(err, errcodes.InternalServerError, "failed to decrement likes")
			}

			return nil
		}

		favorited = true

		favorite := entity.Favorite{
			ID:        xid.New().String(),
			UserID:    accountID,
			ListingID: listingID,
			CreatedAt: time.Now(),
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO favorites (id, user_id, listing_id, created_at)
			VALUES (:id, :user_id, :listing_id, :created_at)`, favorite)
		if err != nil {
			return favoriteInsertError(err)
		}

		err = tx.GetContext(ctx, &likes, `
			UPDATE listings SET likes = likes + 1
			WHERE id = $1
			RETURNING likes`, listingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return failure.NewNotFoundError(
					"listing not found",
					failure.WithCode(errcodes.ListingNotFound),
				)
			}
			return domain.WrapError(err, errcodes.InternalServerError, "failed to increment likes")
		}

		return nil
	})
	if err != nil {
		return false, 0, err
	}

	return favorited, likes, nil
}

// IsFavorite проверяет наличие пары аккаунт-объявление.
func (r *FavoriteRepository) IsFavorite(ctx context.Context, accountID, listingID string) (bool, error) {
	var exists bool

	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND listing_id = $2)`,
		accountID, listingID)
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to check favorite")
	}

	return exists, nil
}

// ListingIDs возвращает идентификаторы избранных объявлений аккаунта,
// свежие первыми.
func (r *FavoriteRepository) ListingIDs(ctx context.Context, accountID string) ([]string, error) {
	var ids []string

	err := r.db.SelectContext(ctx, &ids, `
		SELECT listing_id FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list favorites")
	}

	return ids, nil
}

const pgUniqueViolation = "23505"

// favoriteInsertError переводит нарушение уникального индекса пары
// (user_id, listing_id) в конфликт: два параллельных toggle одного аккаунта
// оба промахиваются мимо DELETE, проигравший INSERT должен вернуть 409,
// а не внутреннюю ошибку.
func favoriteInsertError(err error) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return failure.NewConflictError(
			"favorite already exists",
			failure.WithCode(errcodes.FavoriteConflict),
			failure.WithDescription("Favorite was toggled concurrently, retry the request"),
		)
	}

	return domain.WrapError(err, errcodes.InternalServerError, "failed to insert favorite")
}
