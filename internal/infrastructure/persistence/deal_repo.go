package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/jmoiron/sqlx"

	"topar_market/internal/domain"
	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/value"
	"topar_market/pkg/errcodes"
)

const dealColumns = `id, listing_id, buyer_id, seller_id, amount, currency,
	delivery_option, status, dispute_reason, disputed_by, created_at, updated_at`

type DealRepository struct {
	db *sqlx.DB
}

// NewDealRepository создаёт новый экземпляр репозитория.
func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

// withTx выполняет функцию в транзакции.
func (r *DealRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
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

// Create сохраняет сделку и резервирует объявление в одной транзакции.
// Статус объявления перечитывается под блокировкой: между проверкой в
// сервисе и записью объявление могло уйти в другую сделку.
func (r *DealRepository) Create(ctx context.Context, deal *entity.Deal) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var status string

		err := tx.GetContext(ctx, &status,
			`SELECT status FROM listings WHERE id = $1 FOR UPDATE`, deal.ListingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return failure.NewNotFoundError(
					"listing not found",
					failure.WithCode(errcodes.ListingNotFound),
				)
			}
			return domain.WrapError(err, errcodes.InternalServerError, "failed to lock listing")
		}

		if status != value.ListingStatusActive.String() {
			return failure.NewConflictError(
				"listing status is "+status,
				failure.WithCode(errcodes.ListingUnavailable),
				failure.WithDescription("Listing is not available for purchase"),
			)
		}

		schema := fromDeal(deal)

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO deals (`+dealColumns+`)
			VALUES (:id, :listing_id, :buyer_id, :seller_id, :amount, :currency,
				:delivery_option, :status, :dispute_reason, :disputed_by, :created_at, :updated_at)`,
			schema)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to insert deal")
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE listings SET status = $1 WHERE id = $2`,
			value.ListingStatusReserved.String(), deal.ListingID)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to reserve listing")
		}

		return nil
	})
}

// GetByID возвращает сделку по идентификатору.
func (r *DealRepository) GetByID(ctx context.Context, id string) (*entity.Deal, error) {
	var schema dealSchema

	err := r.db.GetContext(ctx, &schema,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, failure.NewNotFoundError(
				"deal not found",
				failure.WithCode(errcodes.DealNotFound),
			)
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get deal")
	}

	return schema.toDomain()
}

// ListByParticipant возвращает сделки, где аккаунт выступает любой из
// сторон, свежие первыми.
func (r *DealRepository) ListByParticipant(ctx context.Context, accountID string) ([]*entity.Deal, error) {
	var schemas []dealSchema

	err := r.db.SelectContext(ctx, &schemas, `
		SELECT `+dealColumns+` FROM deals
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list deals")
	}

	deals := make([]*entity.Deal, 0, len(schemas))

	for _, s := range schemas {
		deal, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to map deal")
		}

		deals = append(deals, deal)
	}

	return deals, nil
}

// UpdateStatus выполняет линеаризуемый переход: строка меняется только если
// её текущий статус равен ожидаемому. Конкурирующий переход видит ноль
// строк и получает конфликт.
func (r *DealRepository) UpdateStatus(ctx context.Context, id string, from, to value.DealStatus) (*entity.Deal, error) {
	var schema dealSchema

	err := r.db.GetContext(ctx, &schema, `
		UPDATE deals SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING `+dealColumns,
		to.String(), time.Now(), id, from.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrMissing(ctx, id)
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to update deal status")
	}

	return schema.toDomain()
}

// CompleteAndMarkSold закрывает сделку и помечает объявление проданным
// одной транзакцией.
func (r *DealRepository) CompleteAndMarkSold(ctx context.Context, dealID, listingID string) (*entity.Deal, error) {
	var schema dealSchema

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &schema, `
			UPDATE deals SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
			RETURNING `+dealColumns,
			value.DealStatusCompleted.String(), time.Now(),
			dealID, value.DealStatusShipped.String())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.conflictOrMissing(ctx, dealID)
			}
			return domain.WrapError(err, errcodes.InternalServerError, "failed to complete deal")
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE listings SET status = $1 WHERE id = $2`,
			value.ListingStatusSold.String(), listingID)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to mark listing sold")
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to check rows affected")
		}

		if rows == 0 {
			return failure.NewNotFoundError(
				"listing not found",
				failure.WithCode(errcodes.ListingNotFound),
			)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return schema.toDomain()
}

// MarkDisputed открывает спор. Условие на статус повторяет CanDispute:
// любой нетерминальный статус.
func (r *DealRepository) MarkDisputed(ctx context.Context, id, reason, accountID string) (*entity.Deal, error) {
	var schema dealSchema

	err := r.db.GetContext(ctx, &schema, `
		UPDATE deals SET status = $1, dispute_reason = $2, disputed_by = $3, updated_at = $4
		WHERE id = $5 AND status IN ($6, $7, $8, $9)
		RETURNING `+dealColumns,
		value.DealStatusDisputed.String(), reason, accountID, time.Now(), id,
		value.DealStatusPending.String(), value.DealStatusPaid.String(),
		value.DealStatusShipped.String(), value.DealStatusDelivered.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrMissing(ctx, id)
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to mark deal disputed")
	}

	return schema.toDomain()
}

// RefundAndRelease закрывает спор возвратом и возвращает объявление в
// продажу одной транзакцией.
func (r *DealRepository) RefundAndRelease(ctx context.Context, dealID, listingID string) (*entity.Deal, error) {
	var schema dealSchema

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &schema, `
			UPDATE deals SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
			RETURNING `+dealColumns,
			value.DealStatusRefunded.String(), time.Now(),
			dealID, value.DealStatusDisputed.String())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.conflictOrMissing(ctx, dealID)
			}
			return domain.WrapError(err, errcodes.InternalServerError, "failed to refund deal")
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE listings SET status = $1 WHERE id = $2`,
			value.ListingStatusActive.String(), listingID)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to release listing")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return schema.toDomain()
}

// conflictOrMissing различает отсутствующую сделку и сделку в неподходящем
// статусе после нулевого условного обновления. Текущий статус не
// перечитывается и не попадает в сообщение: между неудавшимся обновлением и
// повторным чтением он мог снова измениться. Существование перечитывать
// безопасно, сделки не удаляются.
func (r *DealRepository) conflictOrMissing(ctx context.Context, id string) error {
	var exists bool

	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM deals WHERE id = $1)`, id)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check deal existence")
	}

	if !exists {
		return failure.NewNotFoundError(
			"deal not found",
			failure.WithCode(errcodes.DealNotFound),
		)
	}

	return failure.NewConflictError(
		"deal transition precondition failed",
		failure.WithCode(errcodes.InvalidDealStatus),
		failure.WithDescription("Action is not allowed in the current deal status"),
	)
}
