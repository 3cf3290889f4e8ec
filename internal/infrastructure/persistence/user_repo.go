package persistence

import (
	"context"
	"database/sql"
	"errors"

	"git.appkode.ru/pub/go/failure"
	"github.com/jmoiron/sqlx"

	"topar_market/internal/domain"
	"topar_market/internal/domain/entity"
	"topar_market/pkg/errcodes"
)

const userColumns = `id, email, password_hash, username, phone, telegram, first_name,
	last_name, avatar, is_verified, verified_at, rating, review_count, location, created_at`

type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт новый экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	schema, err := fromUser(user)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to map user")
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :password_hash, :username, :phone, :telegram, :first_name,
			:last_name, :avatar, :is_verified, :verified_at, :rating, :review_count, :location, :created_at)`,
		schema)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert user")
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, v string) (*entity.User, error) {
	var schema userSchema

	err := r.db.GetContext(ctx, &schema,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, failure.NewNotFoundError(
				"user not found",
				failure.WithCode(errcodes.NotFound),
			)
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get user")
	}

	return schema.toDomain()
}

// ExistsByEmail проверяет занятость email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsBy(ctx, "email", email)
}

// ExistsByUsername проверяет занятость username.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.existsBy(ctx, "username", username)
}

// ExistsByPhone проверяет занятость телефона.
func (r *UserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.existsBy(ctx, "phone", phone)
}

func (r *UserRepository) existsBy(ctx context.Context, column, v string) (bool, error) {
	var exists bool

	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE `+column+` = $1)`, v)
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to check user")
	}

	return exists, nil
}

// Update перезаписывает редактируемые поля пользователя.
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	schema, err := fromUser(user)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to map user")
	}

	result, err := r.db.NamedExecContext(ctx, `
		UPDATE users SET first_name = :first_name, last_name = :last_name, avatar = :avatar,
			location = :location, is_verified = :is_verified, verified_at = :verified_at
		WHERE id = :id`,
		schema)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update user")
	}

	return checkAffected(result, func() error {
		return failure.NewNotFoundError("user not found", failure.WithCode(errcodes.NotFound))
	})
}

// Summaries возвращает карточки пользователей для вложенных ответов.
func (r *UserRepository) Summaries(ctx context.Context, ids []string) (map[string]entity.AccountSummary, error) {
	if len(ids) == 0 {
		return map[string]entity.AccountSummary{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to build query")
	}

	var schemas []userSchema
	if err := r.db.SelectContext(ctx, &schemas, r.db.Rebind(query), args...); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get users")
	}

	result := make(map[string]entity.AccountSummary, len(schemas))

	for _, s := range schemas {
		user, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to map user")
		}

		result[user.ID] = user.Summary()
	}

	return result, nil
}
