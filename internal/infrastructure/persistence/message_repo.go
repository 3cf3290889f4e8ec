package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"topar_market/internal/domain"
	"topar_market/internal/domain/entity"
	"topar_market/pkg/errcodes"
)

type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository создаёт новый экземпляр репозитория.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// withTx выполняет функцию в транзакции.
func (r *MessageRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
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

// Create сохраняет сообщение.
func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, listing_id, content, is_read, created_at)
		VALUES (:id, :sender_id, :receiver_id, :listing_id, :content, :is_read, :created_at)`,
		fromMessage(message))
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert message")
	}

	return nil
}

// Thread возвращает переписку двух аккаунтов, старые первыми, и помечает
// входящие прочитанными в той же транзакции.
func (r *MessageRepository) Thread(ctx context.Context, accountID, peerID string) ([]*entity.Message, error) {
	var schemas []messageSchema

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE messages SET is_read = TRUE
			WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read`,
			accountID, peerID)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to mark messages read")
		}

		err = tx.SelectContext(ctx, &schemas, `
			SELECT id, sender_id, receiver_id, listing_id, content, is_read, created_at
			FROM messages
			WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
			ORDER BY created_at ASC`,
			accountID, peerID)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to get thread")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]*entity.Message, 0, len(schemas))
	for _, s := range schemas {
		messages = append(messages, s.toDomain())
	}

	return messages, nil
}

// Conversations возвращает по одной строке на собеседника: последнее
// сообщение и число непрочитанных, свежие диалоги первыми.
func (r *MessageRepository) Conversations(ctx context.Context, accountID string) ([]*entity.Conversation, error) {
	var schemas []struct {
		PeerID      string    `db:"peer_id"`
		LastMessage string    `db:"last_message"`
		LastAt      time.Time `db:"last_at"`
		Unread      int       `db:"unread"`
		ListingID   *string   `db:"listing_id"`
	}

	err := r.db.SelectContext(ctx, &schemas, `
		SELECT DISTINCT ON (peer_id)
			CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS peer_id,
			content AS last_message,
			created_at AS last_at,
			listing_id,
			(SELECT COUNT(*) FROM messages u
				WHERE u.receiver_id = $1
					AND u.sender_id = CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END
					AND NOT u.is_read) AS unread
		FROM messages m
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY peer_id, created_at DESC`,
		accountID)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get conversations")
	}

	conversations := make([]*entity.Conversation, 0, len(schemas))

	for _, s := range schemas {
		c := &entity.Conversation{
			PeerID:      s.PeerID,
			LastMessage: s.LastMessage,
			LastAt:      s.LastAt,
			Unread:      s.Unread,
		}

		if s.ListingID != nil {
			c.ListingID = *s.ListingID
		}

		conversations = append(conversations, c)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastAt.After(conversations[j].LastAt)
	})

	return conversations, nil
}
