package message

import (
	"context"
	"fmt"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/rs/xid"

	"topar_market/internal/domain/entity"
	"topar_market/pkg/errcodes"
)

type messageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// Thread возвращает переписку двух аккаунтов, старые первыми, и
	// помечает входящие прочитанными.
	Thread(ctx context.Context, accountID, peerID string) ([]*entity.Message, error)
	Conversations(ctx context.Context, accountID string) ([]*entity.Conversation, error)
}

type accountProvider interface {
	Summaries(ctx context.Context, ids []string) (map[string]entity.AccountSummary, error)
}

type Service struct {
	messages messageRepository
	accounts accountProvider
	now      func() time.Time
}

// NewService создаёт сервис личных сообщений.
func NewService(messages messageRepository, accounts accountProvider) *Service {
	return &Service{
		messages: messages,
		accounts: accounts,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now

	return s
}

type SendParams struct {
	ReceiverID string
	Content    string
	ListingID  string
}

// Send отправляет сообщение. Получатель обязан существовать, писать самому
// себе нельзя.
func (s *Service) Send(ctx context.Context, senderID string, params SendParams) (*entity.Message, error) {
	if params.ReceiverID == senderID {
		return nil, failure.NewInvalidArgumentError(
			"cannot message yourself",
			failure.WithCode(errcodes.ValidationError),
		)
	}

	receivers, err := s.accounts.Summaries(ctx, []string{params.ReceiverID})
	if err != nil {
		return nil, fmt.Errorf("accounts.Summaries: %w", err)
	}

	if _, ok := receivers[params.ReceiverID]; !ok {
		return nil, failure.NewNotFoundError(
			"receiver not found",
			failure.WithCode(errcodes.NotFound),
		)
	}

	message := &entity.Message{
		ID:         xid.New().String(),
		SenderID:   senderID,
		ReceiverID: params.ReceiverID,
		ListingID:  params.ListingID,
		Content:    params.Content,
		CreatedAt:  s.now(),
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("messages.Create: %w", err)
	}

	return message, nil
}

// Thread возвращает переписку с собеседником, старые сообщения первыми.
// Входящие непрочитанные помечаются прочитанными.
func (s *Service) Thread(ctx context.Context, accountID, peerID string) ([]*entity.Message, error) {
	messages, err := s.messages.Thread(ctx, accountID, peerID)
	if err != nil {
		return nil, fmt.Errorf("messages.Thread: %w", err)
	}

	return messages, nil
}

// ConversationView диалог с карточкой собеседника.
type ConversationView struct {
	entity.Conversation
	Peer *entity.AccountSummary `json:"peer,omitempty"`
}

// Conversations возвращает диалоги аккаунта, свежие первыми.
func (s *Service) Conversations(ctx context.Context, accountID string) ([]ConversationView, error) {
	conversations, err := s.messages.Conversations(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("messages.Conversations: %w", err)
	}

	peerIDs := make([]string, 0, len(conversations))
	for _, c := range conversations {
		peerIDs = append(peerIDs, c.PeerID)
	}

	peers, err := s.accounts.Summaries(ctx, peerIDs)
	if err != nil {
		return nil, fmt.Errorf("accounts.Summaries: %w", err)
	}

	views := make([]ConversationView, 0, len(conversations))

	for _, c := range conversations {
		view := ConversationView{Conversation: *c}

		if peer, ok := peers[c.PeerID]; ok {
			view.Peer = &peer
		}

		views = append(views, view)
	}

	return views, nil
}
