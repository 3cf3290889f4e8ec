package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/message"
	"topar_market/pkg/contextx"
	"topar_market/pkg/httpx/reply"
	"topar_market/pkg/httpx/req"
	"topar_market/pkg/rest"
)

type messageService interface {
	Send(ctx context.Context, senderID string, params message.SendParams) (*entity.Message, error)
	Thread(ctx context.Context, accountID, peerID string) ([]*entity.Message, error)
	Conversations(ctx context.Context, accountID string) ([]message.ConversationView, error)
}

type MessageServer struct {
	messageService messageService
}

func NewMessageServer(messageService messageService) MessageServer {
	return MessageServer{
		messageService: messageService,
	}
}

func (s MessageServer) getV1Conversations(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	conversations, err := s.messageService.Conversations(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("messageService.Conversations: %w", err)
	}

	result := make([]rest.Conversation, 0, len(conversations))
	for _, c := range conversations {
		result = append(result, newRESTConversation(c))
	}

	reply.JSON(ctx, w, http.StatusOK, result)

	return nil
}

func (s MessageServer) getV1Messages(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	messages, err := s.messageService.Thread(ctx, userID.String(), chi.URLParam(r, "peerId"))
	if err != nil {
		return fmt.Errorf("messageService.Thread: %w", err)
	}

	result := make([]rest.Message, 0, len(messages))
	for _, m := range messages {
		result = append(result, newRESTMessage(m))
	}

	reply.JSON(ctx, w, http.StatusOK, result)

	return nil
}

func (s MessageServer) postV1Message(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	var request rest.SendMessageRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	sent, err := s.messageService.Send(ctx, userID.String(), message.SendParams{
		ReceiverID: chi.URLParam(r, "peerId"),
		Content:    request.Content,
		ListingID:  request.ListingID,
	})
	if err != nil {
		return fmt.Errorf("messageService.Send: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTMessage(sent))

	return nil
}
