package message_test

import (
	"context"
	"testing"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/stretchr/testify/require"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/message"
	"topar_market/pkg/errcodes"
)

type fakeMessages struct {
	items []*entity.Message
}

func (f *fakeMessages) Create(_ context.Context, m *entity.Message) error {
	copied := *m
	f.items = append(f.items, &copied)

	return nil
}

func (f *fakeMessages) Thread(_ context.Context, accountID, peerID string) ([]*entity.Message, error) {
	var result []*entity.Message

	for _, m := range f.items {
		mine := m.SenderID == accountID && m.ReceiverID == peerID
		theirs := m.SenderID == peerID && m.ReceiverID == accountID

		if !mine && !theirs {
			continue
		}

		if theirs {
			m.IsRead = true
		}

		copied := *m
		result = append(result, &copied)
	}

	return result, nil
}

func (f *fakeMessages) Conversations(_ context.Context, accountID string) ([]*entity.Conversation, error) {
	byPeer := map[string]*entity.Conversation{}

	for _, m := range f.items {
		var peer string

		switch accountID {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}

		c, ok := byPeer[peer]
		if !ok {
			c = &entity.Conversation{PeerID: peer}
			byPeer[peer] = c
		}

		if m.CreatedAt.After(c.LastAt) {
			c.LastAt = m.CreatedAt
			c.LastMessage = m.Content
			c.ListingID = m.ListingID
		}

		if m.ReceiverID == accountID && !m.IsRead {
			c.Unread++
		}
	}

	var result []*entity.Conversation
	for _, c := range byPeer {
		result = append(result, c)
	}

	return result, nil
}

type fakeAccounts struct {
	known map[string]struct{}
}

func (f fakeAccounts) Summaries(_ context.Context, ids []string) (map[string]entity.AccountSummary, error) {
	result := map[string]entity.AccountSummary{}

	for _, id := range ids {
		if _, ok := f.known[id]; ok {
			result[id] = entity.AccountSummary{ID: id, Username: "user-" + id}
		}
	}

	return result, nil
}

func newService(store *fakeMessages) *message.Service {
	accounts := fakeAccounts{known: map[string]struct{}{"alice": {}, "bob": {}, "carol": {}}}

	return message.NewService(store, accounts)
}

func TestSend(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := &fakeMessages{}
	svc := newService(store)

	sent, err := svc.Send(ctx, "alice", message.SendParams{
		ReceiverID: "bob",
		Content:    "Ещё актуально?",
		ListingID:  "l1",
	})
	rq.NoError(err)

	rq.NotEmpty(sent.ID)
	rq.Equal("alice", sent.SenderID)
	rq.Equal("bob", sent.ReceiverID)
	rq.Equal("l1", sent.ListingID)
	rq.False(sent.IsRead)

	_, err = svc.Send(ctx, "alice", message.SendParams{ReceiverID: "alice", Content: "hi"})
	rq.Error(err)
	rq.Equal(errcodes.ValidationError, failure.Code(err))

	_, err = svc.Send(ctx, "alice", message.SendParams{ReceiverID: "ghost", Content: "hi"})
	rq.Error(err)
	rq.True(failure.IsNotFoundError(err))
}

func TestThreadMarksRead(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := &fakeMessages{}
	svc := newService(store)

	_, err := svc.Send(ctx, "alice", message.SendParams{ReceiverID: "bob", Content: "Привет"})
	rq.NoError(err)
	_, err = svc.Send(ctx, "bob", message.SendParams{ReceiverID: "alice", Content: "Здравствуйте"})
	rq.NoError(err)
	_, err = svc.Send(ctx, "alice", message.SendParams{ReceiverID: "carol", Content: "Другой диалог"})
	rq.NoError(err)

	thread, err := svc.Thread(ctx, "bob", "alice")
	rq.NoError(err)
	rq.Len(thread, 2, "unrelated conversations stay out")
	rq.True(thread[0].IsRead, "incoming message is marked read")
}

func TestConversations(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0

	store := &fakeMessages{}
	svc := newService(store).WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	_, err := svc.Send(ctx, "alice", message.SendParams{ReceiverID: "bob", Content: "Первое"})
	rq.NoError(err)
	_, err = svc.Send(ctx, "alice", message.SendParams{ReceiverID: "bob", Content: "Второе"})
	rq.NoError(err)
	_, err = svc.Send(ctx, "carol", message.SendParams{ReceiverID: "bob", Content: "Привет"})
	rq.NoError(err)

	conversations, err := svc.Conversations(ctx, "bob")
	rq.NoError(err)
	rq.Len(conversations, 2)

	byPeer := map[string]message.ConversationView{}
	for _, c := range conversations {
		byPeer[c.PeerID] = c
	}

	alice := byPeer["alice"]
	rq.Equal("Второе", alice.LastMessage)
	rq.Equal(2, alice.Unread)
	rq.NotNil(alice.Peer)
	rq.Equal("user-alice", alice.Peer.Username)
}
