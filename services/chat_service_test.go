package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/mocks"
	"chat-hub/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type chatFixture struct {
	conversations *mocks.MockIConversationRepository
	messages      *mocks.MockIMessageRepository
	users         *mocks.MockIUserRepository
	blobs         *mocks.MockAttachmentStore
	searcher      *mocks.MockMessageSearcher
	notifier      *mocks.MockNotifier
	relayer       *mocks.MockRelayer
	svc           IChatService
}

func newChatFixture(t *testing.T) *chatFixture {
	ctrl := gomock.NewController(t)
	f := &chatFixture{
		conversations: mocks.NewMockIConversationRepository(ctrl),
		messages:      mocks.NewMockIMessageRepository(ctrl),
		users:         mocks.NewMockIUserRepository(ctrl),
		blobs:         mocks.NewMockAttachmentStore(ctrl),
		searcher:      mocks.NewMockMessageSearcher(ctrl),
		notifier:      mocks.NewMockNotifier(ctrl),
		relayer:       mocks.NewMockRelayer(ctrl),
	}
	f.svc = NewChatService(f.conversations, f.messages, f.users, f.blobs, f.searcher, f.notifier, f.relayer)
	return f
}

var (
	alice = domain.User{ID: "alice-id", Name: "Alice"}
	bob   = domain.User{ID: "bob-id", Name: "Bob"}
)

func identities(n int) []domain.Identity {
	ids := make([]domain.Identity, n)
	for i := range ids {
		ids[i] = domain.Identity(fmt.Sprintf("member-%03d", i))
	}
	return ids
}

func TestChatService_NewGroup(t *testing.T) {
	t.Run("should create a group and notify every member", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.conversations.EXPECT().
			Create(gomock.Any()).
			DoAndReturn(func(conv domain.Conversation) (string, error) {
				req.True(conv.GroupChat)
				req.Equal(alice.ID, conv.Creator)
				req.Len(conv.Members, 3)
				return "chat-1", nil
			})
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.Alert, gomock.Any())
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.RefetchChats, gomock.Any())

		chatID, err := f.svc.NewGroup(alice, "weekend crew", []domain.Identity{bob.ID, "clara-id"})

		req.NoError(err)
		req.Equal("chat-1", chatID)
	})

	t.Run("should refuse a group under three members", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		_, err := f.svc.NewGroup(alice, "tiny", []domain.Identity{bob.ID})

		req.ErrorIs(err, errors.ErrGroupTooSmall)
	})

	t.Run("should refuse a group over the member cap", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		_, err := f.svc.NewGroup(alice, "crowd", identities(GroupMaxMembers))

		req.ErrorIs(err, errors.ErrGroupLimit)
	})

	t.Run("should count duplicated members once", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		// Creator plus the same friend twice is only two members
		_, err := f.svc.NewGroup(alice, "dupes", []domain.Identity{bob.ID, bob.ID})

		req.ErrorIs(err, errors.ErrGroupTooSmall)
	})
}

func TestChatService_AddMembers(t *testing.T) {
	group := domain.Conversation{
		ID:        "chat-1",
		Name:      "weekend crew",
		GroupChat: true,
		Creator:   alice.ID,
		Members:   []domain.Identity{alice.ID, bob.ID, "clara-id"},
	}

	t.Run("should add a member and alert the group", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.conversations.EXPECT().Get("chat-1").Return(group, nil)
		f.conversations.EXPECT().
			Save(gomock.Any()).
			DoAndReturn(func(conv domain.Conversation) error {
				req.Len(conv.Members, 4)
				return nil
			})
		f.users.EXPECT().GetByID(domain.Identity("dave-id")).Return(domain.User{ID: "dave-id", Name: "Dave"}, nil)
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.Alert, gomock.Any())
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.RefetchChats, gomock.Any())

		req.NoError(f.svc.AddMembers(alice, "chat-1", []domain.Identity{"dave-id"}))
	})

	t.Run("should refuse when the actor is not the creator", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.conversations.EXPECT().Get("chat-1").Return(group, nil)

		err := f.svc.AddMembers(bob, "chat-1", []domain.Identity{"dave-id"})

		req.ErrorIs(err, errors.ErrNotChatCreator)
	})

	t.Run("should ignore members already in the group", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.conversations.EXPECT().Get("chat-1").Return(group, nil)
		// No Save, no Dispatch

		req.NoError(f.svc.AddMembers(alice, "chat-1", []domain.Identity{bob.ID}))
	})

	t.Run("should enforce the member cap", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.conversations.EXPECT().Get("chat-1").Return(group, nil)

		err := f.svc.AddMembers(alice, "chat-1", identities(GroupMaxMembers))

		req.ErrorIs(err, errors.ErrGroupLimit)
	})

	t.Run("should refuse on a direct conversation", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		direct := domain.Conversation{ID: "direct-1", Members: []domain.Identity{alice.ID, bob.ID}}
		f.conversations.EXPECT().Get("direct-1").Return(direct, nil)

		err := f.svc.AddMembers(alice, "direct-1", []domain.Identity{"dave-id"})

		req.ErrorIs(err, errors.ErrNotGroupChat)
	})
}

func TestChatService_RemoveMember(t *testing.T) {
	t.Run("should refuse when the group would fall under the floor", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		group := domain.Conversation{
			ID: "chat-1", GroupChat: true, Creator: alice.ID,
			Members: []domain.Identity{alice.ID, bob.ID, "clara-id"},
		}
		f.conversations.EXPECT().Get("chat-1").Return(group, nil)

		err := f.svc.RemoveMember(alice, "chat-1", bob.ID)

		req.ErrorIs(err, errors.ErrGroupTooSmall)
	})

	t.Run("should remove a member from a large enough group", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		group := domain.Conversation{
			ID: "chat-1", GroupChat: true, Creator: alice.ID,
			Members: []domain.Identity{alice.ID, bob.ID, "clara-id", "dave-id"},
		}
		f.conversations.EXPECT().Get("chat-1").Return(group, nil)
		f.conversations.EXPECT().
			Save(gomock.Any()).
			DoAndReturn(func(conv domain.Conversation) error {
				req.NotContains(conv.Members, bob.ID)
				return nil
			})
		f.users.EXPECT().GetByID(bob.ID).Return(bob, nil)
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.Alert, gomock.Any())
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.RefetchChats, gomock.Any())

		req.NoError(f.svc.RemoveMember(alice, "chat-1", bob.ID))
	})
}

func TestChatService_Leave(t *testing.T) {
	t.Run("should hand ownership over when the creator leaves", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		group := domain.Conversation{
			ID: "chat-1", GroupChat: true, Creator: alice.ID,
			Members: []domain.Identity{alice.ID, bob.ID, "clara-id", "dave-id"},
		}
		f.conversations.EXPECT().Get("chat-1").Return(group, nil)
		f.conversations.EXPECT().
			Save(gomock.Any()).
			DoAndReturn(func(conv domain.Conversation) error {
				req.NotContains(conv.Members, alice.ID)
				req.NotEqual(alice.ID, conv.Creator)
				req.Contains(conv.Members, conv.Creator)
				return nil
			})
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.Alert, gomock.Any())
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.RefetchChats, gomock.Any())

		req.NoError(f.svc.Leave(alice, "chat-1"))
	})

	t.Run("should refuse when leaving would break the floor", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		group := domain.Conversation{
			ID: "chat-1", GroupChat: true, Creator: alice.ID,
			Members: []domain.Identity{alice.ID, bob.ID, "clara-id"},
		}
		f.conversations.EXPECT().Get("chat-1").Return(group, nil)

		req.ErrorIs(f.svc.Leave(bob, "chat-1"), errors.ErrGroupTooSmall)
	})
}

func TestChatService_Delete(t *testing.T) {
	t.Run("should cascade messages and blobs before the conversation", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		group := domain.Conversation{
			ID: "chat-1", GroupChat: true, Creator: alice.ID,
			Members: []domain.Identity{alice.ID, bob.ID, "clara-id"},
		}
		attachments := []domain.Attachment{{PublicID: "blob-1"}}

		f.conversations.EXPECT().Get("chat-1").Return(group, nil)
		f.messages.EXPECT().DeleteByChat("chat-1").Return(attachments, nil)
		f.blobs.EXPECT().DeleteAll(attachments)
		f.conversations.EXPECT().Delete("chat-1").Return(nil)
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.RefetchChats, gomock.Any())

		req.NoError(f.svc.Delete(alice, "chat-1"))
	})

	t.Run("should let either member delete a direct conversation", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		direct := domain.Conversation{ID: "direct-1", Members: []domain.Identity{alice.ID, bob.ID}}
		f.conversations.EXPECT().Get("direct-1").Return(direct, nil)
		f.messages.EXPECT().DeleteByChat("direct-1").Return(nil, nil)
		f.blobs.EXPECT().DeleteAll(nil)
		f.conversations.EXPECT().Delete("direct-1").Return(nil)
		f.notifier.EXPECT().Dispatch(gomock.Any(), event.RefetchChats, gomock.Any())

		req.NoError(f.svc.Delete(bob, "direct-1"))
	})

	t.Run("should refuse a non-creator deleting a group", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		group := domain.Conversation{
			ID: "chat-1", GroupChat: true, Creator: alice.ID,
			Members: []domain.Identity{alice.ID, bob.ID, "clara-id"},
		}
		f.conversations.EXPECT().Get("chat-1").Return(group, nil)

		req.ErrorIs(f.svc.Delete(bob, "chat-1"), errors.ErrNotChatCreator)
	})
}

func TestChatService_History(t *testing.T) {
	t.Run("should refuse non-members", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		direct := domain.Conversation{ID: "direct-1", Members: []domain.Identity{alice.ID, bob.ID}}
		f.conversations.EXPECT().Get("direct-1").Return(direct, nil)

		_, _, err := f.svc.History("stranger-id", "direct-1", 1)

		req.ErrorIs(err, errors.ErrNotChatMember)
	})

	t.Run("should refuse page zero", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		_, _, err := f.svc.History(alice.ID, "direct-1", 0)

		req.ErrorIs(err, errors.ErrInvalidDisplayLimit)
	})
}

func TestChatService_SendAttachments(t *testing.T) {
	direct := domain.Conversation{ID: "direct-1", Members: []domain.Identity{alice.ID, bob.ID}}

	t.Run("should store blobs and relay them as a message", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.conversations.EXPECT().Get("direct-1").Return(direct, nil)
		saved := domain.Attachment{PublicID: "blob-1", URL: "/files/blob-1"}
		f.blobs.EXPECT().Save(gomock.Any()).Return(saved, nil)
		f.relayer.EXPECT().
			Relay(alice, "direct-1", direct.Members, "", []domain.Attachment{saved})

		attachments, err := f.svc.SendAttachments(alice, "direct-1", []io.Reader{strings.NewReader("payload")})

		req.NoError(err)
		req.Equal([]domain.Attachment{saved}, attachments)
	})

	t.Run("should enforce attachment bounds", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		_, err := f.svc.SendAttachments(alice, "direct-1", nil)
		req.ErrorIs(err, errors.ErrNoAttachments)

		six := make([]io.Reader, MaxAttachments+1)
		for i := range six {
			six[i] = strings.NewReader("x")
		}
		_, err = f.svc.SendAttachments(alice, "direct-1", six)
		req.ErrorIs(err, errors.ErrTooManyAttachments)
	})

	t.Run("should reclaim stored blobs when one upload fails", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.conversations.EXPECT().Get("direct-1").Return(direct, nil)
		saved := domain.Attachment{PublicID: "blob-1"}
		gomock.InOrder(
			f.blobs.EXPECT().Save(gomock.Any()).Return(saved, nil),
			f.blobs.EXPECT().Save(gomock.Any()).Return(domain.Attachment{}, errors.ErrStoreUnavailable),
			f.blobs.EXPECT().DeleteAll([]domain.Attachment{saved}),
		)

		_, err := f.svc.SendAttachments(alice, "direct-1", []io.Reader{
			strings.NewReader("one"), strings.NewReader("two"),
		})

		req.ErrorIs(err, errors.ErrStoreUnavailable)
	})
}

func TestChatService_SearchMessages(t *testing.T) {
	t.Run("should filter cross-chat hits to the caller's conversations", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		mine := []domain.Conversation{{ID: "chat-1", Members: []domain.Identity{alice.ID, bob.ID}}}
		hits := []repositories.SearchHit{
			{MessageID: "m1", Chat: "chat-1"},
			{MessageID: "m2", Chat: "chat-of-others"},
		}
		f.conversations.EXPECT().ListByMember(alice.ID).Return(mine, nil)
		f.searcher.EXPECT().Search(gomock.Any(), "deployment", "", 10).Return(hits, nil)

		found, err := f.svc.SearchMessages(context.Background(), alice.ID, "deployment", "", 10)

		req.NoError(err)
		req.Len(found, 1)
		req.Equal("m1", found[0].MessageID)
	})

	t.Run("should refuse a chat-scoped search from a non-member", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		direct := domain.Conversation{ID: "direct-1", Members: []domain.Identity{alice.ID, bob.ID}}
		f.conversations.EXPECT().Get("direct-1").Return(direct, nil)

		_, err := f.svc.SearchMessages(context.Background(), "stranger-id", "deployment", "direct-1", 10)

		req.ErrorIs(err, errors.ErrNotChatMember)
	})
}
