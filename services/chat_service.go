package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/samber/lo"
)

const (
	// GroupMinMembers is the floor below which a group stops being a group.
	GroupMinMembers = 3
	GroupMaxMembers = 100

	MinAttachments = 1
	MaxAttachments = 5
)

type IChatService interface {
	NewGroup(creator domain.User, name string, members []domain.Identity) (string, error)
	NewDirect(a, b domain.User) (string, error)
	MyChats(userID domain.Identity) ([]ChatView, error)
	MyGroups(userID domain.Identity) ([]domain.Conversation, error)
	Details(userID domain.Identity, chatID string) (domain.Conversation, error)
	AddMembers(actor domain.User, chatID string, members []domain.Identity) error
	RemoveMember(actor domain.User, chatID string, member domain.Identity) error
	Leave(actor domain.User, chatID string) error
	Rename(actor domain.User, chatID, name string) error
	Delete(actor domain.User, chatID string) error
	History(userID domain.Identity, chatID string, page int) ([]domain.Message, int, error)
	SendAttachments(sender domain.User, chatID string, files []io.Reader) ([]domain.Attachment, error)
	SearchMessages(ctx context.Context, userID domain.Identity, terms, chatID string, limit int) ([]repositories.SearchHit, error)
}

// ChatView decorates a conversation with the data clients render in the
// chat list without extra round trips.
type ChatView struct {
	Conversation domain.Conversation `json:"chat"`
	OtherMember  *domain.User        `json:"otherMember,omitempty"`
}

type ChatService struct {
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	users         repositories.IUserRepository
	blobs         AttachmentStore
	searcher      MessageSearcher
	notifier      Notifier
	relayer       Relayer
}

func NewChatService(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	blobs AttachmentStore,
	searcher MessageSearcher,
	notifier Notifier,
	relayer Relayer,
) IChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		blobs:         blobs,
		searcher:      searcher,
		notifier:      notifier,
		relayer:       relayer,
	}
}

// NewGroup creates a group conversation. The creator always counts as a
// member, and the resulting membership must fit the group bounds.
func (s *ChatService) NewGroup(creator domain.User, name string, members []domain.Identity) (string, error) {
	all := lo.Uniq(append([]domain.Identity{creator.ID}, members...))
	if len(all) < GroupMinMembers {
		return "", errors.ErrGroupTooSmall
	}
	if len(all) > GroupMaxMembers {
		return "", errors.ErrGroupLimit
	}

	chatID, err := s.conversations.Create(domain.Conversation{
		Name:      name,
		GroupChat: true,
		Creator:   creator.ID,
		Members:   all,
	})
	if err != nil {
		return "", err
	}

	s.notifier.Dispatch(all, event.Alert, event.AlertData{
		ChatID:  chatID,
		Message: fmt.Sprintf("Welcome to %s group", name),
	})
	s.notifier.Dispatch(all, event.RefetchChats, nil)
	return chatID, nil
}

// NewDirect creates the one-to-one conversation between two users, reusing
// an existing one when the pair already chats.
func (s *ChatService) NewDirect(a, b domain.User) (string, error) {
	if existing, found, err := s.conversations.DirectBetween(a.ID, b.ID); err != nil {
		return "", err
	} else if found {
		return existing.ID, nil
	}

	chatID, err := s.conversations.Create(domain.Conversation{
		Name:    a.Name + "-" + b.Name,
		Members: []domain.Identity{a.ID, b.ID},
	})
	if err != nil {
		return "", err
	}
	s.notifier.Dispatch([]domain.Identity{a.ID, b.ID}, event.RefetchChats, nil)
	return chatID, nil
}

// MyChats lists every conversation of a user. Direct conversations carry
// the other member's profile so clients can render name and avatar.
func (s *ChatService) MyChats(userID domain.Identity) ([]ChatView, error) {
	conversations, err := s.conversations.ListByMember(userID)
	if err != nil {
		return nil, err
	}

	views := make([]ChatView, 0, len(conversations))
	for _, conv := range conversations {
		view := ChatView{Conversation: conv}
		if other := conv.OtherMember(userID); other != "" {
			if profile, err := s.users.GetByID(other); err == nil {
				view.OtherMember = &profile
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ChatService) MyGroups(userID domain.Identity) ([]domain.Conversation, error) {
	return s.conversations.GroupsByCreator(userID)
}

func (s *ChatService) Details(userID domain.Identity, chatID string) (domain.Conversation, error) {
	conv, err := s.conversations.Get(chatID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conv.HasMember(userID) {
		return domain.Conversation{}, errors.ErrNotChatMember
	}
	return conv, nil
}

// AddMembers grows a group. Only the creator may do it and the group cap
// still applies. Already present members are ignored.
func (s *ChatService) AddMembers(actor domain.User, chatID string, members []domain.Identity) error {
	conv, err := s.groupOwnedBy(actor.ID, chatID)
	if err != nil {
		return err
	}

	added := lo.Filter(lo.Uniq(members), func(id domain.Identity, _ int) bool {
		return !conv.HasMember(id)
	})
	if len(added) == 0 {
		return nil
	}
	if len(conv.Members)+len(added) > GroupMaxMembers {
		return errors.ErrGroupLimit
	}

	conv.Members = append(conv.Members, added...)
	if err := s.conversations.Save(conv); err != nil {
		return err
	}

	s.notifier.Dispatch(conv.Members, event.Alert, event.AlertData{
		ChatID:  chatID,
		Message: fmt.Sprintf("%s has been added to %s", s.displayNames(added), conv.Name),
	})
	s.notifier.Dispatch(conv.Members, event.RefetchChats, nil)
	return nil
}

// RemoveMember shrinks a group without letting it fall under the floor.
func (s *ChatService) RemoveMember(actor domain.User, chatID string, member domain.Identity) error {
	conv, err := s.groupOwnedBy(actor.ID, chatID)
	if err != nil {
		return err
	}
	if !conv.HasMember(member) {
		return errors.ErrNotChatMember
	}
	if len(conv.Members)-1 < GroupMinMembers {
		return errors.ErrGroupTooSmall
	}

	recipients := conv.Members
	conv.Members = lo.Without(conv.Members, member)
	if err := s.conversations.Save(conv); err != nil {
		return err
	}

	s.notifier.Dispatch(recipients, event.Alert, event.AlertData{
		ChatID:  chatID,
		Message: fmt.Sprintf("%s has been removed from the group", s.displayNames([]domain.Identity{member})),
	})
	s.notifier.Dispatch(conv.Members, event.RefetchChats, nil)
	return nil
}

// Leave removes the caller from a group. When the creator leaves, ownership
// is handed to another member so the group never goes ownerless.
func (s *ChatService) Leave(actor domain.User, chatID string) error {
	conv, err := s.conversations.Get(chatID)
	if err != nil {
		return err
	}
	if !conv.GroupChat {
		return errors.ErrNotGroupChat
	}
	if !conv.HasMember(actor.ID) {
		return errors.ErrNotChatMember
	}

	remaining := lo.Without(conv.Members, actor.ID)
	if len(remaining) < GroupMinMembers {
		return errors.ErrGroupTooSmall
	}
	conv.Members = remaining
	if conv.Creator == actor.ID {
		conv.Creator = remaining[0]
	}
	if err := s.conversations.Save(conv); err != nil {
		return err
	}

	s.notifier.Dispatch(conv.Members, event.Alert, event.AlertData{
		ChatID:  chatID,
		Message: fmt.Sprintf("User %s has left the group", actor.Name),
	})
	s.notifier.Dispatch(conv.Members, event.RefetchChats, nil)
	return nil
}

func (s *ChatService) Rename(actor domain.User, chatID, name string) error {
	conv, err := s.groupOwnedBy(actor.ID, chatID)
	if err != nil {
		return err
	}
	conv.Name = name
	if err := s.conversations.Save(conv); err != nil {
		return err
	}
	s.notifier.Dispatch(conv.Members, event.RefetchChats, nil)
	return nil
}

// Delete removes a conversation with its whole message history and the
// attachment blobs those messages referenced. Groups can only be deleted
// by their creator; a direct conversation by either member.
func (s *ChatService) Delete(actor domain.User, chatID string) error {
	conv, err := s.conversations.Get(chatID)
	if err != nil {
		return err
	}
	if conv.GroupChat {
		if conv.Creator != actor.ID {
			return errors.ErrNotChatCreator
		}
	} else if !conv.HasMember(actor.ID) {
		return errors.ErrNotChatMember
	}

	attachments, err := s.messages.DeleteByChat(chatID)
	if err != nil {
		return err
	}
	s.blobs.DeleteAll(attachments)

	if err := s.conversations.Delete(chatID); err != nil {
		return err
	}
	s.notifier.Dispatch(conv.Members, event.RefetchChats, nil)
	return nil
}

func (s *ChatService) History(userID domain.Identity, chatID string, page int) ([]domain.Message, int, error) {
	if page < 1 {
		return nil, 0, errors.ErrInvalidDisplayLimit
	}
	conv, err := s.conversations.Get(chatID)
	if err != nil {
		return nil, 0, err
	}
	if !conv.HasMember(userID) {
		return nil, 0, errors.ErrNotChatMember
	}
	return s.messages.History(chatID, page)
}

// SendAttachments stores the uploads and relays them as a message through
// the same pipeline websocket messages take.
func (s *ChatService) SendAttachments(sender domain.User, chatID string, files []io.Reader) ([]domain.Attachment, error) {
	if len(files) < MinAttachments {
		return nil, errors.ErrNoAttachments
	}
	if len(files) > MaxAttachments {
		return nil, errors.ErrTooManyAttachments
	}

	conv, err := s.conversations.Get(chatID)
	if err != nil {
		return nil, err
	}
	if !conv.HasMember(sender.ID) {
		return nil, errors.ErrNotChatMember
	}

	attachments := make([]domain.Attachment, 0, len(files))
	for _, f := range files {
		attachment, err := s.blobs.Save(f)
		if err != nil {
			s.blobs.DeleteAll(attachments)
			return nil, err
		}
		attachments = append(attachments, attachment)
	}

	s.relayer.Relay(sender, chatID, conv.Members, "", attachments)
	return attachments, nil
}

// SearchMessages runs a full-text query. With a chat id the caller must be
// a member of that conversation; without one the search spans every
// conversation and results are filtered to the caller's chats.
func (s *ChatService) SearchMessages(ctx context.Context, userID domain.Identity, terms, chatID string, limit int) ([]repositories.SearchHit, error) {
	if chatID != "" {
		conv, err := s.conversations.Get(chatID)
		if err != nil {
			return nil, err
		}
		if !conv.HasMember(userID) {
			return nil, errors.ErrNotChatMember
		}
		return s.searcher.Search(ctx, terms, chatID, limit)
	}

	mine, err := s.conversations.ListByMember(userID)
	if err != nil {
		return nil, err
	}
	memberOf := make(map[string]struct{}, len(mine))
	for _, conv := range mine {
		memberOf[conv.ID] = struct{}{}
	}

	hits, err := s.searcher.Search(ctx, terms, "", limit)
	if err != nil {
		return nil, err
	}
	return lo.Filter(hits, func(hit repositories.SearchHit, _ int) bool {
		_, ok := memberOf[hit.Chat]
		return ok
	}), nil
}

func (s *ChatService) groupOwnedBy(actor domain.Identity, chatID string) (domain.Conversation, error) {
	conv, err := s.conversations.Get(chatID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conv.GroupChat {
		return domain.Conversation{}, errors.ErrNotGroupChat
	}
	if conv.Creator != actor {
		return domain.Conversation{}, errors.ErrNotChatCreator
	}
	return conv, nil
}

func (s *ChatService) displayNames(ids []domain.Identity) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if user, err := s.users.GetByID(id); err == nil {
			names = append(names, user.Name)
		}
	}
	if len(names) == 0 {
		return "A member"
	}
	return strings.Join(names, ", ")
}
