package services

import (
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/samber/lo"
)

type IUserService interface {
	SendRequest(sender domain.User, receiver domain.Identity) (string, error)
	AnswerRequest(actor domain.User, requestID string, accept bool) (domain.Identity, error)
	Notifications(userID domain.Identity) ([]NotificationView, error)
	Friends(userID domain.Identity, excludeChat string) ([]domain.User, error)
	SearchUsers(userID domain.Identity, name string) ([]domain.User, error)
}

// NotificationView is one pending friend request decorated with the
// sender's profile.
type NotificationView struct {
	RequestID string      `json:"requestId"`
	Sender    domain.User `json:"sender"`
	CreatedAt string      `json:"createdAt"`
}

type UserService struct {
	users         repositories.IUserRepository
	requests      repositories.IRequestRepository
	conversations repositories.IConversationRepository
	chats         DirectCreator
	notifier      Notifier
}

func NewUserService(
	users repositories.IUserRepository,
	requests repositories.IRequestRepository,
	conversations repositories.IConversationRepository,
	chats DirectCreator,
	notifier Notifier,
) IUserService {
	return &UserService{
		users:         users,
		requests:      requests,
		conversations: conversations,
		chats:         chats,
		notifier:      notifier,
	}
}

// SendRequest creates a pending friend request towards receiver. At most
// one pending request may exist between two identities, whichever side
// sent it.
func (s *UserService) SendRequest(sender domain.User, receiver domain.Identity) (string, error) {
	if sender.ID == receiver {
		return "", errors.ErrRequestExists
	}
	if _, err := s.users.GetByID(receiver); err != nil {
		return "", err
	}

	pending, err := s.requests.PendingBetween(sender.ID, receiver)
	if err != nil {
		return "", err
	}
	if pending {
		return "", errors.ErrRequestExists
	}

	requestID, err := s.requests.Create(domain.Request{
		Status:   domain.RequestPending,
		Sender:   sender.ID,
		Receiver: receiver,
	})
	if err != nil {
		return "", err
	}

	s.notifier.Dispatch([]domain.Identity{receiver}, event.NewRequest, nil)
	return requestID, nil
}

// AnswerRequest accepts or rejects a pending request. Only the receiver may
// answer. Accepting creates the direct conversation between the two users
// and returns the sender's identity.
func (s *UserService) AnswerRequest(actor domain.User, requestID string, accept bool) (domain.Identity, error) {
	request, err := s.requests.Get(requestID)
	if err != nil {
		return "", err
	}
	if request.Receiver != actor.ID {
		return "", errors.ErrNotRequestTarget
	}

	// The request record is removed either way; only acceptance leaves a
	// conversation behind.
	if err := s.requests.Delete(requestID); err != nil {
		return "", err
	}
	if !accept {
		return request.Sender, nil
	}

	sender, err := s.users.GetByID(request.Sender)
	if err != nil {
		return "", err
	}
	if _, err := s.chats.NewDirect(sender, actor); err != nil {
		return "", err
	}
	return request.Sender, nil
}

// Notifications lists the caller's pending requests with sender profiles.
func (s *UserService) Notifications(userID domain.Identity) ([]NotificationView, error) {
	requests, err := s.requests.ListByReceiver(userID)
	if err != nil {
		return nil, err
	}

	views := make([]NotificationView, 0, len(requests))
	for _, request := range requests {
		sender, err := s.users.GetByID(request.Sender)
		if err != nil {
			continue
		}
		views = append(views, NotificationView{
			RequestID: request.ID,
			Sender:    sender,
			CreatedAt: request.CreatedAt.Format(time.RFC3339),
		})
	}
	return views, nil
}

// Friends are the partners of the caller's direct conversations. With
// excludeChat set, members of that conversation are filtered out, which
// clients use to offer "add to this group" candidate lists.
func (s *UserService) Friends(userID domain.Identity, excludeChat string) ([]domain.User, error) {
	conversations, err := s.conversations.ListByMember(userID)
	if err != nil {
		return nil, err
	}

	var excluded map[domain.Identity]struct{}
	if excludeChat != "" {
		conv, err := s.conversations.Get(excludeChat)
		if err != nil {
			return nil, err
		}
		excluded = make(map[domain.Identity]struct{}, len(conv.Members))
		for _, m := range conv.Members {
			excluded[m] = struct{}{}
		}
	}

	var friends []domain.User
	for _, conv := range conversations {
		other := conv.OtherMember(userID)
		if other == "" {
			continue
		}
		if _, skip := excluded[other]; skip {
			continue
		}
		if profile, err := s.users.GetByID(other); err == nil {
			friends = append(friends, profile)
		}
	}
	return friends, nil
}

// SearchUsers finds users by display name, hiding the caller and anyone
// already befriended.
func (s *UserService) SearchUsers(userID domain.Identity, name string) ([]domain.User, error) {
	friends, err := s.Friends(userID, "")
	if err != nil {
		return nil, err
	}
	exclude := lo.Map(friends, func(u domain.User, _ int) domain.Identity { return u.ID })
	exclude = append(exclude, userID)
	return s.users.SearchByName(name, exclude)
}
