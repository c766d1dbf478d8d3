package services

import (
	"crypto/subtle"
	"time"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/observability"
	"chat-hub/repositories"

	"github.com/samber/lo"
)

// adminSessionLifetime keeps admin sessions short-lived compared to user
// sessions.
const adminSessionLifetime = 15 * time.Minute

// histogramDays is the span of the dashboard message chart.
const histogramDays = 7

type IAdminService interface {
	Verify(secretKey string) (Token, error)
	Stats() (DashboardStats, error)
	Users() ([]AdminUserView, error)
	Chats() ([]AdminChatView, error)
	Messages() ([]AdminMessageView, error)
}

type DashboardStats struct {
	UsersCount    int                   `json:"usersCount"`
	ChatsCount    int                   `json:"totalChatsCount"`
	GroupsCount   int                   `json:"groupsCount"`
	MessagesCount int                   `json:"messagesCount"`
	MessagesChart []int                 `json:"messagesChart"`
	Process       observability.SelfStats `json:"process"`
}

type AdminUserView struct {
	User    domain.User `json:"user"`
	Groups  int         `json:"groups"`
	Friends int         `json:"friends"`
}

type AdminChatView struct {
	Conversation domain.Conversation `json:"chat"`
	Messages     int                 `json:"totalMessages"`
}

type AdminMessageView struct {
	Message domain.Message `json:"message"`
	Sender  domain.User    `json:"sender"`
}

type AdminService struct {
	secretKey     string
	users         repositories.IUserRepository
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	monitor       *observability.Monitor
}

func NewAdminService(
	secretKey string,
	users repositories.IUserRepository,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	monitor *observability.Monitor,
) IAdminService {
	return &AdminService{
		secretKey:     secretKey,
		users:         users,
		conversations: conversations,
		messages:      messages,
		monitor:       monitor,
	}
}

// Verify exchanges the shared secret for a short-lived admin token.
func (s *AdminService) Verify(secretKey string) (Token, error) {
	if subtle.ConstantTimeCompare([]byte(secretKey), []byte(s.secretKey)) != 1 {
		return "", errors.ErrInvalidAdminKey
	}
	token, err := auth.GenerateAdminToken(s.secretKey, adminSessionLifetime)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

// Stats aggregates the dashboard counters, the last-7-days message
// histogram (oldest day first) and a health snapshot of this process.
func (s *AdminService) Stats() (DashboardStats, error) {
	usersCount, err := s.users.Count()
	if err != nil {
		return DashboardStats{}, err
	}
	chatsCount, err := s.conversations.Count()
	if err != nil {
		return DashboardStats{}, err
	}
	groupsCount, err := s.conversations.CountGroups()
	if err != nil {
		return DashboardStats{}, err
	}
	messagesCount, err := s.messages.CountAll()
	if err != nil {
		return DashboardStats{}, err
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -histogramDays)
	stamps, err := s.messages.CreatedSince(cutoff)
	if err != nil {
		return DashboardStats{}, err
	}
	chart := make([]int, histogramDays)
	for _, at := range stamps {
		age := int(now.Sub(at).Hours() / 24)
		if age < 0 || age >= histogramDays {
			continue
		}
		chart[histogramDays-1-age]++
	}

	stats := DashboardStats{
		UsersCount:    usersCount,
		ChatsCount:    chatsCount,
		GroupsCount:   groupsCount,
		MessagesCount: messagesCount,
		MessagesChart: chart,
	}
	if s.monitor != nil {
		if snapshot, err := s.monitor.Snapshot(); err == nil {
			stats.Process = snapshot
		}
	}
	return stats, nil
}

// Users lists every account with its created-groups and friends counters.
func (s *AdminService) Users() ([]AdminUserView, error) {
	users, err := s.users.All()
	if err != nil {
		return nil, err
	}

	views := make([]AdminUserView, 0, len(users))
	for _, user := range users {
		groups, err := s.conversations.GroupsByCreator(user.ID)
		if err != nil {
			return nil, err
		}
		mine, err := s.conversations.ListByMember(user.ID)
		if err != nil {
			return nil, err
		}
		friends := lo.CountBy(mine, func(c domain.Conversation) bool { return !c.GroupChat })
		views = append(views, AdminUserView{User: user, Groups: len(groups), Friends: friends})
	}
	return views, nil
}

func (s *AdminService) Chats() ([]AdminChatView, error) {
	conversations, err := s.conversations.All()
	if err != nil {
		return nil, err
	}

	views := make([]AdminChatView, 0, len(conversations))
	for _, conv := range conversations {
		count, err := s.messages.CountByChat(conv.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, AdminChatView{Conversation: conv, Messages: count})
	}
	return views, nil
}

func (s *AdminService) Messages() ([]AdminMessageView, error) {
	messages, err := s.messages.All()
	if err != nil {
		return nil, err
	}

	views := make([]AdminMessageView, 0, len(messages))
	for _, msg := range messages {
		view := AdminMessageView{Message: msg}
		if sender, err := s.users.GetByID(msg.Sender); err == nil {
			view.Sender = sender
		}
		views = append(views, view)
	}
	return views, nil
}
