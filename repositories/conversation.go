//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IConversationRepository interface {
	Create(conv domain.Conversation) (string, error)
	Get(id string) (domain.Conversation, error)
	Save(conv domain.Conversation) error
	Delete(id string) error
	ListByMember(member domain.Identity) ([]domain.Conversation, error)
	GroupsByCreator(creator domain.Identity) ([]domain.Conversation, error)
	DirectBetween(a, b domain.Identity) (domain.Conversation, bool, error)
	All() ([]domain.Conversation, error)
	Count() (int, error)
	CountGroups() (int, error)
}

type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

type diskConversation struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	GroupChat bool              `json:"group_chat"`
	Creator   domain.Identity   `json:"creator,omitempty"`
	Members   []domain.Identity `json:"members"`
	CreatedAt time.Time         `json:"created_at"`
}

func conversationKey(id string) []byte { return []byte("conv:" + id) }

func (c *ConversationRepository) Create(conv domain.Conversation) (string, error) {
	conv.ID = uuid.NewString()
	conv.CreatedAt = time.Now().UTC()
	if err := c.write(conv); err != nil {
		return "", err
	}
	return conv.ID, nil
}

func (c *ConversationRepository) Get(id string) (domain.Conversation, error) {
	var record diskConversation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(id))
		if err != nil {
			return errors.ErrChatNotFound
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return toConversation(record), nil
}

// Save overwrites an existing conversation. Membership changes go through
// here so the stored record stays the single source of truth.
func (c *ConversationRepository) Save(conv domain.Conversation) error {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(conversationKey(conv.ID))
		return err
	})
	if err != nil {
		return errors.ErrChatNotFound
	}
	return c.write(conv)
}

func (c *ConversationRepository) Delete(id string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(conversationKey(id)); err != nil {
			return errors.ErrChatNotFound
		}
		return txn.Delete(conversationKey(id))
	})
}

func (c *ConversationRepository) ListByMember(member domain.Identity) ([]domain.Conversation, error) {
	records, err := c.scan()
	if err != nil {
		return nil, err
	}
	matches := lo.Filter(records, func(r diskConversation, _ int) bool {
		return lo.Contains(r.Members, member)
	})
	return lo.Map(matches, func(r diskConversation, _ int) domain.Conversation { return toConversation(r) }), nil
}

func (c *ConversationRepository) GroupsByCreator(creator domain.Identity) ([]domain.Conversation, error) {
	records, err := c.scan()
	if err != nil {
		return nil, err
	}
	matches := lo.Filter(records, func(r diskConversation, _ int) bool {
		return r.GroupChat && r.Creator == creator
	})
	return lo.Map(matches, func(r diskConversation, _ int) domain.Conversation { return toConversation(r) }), nil
}

// DirectBetween finds the one-to-one conversation joining two identities,
// if any exists.
func (c *ConversationRepository) DirectBetween(a, b domain.Identity) (domain.Conversation, bool, error) {
	records, err := c.scan()
	if err != nil {
		return domain.Conversation{}, false, err
	}
	for _, r := range records {
		if r.GroupChat || len(r.Members) != 2 {
			continue
		}
		if lo.Contains(r.Members, a) && lo.Contains(r.Members, b) {
			return toConversation(r), true, nil
		}
	}
	return domain.Conversation{}, false, nil
}

func (c *ConversationRepository) All() ([]domain.Conversation, error) {
	records, err := c.scan()
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r diskConversation, _ int) domain.Conversation { return toConversation(r) }), nil
}

func (c *ConversationRepository) Count() (int, error) {
	records, err := c.scan()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (c *ConversationRepository) CountGroups() (int, error) {
	records, err := c.scan()
	if err != nil {
		return 0, err
	}
	return lo.CountBy(records, func(r diskConversation) bool { return r.GroupChat }), nil
}

func (c *ConversationRepository) write(conv domain.Conversation) error {
	record := diskConversation{
		ID:        conv.ID,
		Name:      conv.Name,
		GroupChat: conv.GroupChat,
		Creator:   conv.Creator,
		Members:   conv.Members,
		CreatedAt: conv.CreatedAt,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(conversationKey(conv.ID), data)
	})
}

func (c *ConversationRepository) scan() ([]diskConversation, error) {
	var records []diskConversation
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("conv:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record diskConversation
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

func toConversation(r diskConversation) domain.Conversation {
	return domain.Conversation{
		ID:        r.ID,
		Name:      r.Name,
		GroupChat: r.GroupChat,
		Creator:   r.Creator,
		Members:   r.Members,
		CreatedAt: r.CreatedAt,
	}
}
