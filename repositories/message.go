//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-hub/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// PageSize is the number of messages returned per history page.
const PageSize = 20

type IMessageRepository interface {
	Create(msg domain.Message) (uuid.UUID, error)
	History(chatID string, page int) ([]domain.Message, int, error)
	DeleteByChat(chatID string) ([]domain.Attachment, error)
	CountByChat(chatID string) (int, error)
	CountAll() (int, error)
	CreatedSince(cutoff time.Time) ([]time.Time, error)
	All() ([]domain.Message, error)
}

type MessageRepository struct {
	db    *badger.DB
	index *MessageIndex
	log   *slog.Logger
}

// NewMessageRepository persists messages in BadgerDB and, when an index is
// provided, mirrors their content into the full-text index.
func NewMessageRepository(db *badger.DB, index *MessageIndex, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, index: index, log: log}
}

type diskMessage struct {
	ID          uuid.UUID           `json:"id"`
	Chat        string              `json:"chat"`
	Sender      domain.Identity     `json:"sender"`
	Content     string              `json:"content"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	At          time.Time           `json:"at"`
}

// messageKey is formatted as "msg:{chat}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order matches time order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func messageKey(chatID string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", chatID, at.UnixNano(), id))
}

func messagePrefix(chatID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", chatID))
}

// Create assigns the canonical message id, persists the record and feeds
// the search index. The assigned id is returned to the caller; it is never
// propagated back into payloads that were already delivered.
func (m *MessageRepository) Create(msg domain.Message) (uuid.UUID, error) {
	record := diskMessage{
		ID:          uuid.New(),
		Chat:        msg.Chat,
		Sender:      msg.Sender,
		Content:     msg.Content,
		Attachments: msg.Attachments,
		At:          msg.CreatedAt,
	}
	if record.At.IsZero() {
		record.At = time.Now().UTC()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(record.Chat, record.At, record.ID), data)
	})
	if err != nil {
		return uuid.Nil, err
	}

	if m.index != nil {
		if err := m.index.Index(toMessage(record)); err != nil {
			m.log.Error("Message stored but indexing failed", "id", record.ID, "err", err)
		}
	}
	return record.ID, nil
}

// History returns one page of a conversation's messages plus the total page
// count. Pages are counted from the newest message backwards; within a page
// messages come back in chronological order.
func (m *MessageRepository) History(chatID string, page int) ([]domain.Message, int, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * PageSize

	var records []diskMessage
	total := 0
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := messagePrefix(chatID)
		// Reverse iteration starts just past the prefix range.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			total++
			if total <= skip || len(records) >= PageSize {
				continue
			}
			err := it.Item().Value(func(val []byte) error {
				var record diskMessage
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
	if err != nil {
		return nil, 0, err
	}

	// Newest-first on disk scan, chronological for the caller.
	lo.Reverse(records)
	totalPages := (total + PageSize - 1) / PageSize
	return lo.Map(records, func(r diskMessage, _ int) domain.Message {
		return toMessage(r)
	}), totalPages, nil
}

// DeleteByChat removes every message of a conversation and reports the
// attachments they referenced so the blob store can reclaim them.
func (m *MessageRepository) DeleteByChat(chatID string) ([]domain.Attachment, error) {
	var keys [][]byte
	var attachments []domain.Attachment

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := messagePrefix(chatID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
			err := it.Item().Value(func(val []byte) error {
				var record diskMessage
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				attachments = append(attachments, record.Attachments...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	wb := m.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return nil, err
		}
	}
	return attachments, wb.Flush()
}

func (m *MessageRepository) CountByChat(chatID string) (int, error) {
	return m.countPrefix(messagePrefix(chatID))
}

func (m *MessageRepository) CountAll() (int, error) {
	return m.countPrefix([]byte("msg:"))
}

func (m *MessageRepository) countPrefix(prefix []byte) (int, error) {
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// CreatedSince returns the creation timestamps of all messages newer than
// the cutoff, for the dashboard activity histogram.
func (m *MessageRepository) CreatedSince(cutoff time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("msg:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record diskMessage
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				if record.At.After(cutoff) {
					stamps = append(stamps, record.At)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return stamps, err
}

// All returns every stored message, for the admin view.
func (m *MessageRepository) All() ([]domain.Message, error) {
	var records []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("msg:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record diskMessage
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
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r diskMessage, _ int) domain.Message {
		return toMessage(r)
	}), nil
}

func toMessage(r diskMessage) domain.Message {
	return domain.Message{
		ID:          r.ID,
		Chat:        r.Chat,
		Sender:      r.Sender,
		Content:     r.Content,
		Attachments: r.Attachments,
		CreatedAt:   r.At,
	}
}
