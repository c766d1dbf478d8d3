//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IUserRepository interface {
	Create(user domain.User, passwordHash string) (domain.Identity, error)
	GetByUsername(username string) (domain.User, string, error)
	GetByID(id domain.Identity) (domain.User, error)
	SearchByName(name string, exclude []domain.Identity) ([]domain.User, error)
	All() ([]domain.User, error)
	Count() (int, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// diskUser is the stored representation. The password hash lives here and
// is only surfaced by GetByUsername for credential checks.
type diskUser struct {
	ID           domain.Identity   `json:"id"`
	Name         string            `json:"name"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Bio          string            `json:"bio,omitempty"`
	Avatar       domain.Attachment `json:"avatar"`
	PasswordHash string            `json:"password_hash"`
	CreatedAt    time.Time         `json:"created_at"`
}

func userKey(username string) []byte { return []byte("user:" + username) }

// useridx:{id} -> username, so profile lookups by identity stay one hop.
func userIndexKey(id domain.Identity) []byte { return []byte("useridx:" + string(id)) }

// Create persists a new user. The username is the uniqueness boundary; a
// taken username fails with ErrUserAlreadyExists.
func (u *UserRepository) Create(user domain.User, passwordHash string) (domain.Identity, error) {
	id := domain.Identity(uuid.NewString())
	record := diskUser{
		ID:           id,
		Name:         user.Name,
		Username:     user.Username,
		Email:        user.Email,
		Bio:          user.Bio,
		Avatar:       user.Avatar,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(user.Username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userKey(user.Username), data); err != nil {
			return err
		}
		return txn.Set(userIndexKey(id), []byte(user.Username))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetByUsername returns the profile and its password hash.
func (u *UserRepository) GetByUsername(username string) (domain.User, string, error) {
	var record diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return errors.ErrUserNotFound
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.User{}, "", err
	}
	return toUser(record), record.PasswordHash, nil
}

func (u *UserRepository) GetByID(id domain.Identity) (domain.User, error) {
	var record diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userIndexKey(id))
		if err != nil {
			return errors.ErrUserNotFound
		}
		var username []byte
		if username, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get(userKey(string(username)))
		if err != nil {
			return errors.ErrUserNotFound
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	return toUser(record), nil
}

// SearchByName returns users whose display name contains the given
// fragment (case-insensitive), excluding the listed identities.
func (u *UserRepository) SearchByName(name string, exclude []domain.Identity) ([]domain.User, error) {
	excluded := make(map[domain.Identity]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	fragment := strings.ToLower(name)

	records, err := u.scan()
	if err != nil {
		return nil, err
	}
	matches := lo.Filter(records, func(r diskUser, _ int) bool {
		if _, skip := excluded[r.ID]; skip {
			return false
		}
		return strings.Contains(strings.ToLower(r.Name), fragment)
	})
	return lo.Map(matches, func(r diskUser, _ int) domain.User { return toUser(r) }), nil
}

func (u *UserRepository) All() ([]domain.User, error) {
	records, err := u.scan()
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r diskUser, _ int) domain.User { return toUser(r) }), nil
}

func (u *UserRepository) Count() (int, error) {
	count := 0
	err := u.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (u *UserRepository) scan() ([]diskUser, error) {
	var records []diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record diskUser
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

func toUser(r diskUser) domain.User {
	return domain.User{
		ID:        r.ID,
		Name:      r.Name,
		Username:  r.Username,
		Email:     r.Email,
		Bio:       r.Bio,
		Avatar:    r.Avatar,
		CreatedAt: r.CreatedAt,
	}
}
