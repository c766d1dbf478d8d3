//go:generate go run go.uber.org/mock/mockgen -source=request.go -destination=../mocks/mock_request_repository.go -package=mocks
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

type IRequestRepository interface {
	Create(req domain.Request) (string, error)
	Get(id string) (domain.Request, error)
	Delete(id string) error
	PendingBetween(a, b domain.Identity) (bool, error)
	ListByReceiver(receiver domain.Identity) ([]domain.Request, error)
}

type RequestRepository struct {
	db *badger.DB
}

func NewRequestRepository(db *badger.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

type diskRequest struct {
	ID        string               `json:"id"`
	Status    domain.RequestStatus `json:"status"`
	Sender    domain.Identity      `json:"sender"`
	Receiver  domain.Identity      `json:"receiver"`
	CreatedAt time.Time            `json:"created_at"`
}

func requestKey(id string) []byte { return []byte("freq:" + id) }

func (r *RequestRepository) Create(req domain.Request) (string, error) {
	req.ID = uuid.NewString()
	req.CreatedAt = time.Now().UTC()
	record := diskRequest{
		ID:        req.ID,
		Status:    req.Status,
		Sender:    req.Sender,
		Receiver:  req.Receiver,
		CreatedAt: req.CreatedAt,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(requestKey(req.ID), data)
	})
	if err != nil {
		return "", err
	}
	return req.ID, nil
}

func (r *RequestRepository) Get(id string) (domain.Request, error) {
	var record diskRequest
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(requestKey(id))
		if err != nil {
			return errors.ErrRequestNotFound
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.Request{}, err
	}
	return toRequest(record), nil
}

func (r *RequestRepository) Delete(id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(requestKey(id)); err != nil {
			return errors.ErrRequestNotFound
		}
		return txn.Delete(requestKey(id))
	})
}

// PendingBetween reports whether a pending request already joins the two
// identities, in either direction.
func (r *RequestRepository) PendingBetween(a, b domain.Identity) (bool, error) {
	records, err := r.scan()
	if err != nil {
		return false, err
	}
	for _, record := range records {
		if record.Status != domain.RequestPending {
			continue
		}
		if (record.Sender == a && record.Receiver == b) || (record.Sender == b && record.Receiver == a) {
			return true, nil
		}
	}
	return false, nil
}

func (r *RequestRepository) ListByReceiver(receiver domain.Identity) ([]domain.Request, error) {
	records, err := r.scan()
	if err != nil {
		return nil, err
	}
	matches := lo.Filter(records, func(rec diskRequest, _ int) bool {
		return rec.Receiver == receiver && rec.Status == domain.RequestPending
	})
	return lo.Map(matches, func(rec diskRequest, _ int) domain.Request { return toRequest(rec) }), nil
}

func (r *RequestRepository) scan() ([]diskRequest, error) {
	var records []diskRequest
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("freq:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record diskRequest
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

func toRequest(r diskRequest) domain.Request {
	return domain.Request{
		ID:        r.ID,
		Status:    r.Status,
		Sender:    r.Sender,
		Receiver:  r.Receiver,
		CreatedAt: r.CreatedAt,
	}
}
