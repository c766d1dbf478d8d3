//go:generate go run go.uber.org/mock/mockgen -source=relay.go -destination=../mocks/mock_gateway.go -package=mocks
package gateway

import (
	"log/slog"
	"sync"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/google/uuid"
)

// MessageStore persists the canonical copy of a relayed message and assigns
// its persisted id.
type MessageStore interface {
	Create(msg domain.Message) (uuid.UUID, error)
}

// ContentFilter sanitizes message content before dispatch and persistence.
// A nil filter passes content through untouched.
type ContentFilter interface {
	Sanitize(content string) string
}

// Relay is the new-message pipeline: build the ephemeral payload, dispatch
// it immediately, and persist the canonical record without making delivery
// wait on it.
//
// Persistence runs concurrently with delivery. A crash or store failure
// between dispatch and persist leaves a delivered-but-not-stored message;
// that trade-off is deliberate, latency wins over delivery-persistence
// atomicity. Store failures go to the operator log only, never back to the
// sender, and the delivery id is never replaced by the persisted id.
type Relay struct {
	dispatcher *Dispatcher
	store      MessageStore
	filter     ContentFilter
	log        *slog.Logger

	persisting sync.WaitGroup
}

func NewRelay(dispatcher *Dispatcher, store MessageStore, filter ContentFilter, log *slog.Logger) *Relay {
	return &Relay{dispatcher: dispatcher, store: store, filter: filter, log: log}
}

// Relay fans a new message out to the members' live connections and submits
// the canonical record to the store. Each resolved handle receives the full
// NEW_MESSAGE payload followed by a lightweight NEW_MESSAGE_ALERT, in that
// order.
func (r *Relay) Relay(sender domain.User, chatID string, members []domain.Identity,
	content string, attachments []domain.Attachment) {

	if r.filter != nil {
		content = r.filter.Sanitize(content)
	}

	wire := event.WireMessage{
		ID:      uuid.NewString(),
		Content: content,
		Sender: event.WireSender{
			ID:   sender.ID,
			Name: sender.Name,
		},
		Chat:        chatID,
		Attachments: attachments,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	r.dispatcher.Dispatch(members, event.NewMessage, event.NewMessageData{
		ChatID:  chatID,
		Message: wire,
	})
	r.dispatcher.Dispatch(members, event.NewMessageAlert, event.ChatIDData{ChatID: chatID})

	r.persisting.Add(1)
	go func() {
		defer r.persisting.Done()
		record := domain.Message{
			Chat:        chatID,
			Sender:      sender.ID,
			Content:     content,
			Attachments: attachments,
			CreatedAt:   time.Now().UTC(),
		}
		if _, err := r.store.Create(record); err != nil {
			r.log.Error("Message persistence failed after dispatch",
				"chat", chatID, "sender", sender.ID, "err", err)
		}
	}()
}

// Close blocks until every in-flight store submission has finished. Call it
// during shutdown, after the last Relay call. Tests use it to observe the
// persisted record deterministically.
func (r *Relay) Close() {
	r.persisting.Wait()
}
