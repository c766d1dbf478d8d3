//go:generate go run go.uber.org/mock/mockgen -source=dependencies.go -destination=../mocks/mock_dependencies.go -package=mocks
package services

import (
	"context"
	"io"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/repositories"
)

// Notifier pushes realtime events to the live connections of the listed
// members. Offline members are silently skipped.
type Notifier interface {
	Dispatch(members []domain.Identity, kind event.Kind, data any)
}

// Relayer runs the full new-message pipeline for messages that originate
// over HTTP, such as attachment uploads.
type Relayer interface {
	Relay(sender domain.User, chatID string, members []domain.Identity,
		content string, attachments []domain.Attachment)
}

// AttachmentStore persists attachment payloads outside the message records.
type AttachmentStore interface {
	Save(r io.Reader) (domain.Attachment, error)
	DeleteAll(attachments []domain.Attachment)
}

// DirectCreator creates (or reuses) the one-to-one conversation between
// two users. The chat service implements it; the user service only needs
// this slice of it when a friend request is accepted.
type DirectCreator interface {
	NewDirect(a, b domain.User) (string, error)
}

// MessageSearcher runs full-text queries over persisted messages.
type MessageSearcher interface {
	Search(ctx context.Context, terms, chatID string, limit int) ([]repositories.SearchHit, error)
}
