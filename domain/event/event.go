// Package event defines the gateway wire protocol: the event kinds clients
// and server exchange and the payload shapes that accompany them. The
// string values are part of the protocol and must not change.
package event

import "chat-hub/domain"

type Kind string

const (
	// Client -> server and server -> client.
	NewMessage  Kind = "NEW_MESSAGE"
	StartTyping Kind = "START_TYPING"
	StopTyping  Kind = "STOP_TYPING"

	// Client -> server only.
	ChatJoined Kind = "CHAT_JOINED"
	ChatLeaved Kind = "CHAT_LEAVED"

	// Server -> client only.
	NewMessageAlert Kind = "NEW_MESSAGE_ALERT"
	OnlineUsers     Kind = "ONLINE_USERS"
	Alert           Kind = "ALERT"
	RefetchChats    Kind = "REFETCH_CHATS"
	NewRequest      Kind = "NEW_REQUEST"
)

// WireSender is the denormalized sender block embedded in realtime messages
// so clients can render without a profile lookup.
type WireSender struct {
	ID   domain.Identity `json:"_id"`
	Name string          `json:"name"`
}

// WireMessage is the ephemeral "for realtime" copy of a message. Its ID is a
// fresh delivery identifier, not the persisted message id.
type WireMessage struct {
	ID          string              `json:"_id"`
	Content     string              `json:"content"`
	Sender      WireSender          `json:"sender"`
	Chat        string              `json:"chat"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	CreatedAt   string              `json:"createdAt"`
}

// Inbound payloads. Members is supplied fresh by the client on every event;
// the gateway never stores conversation membership.

type NewMessagePayload struct {
	ChatID  string            `json:"chatId" validate:"required"`
	Members []domain.Identity `json:"members" validate:"required,min=1"`
	Content string            `json:"message" validate:"required"`
}

type TypingPayload struct {
	ChatID  string            `json:"chatId" validate:"required"`
	Members []domain.Identity `json:"members" validate:"required,min=1"`
}

type PresencePayload struct {
	UserID  domain.Identity   `json:"userId" validate:"required"`
	Members []domain.Identity `json:"members" validate:"required,min=1"`
}

// Outbound payloads.

type NewMessageData struct {
	ChatID  string      `json:"chatId"`
	Message WireMessage `json:"message"`
}

type ChatIDData struct {
	ChatID string `json:"chatId"`
}

type OnlineUsersData struct {
	Users []domain.Identity `json:"users"`
}

type AlertData struct {
	ChatID  string `json:"chatId,omitempty"`
	Message string `json:"message"`
}
