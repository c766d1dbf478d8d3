// Package domain contains core concepts of the chat system.
// This file defines Message entities and related rules.
// Messages are immutable once created.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attachment references a stored blob belonging to a message.
type Attachment struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Message is the persisted representation of a chat message. The ID is
// assigned by the message store; it is distinct from the delivery id used
// on the realtime path and the two are never reconciled.
type Message struct {
	ID          uuid.UUID    `json:"_id"`
	Chat        string       `json:"chat"`
	Sender      Identity     `json:"sender"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}
