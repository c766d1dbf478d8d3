// Package domain contains core concepts of the chat system.
// This file defines User entities.
package domain

import "time"

type User struct {
	ID        Identity   `json:"_id"`
	Name      string     `json:"name"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Bio       string     `json:"bio,omitempty"`
	Avatar    Attachment `json:"avatar"`
	CreatedAt time.Time  `json:"createdAt"`
}
