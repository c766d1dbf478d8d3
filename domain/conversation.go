// Package domain contains core concepts of the chat system.
// This file defines Conversation entities. Membership is owned here and
// supplied to the gateway per call; the gateway never stores it.
package domain

import "time"

// Conversation groups identities that receive relayed events. A direct
// conversation has exactly two members and no creator; a group has a
// creator and three or more members.
type Conversation struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	GroupChat bool       `json:"groupChat"`
	Creator   Identity   `json:"creator,omitempty"`
	Members   []Identity `json:"members"`
	CreatedAt time.Time  `json:"createdAt"`
}

// HasMember reports whether id currently belongs to the conversation.
func (c Conversation) HasMember(id Identity) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// OtherMember returns the member of a direct conversation that is not me.
// For groups it returns the zero Identity.
func (c Conversation) OtherMember(me Identity) Identity {
	if c.GroupChat {
		return ""
	}
	for _, m := range c.Members {
		if m != me {
			return m
		}
	}
	return ""
}
