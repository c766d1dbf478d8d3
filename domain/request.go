// Package domain contains core concepts of the chat system.
// This file defines friend Request entities.
package domain

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Request is a pending friendship between two identities. Accepting one
// creates the direct conversation between sender and receiver.
type Request struct {
	ID        string        `json:"_id"`
	Status    RequestStatus `json:"status"`
	Sender    Identity      `json:"sender"`
	Receiver  Identity      `json:"receiver"`
	CreatedAt time.Time     `json:"createdAt"`
}
