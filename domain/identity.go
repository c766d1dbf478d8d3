// Package domain contains core concepts of the chat system.
// This file defines the Identity value and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the stable external identifier of a user. It is produced by
// the account system and never changes for the lifetime of the account.
type Identity string

func (i Identity) String() string { return string(i) }
