package gateway

import (
	"testing"

	"chat-hub/domain"

	"github.com/stretchr/testify/require"
)

func TestPresence_Join_Then_Leave(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	alice := domain.Identity("alice")

	// When an identity joins then leaves
	presence.Join(alice)
	presence.Leave(alice)

	// Then the snapshot no longer contains it
	req.NotContains(presence.Snapshot(), alice)
}

func TestPresence_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	alice := domain.Identity("alice")

	presence.Join(alice)
	presence.Join(alice)

	req.Equal([]domain.Identity{alice}, presence.Snapshot())

	// And a single leave suffices after a double join
	presence.Leave(alice)
	req.Empty(presence.Snapshot())
}

func TestPresence_Leave_Unknown_Identity_Is_Noop(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	presence.Join("alice")

	presence.Leave("ghost")

	req.Equal([]domain.Identity{"alice"}, presence.Snapshot())
}

func TestPresence_Membership_Is_Independent_Of_Connections(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()

	// An identity can be present with zero live connections; only explicit
	// signals move membership.
	presence.Join("alice")
	req.Contains(presence.Snapshot(), domain.Identity("alice"))
}
