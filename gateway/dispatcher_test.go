package gateway

import (
	"encoding/json"
	"log/slog"
	"testing"

	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/stretchr/testify/require"
)

func unmarshalData(f Frame, v any) error { return json.Unmarshal(f.Data, v) }

// drainFrames empties a client's outbound buffer into decoded frames.
func drainFrames(t *testing.T, c *Client) []Frame {
	t.Helper()
	var frames []Frame
	for {
		select {
		case raw := <-c.send:
			var f Frame
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestDispatcher_Delivers_Once_Per_Live_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())
	alice := domain.Identity("alice")
	bob := domain.Identity("bob")
	ha1 := newClient(nil, nil, domain.User{ID: alice})
	ha2 := newClient(nil, nil, domain.User{ID: alice})
	registry.Register(alice, ha1)
	registry.Register(alice, ha2)

	// When dispatching to a list with one online and one offline member
	dispatcher.Dispatch([]domain.Identity{alice, bob}, event.RefetchChats, nil)

	// Then each of alice's devices got exactly one frame and bob got nothing
	req.Len(drainFrames(t, ha1), 1)
	req.Len(drainFrames(t, ha2), 1)
}

func TestDispatcher_Offline_Members_Are_Not_An_Error(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())

	// Dispatching to nobody must be a silent no-op
	dispatcher.Dispatch([]domain.Identity{"ghost"}, event.Alert, event.AlertData{Message: "hello"})
}

func TestDispatcher_DispatchExcept_Skips_The_Sender_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())
	alice := domain.Identity("alice")
	bob := domain.Identity("bob")
	ha := newClient(nil, nil, domain.User{ID: alice})
	hb := newClient(nil, nil, domain.User{ID: bob})
	registry.Register(alice, ha)
	registry.Register(bob, hb)

	// When alice starts typing, her own handle must not echo
	dispatcher.DispatchExcept([]domain.Identity{alice, bob}, ha, event.StartTyping, event.ChatIDData{ChatID: "c1"})

	req.Empty(drainFrames(t, ha))
	frames := drainFrames(t, hb)
	req.Len(frames, 1)
	req.Equal(event.StartTyping, frames[0].Event)
}

func TestDispatcher_Closed_Handle_Drops_Frame_Silently(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())
	alice := domain.Identity("alice")
	ha := newClient(nil, nil, domain.User{ID: alice})
	registry.Register(alice, ha)

	// Given the handle closed between resolution and send
	ha.shutdown()

	// Then dispatch neither panics nor errors
	req.NotPanics(func() {
		dispatcher.Dispatch([]domain.Identity{alice}, event.RefetchChats, nil)
	})
}

func TestDispatcher_Broadcast_Reaches_Every_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())
	ha := newClient(nil, nil, domain.User{ID: "alice"})
	hb := newClient(nil, nil, domain.User{ID: "bob"})
	registry.Register("alice", ha)
	registry.Register("bob", hb)

	dispatcher.Broadcast(event.OnlineUsers, event.OnlineUsersData{Users: []domain.Identity{"alice"}})

	req.Len(drainFrames(t, ha), 1)
	req.Len(drainFrames(t, hb), 1)
}
