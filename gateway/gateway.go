//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../mocks/mock_resolver.go -package=mocks
// Package gateway is the realtime core: it authenticates websocket
// connections against the shared session cookie, tracks live connections
// per identity, tracks presence, and fans events out to the live
// connections of a member list.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// IdentityResolver turns an upgrade request's session credential into the
// full user profile. Resolution may hit the user store; it is the only
// blocking step of the handshake.
type IdentityResolver interface {
	Authenticate(r *http.Request) (domain.User, error)
}

// Gateway owns the connection lifecycle: handshake, authentication,
// registration, event routing, and teardown.
type Gateway struct {
	log        *slog.Logger
	resolver   IdentityResolver
	registry   *Registry
	presence   *Presence
	dispatcher *Dispatcher
	relay      *Relay
	upgrader   websocket.Upgrader
}

func New(log *slog.Logger, resolver IdentityResolver, registry *Registry,
	presence *Presence, dispatcher *Dispatcher, relay *Relay) *Gateway {
	return &Gateway{
		log:        log,
		resolver:   resolver,
		registry:   registry,
		presence:   presence,
		dispatcher: dispatcher,
		relay:      relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS is the websocket endpoint. Authentication happens before the
// upgrade: a rejected credential closes the exchange with 401 and the
// connection never touches the Registry or Presence.
func (g *Gateway) HandleWS(c *gin.Context) {
	user, err := g.resolver.Authenticate(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": auth.SessionCookie + " cookie is missing or invalid"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", "user", user.ID, "err", err)
		return
	}

	client := newClient(g, conn, user)
	g.registry.Register(user.ID, client)
	g.log.Info("Connection registered", "user", user.ID)

	go client.writePump()
	go client.readPump()
}

// handleFrame routes one inbound frame. A malformed frame is dropped with a
// warning; the connection stays active.
func (g *Gateway) handleFrame(c *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		g.log.Warn("Dropping unparseable frame", "user", c.user.ID, "err", err)
		return
	}

	switch frame.Event {
	case event.NewMessage:
		var p event.NewMessagePayload
		if !g.decode(c, frame, &p) {
			return
		}
		g.relay.Relay(c.user, p.ChatID, p.Members, p.Content, nil)

	case event.StartTyping, event.StopTyping:
		var p event.TypingPayload
		if !g.decode(c, frame, &p) {
			return
		}
		g.dispatcher.DispatchExcept(p.Members, c, frame.Event, event.ChatIDData{ChatID: p.ChatID})

	case event.ChatJoined:
		var p event.PresencePayload
		if !g.decode(c, frame, &p) {
			return
		}
		g.presence.Join(p.UserID)
		g.dispatcher.Dispatch(p.Members, event.OnlineUsers, event.OnlineUsersData{Users: g.presence.Snapshot()})

	case event.ChatLeaved:
		var p event.PresencePayload
		if !g.decode(c, frame, &p) {
			return
		}
		g.presence.Leave(p.UserID)
		g.dispatcher.Dispatch(p.Members, event.OnlineUsers, event.OnlineUsersData{Users: g.presence.Snapshot()})

	default:
		g.log.Warn("Dropping frame with unknown event", "user", c.user.ID, "event", frame.Event)
	}
}

func (g *Gateway) decode(c *Client, frame Frame, payload any) bool {
	if err := json.Unmarshal(frame.Data, payload); err != nil {
		g.log.Warn("Dropping malformed payload", "user", c.user.ID, "event", frame.Event, "err", err)
		return false
	}
	if err := auth.ValidatePayload(payload); err != nil {
		g.log.Warn("Dropping incomplete payload", "user", c.user.ID, "event", frame.Event)
		return false
	}
	return true
}

// dropClient runs the CLOSED transition exactly once per handle: unregister
// the handle, clear the identity's presence unconditionally (any disconnect
// clears presence even when other devices remain, mirroring an explicit
// leave), then broadcast the new presence snapshot to everyone.
func (g *Gateway) dropClient(c *Client) {
	c.dropOnce.Do(func() {
		g.registry.Unregister(c.user.ID, c)
		g.presence.Leave(c.user.ID)
		g.dispatcher.Broadcast(event.OnlineUsers, event.OnlineUsersData{Users: g.presence.Snapshot()})
		c.shutdown()
		g.log.Info("Connection closed", "user", c.user.ID)
	})
}
