package gateway

import (
	"encoding/json"
	"log/slog"

	"chat-hub/domain"
	"chat-hub/domain/event"
)

// Frame is the envelope every websocket message travels in.
type Frame struct {
	Event event.Kind      `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outboundFrame struct {
	Event event.Kind `json:"event"`
	Data  any        `json:"data"`
}

// Dispatcher resolves member identities to live handles through the
// Registry and delivers one frame to each. Offline identities are silently
// skipped; a handle that closed between resolution and send just drops the
// frame. There is no acknowledgment and no retry.
//
// The HTTP layer uses Dispatch as its notification entry point, so
// non-gateway mutations (rename, add member, friend request) reach clients
// through the exact same path as gateway events.
type Dispatcher struct {
	registry *Registry
	log      *slog.Logger
}

func NewDispatcher(registry *Registry, log *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

// Dispatch sends (kind, data) to every live handle of the listed members.
func (d *Dispatcher) Dispatch(members []domain.Identity, kind event.Kind, data any) {
	frame, err := d.encode(kind, data)
	if err != nil {
		return
	}
	for _, c := range d.registry.ResolveMany(members) {
		c.enqueue(frame)
	}
}

// DispatchExcept behaves like Dispatch but skips one handle, used for
// typing signals where the originating device must not echo itself.
func (d *Dispatcher) DispatchExcept(members []domain.Identity, except *Client, kind event.Kind, data any) {
	frame, err := d.encode(kind, data)
	if err != nil {
		return
	}
	for _, c := range d.registry.ResolveMany(members) {
		if c == except {
			continue
		}
		c.enqueue(frame)
	}
}

// Broadcast sends (kind, data) to every live handle regardless of
// membership. Used for the presence update that follows a disconnect.
func (d *Dispatcher) Broadcast(kind event.Kind, data any) {
	frame, err := d.encode(kind, data)
	if err != nil {
		return
	}
	for _, c := range d.registry.All() {
		c.enqueue(frame)
	}
}

func (d *Dispatcher) encode(kind event.Kind, data any) ([]byte, error) {
	frame, err := json.Marshal(outboundFrame{Event: kind, Data: data})
	if err != nil {
		d.log.Error("Dropping undeliverable event", "kind", kind, "err", err)
		return nil, err
	}
	return frame, nil
}
