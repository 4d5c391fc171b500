package app

import "log/slog"

// Hub fans messages out to the registered sessions. A session whose send
// queue is full is evicted instead of ever blocking the broadcaster.
type Hub struct {
	log *slog.Logger
	reg *Registry
}

func NewHub(reg *Registry, log *slog.Logger) *Hub {
	return &Hub{log: log, reg: reg}
}

// Broadcast sends one envelope to every authenticated session.
func (h *Hub) Broadcast(env Envelope) {
	h.reg.Each(func(c Conn, id Identity) {
		h.deliver(c, id, env)
	})
}

// BroadcastRole sends only to sessions holding one of the given roles.
func (h *Hub) BroadcastRole(env Envelope, roles ...string) {
	h.reg.Each(func(c Conn, id Identity) {
		for _, r := range roles {
			if id.Role == r {
				h.deliver(c, id, env)
				return
			}
		}
	})
}

// BroadcastEach lets the caller shape the payload per session (role
// filtered snapshots). build returning false skips the session.
func (h *Hub) BroadcastEach(build func(Identity) (Envelope, bool)) {
	h.reg.Each(func(c Conn, id Identity) {
		env, ok := build(id)
		if !ok {
			return
		}
		h.deliver(c, id, env)
	})
}

func (h *Hub) deliver(c Conn, id Identity, env Envelope) {
	if c.Send(env) {
		return
	}
	if _, ok := h.reg.Unbind(c); ok {
		h.log.Warn("session evicted, send queue full", "username", id.Username)
	}
	c.Kill()
}
