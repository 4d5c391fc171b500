package app

import (
	"sort"
	"sync"
)

// Identity is the authenticated user bound to one live connection.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IP       string `json:"ip,omitempty"`
}

// Envelope is the wire frame: every message in either direction is
// {type, payload}.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Conn abstracts the transport side of a session. Send enqueues without
// blocking and reports false when the peer can no longer keep up; Kill
// force-closes the underlying socket.
type Conn interface {
	Send(env Envelope) bool
	Kill()
}

// Registry maps live connections to identities and enforces the one
// session per account rule: binding an account a second time displaces
// the earlier connection.
type Registry struct {
	mu     sync.RWMutex
	byConn map[Conn]Identity
}

func NewRegistry() *Registry {
	return &Registry{byConn: make(map[Conn]Identity)}
}

// Bind attaches id to c and returns any connections that were bound to the
// same account. The displaced connections are already deregistered; the
// caller owns notifying and closing them.
func (r *Registry) Bind(c Conn, id Identity) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	var displaced []Conn
	for other, otherID := range r.byConn {
		if otherID.ID == id.ID && other != c {
			displaced = append(displaced, other)
			delete(r.byConn, other)
		}
	}
	r.byConn[c] = id
	return displaced
}

// Unbind removes the connection, reporting the identity it carried.
func (r *Registry) Unbind(c Conn) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[c]
	if ok {
		delete(r.byConn, c)
	}
	return id, ok
}

func (r *Registry) Get(c Conn) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[c]
	return id, ok
}

// Each calls fn for every bound connection. fn must not call back into the
// registry.
func (r *Registry) Each(fn func(Conn, Identity)) {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.byConn))
	ids := make([]Identity, 0, len(r.byConn))
	for c, id := range r.byConn {
		conns = append(conns, c)
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	for i, c := range conns {
		fn(c, ids[i])
	}
}

// Active lists bound identities, ordered by account id.
func (r *Registry) Active() []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Identity, 0, len(r.byConn))
	for _, id := range r.byConn {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
