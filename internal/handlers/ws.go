// Package handlers carries the WebSocket transport and the command
// dispatcher: one persistent connection per terminal, JSON envelopes in
// both directions, role checks before every mutation.
package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"adisyon-go/internal/app"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendQueueSize  = 64
)

type Server struct {
	App *app.App
	Log *slog.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Terminals connect from the restaurant LAN; the origin header is
	// whatever the kiosk browser happens to send.
	CheckOrigin: func(*http.Request) bool { return true },
}

// client is one terminal connection. It implements app.Conn: Send never
// blocks, Kill force-closes the socket (session takeover, slow consumer).
type client struct {
	ws     *websocket.Conn
	ip     string
	send   chan app.Envelope
	closed chan struct{}
	once   sync.Once
}

func (c *client) Send(env app.Envelope) bool {
	select {
	case <-c.closed:
		return false
	case c.send <- env:
		return true
	default:
		return false
	}
}

// Kill signals the connection to shut down. The write pump owns the
// socket: it flushes anything still queued and then closes it, so frames
// sent just before Kill (the takeover notice) still reach the peer.
func (c *client) Kill() {
	c.once.Do(func() { close(c.closed) })
}

// ServeWS upgrades the connection and runs the read loop. Commands from
// one connection are applied strictly in arrival order.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn("websocket upgrade failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	c := &client{
		ws:     ws,
		ip:     r.RemoteAddr,
		send:   make(chan app.Envelope, sendQueueSize),
		closed: make(chan struct{}),
	}
	s.Log.Info("client connected", "ip", c.ip)

	go c.writePump()
	s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer s.disconnect(c)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Log.Warn("websocket read error", "ip", c.ip, "err", err)
			}
			return
		}
		s.dispatch(c, raw)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Kill()
		_ = c.ws.Close()
	}()
	for {
		select {
		case <-c.closed:
			c.drainQueued()
			return
		case env := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drainQueued writes whatever is still enqueued before the socket drops.
func (c *client) drainQueued() {
	for {
		select {
		case env := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if c.ws.WriteJSON(env) != nil {
				return
			}
		default:
			return
		}
	}
}

// disconnect deregisters the session (if it ever authenticated) and lets
// the cashiers' presence view catch up.
func (s *Server) disconnect(c *client) {
	if id, ok := s.App.Registry.Unbind(c); ok {
		s.Log.Info("client disconnected", "username", id.Username, "ip", c.ip)
		s.broadcastPresence()
	} else {
		s.Log.Info("unauthenticated client disconnected", "ip", c.ip)
	}
	c.Kill()
}
