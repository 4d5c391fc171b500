package handlers

import (
	"encoding/json"
	"strconv"

	"adisyon-go/internal/app"
)

// Audit action names, kept stable with the historical activity_log rows.
const (
	actLogin       = "KULLANICI_GIRIS"
	actLoginFailed = "KULLANICI_GIRIS_BASARISIZ"
	actLogout      = "KULLANICI_CIKIS"
	actReauth      = "KULLANICI_OTURUM_SURDURDU"
)

func (s *Server) handleLogin(c *client, raw json.RawMessage) {
	var p struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.Username == "" {
		c.reply(msgLoginFail, failPayload("Eksik giriş bilgisi."))
		return
	}

	acc, err := s.App.Directory.Authenticate(p.Username, p.Password)
	if err != nil {
		c.reply(msgLoginFail, failPayload("Kullanıcı adı veya şifre hatalı."))
		s.audit(p.Username, actLoginFailed, map[string]any{"sebep": "hatalı şifre/kullanıcı adı"}, "User", "", c.ip)
		return
	}

	id := app.Identity{ID: acc.ID, Username: acc.Username, Role: acc.Role, IP: c.ip}
	s.bindSession(c, id)

	token, err := s.App.Tokens.Issue(acc)
	if err != nil {
		s.Log.Warn("reconnect token issue failed", "username", acc.Username, "err", err)
	}

	c.reply(msgLoginSuccess, map[string]any{
		"user":     id,
		"token":    token,
		"tables":   tablesFor(id.Role, s.App.Tables.Snapshot()),
		"products": s.App.Catalog.List(),
	})
	s.Log.Info("user logged in", "username", acc.Username, "role", acc.Role, "ip", c.ip)
	s.audit(acc.Username, actLogin, map[string]any{"rol": acc.Role}, "User", itoa(acc.ID), c.ip)
	s.broadcastPresence()
}

// handleReauthenticate reattaches a previously issued identity after a
// client-side reconnect. The token skips the password check but the
// account must still exist in the directory.
func (s *Server) handleReauthenticate(c *client, raw json.RawMessage) {
	var p struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.Token == "" {
		c.reply(msgError, errorPayload("Eksik oturum bilgisi."))
		return
	}

	uid, username, err := s.App.Tokens.Verify(p.Token)
	if err != nil {
		c.reply(msgError, errorPayload("Geçersiz oturum bilgisi."))
		return
	}
	acc, ok := s.App.Directory.Lookup(uid, username)
	if !ok {
		// Account deleted or renamed since the token was issued.
		c.reply(msgError, errorPayload("Geçersiz oturum bilgisi."))
		return
	}

	id := app.Identity{ID: acc.ID, Username: acc.Username, Role: acc.Role, IP: c.ip}
	s.bindSession(c, id)

	c.reply(msgReauthSuccess, map[string]any{
		"user":     id,
		"tables":   tablesFor(id.Role, s.App.Tables.Snapshot()),
		"products": s.App.Catalog.List(),
	})
	s.Log.Info("session resumed", "username", acc.Username, "ip", c.ip)
	s.audit(acc.Username, actReauth, nil, "User", itoa(acc.ID), c.ip)
	s.broadcastPresence()
}

// bindSession enforces one live session per account: the displaced
// connection gets a takeover notice, then a forced close.
func (s *Server) bindSession(c *client, id app.Identity) {
	for _, old := range s.App.Registry.Bind(c, id) {
		old.Send(app.Envelope{
			Type:    msgSessionTerminated,
			Payload: errorPayload("Hesabınızla başka bir cihazdan giriş yapıldı."),
		})
		old.Kill()
		s.Log.Info("session takeover", "username", id.Username)
	}
}

func (s *Server) handleLogout(c *client) {
	id, ok := s.App.Registry.Unbind(c)
	if !ok {
		return
	}
	s.Log.Info("user logged out", "username", id.Username)
	s.audit(id.Username, actLogout, nil, "User", itoa(id.ID), id.IP)
	s.broadcastPresence()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
