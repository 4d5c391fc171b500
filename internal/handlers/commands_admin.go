package handlers

import (
	"encoding/json"
	"errors"

	"adisyon-go/internal/app"
	"adisyon-go/internal/pos"
)

const (
	actTableAdded      = "MASA_TANIM_EKLENDI"
	actTableRenamed    = "MASA_TANIM_ADI_GUNCELLEME"
	actTableDeleted    = "MASA_TANIM_SILINDI"
	actWaiterAdded     = "GARSON_EKLENDI"
	actWaiterPwChanged = "GARSON_SIFRE_GUNCELLEME"
	actWaiterDeleted   = "GARSON_SILINDI"
)

/* ---- table definitions ---- */

func (s *Server) handleAddTable(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgTableOpFail, failPayload("Geçersiz masa adı."))
		return
	}

	table, err := s.App.Tables.AddTable(p.Name, p.Type)
	if err != nil {
		c.reply(msgTableOpFail, failPayload("Geçersiz masa adı."))
		return
	}

	s.broadcastTables()
	c.reply(msgTableOpSuccess, map[string]any{"message": table.Name + " eklendi."})
	s.audit(id.Username, actTableAdded, map[string]any{
		"masa_adi": table.Name, "masa_tipi": table.Type,
	}, "TableDefinition", table.ID, id.IP)
}

func (s *Server) handleEditTableName(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		TableID string `json:"tableId"`
		NewName string `json:"newName"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgTableOpFail, failPayload("Eksik bilgi."))
		return
	}

	old, _ := s.App.Tables.Get(p.TableID)
	table, err := s.App.Tables.RenameTable(p.TableID, p.NewName)
	switch {
	case errors.Is(err, pos.ErrTableNotFound):
		c.reply(msgTableOpFail, failPayload("Masa bulunamadı."))
		return
	case err != nil:
		c.reply(msgTableOpFail, failPayload("Eksik bilgi."))
		return
	}

	s.broadcastTables()
	c.reply(msgTableOpSuccess, map[string]any{"message": "Masa adı " + table.Name + " olarak güncellendi."})
	s.audit(id.Username, actTableRenamed, map[string]any{
		"masa_id": table.ID, "eski_ad": old.Name, "yeni_ad": table.Name,
	}, "TableDefinition", table.ID, id.IP)
}

func (s *Server) handleDeleteTable(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		TableID string `json:"tableId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgTableOpFail, failPayload("Eksik masa IDsi."))
		return
	}

	table, err := s.App.Tables.DeleteTable(p.TableID)
	switch {
	case errors.Is(err, pos.ErrTableOccupied):
		c.reply(msgTableOpFail, failPayload("Masa dolu olduğu için silinemez."))
		return
	case errors.Is(err, pos.ErrTableNotFound):
		c.reply(msgTableOpFail, failPayload("Masa bulunamadı."))
		return
	case err != nil:
		c.reply(msgTableOpFail, failPayload("Eksik masa IDsi."))
		return
	}

	s.broadcastTables()
	c.reply(msgTableOpSuccess, map[string]any{"message": "\"" + table.Name + "\" silindi."})
	s.audit(id.Username, actTableDeleted, map[string]any{
		"masa_id": table.ID, "masa_adi": table.Name,
	}, "TableDefinition", table.ID, id.IP)
}

/* ---- staff roster ---- */

func (s *Server) handleGetUsers(c *client) {
	if _, ok := s.require(c, app.RoleCashier); !ok {
		return
	}
	c.reply(msgUsersList, map[string]any{"users": s.App.Directory.Users()})
}

func (s *Server) handleGetWaitersList(c *client) {
	if _, ok := s.require(c, app.RoleCashier); !ok {
		return
	}
	c.reply(msgWaitersList, map[string]any{"waiters": s.App.Directory.Waiters()})
}

func (s *Server) handleAddWaiter(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgWaiterOpFail, failPayload("Eksik bilgi."))
		return
	}

	acc, err := s.App.Directory.AddWaiter(p.Username, p.Password)
	switch {
	case errors.Is(err, app.ErrUsernameTaken):
		c.reply(msgWaiterOpFail, failPayload("Kullanıcı adı mevcut."))
		return
	case err != nil:
		c.reply(msgWaiterOpFail, failPayload("Eksik bilgi."))
		return
	}

	s.broadcastWaiters()
	c.reply(msgWaiterOpSuccess, map[string]any{"message": acc.Username + " eklendi."})
	s.audit(id.Username, actWaiterAdded, map[string]any{
		"garson_kullanici_adi": acc.Username,
	}, "User", itoa(acc.ID), id.IP)
}

func (s *Server) handleEditWaiterPassword(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		UserID      int64  `json:"userId"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgWaiterOpFail, failPayload("Eksik bilgi."))
		return
	}

	acc, err := s.App.Directory.SetWaiterPassword(p.UserID, p.NewPassword)
	switch {
	case errors.Is(err, app.ErrAccountNotFound):
		c.reply(msgWaiterOpFail, failPayload("Garson bulunamadı."))
		return
	case err != nil:
		c.reply(msgWaiterOpFail, failPayload("Eksik bilgi."))
		return
	}

	c.reply(msgWaiterOpSuccess, map[string]any{"message": acc.Username + " şifresi güncellendi."})
	s.audit(id.Username, actWaiterPwChanged, map[string]any{
		"garson_kullanici_adi": acc.Username,
	}, "User", itoa(acc.ID), id.IP)
}

func (s *Server) handleDeleteWaiter(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		UserID int64 `json:"userId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgWaiterOpFail, failPayload("Eksik garson IDsi."))
		return
	}

	acc, err := s.App.Directory.DeleteWaiter(p.UserID)
	if err != nil {
		c.reply(msgWaiterOpFail, failPayload("Garson bulunamadı."))
		return
	}

	s.broadcastWaiters()
	c.reply(msgWaiterOpSuccess, map[string]any{"message": acc.Username + " silindi."})
	s.audit(id.Username, actWaiterDeleted, map[string]any{
		"garson_kullanici_adi": acc.Username,
	}, "User", itoa(acc.ID), id.IP)
}
