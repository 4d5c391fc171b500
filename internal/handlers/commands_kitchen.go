package handlers

import (
	"encoding/json"

	"adisyon-go/internal/app"
	"adisyon-go/internal/pos"
)

const (
	actItemStatusChanged = "KDS_URUN_DURUM_DEGISTI"
	actBulkStatusChanged = "KDS_TOPLU_DURUM_DEGISTI"
	actOrderAcknowledged = "SIPARIS_TESLIM_ALINDI"
)

func (s *Server) handleItemStatusChange(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleKitchen)
	if !ok {
		return
	}
	var p struct {
		TableID   string         `json:"tableId"`
		LineID    int64          `json:"lineId"`
		NewStatus pos.ItemStatus `json:"newStatus"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgOrderUpdateFail, failPayload("Geçersiz durum bilgisi."))
		return
	}

	table, err := s.App.Tables.SetItemStatus(p.TableID, p.LineID, p.NewStatus)
	if err != nil {
		c.reply(msgOrderUpdateFail, failPayload(orderErrorMessage(err)))
		return
	}

	s.broadcastTables()
	s.audit(id.Username, actItemStatusChanged, map[string]any{
		"masa": table.Name, "satir": p.LineID, "durum": p.NewStatus,
	}, "Order", table.ID, id.IP)
}

func (s *Server) handleBulkStatusChange(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleKitchen)
	if !ok {
		return
	}
	var p struct {
		TableID   string         `json:"tableId"`
		NewStatus pos.ItemStatus `json:"newStatus"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgOrderUpdateFail, failPayload("Geçersiz durum bilgisi."))
		return
	}

	table, err := s.App.Tables.SetAllItemsStatus(p.TableID, p.NewStatus)
	if err != nil {
		c.reply(msgOrderUpdateFail, failPayload(orderErrorMessage(err)))
		return
	}

	s.broadcastTables()
	s.audit(id.Username, actBulkStatusChanged, map[string]any{
		"masa": table.Name, "durum": p.NewStatus,
	}, "Order", table.ID, id.IP)
}

// handleAcknowledgeReady is the front-of-house side of the handoff:
// cashier or waiter confirms the ready items reached the table.
func (s *Server) handleAcknowledgeReady(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier, app.RoleWaiter)
	if !ok {
		return
	}
	var p struct {
		TableID string `json:"tableId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgOrderUpdateFail, failPayload("Eksik masa IDsi."))
		return
	}

	table, err := s.App.Tables.AcknowledgeReady(p.TableID)
	if err != nil {
		c.reply(msgOrderUpdateFail, failPayload(orderErrorMessage(err)))
		return
	}

	s.broadcastTables()
	s.audit(id.Username, actOrderAcknowledged, map[string]any{"masa": table.Name}, "Order", table.ID, id.IP)
}
