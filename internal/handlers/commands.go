package handlers

import (
	"context"
	"encoding/json"
	"time"

	"adisyon-go/internal/app"
	"adisyon-go/internal/ledger"
	"adisyon-go/internal/pos"
)

// Inbound command types. The dispatcher below is the single place a
// command enters the system; anything not listed here is answered with an
// error naming the unrecognized type.
const (
	cmdLogin          = "login"
	cmdReauthenticate = "reauthenticate"
	cmdLogout         = "logout"

	cmdGetProducts   = "get_products"
	cmdAddProduct    = "add_product_to_main_menu"
	cmdUpdateProduct = "update_main_menu_product"

	cmdAddOrderItem       = "add_order_item"
	cmdAddManualOrderItem = "add_manual_order_item"
	cmdRemoveOrderItem    = "remove_order_item"
	cmdCloseTable         = "close_table"
	cmdQuickSale          = "complete_quick_sale"

	cmdItemStatusChange = "kds_item_status_change"
	cmdBulkStatusChange = "kds_bulk_status_change"
	cmdAcknowledgeReady = "acknowledge_order_ready"

	cmdAddTable      = "add_table"
	cmdEditTableName = "edit_table_name"
	cmdDeleteTable   = "delete_table"

	cmdGetUsers           = "get_users"
	cmdGetWaitersList     = "get_waiters_list"
	cmdAddWaiter          = "add_waiter"
	cmdEditWaiterPassword = "edit_waiter_password"
	cmdDeleteWaiter       = "delete_waiter"

	cmdGetSalesReport = "get_sales_report"
	cmdGetActivityLog = "get_activity_log"
)

// Outbound message types.
const (
	msgError             = "error"
	msgLoginSuccess      = "login_success"
	msgLoginFail         = "login_fail"
	msgReauthSuccess     = "reauth_success"
	msgSessionTerminated = "session_terminated"
	msgTablesUpdate      = "tables_update"
	msgProductsUpdate    = "products_update"
	msgProductAdded      = "main_menu_product_added"
	msgProductUpdated    = "main_menu_product_updated"
	msgOrderUpdateFail   = "order_update_fail"
	msgQuickSaleSuccess  = "quick_sale_success"
	msgQuickSaleFail     = "quick_sale_fail"
	msgTableOpSuccess    = "table_operation_success"
	msgTableOpFail       = "table_operation_fail"
	msgWaiterOpSuccess   = "waiter_operation_success"
	msgWaiterOpFail      = "waiter_operation_fail"
	msgUsersList         = "users_list"
	msgWaitersList       = "waiters_list"
	msgPresenceUpdate    = "presence_update"
	msgSalesReportData   = "sales_report_data"
	msgActivityLogData   = "activity_log_data"
)

const (
	salesReportLimit  = 500
	activityLogLimit  = 200
	ledgerCallTimeout = 10 * time.Second
)

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// dispatch routes one raw frame. A malformed envelope is a protocol
// error answered on the offending connection only; state is never touched.
func (s *Server) dispatch(c *client, raw []byte) {
	var env inbound
	if err := json.Unmarshal(raw, &env); err != nil {
		c.reply(msgError, errorPayload("Geçersiz JSON formatı."))
		return
	}

	switch env.Type {
	case cmdLogin:
		s.handleLogin(c, env.Payload)
	case cmdReauthenticate:
		s.handleReauthenticate(c, env.Payload)
	case cmdLogout:
		s.handleLogout(c)

	case cmdGetProducts:
		s.handleGetProducts(c)
	case cmdAddProduct:
		s.handleAddProduct(c, env.Payload)
	case cmdUpdateProduct:
		s.handleUpdateProduct(c, env.Payload)

	case cmdAddOrderItem:
		s.handleAddOrderItem(c, env.Payload)
	case cmdAddManualOrderItem:
		s.handleAddManualOrderItem(c, env.Payload)
	case cmdRemoveOrderItem:
		s.handleRemoveOrderItem(c, env.Payload)
	case cmdCloseTable:
		s.handleCloseTable(c, env.Payload)
	case cmdQuickSale:
		s.handleQuickSale(c, env.Payload)

	case cmdItemStatusChange:
		s.handleItemStatusChange(c, env.Payload)
	case cmdBulkStatusChange:
		s.handleBulkStatusChange(c, env.Payload)
	case cmdAcknowledgeReady:
		s.handleAcknowledgeReady(c, env.Payload)

	case cmdAddTable:
		s.handleAddTable(c, env.Payload)
	case cmdEditTableName:
		s.handleEditTableName(c, env.Payload)
	case cmdDeleteTable:
		s.handleDeleteTable(c, env.Payload)

	case cmdGetUsers:
		s.handleGetUsers(c)
	case cmdGetWaitersList:
		s.handleGetWaitersList(c)
	case cmdAddWaiter:
		s.handleAddWaiter(c, env.Payload)
	case cmdEditWaiterPassword:
		s.handleEditWaiterPassword(c, env.Payload)
	case cmdDeleteWaiter:
		s.handleDeleteWaiter(c, env.Payload)

	case cmdGetSalesReport:
		s.handleGetSalesReport(c)
	case cmdGetActivityLog:
		s.handleGetActivityLog(c)

	default:
		c.reply(msgError, errorPayload("Bilinmeyen mesaj tipi: "+env.Type))
	}
}

/* ---- reply / authorization helpers ---- */

func (c *client) reply(msgType string, payload any) {
	c.Send(app.Envelope{Type: msgType, Payload: payload})
}

func errorPayload(msg string) map[string]string { return map[string]string{"message": msg} }
func failPayload(msg string) map[string]string  { return map[string]string{"error": msg} }

// identity resolves the session, answering the unauthenticated case.
func (s *Server) identity(c *client) (app.Identity, bool) {
	id, ok := s.App.Registry.Get(c)
	if !ok {
		c.reply(msgError, errorPayload("Giriş yapmalısınız."))
	}
	return id, ok
}

// require resolves the session and checks the role. A failed check
// produces no state change and no broadcast.
func (s *Server) require(c *client, roles ...string) (app.Identity, bool) {
	id, ok := s.identity(c)
	if !ok {
		return app.Identity{}, false
	}
	if err := app.Authorize(id, roles...); err != nil {
		c.reply(msgError, errorPayload("Bu işlem için yetkiniz yok."))
		return app.Identity{}, false
	}
	return id, true
}

func actor(id app.Identity) pos.Actor {
	return pos.Actor{ID: id.ID, Username: id.Username, Waiter: id.Role == app.RoleWaiter}
}

/* ---- broadcast helpers ---- */

// tablesFor shapes the table snapshot for a role: kitchen terminals never
// see delivered lines.
func tablesFor(role string, tables []pos.Table) []pos.Table {
	if role != app.RoleKitchen {
		return tables
	}
	out := make([]pos.Table, len(tables))
	for i, t := range tables {
		out[i] = pos.KitchenView(t)
	}
	return out
}

func (s *Server) broadcastTables() {
	tables := s.App.Tables.Snapshot()
	full := app.Envelope{Type: msgTablesUpdate, Payload: map[string]any{"tables": tables}}
	kitchen := app.Envelope{Type: msgTablesUpdate, Payload: map[string]any{"tables": tablesFor(app.RoleKitchen, tables)}}
	s.App.Hub.BroadcastEach(func(id app.Identity) (app.Envelope, bool) {
		if id.Role == app.RoleKitchen {
			return kitchen, true
		}
		return full, true
	})
}

func (s *Server) broadcastProducts() {
	s.App.Hub.Broadcast(app.Envelope{
		Type:    msgProductsUpdate,
		Payload: map[string]any{"products": s.App.Catalog.List()},
	})
}

func (s *Server) broadcastPresence() {
	s.App.Hub.BroadcastRole(app.Envelope{
		Type:    msgPresenceUpdate,
		Payload: map[string]any{"users": s.App.Registry.Active()},
	}, app.RoleCashier)
}

func (s *Server) broadcastWaiters() {
	s.App.Hub.BroadcastRole(app.Envelope{
		Type:    msgWaitersList,
		Payload: map[string]any{"waiters": s.App.Directory.Waiters()},
	}, app.RoleCashier)
}

/* ---- audit helper ---- */

func (s *Server) audit(username, action string, details map[string]any, entity, entityID, ip string) {
	s.App.Audit.Record(ledger.ActivityRecord{
		Username:     username,
		Action:       action,
		TargetEntity: entity,
		TargetID:     entityID,
		Details:      details,
		IP:           ip,
	})
}

func ledgerCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ledgerCallTimeout)
}
