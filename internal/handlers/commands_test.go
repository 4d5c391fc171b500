package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"adisyon-go/internal/app"
	"adisyon-go/internal/ledger"
	"adisyon-go/internal/pos"

	"github.com/shopspring/decimal"
)

// memLedger keeps sales in memory and can be told to fail writes, so the
// close-table gating is testable without a database.
type memLedger struct {
	sales    []ledger.SalesRecord
	failNext bool
}

func (m *memLedger) AppendSales(_ context.Context, records []ledger.SalesRecord) error {
	if m.failNext {
		m.failNext = false
		return errors.New("connection refused")
	}
	m.sales = append(m.sales, records...)
	return nil
}

func (m *memLedger) AppendActivity(context.Context, ledger.ActivityRecord) error { return nil }

func (m *memLedger) RecentSales(_ context.Context, limit int) ([]ledger.SalesRow, error) {
	out := make([]ledger.SalesRow, 0, len(m.sales))
	for i, r := range m.sales {
		if len(out) == limit {
			break
		}
		out = append(out, ledger.SalesRow{ID: int64(i + 1), ItemName: r.ItemName, Quantity: r.Quantity})
	}
	return out, nil
}

func (m *memLedger) RecentActivity(context.Context, int) ([]ledger.ActivityRow, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *memLedger) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ml := &memLedger{}
	a := app.New(app.Config{TokenSecret: "test-secret"}, log, ml)
	return &Server{App: a, Log: log}, ml
}

// newTestClient builds a connection with no socket behind it; Send and
// Kill still behave, which is all dispatch needs.
func newTestClient() *client {
	return &client{
		ip:     "10.0.0.1:1234",
		send:   make(chan app.Envelope, sendQueueSize),
		closed: make(chan struct{}),
	}
}

func (c *client) drain() []app.Envelope {
	var out []app.Envelope
	for {
		select {
		case env := <-c.send:
			out = append(out, env)
		default:
			return out
		}
	}
}

func findMsg(t *testing.T, envs []app.Envelope, msgType string) app.Envelope {
	t.Helper()
	for _, env := range envs {
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("no %q in %d messages: %+v", msgType, len(envs), types(envs))
	return app.Envelope{}
}

func hasMsg(envs []app.Envelope, msgType string) bool {
	for _, env := range envs {
		if env.Type == msgType {
			return true
		}
	}
	return false
}

func types(envs []app.Envelope) []string {
	out := make([]string, len(envs))
	for i, env := range envs {
		out[i] = env.Type
	}
	return out
}

func send(s *Server, c *client, msgType string, payload any) {
	env := map[string]any{"type": msgType}
	if payload != nil {
		env["payload"] = payload
	}
	raw, _ := json.Marshal(env)
	s.dispatch(c, raw)
}

func login(t *testing.T, s *Server, c *client, username, password string) app.Envelope {
	t.Helper()
	send(s, c, "login", map[string]any{"username": username, "password": password})
	return findMsg(t, c.drain(), "login_success")
}

func TestDispatchRejectsMalformedFrames(t *testing.T) {
	s, _ := newTestServer(t)
	c := newTestClient()

	s.dispatch(c, []byte("{not json"))
	env := findMsg(t, c.drain(), "error")
	if env.Payload.(map[string]string)["message"] != "Geçersiz JSON formatı." {
		t.Fatalf("payload = %+v", env.Payload)
	}

	send(s, c, "no_such_command", nil)
	env = findMsg(t, c.drain(), "error")
	if env.Payload.(map[string]string)["message"] != "Bilinmeyen mesaj tipi: no_such_command" {
		t.Fatalf("payload = %+v", env.Payload)
	}
}

func TestCommandsRequireAuthentication(t *testing.T) {
	s, _ := newTestServer(t)
	c := newTestClient()

	send(s, c, "add_order_item", map[string]any{"tableId": "masa-1", "productId": 1001, "quantity": 1})
	env := findMsg(t, c.drain(), "error")
	if env.Payload.(map[string]string)["message"] != "Giriş yapmalısınız." {
		t.Fatalf("payload = %+v", env.Payload)
	}
	if tbl, _ := s.App.Tables.Get("masa-1"); tbl.Status != pos.TableEmpty {
		t.Fatal("unauthenticated command mutated state")
	}
}

func TestLoginFlow(t *testing.T) {
	s, _ := newTestServer(t)
	c := newTestClient()

	send(s, c, "login", map[string]any{"username": "onkasa", "password": "wrong"})
	if !hasMsg(c.drain(), "login_fail") {
		t.Fatal("bad password not refused")
	}

	env := login(t, s, c, "onkasa", "onkasa12")
	payload := env.Payload.(map[string]any)
	user := payload["user"].(app.Identity)
	if user.Role != app.RoleCashier {
		t.Fatalf("role = %q", user.Role)
	}
	if payload["token"].(string) == "" {
		t.Fatal("no reconnect token issued")
	}
	if payload["tables"] == nil || payload["products"] == nil {
		t.Fatal("login response missing the initial snapshot")
	}
	if s.App.Registry.Len() != 1 {
		t.Fatalf("registry len = %d", s.App.Registry.Len())
	}
}

func TestLoginDisplacesEarlierSession(t *testing.T) {
	s, _ := newTestServer(t)
	first := newTestClient()
	second := newTestClient()

	login(t, s, first, "omerfaruk", "omer.faruk")
	first.drain()
	login(t, s, second, "omerfaruk", "omer.faruk")

	env := findMsg(t, first.drain(), "session_terminated")
	if env.Payload.(map[string]string)["message"] != "Hesabınızla başka bir cihazdan giriş yapıldı." {
		t.Fatalf("payload = %+v", env.Payload)
	}
	select {
	case <-first.closed:
	default:
		t.Fatal("displaced connection not killed")
	}
	if s.App.Registry.Len() != 1 {
		t.Fatalf("registry len = %d, want 1", s.App.Registry.Len())
	}
}

func TestReauthenticate(t *testing.T) {
	s, _ := newTestServer(t)
	c := newTestClient()
	env := login(t, s, c, "omerfaruk", "omer.faruk")
	token := env.Payload.(map[string]any)["token"].(string)

	// The terminal reconnects and resumes with the token instead of a
	// password prompt.
	fresh := newTestClient()
	send(s, fresh, "reauthenticate", map[string]any{"token": token})
	got := findMsg(t, fresh.drain(), "reauth_success")
	user := got.Payload.(map[string]any)["user"].(app.Identity)
	if user.Username != "omerfaruk" || user.Role != app.RoleWaiter {
		t.Fatalf("user = %+v", user)
	}

	bad := newTestClient()
	send(s, bad, "reauthenticate", map[string]any{"token": "garbage"})
	env = findMsg(t, bad.drain(), "error")
	if env.Payload.(map[string]string)["message"] != "Geçersiz oturum bilgisi." {
		t.Fatalf("payload = %+v", env.Payload)
	}
}

func TestRoleChecksBlockForbiddenCommands(t *testing.T) {
	s, _ := newTestServer(t)
	kitchen := newTestClient()
	login(t, s, kitchen, "mutfak", "mut.fak")
	kitchen.drain()

	waiter := newTestClient()
	login(t, s, waiter, "omerfaruk", "omer.faruk")
	waiter.drain()

	observer := newTestClient()
	login(t, s, observer, "onkasa", "onkasa12")
	observer.drain()

	cases := []struct {
		c       *client
		msgType string
		payload any
	}{
		{waiter, "close_table", map[string]any{"tableId": "masa-1"}},
		{waiter, "add_waiter", map[string]any{"username": "x", "password": "y"}},
		{waiter, "get_sales_report", nil},
		{waiter, "kds_item_status_change", map[string]any{"tableId": "masa-1", "lineId": 1, "newStatus": "ready"}},
		{kitchen, "add_manual_order_item", map[string]any{"tableId": "masa-1", "name": "x", "price": 5, "quantity": 1}},
		{kitchen, "acknowledge_order_ready", map[string]any{"tableId": "masa-1"}},
	}
	for _, tc := range cases {
		send(s, tc.c, tc.msgType, tc.payload)
		env := findMsg(t, tc.c.drain(), "error")
		if env.Payload.(map[string]string)["message"] != "Bu işlem için yetkiniz yok." {
			t.Fatalf("%s: payload = %+v", tc.msgType, env.Payload)
		}
	}

	// A refused command changes nothing and tells nobody.
	if envs := observer.drain(); len(envs) != 0 {
		t.Fatalf("forbidden commands reached other terminals: %v", types(envs))
	}
	if tbl, _ := s.App.Tables.Get("masa-1"); tbl.Status != pos.TableEmpty {
		t.Fatal("forbidden command mutated state")
	}
}

func TestOrderLifecycleOverDispatch(t *testing.T) {
	s, ml := newTestServer(t)

	cashier := newTestClient()
	waiter := newTestClient()
	kitchen := newTestClient()
	login(t, s, cashier, "onkasa", "onkasa12")
	login(t, s, waiter, "omerfaruk", "omer.faruk")
	login(t, s, kitchen, "mutfak", "mut.fak")
	cashier.drain()
	waiter.drain()
	kitchen.drain()

	// Waiter orders; everyone gets the updated floor.
	send(s, waiter, "add_order_item", map[string]any{
		"tableId": "masa-1", "productId": 1001, "quantity": 2,
	})
	findMsg(t, waiter.drain(), "tables_update")
	findMsg(t, cashier.drain(), "tables_update")
	findMsg(t, kitchen.drain(), "tables_update")

	tbl, _ := s.App.Tables.Get("masa-1")
	if tbl.Status != pos.TableOccupied || len(tbl.Lines) != 1 {
		t.Fatalf("table = %+v", tbl)
	}
	lineID := tbl.Lines[0].LineID

	// Kitchen works the order.
	send(s, kitchen, "kds_bulk_status_change", map[string]any{"tableId": "masa-1", "newStatus": "preparing"})
	kitchen.drain()
	send(s, kitchen, "kds_item_status_change", map[string]any{"tableId": "masa-1", "lineId": lineID, "newStatus": "ready"})
	kitchen.drain()
	tbl, _ = s.App.Tables.Get("masa-1")
	if tbl.KitchenStatus != pos.KitchenReady {
		t.Fatalf("kitchen status = %q", tbl.KitchenStatus)
	}

	// Waiter picks it up; the line is delivered and leaves the kitchen view.
	send(s, waiter, "acknowledge_order_ready", map[string]any{"tableId": "masa-1"})
	env := findMsg(t, kitchen.drain(), "tables_update")
	for _, kt := range env.Payload.(map[string]any)["tables"].([]pos.Table) {
		if kt.ID == "masa-1" && len(kt.Lines) != 0 {
			t.Fatal("delivered lines leaked into the kitchen snapshot")
		}
	}

	// Cashier settles the bill.
	send(s, cashier, "close_table", map[string]any{"tableId": "masa-1"})
	cashier.drain()
	tbl, _ = s.App.Tables.Get("masa-1")
	if tbl.Status != pos.TableEmpty {
		t.Fatal("table still open after close")
	}
	if len(ml.sales) != 1 || ml.sales[0].Quantity != 2 {
		t.Fatalf("sales = %+v", ml.sales)
	}
	if ml.sales[0].WaiterUsername != "omerfaruk" {
		t.Fatalf("sale credited to %q", ml.sales[0].WaiterUsername)
	}
}

func TestCloseTableFailedWriteLeavesOrderOpen(t *testing.T) {
	s, ml := newTestServer(t)
	cashier := newTestClient()
	login(t, s, cashier, "onkasa", "onkasa12")
	cashier.drain()

	send(s, cashier, "add_order_item", map[string]any{"tableId": "masa-2", "productId": 1017, "quantity": 1})
	cashier.drain()

	ml.failNext = true
	send(s, cashier, "close_table", map[string]any{"tableId": "masa-2"})
	env := findMsg(t, cashier.drain(), "error")
	if env.Payload.(map[string]string)["message"] != "Satışlar kaydedilirken bir veritabanı sorunu oluştu." {
		t.Fatalf("payload = %+v", env.Payload)
	}
	tbl, _ := s.App.Tables.Get("masa-2")
	if tbl.Status != pos.TableOccupied || len(tbl.Lines) != 1 {
		t.Fatal("failed write must leave the order untouched")
	}
	if len(ml.sales) != 0 {
		t.Fatal("failed write recorded sales")
	}

	// Retry goes through.
	send(s, cashier, "close_table", map[string]any{"tableId": "masa-2"})
	cashier.drain()
	if tbl, _ := s.App.Tables.Get("masa-2"); tbl.Status != pos.TableEmpty {
		t.Fatal("retry did not close the table")
	}
	if len(ml.sales) != 1 {
		t.Fatalf("sales = %d, want 1", len(ml.sales))
	}

	send(s, cashier, "close_table", map[string]any{"tableId": "masa-2"})
	env = findMsg(t, cashier.drain(), "error")
	if env.Payload.(map[string]string)["message"] != "Boş masa kapatılamaz." {
		t.Fatalf("payload = %+v", env.Payload)
	}
}

func TestQuickSale(t *testing.T) {
	s, ml := newTestServer(t)
	cashier := newTestClient()
	login(t, s, cashier, "onkasa", "onkasa12")
	cashier.drain()

	send(s, cashier, "complete_quick_sale", map[string]any{
		"items": []map[string]any{
			{"productId": 1029, "quantity": 3, "priceAtOrder": 30},
		},
		"originalTotal": 90, "discountAmount": 10, "finalTotal": 80,
	})
	findMsg(t, cashier.drain(), "quick_sale_success")
	if len(ml.sales) != 1 {
		t.Fatalf("sales = %d", len(ml.sales))
	}
	rec := ml.sales[0]
	if rec.ItemName != "AYRAN" {
		t.Fatalf("item name = %q, want catalog fallback", rec.ItemName)
	}
	if rec.TableName != "Hızlı Satış" {
		t.Fatalf("table name = %q", rec.TableName)
	}
	if rec.TotalItemPrice.String() != "90" {
		t.Fatalf("line total = %s, want 90", rec.TotalItemPrice)
	}
	if rec.Quantity != 3 {
		t.Fatalf("quantity = %d", rec.Quantity)
	}

	send(s, cashier, "complete_quick_sale", map[string]any{"items": []map[string]any{}})
	findMsg(t, cashier.drain(), "quick_sale_fail")
}

func TestManualItemAndRemoval(t *testing.T) {
	s, _ := newTestServer(t)
	cashier := newTestClient()
	login(t, s, cashier, "onkasa", "onkasa12")
	cashier.drain()

	send(s, cashier, "add_manual_order_item", map[string]any{
		"tableId": "masa-3", "name": "günün tatlısı", "price": 40, "quantity": 2,
	})
	cashier.drain()
	tbl, _ := s.App.Tables.Get("masa-3")
	if len(tbl.Lines) != 1 || !tbl.Lines[0].Custom {
		t.Fatalf("table = %+v", tbl)
	}
	if tbl.Total.String() != "80" {
		t.Fatalf("total = %s, want 80", tbl.Total)
	}

	send(s, cashier, "remove_order_item", map[string]any{
		"tableId": "masa-3", "lineId": tbl.Lines[0].LineID,
	})
	cashier.drain()
	if tbl, _ := s.App.Tables.Get("masa-3"); tbl.Status != pos.TableEmpty {
		t.Fatal("table not reset after removing the only line")
	}

	send(s, cashier, "remove_order_item", map[string]any{"tableId": "masa-3", "lineId": 9999})
	env := findMsg(t, cashier.drain(), "order_update_fail")
	if env.Payload.(map[string]string)["error"] != "Öğe bulunamadı." {
		t.Fatalf("payload = %+v", env.Payload)
	}
}

func TestCustomLineSalesRowKeepsUnitPrice(t *testing.T) {
	s, ml := newTestServer(t)
	cashier := newTestClient()
	login(t, s, cashier, "onkasa", "onkasa12")
	cashier.drain()

	send(s, cashier, "add_manual_order_item", map[string]any{
		"tableId": "masa-4", "name": "günün tatlısı", "price": 40, "quantity": 2,
	})
	cashier.drain()
	send(s, cashier, "close_table", map[string]any{"tableId": "masa-4"})
	cashier.drain()

	if len(ml.sales) != 1 {
		t.Fatalf("sales = %d, want 1", len(ml.sales))
	}
	rec := ml.sales[0]
	if rec.ItemPrice.String() != "40" {
		t.Fatalf("item price = %s, want the unit price 40", rec.ItemPrice)
	}
	if rec.Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", rec.Quantity)
	}
	if !rec.TotalItemPrice.Equal(rec.ItemPrice.Mul(decimal.NewFromInt(rec.Quantity))) {
		t.Fatalf("total %s != item price %s x quantity %d", rec.TotalItemPrice, rec.ItemPrice, rec.Quantity)
	}
}

func TestSalesReportOverDispatch(t *testing.T) {
	s, ml := newTestServer(t)
	ml.sales = []ledger.SalesRecord{{ItemName: "AYRAN", Quantity: 2}}

	cashier := newTestClient()
	login(t, s, cashier, "onkasa", "onkasa12")
	cashier.drain()

	send(s, cashier, "get_sales_report", nil)
	env := findMsg(t, cashier.drain(), "sales_report_data")
	rows := env.Payload.(map[string]any)["sales"].([]ledger.SalesRow)
	if len(rows) != 1 || rows[0].ItemName != "AYRAN" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestPresenceReachesOnlyCashiers(t *testing.T) {
	s, _ := newTestServer(t)
	cashier := newTestClient()
	login(t, s, cashier, "onkasa", "onkasa12")
	cashier.drain()

	waiter := newTestClient()
	login(t, s, waiter, "omerfaruk", "omer.faruk")
	cashier.drain()
	waiter.drain()

	// A third terminal coming online updates the cashier's presence view
	// and nobody else's.
	kitchen := newTestClient()
	login(t, s, kitchen, "mutfak", "mut.fak")

	env := findMsg(t, cashier.drain(), "presence_update")
	users := env.Payload.(map[string]any)["users"].([]app.Identity)
	if len(users) != 3 {
		t.Fatalf("presence = %+v", users)
	}
	if hasMsg(waiter.drain(), "presence_update") {
		t.Fatal("presence broadcast leaked to a waiter terminal")
	}
}
