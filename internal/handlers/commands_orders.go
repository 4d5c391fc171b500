package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"adisyon-go/internal/app"
	"adisyon-go/internal/ledger"
	"adisyon-go/internal/pos"

	"github.com/shopspring/decimal"
)

const (
	actOrderItemAdded   = "SIPARIS_URUN_EKLENDI"
	actManualItemAdded  = "SIPARIS_MANUEL_URUN_EKLENDI"
	actOrderItemRemoved = "SIPARIS_URUN_SILINDI"
	actTableClosed      = "MASA_KAPATILDI_HESAP_ALINDI"
	actQuickSaleDone    = "HIZLI_SATIS_TAMAMLANDI"
)

const quickSaleTableName = "Hızlı Satış"

func (s *Server) handleAddOrderItem(c *client, raw json.RawMessage) {
	id, ok := s.identity(c)
	if !ok {
		return
	}
	var p struct {
		TableID     string          `json:"tableId"`
		ProductID   int64           `json:"productId"`
		Quantity    int64           `json:"quantity"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgOrderUpdateFail, failPayload("Geçersiz sipariş bilgisi."))
		return
	}

	product, ok := s.App.Catalog.Get(p.ProductID)
	if !ok {
		c.reply(msgOrderUpdateFail, failPayload("Geçersiz masa, ürün veya adet."))
		return
	}

	table, err := s.App.Tables.AddLine(p.TableID, pos.LineSpec{
		Product:     &product,
		Quantity:    p.Quantity,
		Description: p.Description,
		Amount:      p.Amount,
	}, actor(id))
	if err != nil {
		c.reply(msgOrderUpdateFail, failPayload(orderErrorMessage(err)))
		return
	}

	s.broadcastTables()
	s.audit(id.Username, actOrderItemAdded, map[string]any{
		"masa": table.Name, "urun_id": product.ID, "urun_adi": product.Name,
		"adet": p.Quantity, "fiyat": product.Price, "aciklama": p.Description,
	}, "Order", table.ID, id.IP)
}

// handleAddManualOrderItem is the cashier's free-form entry: no catalog
// reference, price typed in at the register.
func (s *Server) handleAddManualOrderItem(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		TableID     string          `json:"tableId"`
		Name        string          `json:"name"`
		Category    string          `json:"category"`
		Price       decimal.Decimal `json:"price"`
		Quantity    int64           `json:"quantity"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgOrderUpdateFail, failPayload("Geçersiz manuel ürün bilgileri."))
		return
	}

	table, err := s.App.Tables.AddLine(p.TableID, pos.LineSpec{
		Quantity:    p.Quantity,
		Description: p.Description,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
	}, actor(id))
	if err != nil {
		c.reply(msgOrderUpdateFail, failPayload(orderErrorMessage(err)))
		return
	}

	s.broadcastTables()
	s.audit(id.Username, actManualItemAdded, map[string]any{
		"masa": table.Name, "urun_adi": p.Name, "adet": p.Quantity,
		"fiyat": p.Price, "kategori": p.Category, "aciklama": p.Description,
	}, "Order", table.ID, id.IP)
}

func (s *Server) handleRemoveOrderItem(c *client, raw json.RawMessage) {
	id, ok := s.identity(c)
	if !ok {
		return
	}
	var p struct {
		TableID string `json:"tableId"`
		LineID  int64  `json:"lineId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgOrderUpdateFail, failPayload("Geçersiz sipariş bilgisi."))
		return
	}

	table, removed, err := s.App.Tables.RemoveLine(p.TableID, p.LineID)
	if err != nil {
		c.reply(msgOrderUpdateFail, failPayload(orderErrorMessage(err)))
		return
	}

	s.broadcastTables()
	s.audit(id.Username, actOrderItemRemoved, map[string]any{
		"masa": table.Name, "silinen_urun": removed,
	}, "Order", table.ID, id.IP)
}

// handleCloseTable settles the bill: every line becomes one sales row,
// written in a single transaction, and only after that commits is the
// in-memory table cleared. On a failed write the order stays open so the
// cashier can retry.
func (s *Server) handleCloseTable(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		TableID string `json:"tableId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgError, errorPayload("Eksik masa IDsi."))
		return
	}

	snap, err := s.App.Tables.BeginClose(p.TableID)
	switch {
	case errors.Is(err, pos.ErrTableNotFound):
		c.reply(msgError, errorPayload("Kapatılacak masa bulunamadı."))
		return
	case errors.Is(err, pos.ErrEmptyOrder):
		c.reply(msgError, errorPayload("Boş masa kapatılamaz."))
		return
	case err != nil:
		c.reply(msgError, errorPayload("Masa kapatılamadı."))
		return
	}

	processedBy := snap.WaiterUsername
	if processedBy == "" {
		processedBy = id.Username
	}

	ctx, cancel := ledgerCtx()
	defer cancel()
	if err := s.App.Ledger.AppendSales(ctx, salesFromSnapshot(snap, processedBy)); err != nil {
		s.Log.Error("sales write failed, table left open", "table", snap.TableName, "err", err)
		c.reply(msgError, errorPayload("Satışlar kaydedilirken bir veritabanı sorunu oluştu."))
		return
	}

	if _, err := s.App.Tables.ConfirmClose(snap); err != nil {
		s.Log.Error("close confirm failed after ledger write", "table", snap.TableName, "err", err)
	}
	s.Log.Info("table closed", "table", snap.TableName, "total", snap.Total)
	s.audit(id.Username, actTableClosed, map[string]any{
		"masa_adi": snap.TableName, "siparis_detaylari": snap.Lines,
		"toplam_tutar": snap.Total, "islem_yapan": processedBy,
	}, "Table", snap.TableID, id.IP)
	s.broadcastTables()
}

// handleQuickSale is the walk-up checkout: sales rows go straight to the
// ledger without any table involved. The optional discount only annotates
// the audit trail.
func (s *Server) handleQuickSale(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p struct {
		Items []struct {
			ProductID    int64           `json:"productId"`
			Name         string          `json:"name"`
			Category     string          `json:"category"`
			Quantity     int64           `json:"quantity"`
			PriceAtOrder decimal.Decimal `json:"priceAtOrder"`
			Description  string          `json:"description"`
		} `json:"items"`
		OriginalTotal  decimal.Decimal `json:"originalTotal"`
		DiscountAmount decimal.Decimal `json:"discountAmount"`
		FinalTotal     decimal.Decimal `json:"finalTotal"`
	}
	if err := json.Unmarshal(raw, &p); err != nil || len(p.Items) == 0 {
		c.reply(msgQuickSaleFail, failPayload("Hızlı satış için ürün bulunamadı."))
		return
	}

	now := time.Now()
	total := decimal.Zero
	records := make([]ledger.SalesRecord, 0, len(p.Items))
	for _, it := range p.Items {
		if it.Quantity <= 0 || it.PriceAtOrder.IsNegative() {
			c.reply(msgQuickSaleFail, failPayload("Geçersiz hızlı satış kalemi."))
			return
		}
		name, category := it.Name, it.Category
		if product, ok := s.App.Catalog.Get(it.ProductID); ok {
			if name == "" {
				name = product.Name
			}
			if category == "" {
				category = product.Category
			}
		}
		if category == "" {
			category = quickSaleTableName
		}
		lineTotal := it.PriceAtOrder.Mul(decimal.NewFromInt(it.Quantity))
		total = total.Add(lineTotal)
		records = append(records, ledger.SalesRecord{
			ItemName:       name,
			ItemPrice:      it.PriceAtOrder,
			Quantity:       it.Quantity,
			TotalItemPrice: lineTotal,
			Category:       category,
			Description:    it.Description,
			WaiterUsername: id.Username,
			TableName:      quickSaleTableName,
			SoldAt:         now,
		})
	}

	ctx, cancel := ledgerCtx()
	defer cancel()
	if err := s.App.Ledger.AppendSales(ctx, records); err != nil {
		s.Log.Error("quick sale write failed", "err", err)
		c.reply(msgQuickSaleFail, failPayload("Hızlı satış kaydedilirken bir sorun oluştu."))
		return
	}

	c.reply(msgQuickSaleSuccess, map[string]any{"message": "Hızlı satış tamamlandı."})
	s.audit(id.Username, actQuickSaleDone, map[string]any{
		"urunler": p.Items, "toplam_tutar": total, "islem_yapan": id.Username,
		"orijinal_tutar": p.OriginalTotal, "indirim_tutari": p.DiscountAmount, "odenecek_tutar": p.FinalTotal,
	}, "QuickSale", "", id.IP)
}

func salesFromSnapshot(snap pos.CloseSnapshot, processedBy string) []ledger.SalesRecord {
	records := make([]ledger.SalesRecord, 0, len(snap.Lines))
	for _, ln := range snap.Lines {
		itemPrice := ln.PriceAtOrder
		lineTotal := ln.PriceAtOrder
		switch {
		case ln.Custom:
			// The line stores the flat total; the row keeps the unit price
			// so item_price times quantity stays equal to total_item_price.
			if ln.Quantity > 1 {
				itemPrice = ln.PriceAtOrder.Div(decimal.NewFromInt(ln.Quantity))
			}
		case ln.ByWeight:
			// Quantity is 1; the weighed amount is unit and total at once.
		default:
			lineTotal = ln.PriceAtOrder.Mul(decimal.NewFromInt(ln.Quantity))
		}
		waiter := ln.WaiterUsername
		if waiter == "" {
			waiter = processedBy
		}
		records = append(records, ledger.SalesRecord{
			ItemName:       ln.Name,
			ItemPrice:      itemPrice,
			Quantity:       ln.Quantity,
			TotalItemPrice: lineTotal,
			Category:       ln.Category,
			Description:    ln.Description,
			WaiterUsername: waiter,
			TableName:      snap.TableName,
			SoldAt:         snap.At,
		})
	}
	return records
}

// orderErrorMessage maps store errors onto the messages the terminals show.
func orderErrorMessage(err error) string {
	switch {
	case errors.Is(err, pos.ErrTableNotFound):
		return "Masa bulunamadı."
	case errors.Is(err, pos.ErrLineNotFound):
		return "Öğe bulunamadı."
	case errors.Is(err, pos.ErrInvalidQuantity):
		return "Geçersiz adet."
	case errors.Is(err, pos.ErrInvalidInput):
		return "Geçersiz ürün bilgisi."
	case errors.Is(err, pos.ErrBadTransition):
		return "Geçersiz durum geçişi."
	default:
		return "Geçersiz masa, ürün veya adet."
	}
}
