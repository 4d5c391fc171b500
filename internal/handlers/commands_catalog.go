package handlers

import (
	"encoding/json"
	"errors"

	"adisyon-go/internal/app"
	"adisyon-go/internal/pos"

	"github.com/shopspring/decimal"
)

const (
	actProductAdded   = "URUN_EKLENDI_MENUYE"
	actProductUpdated = "URUN_GUNCELLEME_MENU"
)

func (s *Server) handleGetProducts(c *client) {
	c.reply(msgProductsUpdate, map[string]any{"products": s.App.Catalog.List()})
}

type productPayload struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	ByWeight  bool            `json:"isByWeight"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (p productPayload) spec() pos.ProductSpec {
	return pos.ProductSpec{
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		ByWeight:  p.ByWeight,
		UnitPrice: p.UnitPrice,
	}
}

func (s *Server) handleAddProduct(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p productPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgError, errorPayload("Eksik ürün bilgisi."))
		return
	}

	product, err := s.App.Catalog.Add(p.spec())
	if err != nil {
		c.reply(msgError, errorPayload("Eksik ürün bilgisi."))
		return
	}

	s.audit(id.Username, actProductAdded, map[string]any{
		"urun_id": product.ID, "urun_adi": product.Name, "fiyat": product.Price, "kategori": product.Category,
	}, "Product", itoa(product.ID), id.IP)
	s.broadcastProducts()
	c.reply(msgProductAdded, map[string]any{
		"product": product,
		"message": product.Name + " menüye eklendi.",
	})
}

func (s *Server) handleUpdateProduct(c *client, raw json.RawMessage) {
	id, ok := s.require(c, app.RoleCashier)
	if !ok {
		return
	}
	var p productPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.reply(msgError, errorPayload("Eksik ürün bilgisi."))
		return
	}

	old, found := s.App.Catalog.Get(p.ID)
	if !found {
		c.reply(msgError, errorPayload("Güncellenecek ürün bulunamadı."))
		return
	}

	product, err := s.App.Catalog.Update(p.ID, p.spec())
	if err != nil {
		if errors.Is(err, pos.ErrProductNotFound) {
			c.reply(msgError, errorPayload("Güncellenecek ürün bulunamadı."))
		} else {
			c.reply(msgError, errorPayload("Eksik ürün bilgisi."))
		}
		return
	}

	s.audit(id.Username, actProductUpdated, map[string]any{
		"urun_id":  product.ID,
		"urun_adi": product.Name,
		"eski_degerler": map[string]any{
			"name": old.Name, "price": old.Price, "category": old.Category,
		},
		"yeni_degerler": map[string]any{
			"name": product.Name, "price": product.Price, "category": product.Category,
		},
	}, "Product", itoa(product.ID), id.IP)
	s.broadcastProducts()
	c.reply(msgProductUpdated, map[string]any{
		"product": product,
		"message": product.Name + " güncellendi.",
	})
}
