package handlers

import "adisyon-go/internal/app"

func (s *Server) handleGetSalesReport(c *client) {
	if _, ok := s.require(c, app.RoleCashier); !ok {
		return
	}
	ctx, cancel := ledgerCtx()
	defer cancel()

	sales, err := s.App.Ledger.RecentSales(ctx, salesReportLimit)
	if err != nil {
		s.Log.Error("sales report query failed", "err", err)
		c.reply(msgError, errorPayload("Rapor alınırken bir veritabanı sorunu oluştu."))
		return
	}
	c.reply(msgSalesReportData, map[string]any{"sales": sales})
}

func (s *Server) handleGetActivityLog(c *client) {
	if _, ok := s.require(c, app.RoleCashier); !ok {
		return
	}
	ctx, cancel := ledgerCtx()
	defer cancel()

	logs, err := s.App.Ledger.RecentActivity(ctx, activityLogLimit)
	if err != nil {
		s.Log.Error("activity log query failed", "err", err)
		c.reply(msgError, errorPayload("Loglar alınırken bir veritabanı sorunu oluştu."))
		return
	}
	c.reply(msgActivityLogData, map[string]any{"logs": logs})
}
