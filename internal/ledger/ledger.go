// Package ledger is the durable side of the system: append-only sales rows
// for completed checkouts and an activity trail for auditing. Live order
// state never depends on it except at sale-closing time, where the
// in-memory clear is gated on a successful write.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesRecord is one sold line, written at table close or quick sale.
// Immutable once written.
type SalesRecord struct {
	ItemName       string
	ItemPrice      decimal.Decimal
	Quantity       int64
	TotalItemPrice decimal.Decimal
	Category       string
	Description    string
	WaiterUsername string
	TableName      string
	SoldAt         time.Time
}

// ActivityRecord is one audit-trail entry. Details is free-form and stored
// as JSON.
type ActivityRecord struct {
	Username     string
	Action       string
	TargetEntity string
	TargetID     string
	Details      map[string]any
	IP           string
	At           time.Time
}

// SalesRow is the read model served to the cashier's sales report.
type SalesRow struct {
	ID             int64           `json:"id"`
	ItemName       string          `json:"item_name"`
	ItemPrice      decimal.Decimal `json:"item_price"`
	Quantity       int64           `json:"quantity"`
	TotalItemPrice decimal.Decimal `json:"total_item_price"`
	Category       string          `json:"category"`
	Description    string          `json:"description,omitempty"`
	WaiterUsername string          `json:"waiter_username"`
	TableName      string          `json:"table_name"`
	SoldAt         string          `json:"sale_timestamp"`
}

// ActivityRow is the read model served to the activity log view.
type ActivityRow struct {
	ID       int64  `json:"log_id"`
	Username string `json:"user_username"`
	Action   string `json:"action_type"`
	Details  string `json:"log_details"`
	LoggedAt string `json:"log_timestamp"`
}

// Ledger is the contract the command handlers consume. AppendSales writes
// all records in one transaction or none of them.
type Ledger interface {
	AppendSales(ctx context.Context, records []SalesRecord) error
	AppendActivity(ctx context.Context, rec ActivityRecord) error
	RecentSales(ctx context.Context, limit int) ([]SalesRow, error)
	RecentActivity(ctx context.Context, limit int) ([]ActivityRow, error)
}

// Timestamps in the read models use the report format the terminals expect.
const rowTimeFormat = "02.01.2006 15:04:05"
