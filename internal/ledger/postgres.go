package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS sales_log (
	id               BIGSERIAL PRIMARY KEY,
	item_name        TEXT        NOT NULL,
	item_price       NUMERIC     NOT NULL,
	quantity         BIGINT      NOT NULL,
	total_item_price NUMERIC     NOT NULL,
	category         TEXT        NOT NULL,
	description      TEXT,
	waiter_username  TEXT        NOT NULL,
	table_name       TEXT        NOT NULL,
	sale_timestamp   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS activity_log (
	log_id           BIGSERIAL PRIMARY KEY,
	user_username    TEXT        NOT NULL,
	action_type      TEXT        NOT NULL,
	target_entity    TEXT,
	target_entity_id TEXT,
	log_details      JSONB,
	ip_address       TEXT,
	log_timestamp    TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PG is the Postgres-backed ledger. The pool connects lazily, so the server
// comes up even when the database is briefly unreachable; individual writes
// fail and are either retried by the cashier (sales) or dropped with a log
// line (activity).
type PG struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func OpenPG(ctx context.Context, databaseURL string, log *slog.Logger) (*PG, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	return &PG{pool: pool, log: log}, nil
}

// Migrate creates the two append-only tables. Best effort at boot: a down
// database is reported, not fatal.
func (p *PG) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	return nil
}

func (p *PG) Close() {
	p.pool.Close()
}

func (p *PG) AppendSales(ctx context.Context, records []SalesRecord) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin sales tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO sales_log (item_name, item_price, quantity, total_item_price, category, description, waiter_username, table_name, sale_timestamp)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.ItemName, r.ItemPrice, r.Quantity, r.TotalItemPrice, r.Category,
			nullable(r.Description), r.WaiterUsername, r.TableName, r.SoldAt,
		)
		if err != nil {
			return fmt.Errorf("insert sales row: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sales tx: %w", err)
	}
	return nil
}

func (p *PG) AppendActivity(ctx context.Context, rec ActivityRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		details = []byte(`{}`)
	}
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO activity_log (user_username, action_type, target_entity, target_entity_id, log_details, ip_address, log_timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.Username, rec.Action, nullable(rec.TargetEntity), nullable(rec.TargetID),
		details, nullable(rec.IP), at,
	)
	if err != nil {
		return fmt.Errorf("insert activity row: %w", err)
	}
	return nil
}

func (p *PG) RecentSales(ctx context.Context, limit int) ([]SalesRow, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, item_name, item_price, quantity, total_item_price, category,
		        COALESCE(description, ''), waiter_username, table_name, sale_timestamp
		 FROM sales_log ORDER BY sale_timestamp DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sales_log: %w", err)
	}
	defer rows.Close()

	var out []SalesRow
	for rows.Next() {
		var r SalesRow
		var soldAt time.Time
		if err := rows.Scan(&r.ID, &r.ItemName, &r.ItemPrice, &r.Quantity, &r.TotalItemPrice,
			&r.Category, &r.Description, &r.WaiterUsername, &r.TableName, &soldAt); err != nil {
			return nil, fmt.Errorf("scan sales row: %w", err)
		}
		r.SoldAt = soldAt.Format(rowTimeFormat)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PG) RecentActivity(ctx context.Context, limit int) ([]ActivityRow, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT log_id, user_username, action_type, COALESCE(log_details::text, '{}'), log_timestamp
		 FROM activity_log ORDER BY log_timestamp DESC, log_id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity_log: %w", err)
	}
	defer rows.Close()

	var out []ActivityRow
	for rows.Next() {
		var r ActivityRow
		var at time.Time
		if err := rows.Scan(&r.ID, &r.Username, &r.Action, &r.Details, &at); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		r.LoggedAt = at.Format(rowTimeFormat)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ Ledger = (*PG)(nil)
