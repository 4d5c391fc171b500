package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the preparation state of a single order line.
type ItemStatus string

const (
	ItemNew       ItemStatus = "new"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemDelivered ItemStatus = "delivered"
)

// KitchenStatus is the aggregate preparation state of a table, derived
// from its lines. Empty string means the kitchen has nothing to do with
// the table (no lines at all).
type KitchenStatus string

const (
	KitchenNone         KitchenStatus = ""
	KitchenNew          KitchenStatus = "new"
	KitchenPreparing    KitchenStatus = "preparing"
	KitchenReady        KitchenStatus = "ready"
	KitchenAcknowledged KitchenStatus = "acknowledged"
)

type TableStatus string

const (
	TableEmpty    TableStatus = "empty"
	TableOccupied TableStatus = "occupied"
)

type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	// ByWeight products are sold as a flat amount computed from UnitPrice
	// (price per kilogram); their order lines never merge.
	ByWeight  bool            `json:"isByWeight,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice,omitempty"`
}

// OrderLine is one priced entry on a table's open order. PriceAtOrder is a
// snapshot taken when the line is placed; later catalog updates never touch it.
// Custom and by-weight lines carry their whole amount in PriceAtOrder; their
// Quantity is informational and never multiplied into the total.
type OrderLine struct {
	LineID         int64           `json:"lineId"`
	ProductID      int64           `json:"productId,omitempty"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Quantity       int64           `json:"quantity"`
	PriceAtOrder   decimal.Decimal `json:"priceAtOrder"`
	Description    string          `json:"description"`
	WaiterUsername string          `json:"waiterUsername"`
	PlacedAt       time.Time       `json:"placedAt"`
	ItemStatus     ItemStatus      `json:"kitchenItemStatus"`
	Custom         bool            `json:"isCustomItem,omitempty"`
	ByWeight       bool            `json:"isByWeightEntry,omitempty"`
}

type Table struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Status         TableStatus     `json:"status"`
	Lines          []OrderLine     `json:"order"`
	Total          decimal.Decimal `json:"total"`
	WaiterID       int64           `json:"waiterId,omitempty"`
	WaiterUsername string          `json:"waiterUsername,omitempty"`
	KitchenStatus  KitchenStatus   `json:"kitchenStatus,omitempty"`
	LastOrderAt    time.Time       `json:"lastOrderAt,omitempty"`
}

// Actor identifies the session performing a mutation. Waiter controls the
// table-assignment rule: a cashier never overrides an existing assignment.
type Actor struct {
	ID       int64
	Username string
	Waiter   bool
}

func (t *Table) clone() Table {
	c := *t
	c.Lines = make([]OrderLine, len(t.Lines))
	copy(c.Lines, t.Lines)
	return c
}

// ComputeTotal derives a table total from its lines. Quantity lines
// contribute price*quantity; custom and by-weight lines were recorded as a
// single flat amount and contribute PriceAtOrder once.
func ComputeTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, ln := range lines {
		if ln.Custom || ln.ByWeight {
			total = total.Add(ln.PriceAtOrder)
			continue
		}
		total = total.Add(ln.PriceAtOrder.Mul(decimal.NewFromInt(ln.Quantity)))
	}
	return total
}
