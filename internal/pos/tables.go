package pos

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// LineSpec describes one order entry to add to a table. Product is the
// resolved catalog item, or nil for a cashier-entered custom line.
type LineSpec struct {
	Product     *Product
	Quantity    int64
	Description string
	// Amount is the flat charge for a by-weight product (already priced by
	// the terminal from the weighed amount).
	Amount decimal.Decimal
	// Custom line fields.
	Name     string
	Category string
	Price    decimal.Decimal
}

// CloseSnapshot freezes the lines of a table at the moment a close was
// requested. The in-memory order stays open until ConfirmClose; the ledger
// write happens in between, outside the store lock.
type CloseSnapshot struct {
	TableID        string
	TableName      string
	WaiterUsername string
	Lines          []OrderLine
	Total          decimal.Decimal
	At             time.Time
}

// TableStore owns every Table and OrderLine in the process. All mutations
// are serialized on its mutex; callers get copies back, never references
// into the store.
type TableStore struct {
	mu         sync.Mutex
	tables     []*Table
	nextTable  int
	nextLineID int64
	now        func() time.Time
}

func NewTableStore(layout []Table) *TableStore {
	s := &TableStore{now: time.Now, nextTable: 1, nextLineID: 1}
	for i := range layout {
		t := layout[i]
		t.Status = TableEmpty
		t.Total = decimal.Zero
		t.Lines = nil
		s.tables = append(s.tables, &t)
		if n, ok := tableNum(t.ID); ok && n >= s.nextTable {
			s.nextTable = n + 1
		}
	}
	return s
}

func tableNum(id string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(id, "masa-%d", &n); err != nil {
		return 0, false
	}
	return n, true
}

// Snapshot returns a deep copy of every table in definition order.
func (s *TableStore) Snapshot() []Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t.clone())
	}
	return out
}

func (s *TableStore) Get(id string) (Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.find(id); t != nil {
		return t.clone(), true
	}
	return Table{}, false
}

func (s *TableStore) find(id string) *Table {
	for _, t := range s.tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// AddLine places an order entry on a table. A non-custom, non-by-weight
// entry merges into an existing line when product id, description and
// price snapshot all match exactly; the merged line is re-announced to the
// kitchen by resetting its status to new.
func (s *TableStore) AddLine(tableID string, spec LineSpec, actor Actor) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(tableID)
	if t == nil {
		return Table{}, ErrTableNotFound
	}
	now := s.now()

	switch {
	case spec.Product == nil:
		if strings.TrimSpace(spec.Name) == "" || spec.Price.IsNegative() {
			return Table{}, ErrInvalidInput
		}
		if spec.Quantity <= 0 {
			return Table{}, ErrInvalidQuantity
		}
		category := canonical(spec.Category)
		if category == "" {
			category = "DİĞER"
		}
		t.Lines = append(t.Lines, OrderLine{
			LineID:         s.allocLineID(),
			Name:           canonical(spec.Name),
			Category:       category,
			Quantity:       spec.Quantity,
			PriceAtOrder:   spec.Price.Mul(decimal.NewFromInt(spec.Quantity)),
			Description:    spec.Description,
			WaiterUsername: actor.Username,
			PlacedAt:       now,
			ItemStatus:     ItemNew,
			Custom:         true,
		})

	case spec.Product.ByWeight:
		if !spec.Amount.IsPositive() {
			return Table{}, ErrInvalidInput
		}
		t.Lines = append(t.Lines, OrderLine{
			LineID:         s.allocLineID(),
			ProductID:      spec.Product.ID,
			Name:           spec.Product.Name,
			Category:       spec.Product.Category,
			Quantity:       1,
			PriceAtOrder:   spec.Amount,
			Description:    spec.Description,
			WaiterUsername: actor.Username,
			PlacedAt:       now,
			ItemStatus:     ItemNew,
			ByWeight:       true,
		})

	default:
		if spec.Quantity <= 0 {
			return Table{}, ErrInvalidQuantity
		}
		merged := false
		for i := range t.Lines {
			ln := &t.Lines[i]
			if ln.Custom || ln.ByWeight {
				continue
			}
			if ln.ProductID == spec.Product.ID && ln.Description == spec.Description && ln.PriceAtOrder.Equal(spec.Product.Price) {
				ln.Quantity += spec.Quantity
				ln.WaiterUsername = actor.Username
				ln.PlacedAt = now
				ln.ItemStatus = ItemNew
				merged = true
				break
			}
		}
		if !merged {
			t.Lines = append(t.Lines, OrderLine{
				LineID:         s.allocLineID(),
				ProductID:      spec.Product.ID,
				Name:           spec.Product.Name,
				Category:       spec.Product.Category,
				Quantity:       spec.Quantity,
				PriceAtOrder:   spec.Product.Price,
				Description:    spec.Description,
				WaiterUsername: actor.Username,
				PlacedAt:       now,
				ItemStatus:     ItemNew,
			})
		}
	}

	t.Total = ComputeTotal(t.Lines)
	t.Status = TableOccupied
	t.KitchenStatus = KitchenNew
	t.LastOrderAt = now
	if t.WaiterID == 0 || actor.Waiter {
		t.WaiterID = actor.ID
		t.WaiterUsername = actor.Username
	}
	return t.clone(), nil
}

// RemoveLine deletes the line identified by its stable id and returns it
// alongside the updated table. The id, not the (name, description) pair,
// is the identity: duplicate free-text descriptions must stay unambiguous.
func (s *TableStore) RemoveLine(tableID string, lineID int64) (Table, OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(tableID)
	if t == nil {
		return Table{}, OrderLine{}, ErrTableNotFound
	}
	idx := -1
	for i := range t.Lines {
		if t.Lines[i].LineID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Table{}, OrderLine{}, ErrLineNotFound
	}
	removed := t.Lines[idx]
	t.Lines = append(t.Lines[:idx], t.Lines[idx+1:]...)
	s.settle(t)
	return t.clone(), removed, nil
}

// BeginClose validates the table has an open order and snapshots it. The
// table itself is left untouched so a failed ledger write can be retried.
func (s *TableStore) BeginClose(tableID string) (CloseSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(tableID)
	if t == nil {
		return CloseSnapshot{}, ErrTableNotFound
	}
	if len(t.Lines) == 0 {
		return CloseSnapshot{}, ErrEmptyOrder
	}
	lines := make([]OrderLine, len(t.Lines))
	copy(lines, t.Lines)
	return CloseSnapshot{
		TableID:        t.ID,
		TableName:      t.Name,
		WaiterUsername: t.WaiterUsername,
		Lines:          lines,
		Total:          t.Total,
		At:             s.now(),
	}, nil
}

// ConfirmClose settles exactly what the snapshot billed after the ledger
// write succeeded. Orders placed while the write was in flight survive:
// appended lines are untouched, and quantity merged onto a snapshotted
// line keeps its unbilled remainder as a still open order.
func (s *TableStore) ConfirmClose(snap CloseSnapshot) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(snap.TableID)
	if t == nil {
		return Table{}, ErrTableNotFound
	}
	billedQty := make(map[int64]int64, len(snap.Lines))
	for _, ln := range snap.Lines {
		billedQty[ln.LineID] = ln.Quantity
	}
	kept := t.Lines[:0]
	for _, ln := range t.Lines {
		qty, billed := billedQty[ln.LineID]
		if !billed {
			kept = append(kept, ln)
			continue
		}
		if !ln.Custom && !ln.ByWeight && ln.Quantity > qty {
			ln.Quantity -= qty
			ln.ItemStatus = ItemNew
			kept = append(kept, ln)
		}
	}
	t.Lines = kept
	s.settle(t)
	return t.clone(), nil
}

// settle recomputes everything derived from the line set.
func (s *TableStore) settle(t *Table) {
	t.Total = ComputeTotal(t.Lines)
	if len(t.Lines) == 0 {
		t.Lines = nil
		t.Status = TableEmpty
		t.WaiterID = 0
		t.WaiterUsername = ""
		t.KitchenStatus = KitchenNone
		return
	}
	t.Status = TableOccupied
	t.KitchenStatus = DeriveTableStatus(t.Lines)
}

func (s *TableStore) allocLineID() int64 {
	id := s.nextLineID
	s.nextLineID++
	return id
}

// AddTable provisions a new table definition.
func (s *TableStore) AddTable(name, typ string) (Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Table{}, ErrInvalidInput
	}
	if typ == "" {
		typ = "bahce"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Table{
		ID:     fmt.Sprintf("masa-%d", s.nextTable),
		Name:   name,
		Type:   typ,
		Status: TableEmpty,
		Total:  decimal.Zero,
	}
	s.nextTable++
	s.tables = append(s.tables, t)
	return t.clone(), nil
}

func (s *TableStore) RenameTable(id, newName string) (Table, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return Table{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return Table{}, ErrTableNotFound
	}
	t.Name = newName
	return t.clone(), nil
}

// DeleteTable removes a table definition. A table with an open order is
// never deleted.
func (s *TableStore) DeleteTable(id string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tables {
		if t.ID != id {
			continue
		}
		if len(t.Lines) > 0 {
			return Table{}, ErrTableOccupied
		}
		gone := t.clone()
		s.tables = append(s.tables[:i], s.tables[i+1:]...)
		return gone, nil
	}
	return Table{}, ErrTableNotFound
}
