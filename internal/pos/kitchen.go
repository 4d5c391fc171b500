package pos

// statusRank orders the per-line lifecycle. Transitions only ever move
// forward; the single exception is the merge rule in AddLine, which resets
// a line to new to re-announce added quantity.
var statusRank = map[ItemStatus]int{
	ItemNew:       0,
	ItemPreparing: 1,
	ItemReady:     2,
	ItemDelivered: 3,
}

// ValidItemStatus reports whether s names a known per-line status.
func ValidItemStatus(s ItemStatus) bool {
	_, ok := statusRank[s]
	return ok
}

func canAdvance(from, to ItemStatus) bool {
	return statusRank[to] > statusRank[from]
}

// DeriveTableStatus reduces a line set to the table's aggregate kitchen
// status. Priority: ready > preparing > new > acknowledged. Delivered lines
// no longer concern the kitchen; a table whose lines are all delivered is
// acknowledged, and a table with no lines has no kitchen status at all.
func DeriveTableStatus(lines []OrderLine) KitchenStatus {
	if len(lines) == 0 {
		return KitchenNone
	}
	status := KitchenAcknowledged
	for _, ln := range lines {
		switch ln.ItemStatus {
		case ItemReady:
			return KitchenReady
		case ItemPreparing:
			status = KitchenPreparing
		case ItemNew:
			if status != KitchenPreparing {
				status = KitchenNew
			}
		}
	}
	return status
}

// KitchenLines is the kitchen-facing view of an order: delivered lines are
// handed off and stay only for billing, so they are filtered out here.
func KitchenLines(lines []OrderLine) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, ln := range lines {
		if ln.ItemStatus != ItemDelivered {
			out = append(out, ln)
		}
	}
	return out
}

// KitchenView rewrites a table snapshot for kitchen terminals.
func KitchenView(t Table) Table {
	t.Lines = KitchenLines(t.Lines)
	return t
}

// SetItemStatus advances one line and re-derives the table status.
func (s *TableStore) SetItemStatus(tableID string, lineID int64, to ItemStatus) (Table, error) {
	if !ValidItemStatus(to) {
		return Table{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(tableID)
	if t == nil {
		return Table{}, ErrTableNotFound
	}
	for i := range t.Lines {
		ln := &t.Lines[i]
		if ln.LineID != lineID {
			continue
		}
		if !canAdvance(ln.ItemStatus, to) {
			return Table{}, ErrBadTransition
		}
		ln.ItemStatus = to
		t.KitchenStatus = DeriveTableStatus(t.Lines)
		return t.clone(), nil
	}
	return Table{}, ErrLineNotFound
}

// SetAllItemsStatus bulk-advances the whole order. Delivered lines are
// always skipped, and advancing to preparing touches only lines still new,
// so lines already ready are never regressed.
func (s *TableStore) SetAllItemsStatus(tableID string, to ItemStatus) (Table, error) {
	if !ValidItemStatus(to) {
		return Table{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(tableID)
	if t == nil {
		return Table{}, ErrTableNotFound
	}
	for i := range t.Lines {
		ln := &t.Lines[i]
		if ln.ItemStatus == ItemDelivered {
			continue
		}
		if to == ItemPreparing && ln.ItemStatus != ItemNew {
			continue
		}
		if canAdvance(ln.ItemStatus, to) {
			ln.ItemStatus = to
		}
	}
	t.KitchenStatus = DeriveTableStatus(t.Lines)
	return t.clone(), nil
}

// AcknowledgeReady is the front-of-house handoff: every ready line becomes
// delivered and the table is marked acknowledged. Lines are kept for
// billing; kitchen snapshots stop showing them.
func (s *TableStore) AcknowledgeReady(tableID string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(tableID)
	if t == nil {
		return Table{}, ErrTableNotFound
	}
	for i := range t.Lines {
		if t.Lines[i].ItemStatus == ItemReady {
			t.Lines[i].ItemStatus = ItemDelivered
		}
	}
	t.KitchenStatus = KitchenAcknowledged
	return t.clone(), nil
}
