package pos

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// ProductSpec carries the mutable fields of a product for add/update.
type ProductSpec struct {
	Name      string
	Category  string
	Price     decimal.Decimal
	ByWeight  bool
	UnitPrice decimal.Decimal
}

// Catalog is the in-memory store of sellable items. Products keep their
// definition order: clients lay the menu out in exactly the order List
// returns, so the store never re-sorts.
type Catalog struct {
	mu       sync.Mutex
	products []Product
	nextID   int64
}

func NewCatalog(seed []Product) *Catalog {
	c := &Catalog{products: make([]Product, len(seed))}
	copy(c.products, seed)
	for _, p := range seed {
		if p.ID >= c.nextID {
			c.nextID = p.ID + 1
		}
	}
	if c.nextID == 0 {
		c.nextID = 1
	}
	return c
}

func (c *Catalog) List() []Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Get(id int64) (Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (c *Catalog) Add(spec ProductSpec) (Product, error) {
	if err := validateSpec(spec); err != nil {
		return Product{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p := Product{
		ID:        c.nextID,
		Name:      canonical(spec.Name),
		Category:  canonical(spec.Category),
		Price:     spec.Price,
		ByWeight:  spec.ByWeight,
		UnitPrice: spec.UnitPrice,
	}
	c.nextID++
	c.products = append(c.products, p)
	return p, nil
}

// Update replaces the mutable fields in place. Existing order lines keep
// their snapshotted PriceAtOrder.
func (c *Catalog) Update(id int64, spec ProductSpec) (Product, error) {
	if err := validateSpec(spec); err != nil {
		return Product{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].ID != id {
			continue
		}
		c.products[i].Name = canonical(spec.Name)
		c.products[i].Category = canonical(spec.Category)
		c.products[i].Price = spec.Price
		c.products[i].ByWeight = spec.ByWeight
		c.products[i].UnitPrice = spec.UnitPrice
		return c.products[i], nil
	}
	return Product{}, ErrProductNotFound
}

func validateSpec(spec ProductSpec) error {
	if strings.TrimSpace(spec.Name) == "" || strings.TrimSpace(spec.Category) == "" {
		return ErrInvalidInput
	}
	if spec.Price.IsNegative() || spec.UnitPrice.IsNegative() {
		return ErrInvalidInput
	}
	return nil
}

func canonical(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
