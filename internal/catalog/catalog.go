// Package catalog holds the read-only product price list.
package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Product is a catalog entry
type Product struct {
	// Price is the unit price in SEK
	Price int
	// UnitSize is the length or area one unit covers; nil for per-item goods
	UnitSize *float64
}

// Item is a product together with its id
type Item struct {
	ID       string   `json:"name"`
	Price    int      `json:"price"`
	UnitSize *float64 `json:"unit_size"`
}

// Catalog is an immutable product_id -> Product lookup table
type Catalog struct {
	products map[string]Product
	ids      []string
}

// New builds a catalog from products. Ids are stored NFC-normalized.
func New(products map[string]Product) *Catalog {
	c := &Catalog{
		products: make(map[string]Product, len(products)),
		ids:      make([]string, 0, len(products)),
	}
	for id, p := range products {
		key := normalize(id)
		c.products[key] = p
		c.ids = append(c.ids, key)
	}
	sort.Strings(c.ids)
	return c
}

// Default returns the Bengtssons Trävaror catalog
func Default() *Catalog {
	return New(bengtssons)
}

// normalize puts an id in NFC form so precomposed and decomposed spellings
// of å, ä and ö compare equal. It does not trim or fold case: lookups are exact.
func normalize(id string) string {
	return norm.NFC.String(id)
}

// Lookup returns the product with exactly the given id
func (c *Catalog) Lookup(id string) (Product, bool) {
	p, ok := c.products[normalize(id)]
	return p, ok
}

// Price returns the unit price of id, or false if id is unknown
func (c *Catalog) Price(id string) (int, bool) {
	p, ok := c.Lookup(id)
	return p.Price, ok
}

// Canonical returns the id as stored in the catalog
func (c *Catalog) Canonical(id string) (string, bool) {
	key := normalize(id)
	_, ok := c.products[key]
	return key, ok
}

// IDs returns all product ids, sorted
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Search returns products whose id contains query, case-insensitively.
// An empty query matches everything.
func (c *Catalog) Search(query string) []Item {
	return c.filter(contains(query), 0)
}

// Suggest returns up to limit product ids containing query
func (c *Catalog) Suggest(query string, limit int) []string {
	items := c.filter(contains(query), limit)
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

// Total returns Σ price×qty over the known ids in products, plus the ids
// that were not found in the catalog (sorted)
func (c *Catalog) Total(products map[string]int) (int, []string) {
	total := 0
	var unknown []string
	for id, qty := range products {
		price, ok := c.Price(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		total += price * qty
	}
	sort.Strings(unknown)
	return total, unknown
}

func contains(query string) func(string) bool {
	q := strings.ToLower(normalize(strings.TrimSpace(query)))
	return func(id string) bool {
		return strings.Contains(strings.ToLower(id), q)
	}
}

func (c *Catalog) filter(match func(id string) bool, limit int) []Item {
	var out []Item
	for _, id := range c.ids {
		if !match(id) {
			continue
		}
		p := c.products[id]
		out = append(out, Item{ID: id, Price: p.Price, UnitSize: p.UnitSize})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
