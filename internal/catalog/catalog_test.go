package catalog

import (
	"testing"
)

func TestDefault_KnownPrices(t *testing.T) {
	t.Parallel()

	c := Default()
	tests := []struct {
		id       string
		price    int
		perPiece bool
	}{
		{"plywood_12mm", 349, false},
		{"regel_45x145_3m", 130, false},
		{"isolering_mineralull_95mm", 449, false},
		{"takläkt_25x38_4.2m", 35, true},
		{"spik_blank_75mm_5kg", 279, true},
	}

	for _, tt := range tests {
		p, ok := c.Lookup(tt.id)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.id)
			continue
		}
		if p.Price != tt.price {
			t.Errorf("Lookup(%q).Price = %d, want %d", tt.id, p.Price, tt.price)
		}
		if (p.UnitSize == nil) != tt.perPiece {
			t.Errorf("Lookup(%q).UnitSize = %v, want per-piece=%v", tt.id, p.UnitSize, tt.perPiece)
		}
	}
}

func TestLookup_ExactOnly(t *testing.T) {
	t.Parallel()

	c := Default()
	for _, id := range []string{"Plywood_12mm", "plywood", " plywood_12mm", "plywood_12"} {
		if _, ok := c.Lookup(id); ok {
			t.Errorf("Lookup(%q) found a product, want none", id)
		}
	}
}

func TestLookup_NormalizesUnicode(t *testing.T) {
	t.Parallel()

	c := Default()
	// "bräda" spelled with a combining diaeresis
	decomposed := "bra\u0308da_22x95_3m"
	p, ok := c.Lookup(decomposed)
	if !ok {
		t.Fatalf("Lookup(decomposed) not found")
	}
	if p.Price != 45 {
		t.Errorf("price = %d, want 45", p.Price)
	}
	id, ok := c.Canonical(decomposed)
	if !ok || id != "bräda_22x95_3m" {
		t.Errorf("Canonical = (%q, %v), want (%q, true)", id, ok, "bräda_22x95_3m")
	}
}

func TestTotal(t *testing.T) {
	t.Parallel()

	c := New(map[string]Product{
		"plywood_12mm":    {Price: 250},
		"regel_45x145_3m": {Price: 80},
	})

	total, unknown := c.Total(map[string]int{"plywood_12mm": 2, "regel_45x145_3m": 3})
	if total != 740 {
		t.Errorf("total = %d, want 740", total)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %v, want none", unknown)
	}

	total, unknown = c.Total(map[string]int{"plywood_12mm": 1, "takpannor": 100, "gips": 2})
	if total != 250 {
		t.Errorf("total = %d, want 250", total)
	}
	if len(unknown) != 2 || unknown[0] != "gips" || unknown[1] != "takpannor" {
		t.Errorf("unknown = %v, want [gips takpannor]", unknown)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	c := Default()

	got := c.Search("PLYWOOD")
	if len(got) != 3 {
		t.Fatalf("Search(PLYWOOD) returned %d items, want 3", len(got))
	}
	for i, want := range []string{"plywood_12mm", "plywood_15mm", "plywood_18mm"} {
		if got[i].ID != want {
			t.Errorf("Search[%d] = %q, want %q", i, got[i].ID, want)
		}
	}

	if got := c.Search("takpannor"); len(got) != 0 {
		t.Errorf("Search(takpannor) = %v, want empty", got)
	}
	if got := c.Search(""); len(got) != len(c.IDs()) {
		t.Errorf("Search(\"\") returned %d items, want %d", len(got), len(c.IDs()))
	}
}

func TestSuggest_Limit(t *testing.T) {
	t.Parallel()

	c := Default()
	got := c.Suggest("regel", 5)
	if len(got) != 5 {
		t.Fatalf("Suggest(regel, 5) returned %d ids, want 5", len(got))
	}
	for _, id := range got {
		if _, ok := c.Lookup(id); !ok {
			t.Errorf("suggested id %q not in catalog", id)
		}
	}
}

func TestIDs_SortedCopy(t *testing.T) {
	t.Parallel()

	c := New(map[string]Product{"b": {Price: 1}, "a": {Price: 2}})
	ids := c.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("IDs = %v, want [a b]", ids)
	}
	ids[0] = "z"
	if c.IDs()[0] != "a" {
		t.Error("IDs returned the internal slice")
	}
}
