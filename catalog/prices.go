package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
)

// PriceTable maps a material name to its unit price in INR. A name absent
// from the table means the price is unknown, which callers must treat as
// distinct from a zero price.
type PriceTable map[string]decimal.Decimal

// ParsePriceTable parses price table JSON (flat name -> number mapping).
// Negative prices are rejected.
func ParsePriceTable(data []byte) (PriceTable, error) {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode price table: %w", err)
	}

	table := make(PriceTable, len(raw))
	for name, num := range raw {
		price, err := decimal.NewFromString(num.String())
		if err != nil {
			return nil, fmt.Errorf("material %q: invalid price %q", name, num.String())
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("material %q: price must be non-negative, got %s", name, price)
		}
		table[name] = price
	}
	return table, nil
}

// LoadPriceTable reads and parses a price table file. A missing or malformed
// file is a configuration error and fatal to the whole run.
func LoadPriceTable(path string) (PriceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price table: %w", err)
	}
	table, err := ParsePriceTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Lookup returns the unit price for a material and whether it is known.
func (t PriceTable) Lookup(name string) (decimal.Decimal, bool) {
	price, ok := t[name]
	return price, ok
}

// Materials returns all material names in sorted order.
func (t PriceTable) Materials() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merged returns a copy of the table with per-invocation overrides applied.
// Overrides may introduce materials the base table does not carry. Negative
// override values are rejected; the base table is never mutated.
func (t PriceTable) Merged(overrides map[string]decimal.Decimal) (PriceTable, error) {
	merged := make(PriceTable, len(t)+len(overrides))
	for name, price := range t {
		merged[name] = price
	}
	for name, price := range overrides {
		if price.IsNegative() {
			return nil, fmt.Errorf("price override for %q must be non-negative, got %s", name, price)
		}
		merged[name] = price
	}
	return merged, nil
}
