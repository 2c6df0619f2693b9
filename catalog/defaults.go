package catalog

import (
	_ "embed"
	"fmt"
)

// Built-in tables cover the IRC-cited interventions the estimator ships with.
// Explicit --spec-db / --prices paths take precedence over these.

//go:embed defaults/database.json
var defaultSpecJSON []byte

//go:embed defaults/prices.json
var defaultPriceJSON []byte

// DefaultSpecTable returns the embedded specification table.
func DefaultSpecTable() (*SpecTable, error) {
	table, err := ParseSpecTable(defaultSpecJSON)
	if err != nil {
		return nil, fmt.Errorf("embedded specification table: %w", err)
	}
	return table, nil
}

// DefaultPriceTable returns the embedded price table.
func DefaultPriceTable() (PriceTable, error) {
	table, err := ParsePriceTable(defaultPriceJSON)
	if err != nil {
		return nil, fmt.Errorf("embedded price table: %w", err)
	}
	return table, nil
}
