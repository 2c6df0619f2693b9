// Package extract derives intervention quantities from free report text.
// The heuristics here are tuned to one report format: fixed regular
// expressions, fixed assumption constants, and documented fallback defaults.
// They are behavioral contracts, not general language understanding.
package extract

import (
	"strings"

	"github.com/ka7788158-png/IIT-MADRAS/catalog"
)

// Extraction is the outcome of quantity extraction for one intervention.
// Spec is the specification the aggregator must use; it differs from the
// input only for road studs, which come back normalized to a per-item basis.
type Extraction struct {
	Quantity float64
	Unit     string
	Spec     catalog.InterventionSpec
}

// Rule derives the quantity for one well-known intervention key. Rules never
// fail: malformed or absent numeric text falls back to the documented default
// for the rule's branch.
type Rule interface {
	// Key returns the lowercase intervention key this rule handles.
	Key() string

	// Extract derives a quantity from lowercased report text.
	Extract(spec catalog.InterventionSpec, lowerText string) Extraction
}

// Extractor dispatches extraction to per-basis defaults, refined by
// key-specific rules looked up case-insensitively.
type Extractor struct {
	rules map[string]Rule
}

// NewExtractor creates an extractor with all built-in rules registered.
func NewExtractor() *Extractor {
	e := &Extractor{rules: make(map[string]Rule)}
	e.Register(
		markingsRule{},
		streetlightsRule{},
		roadStudsRule{},
		potholeRule{},
	)
	return e
}

// Register adds rules, replacing any existing rule for the same key.
func (e *Extractor) Register(rules ...Rule) {
	for _, r := range rules {
		e.rules[r.Key()] = r
	}
}

// Extract derives the quantity and unit for one intervention from the full
// report text.
func (e *Extractor) Extract(spec catalog.InterventionSpec, text string) Extraction {
	lower := strings.ToLower(text)
	if rule, ok := e.rules[strings.ToLower(spec.Key)]; ok {
		return rule.Extract(spec, lower)
	}
	return defaultExtraction(spec, lower)
}

// defaultExtraction applies the per-basis quantity defaults.
func defaultExtraction(spec catalog.InterventionSpec, lowerText string) Extraction {
	switch spec.Basis {
	case catalog.PerItem:
		// Occurrence count with a floor of one: the key matched the report,
		// so at least one instance exists even if counting finds none.
		count := strings.Count(lowerText, strings.ToLower(spec.Key))
		if count == 0 {
			count = 1
		}
		return Extraction{Quantity: float64(count), Unit: "item", Spec: spec}
	case catalog.PerCubicMeter:
		return Extraction{Quantity: 0, Unit: "m^3", Spec: spec}
	case catalog.PerSquareMeter20mm:
		return Extraction{Quantity: 1, Unit: "sqm", Spec: spec}
	default:
		return Extraction{Quantity: 1, Unit: "meter", Spec: spec}
	}
}
