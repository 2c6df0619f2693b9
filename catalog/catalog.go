// Package catalog provides the intervention specification table and the
// material price table that drive cost estimation.
// Both tables use a fixed JSON schema and are read-only after loading.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// MeasureBasis identifies how an intervention's quantity is measured.
// The basis is resolved once at load time from which material-list key the
// spec JSON populates; all downstream dispatch is on this tag.
type MeasureBasis string

const (
	PerItem            MeasureBasis = "per_item"
	PerMeter           MeasureBasis = "per_meter"
	PerCubicMeter      MeasureBasis = "per_cubic_meter"
	PerSquareMeter20mm MeasureBasis = "per_sqm_20mm"
)

// DefaultUnit returns the display unit for quantities measured on this basis.
func (b MeasureBasis) DefaultUnit() string {
	switch b {
	case PerMeter:
		return "meter"
	case PerCubicMeter:
		return "m^3"
	case PerSquareMeter20mm:
		return "sqm"
	default:
		return "item"
	}
}

// MaterialRequirement is the amount of one named material needed per unit of
// the intervention's measure basis. Name joins the price table by exact match.
type MaterialRequirement struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// InterventionSpec describes one intervention type: its citation clause and
// the bill of quantities for a single unit of its measure basis.
type InterventionSpec struct {
	Key          string                `json:"key"`
	SourceClause string                `json:"source_clause"`
	Basis        MeasureBasis          `json:"basis"`
	Requirements []MaterialRequirement `json:"requirements"`
}

// rawSpec mirrors the persisted schema. Exactly one of the four material-list
// keys must be populated.
type rawSpec struct {
	SourceClause       string                `json:"source_clause"`
	PerItem            []MaterialRequirement `json:"materials_per_item"`
	PerMeter           []MaterialRequirement `json:"materials_per_meter"`
	PerCubicMeter      []MaterialRequirement `json:"materials_per_cubic_meter"`
	PerSquareMeter20mm []MaterialRequirement `json:"materials_per_sqm_20mm"`
}

// SpecTable is the loaded specification table. Iteration order is stable
// (keys sorted) so batch estimation output is deterministic.
type SpecTable struct {
	specs []InterventionSpec
	index map[string]int // lowercase key -> position in specs
}

// ParseSpecTable parses and validates specification table JSON.
func ParseSpecTable(data []byte) (*SpecTable, error) {
	var raw map[string]rawSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode specification table: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("specification table is empty")
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := &SpecTable{
		specs: make([]InterventionSpec, 0, len(raw)),
		index: make(map[string]int, len(raw)),
	}
	for _, key := range keys {
		spec, err := raw[key].toSpec(key)
		if err != nil {
			return nil, err
		}
		lower := strings.ToLower(key)
		if _, dup := table.index[lower]; dup {
			return nil, fmt.Errorf("duplicate intervention key %q", key)
		}
		table.index[lower] = len(table.specs)
		table.specs = append(table.specs, spec)
	}
	return table, nil
}

// LoadSpecTable reads and parses a specification table file. A missing or
// malformed file is a configuration error and fatal to the whole run.
func LoadSpecTable(path string) (*SpecTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read specification table: %w", err)
	}
	table, err := ParseSpecTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func (r rawSpec) toSpec(key string) (InterventionSpec, error) {
	spec := InterventionSpec{Key: key, SourceClause: r.SourceClause}

	populated := 0
	if len(r.PerItem) > 0 {
		spec.Basis, spec.Requirements = PerItem, r.PerItem
		populated++
	}
	if len(r.PerMeter) > 0 {
		spec.Basis, spec.Requirements = PerMeter, r.PerMeter
		populated++
	}
	if len(r.PerCubicMeter) > 0 {
		spec.Basis, spec.Requirements = PerCubicMeter, r.PerCubicMeter
		populated++
	}
	if len(r.PerSquareMeter20mm) > 0 {
		spec.Basis, spec.Requirements = PerSquareMeter20mm, r.PerSquareMeter20mm
		populated++
	}
	if populated != 1 {
		return InterventionSpec{}, fmt.Errorf("intervention %q must populate exactly one material-list key, got %d", key, populated)
	}

	for i, req := range spec.Requirements {
		if req.Name == "" {
			return InterventionSpec{}, fmt.Errorf("intervention %q: material %d has no name", key, i)
		}
		if req.Quantity <= 0 {
			return InterventionSpec{}, fmt.Errorf("intervention %q: material %q quantity must be positive", key, req.Name)
		}
	}
	return spec, nil
}

// Specs returns all interventions in stable key order.
func (t *SpecTable) Specs() []InterventionSpec {
	return t.specs
}

// Len returns the number of interventions in the table.
func (t *SpecTable) Len() int {
	return len(t.specs)
}

// Lookup finds an intervention by key, case-insensitively.
func (t *SpecTable) Lookup(key string) (InterventionSpec, bool) {
	i, ok := t.index[strings.ToLower(key)]
	if !ok {
		return InterventionSpec{}, false
	}
	return t.specs[i], true
}

// NormalizeStudsToItem converts a per-meter road-stud spec into a per-item
// spec: the leading requirement (the stud itself) becomes one per item while
// the remaining requirements keep their stated quantities. The input spec is
// not modified; the quantity extractor applies this before aggregation so the
// aggregator stays free of special cases.
func NormalizeStudsToItem(spec InterventionSpec) InterventionSpec {
	if spec.Basis != PerMeter || len(spec.Requirements) == 0 {
		return spec
	}
	normalized := spec
	normalized.Basis = PerItem
	normalized.Requirements = make([]MaterialRequirement, len(spec.Requirements))
	copy(normalized.Requirements, spec.Requirements)
	normalized.Requirements[0].Quantity = 1
	return normalized
}
