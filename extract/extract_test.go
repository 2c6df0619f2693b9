package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ka7788158-png/IIT-MADRAS/catalog"
)

func perMeterSpec(key string) catalog.InterventionSpec {
	return catalog.InterventionSpec{
		Key:   key,
		Basis: catalog.PerMeter,
		Requirements: []catalog.MaterialRequirement{
			{Name: "Material A", Quantity: 0.7, Unit: "kg"},
			{Name: "Material B", Quantity: 0.07, Unit: "kg"},
		},
	}
}

func TestRoadStuds(t *testing.T) {
	e := NewExtractor()
	spec := perMeterSpec("Road Studs")

	t.Run("chainage range drives the count", func(t *testing.T) {
		got := e.Extract(spec, "Install road studs from 4+100 to 4+200 on both edges.")
		// 100 m at one stud per 9 m per edge: ceil(100/9) = 12, both edges = 24.
		assert.Equal(t, 24.0, got.Quantity)
		assert.Equal(t, "item", got.Unit)
		assert.Equal(t, catalog.PerItem, got.Spec.Basis)
		assert.Equal(t, 1.0, got.Spec.Requirements[0].Quantity)
		// Trailing requirements keep their stated quantities.
		assert.Equal(t, 0.07, got.Spec.Requirements[1].Quantity)
	})

	t.Run("reversed range uses absolute length", func(t *testing.T) {
		got := e.Extract(spec, "road studs 4+200 to 4+100")
		assert.Equal(t, 24.0, got.Quantity)
	})

	t.Run("no chainage defaults to one item", func(t *testing.T) {
		got := e.Extract(spec, "replace damaged road studs near the junction")
		assert.Equal(t, 1.0, got.Quantity)
		assert.Equal(t, "item", got.Unit)
		assert.Equal(t, catalog.PerItem, got.Spec.Basis)
	})

	t.Run("input spec is not mutated", func(t *testing.T) {
		e.Extract(spec, "road studs 4+100 to 4+200")
		assert.Equal(t, catalog.PerMeter, spec.Basis)
		assert.Equal(t, 0.7, spec.Requirements[0].Quantity)
	})
}

func TestLongitudinalMarkings(t *testing.T) {
	e := NewExtractor()
	spec := perMeterSpec("Longitudinal Markings")

	got := e.Extract(spec, "Repaint longitudinal markings over 250 m of carriageway.")
	assert.Equal(t, 250.0, got.Quantity)
	assert.Equal(t, "meter", got.Unit)

	got = e.Extract(spec, "Faded longitudinal markings observed.")
	assert.Equal(t, 1.0, got.Quantity)
}

func TestStreetlights(t *testing.T) {
	e := NewExtractor()
	got := e.Extract(perMeterSpec("Streetlights"), "streetlights required for the entire stretch")
	assert.Equal(t, 1000.0, got.Quantity)
	assert.Equal(t, "meter", got.Unit)
}

func TestPotholeVolume(t *testing.T) {
	e := NewExtractor()
	spec := catalog.InterventionSpec{
		Key:   "Pothole",
		Basis: catalog.PerCubicMeter,
		Requirements: []catalog.MaterialRequirement{
			{Name: "Cold Mix Asphalt", Quantity: 2400, Unit: "kg"},
		},
	}

	t.Run("area and depth give a volume", func(t *testing.T) {
		got := e.Extract(spec, "Pothole of area 12.5 sqm with 50 mm depth at km 6.")
		assert.InDelta(t, 0.625, got.Quantity, 1e-9)
		assert.Equal(t, "m^3", got.Unit)
	})

	t.Run("missing depth leaves quantity at zero", func(t *testing.T) {
		got := e.Extract(spec, "Pothole of area 12.5 sqm reported.")
		assert.Equal(t, 0.0, got.Quantity)
	})

	t.Run("missing area leaves quantity at zero", func(t *testing.T) {
		got := e.Extract(spec, "Pothole with 50 mm depth reported.")
		assert.Equal(t, 0.0, got.Quantity)
	})
}

func TestPotholeArea(t *testing.T) {
	e := NewExtractor()
	spec := catalog.InterventionSpec{
		Key:   "Pothole",
		Basis: catalog.PerSquareMeter20mm,
		Requirements: []catalog.MaterialRequirement{
			{Name: "Premix", Quantity: 48, Unit: "kg"},
		},
	}

	got := e.Extract(spec, "Pothole patch, area 12.5 sqm.")
	assert.Equal(t, 12.5, got.Quantity)
	assert.Equal(t, "sqm", got.Unit)

	got = e.Extract(spec, "Pothole patch near culvert.")
	assert.Equal(t, 1.0, got.Quantity)
}

func TestPerItemDefault(t *testing.T) {
	e := NewExtractor()
	spec := catalog.InterventionSpec{
		Key:   "Warning Signage",
		Basis: catalog.PerItem,
		Requirements: []catalog.MaterialRequirement{
			{Name: "Sign Board", Quantity: 1, Unit: "piece"},
		},
	}

	t.Run("occurrences are counted case-insensitively", func(t *testing.T) {
		got := e.Extract(spec, "WARNING SIGNAGE at 4+100. Another warning signage at 5+200. warning signage again.")
		assert.Equal(t, 3.0, got.Quantity)
		assert.Equal(t, "item", got.Unit)
	})

	t.Run("zero occurrences floor to one", func(t *testing.T) {
		got := e.Extract(spec, "no relevant keywords here")
		assert.Equal(t, 1.0, got.Quantity)
	})
}

func TestPerMeterDefault(t *testing.T) {
	e := NewExtractor()
	got := e.Extract(perMeterSpec("Crash Barrier"), "crash barrier damaged")
	assert.Equal(t, 1.0, got.Quantity)
	assert.Equal(t, "meter", got.Unit)
}

func TestRegisterReplacesRule(t *testing.T) {
	e := NewExtractor()
	e.Register(fixedRule{key: "streetlights", quantity: 7})
	got := e.Extract(perMeterSpec("Streetlights"), "streetlights")
	require.Equal(t, 7.0, got.Quantity)
}

type fixedRule struct {
	key      string
	quantity float64
}

func (r fixedRule) Key() string { return r.key }

func (r fixedRule) Extract(spec catalog.InterventionSpec, lowerText string) Extraction {
	return Extraction{Quantity: r.quantity, Unit: "item", Spec: spec}
}
