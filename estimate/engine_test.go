package estimate

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ka7788158-png/IIT-MADRAS/catalog"
	"github.com/ka7788158-png/IIT-MADRAS/chainage"

	"github.com/paulmach/orb"
)

const testSpecJSON = `{
	"Road Studs": {
		"source_clause": "IRC:35-2015",
		"materials_per_meter": [
			{"name": "Reflective Road Stud", "quantity": 1, "unit": "piece"},
			{"name": "Epoxy Adhesive", "quantity": 0.25, "unit": "kg"}
		]
	},
	"Pothole": {
		"source_clause": "IRC:116-2014",
		"materials_per_cubic_meter": [
			{"name": "Cold Mix Asphalt", "quantity": 2400, "unit": "kg"}
		]
	},
	"Warning Signage": {
		"source_clause": "IRC:67-2012",
		"materials_per_item": [
			{"name": "Sign Board", "quantity": 1, "unit": "piece"},
			{"name": "GI Post", "quantity": 2, "unit": "piece"}
		]
	}
}`

const testPriceJSON = `{
	"Reflective Road Stud": 200,
	"Epoxy Adhesive": 400,
	"Cold Mix Asphalt": 10,
	"Sign Board": 2500
}`

func testTables(t *testing.T) (*catalog.SpecTable, catalog.PriceTable) {
	t.Helper()
	specs, err := catalog.ParseSpecTable([]byte(testSpecJSON))
	require.NoError(t, err)
	prices, err := catalog.ParsePriceTable([]byte(testPriceJSON))
	require.NoError(t, err)
	return specs, prices
}

func TestComputeCost(t *testing.T) {
	_, prices := testTables(t)
	spec := catalog.InterventionSpec{
		Key:   "Warning Signage",
		Basis: catalog.PerItem,
		Requirements: []catalog.MaterialRequirement{
			{Name: "Sign Board", Quantity: 1, Unit: "piece"},
			{Name: "GI Post", Quantity: 2, Unit: "piece"},
		},
	}

	total, lines := ComputeCost(spec, 3, prices)
	require.Len(t, lines, 2)

	// 3 sign boards at 2500.
	assert.Equal(t, 3.0, lines[0].QtyNeeded)
	assert.False(t, lines[0].PriceMissing)
	assert.True(t, lines[0].LineCost.Equal(decimal.NewFromInt(7500)))

	// GI Post has no price: flagged, reported, excluded from the total.
	assert.Equal(t, 6.0, lines[1].QtyNeeded)
	assert.True(t, lines[1].PriceMissing)
	assert.True(t, lines[1].LineCost.IsZero())

	assert.True(t, total.Equal(decimal.NewFromInt(7500)), "total %s", total)

	// Deterministic: same inputs, same outputs.
	again, _ := ComputeCost(spec, 3, prices)
	assert.True(t, total.Equal(again))
}

func TestEstimateTextBatch(t *testing.T) {
	specs, prices := testTables(t)
	engine := NewEngine(specs, prices)

	// Padding keeps the road-studs chainage out of the pothole's
	// 150-character label window.
	text := "Install road studs from 4+100 to 4+200." +
		strings.Repeat(" routine patrol notes;", 8) +
		" At 6+350 a pothole of area 12.5 sqm with 50 mm depth was found. " +
		"Erect warning signage at the approach."

	result, err := engine.EstimateText(context.Background(), text, Options{SourceName: "survey.txt"})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, 3, result.InterventionsMatched)

	byKey := map[string]ResultItem{}
	for _, item := range result.Items {
		byKey[item.Key] = item
	}

	// Road studs: 24 studs at 200 plus 24*0.25 kg epoxy at 400 = 4800 + 2400.
	studs := byKey["Road Studs"]
	assert.Equal(t, 24.0, studs.Quantity)
	assert.Equal(t, "item", studs.Unit)
	assert.True(t, studs.MaterialCost.Equal(decimal.NewFromInt(7200)), "got %s", studs.MaterialCost)

	// Pothole: 0.625 m^3 at 2400 kg/m^3 and 10/kg = 15000.
	pothole := byKey["Pothole"]
	assert.InDelta(t, 0.625, pothole.Quantity, 1e-9)
	assert.True(t, pothole.MaterialCost.Equal(decimal.NewFromInt(15000)), "got %s", pothole.MaterialCost)
	assert.Equal(t, "6+350", pothole.ChainageLabel)

	// Grand total is the sum of all item totals.
	sum := decimal.Zero
	missing := 0
	for _, item := range result.Items {
		sum = sum.Add(item.MaterialCost)
		for _, line := range item.Lines {
			if line.PriceMissing {
				missing++
			}
		}
	}
	assert.True(t, result.GrandTotal.Equal(sum))
	assert.Equal(t, missing, result.LinesMissingPrice)
	assert.Equal(t, 1, missing, "GI Post has no price")

	// The report mirrors quantities, prices, and subtotals.
	assert.Contains(t, result.ReportText, "Intervention: ROAD STUDS")
	assert.Contains(t, result.ReportText, "Quantity Found: 24.00 item(s)")
	assert.Contains(t, result.ReportText, "PRICE NOT FOUND")
	assert.Contains(t, result.ReportText, "Input: survey.txt")
	assert.Contains(t, result.ReportText, "TOTAL ESTIMATED MATERIAL COST: ₹"+result.GrandTotal.StringFixed(2))

	assert.NotEqual(t, result.RunID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestEstimateTextNoMatches(t *testing.T) {
	specs, prices := testTables(t)
	engine := NewEngine(specs, prices)

	result, err := engine.EstimateText(context.Background(), "routine patrol, nothing to report", Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.True(t, result.GrandTotal.IsZero())
	assert.Contains(t, result.ReportText, "TOTAL ESTIMATED MATERIAL COST: ₹0.00")
}

func TestEstimateTextWithReferenceLine(t *testing.T) {
	specs, prices := testTables(t)

	line, err := chainage.NewReferenceLine("4+100", "362+500",
		orb.Point{10.310709, 77.944926}, orb.Point{10.306490, 77.943170})
	require.NoError(t, err)

	engine := NewEngine(specs, prices).WithReferenceLine(line)

	result, err := engine.EstimateText(context.Background(),
		"At 4+100 a pothole of area 2 sqm and 100 mm depth.", Options{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.Equal(t, "4+100", item.ChainageLabel)
	require.NotNil(t, item.Position)
	// 4+100 is the start of the reference line.
	assert.Equal(t, orb.Point{10.310709, 77.944926}, *item.Position)
}

func TestEstimateTextPriceOverrides(t *testing.T) {
	specs, prices := testTables(t)
	engine := NewEngine(specs, prices)

	result, err := engine.EstimateText(context.Background(),
		"warning signage needed", Options{
			PriceOverrides: map[string]decimal.Decimal{
				"Sign Board": decimal.NewFromInt(3000),
				"GI Post":    decimal.NewFromInt(900),
			},
		})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	// 1 board at 3000 + 2 posts at 900.
	assert.True(t, result.GrandTotal.Equal(decimal.NewFromInt(4800)), "got %s", result.GrandTotal)
	assert.Equal(t, 0, result.LinesMissingPrice)

	_, err = engine.EstimateText(context.Background(), "warning signage", Options{
		PriceOverrides: map[string]decimal.Decimal{"Sign Board": decimal.NewFromInt(-1)},
	})
	require.Error(t, err)
}

func TestEstimateManual(t *testing.T) {
	specs, prices := testTables(t)
	engine := NewEngine(specs, prices)

	entries := []ManualEntry{
		{Key: "pothole", Quantity: 2, Unit: ""},
		{Key: "Warning Signage", Quantity: 3, Unit: "item"},
		{Key: "Unknown Thing", Quantity: 1, Unit: "item"},
	}

	result, err := engine.EstimateManual(context.Background(), entries, Options{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2, "unknown keys are skipped, not fatal")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Unknown Thing")

	// Lookup is case-insensitive and the default unit comes from the basis.
	assert.Equal(t, "Pothole", result.Items[0].Key)
	assert.Equal(t, "m^3", result.Items[0].Unit)
	// 2 m^3 * 2400 kg * 10.
	assert.True(t, result.Items[0].MaterialCost.Equal(decimal.NewFromInt(48000)))

	// 3 boards at 2500; GI Post unpriced.
	assert.True(t, result.Items[1].MaterialCost.Equal(decimal.NewFromInt(7500)))

	sum := decimal.Zero
	for _, item := range result.Items {
		sum = sum.Add(item.MaterialCost)
	}
	assert.True(t, result.GrandTotal.Equal(sum))
	assert.Contains(t, result.ReportText, "WARNING: unknown intervention")
}

func TestEstimateCancelled(t *testing.T) {
	specs, prices := testTables(t)
	engine := NewEngine(specs, prices)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.EstimateText(ctx, "pothole", Options{})
	require.Error(t, err)
	_, err = engine.EstimateManual(ctx, []ManualEntry{{Key: "Pothole", Quantity: 1}}, Options{})
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	items := []ResultItem{
		{
			Key:           "Road Studs",
			Quantity:      24,
			Unit:          "item",
			SourceClause:  "IRC:35-2015",
			MaterialCost:  decimal.NewFromInt(7200),
			ChainageLabel: "4+100",
		},
		{
			Key:          "Pothole",
			Quantity:     0.6,
			Unit:         "m^3",
			SourceClause: "IRC:116-2014",
			MaterialCost: decimal.NewFromInt(15000),
		},
	}

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, items))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Intervention,Quantity,Unit,Source Clause,Material Cost (INR),Chainage", lines[0])
	assert.Equal(t, "Road Studs,24.00,item,IRC:35-2015,7200.00,4+100", lines[1])
	assert.Equal(t, "Pothole,0.60,m^3,IRC:116-2014,15000.00,", lines[2])
}
