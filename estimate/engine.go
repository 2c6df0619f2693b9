// Package estimate combines extracted quantities with the price table to
// produce itemized material cost estimates for road-safety interventions.
package estimate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"

	"github.com/ka7788158-png/IIT-MADRAS/catalog"
	"github.com/ka7788158-png/IIT-MADRAS/chainage"
	"github.com/ka7788158-png/IIT-MADRAS/extract"
)

// LineItem is one material requirement priced at the estimated quantity.
// PriceMissing marks materials absent from the price table: their cost is
// unknown (not zero) and contributes nothing to totals.
type LineItem struct {
	Name         string          `json:"name"`
	QtyNeeded    float64         `json:"qty_needed"`
	Unit         string          `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineCost     decimal.Decimal `json:"line_cost"`
	PriceMissing bool            `json:"price_missing"`
}

// ResultItem is the evaluation of one intervention. Immutable once created;
// the slice of these is the whole output of a run.
type ResultItem struct {
	Key           string          `json:"key"`
	Quantity      float64         `json:"quantity"`
	Unit          string          `json:"unit"`
	SourceClause  string          `json:"source_clause"`
	MaterialCost  decimal.Decimal `json:"material_cost"`
	Lines         []LineItem      `json:"lines"`
	ChainageLabel string          `json:"chainage_label,omitempty"`
	Position      *orb.Point      `json:"position,omitempty"`
}

// Result is the uniform output of both batch and manual estimation. The
// presentation layer renders tables, charts, maps, and downloads from it.
type Result struct {
	RunID       uuid.UUID       `json:"run_id"`
	EstimatedAt time.Time       `json:"estimated_at"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	Items       []ResultItem    `json:"items"`
	ReportText  string          `json:"report_text"`
	Warnings    []string        `json:"warnings,omitempty"`

	// Statistics
	InterventionsMatched int `json:"interventions_matched"`
	LinesMissingPrice    int `json:"lines_missing_price"`
}

// ManualEntry is one user-supplied intervention/quantity pair.
type ManualEntry struct {
	Key      string  `json:"key"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Options carries per-invocation settings for an estimation run.
type Options struct {
	// PriceOverrides replaces or adds unit prices for this run only.
	// Values must be non-negative.
	PriceOverrides map[string]decimal.Decimal

	// SourceName labels the input in the text report (e.g. a file name).
	SourceName string
}

// Engine drives quantity extraction and cost aggregation over the
// specification table.
type Engine struct {
	specs     *catalog.SpecTable
	prices    catalog.PriceTable
	extractor *extract.Extractor
	refLine   *chainage.ReferenceLine
}

// NewEngine creates an estimation engine over the given tables.
func NewEngine(specs *catalog.SpecTable, prices catalog.PriceTable) *Engine {
	return &Engine{
		specs:     specs,
		prices:    prices,
		extractor: extract.NewExtractor(),
	}
}

// WithReferenceLine enables chainage-to-coordinate projection on batch
// results for map annotation.
func (e *Engine) WithReferenceLine(line chainage.ReferenceLine) *Engine {
	e.refLine = &line
	return e
}

// ComputeCost expands a spec's material list at the given quantity against a
// price table. Known prices contribute QtyNeeded x UnitPrice to the item
// total; unknown prices are flagged per line and contribute zero while still
// being reported. Deterministic for a given (spec, quantity, prices).
func ComputeCost(spec catalog.InterventionSpec, quantity float64, prices catalog.PriceTable) (decimal.Decimal, []LineItem) {
	total := decimal.Zero
	lines := make([]LineItem, 0, len(spec.Requirements))

	for _, req := range spec.Requirements {
		line := LineItem{
			Name:      req.Name,
			QtyNeeded: req.Quantity * quantity,
			Unit:      req.Unit,
		}
		if price, ok := prices.Lookup(req.Name); ok {
			line.UnitPrice = price
			line.LineCost = decimal.NewFromFloat(line.QtyNeeded).Mul(price)
			total = total.Add(line.LineCost)
		} else {
			line.PriceMissing = true
		}
		lines = append(lines, line)
	}
	return total, lines
}

// EstimateText runs batch estimation over full document text. Every catalog
// intervention whose key appears in the text (case-insensitively) is
// extracted, priced, and appended to the result.
func (e *Engine) EstimateText(ctx context.Context, text string, opts Options) (*Result, error) {
	prices, err := e.prices.Merged(opts.PriceOverrides)
	if err != nil {
		return nil, err
	}

	result := e.newResult()
	report := newReportBuilder(opts.SourceName, result.EstimatedAt)
	lowerText := strings.ToLower(text)

	for _, spec := range e.specs.Specs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.Contains(lowerText, strings.ToLower(spec.Key)) {
			continue
		}

		extraction := e.extractor.Extract(spec, text)
		total, lines := ComputeCost(extraction.Spec, extraction.Quantity, prices)

		item := ResultItem{
			Key:          spec.Key,
			Quantity:     extraction.Quantity,
			Unit:         extraction.Unit,
			SourceClause: spec.SourceClause,
			MaterialCost: total,
			Lines:        lines,
		}
		if label, ok := extract.LocateChainage(spec.Key, text); ok {
			item.ChainageLabel = label
			if e.refLine != nil {
				if offset, err := chainage.Parse(label); err == nil {
					pos := e.refLine.Locate(offset)
					item.Position = &pos
				}
			}
		}

		e.appendItem(result, report, item)
	}

	e.finish(result, report)
	return result, nil
}

// EstimateManual runs estimation over a caller-supplied entry list, skipping
// extraction entirely. An unknown intervention key degrades to a per-entry
// warning; the run continues.
func (e *Engine) EstimateManual(ctx context.Context, entries []ManualEntry, opts Options) (*Result, error) {
	prices, err := e.prices.Merged(opts.PriceOverrides)
	if err != nil {
		return nil, err
	}

	result := e.newResult()
	report := newReportBuilder(opts.SourceName, result.EstimatedAt)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		spec, ok := e.specs.Lookup(entry.Key)
		if !ok {
			warning := fmt.Sprintf("unknown intervention %q: entry skipped", entry.Key)
			result.Warnings = append(result.Warnings, warning)
			report.warning(warning)
			continue
		}

		unit := entry.Unit
		if unit == "" {
			unit = spec.Basis.DefaultUnit()
		}

		total, lines := ComputeCost(spec, entry.Quantity, prices)
		e.appendItem(result, report, ResultItem{
			Key:          spec.Key,
			Quantity:     entry.Quantity,
			Unit:         unit,
			SourceClause: spec.SourceClause,
			MaterialCost: total,
			Lines:        lines,
		})
	}

	e.finish(result, report)
	return result, nil
}

func (e *Engine) newResult() *Result {
	return &Result{
		RunID:       uuid.New(),
		EstimatedAt: time.Now(),
		GrandTotal:  decimal.Zero,
		Items:       make([]ResultItem, 0),
	}
}

func (e *Engine) appendItem(result *Result, report *reportBuilder, item ResultItem) {
	result.Items = append(result.Items, item)
	result.GrandTotal = result.GrandTotal.Add(item.MaterialCost)
	result.InterventionsMatched++
	for _, line := range item.Lines {
		if line.PriceMissing {
			result.LinesMissingPrice++
		}
	}
	report.item(item)
}

func (e *Engine) finish(result *Result, report *reportBuilder) {
	report.summary(result.GrandTotal)
	result.ReportText = report.String()
}
