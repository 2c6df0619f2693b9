package estimate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// reportBuilder renders the sequential plain-text report that mirrors every
// computed quantity, price, and subtotal of a run.
type reportBuilder struct {
	b strings.Builder
}

const reportRule = "-----------------------------------------"

func newReportBuilder(sourceName string, at time.Time) *reportBuilder {
	r := &reportBuilder{}
	r.line("=========================================")
	r.line("   ROAD SAFETY INTERVENTION ESTIMATOR")
	r.line("     Material Cost Estimation Report")
	r.line("=========================================")
	r.line("")
	r.line("Report Generated: %s", at.Format("2006-01-02 15:04:05"))
	if sourceName != "" {
		r.line("Input: %s", sourceName)
	}
	r.line("")
	r.line(reportRule)
	r.line("        ITEMIZED COST BREAKDOWN")
	r.line(reportRule)
	r.line("")
	return r
}

func (r *reportBuilder) item(item ResultItem) {
	r.line("Intervention: %s", strings.ToUpper(item.Key))
	r.line("  Quantity Found: %.2f %s(s)", item.Quantity, item.Unit)
	r.line("  Source Clause: %s", item.SourceClause)
	r.line("  Cost Breakdown:")
	for _, l := range item.Lines {
		if l.PriceMissing {
			r.line("    - %s: %.2f units @ PRICE NOT FOUND", l.Name, l.QtyNeeded)
			continue
		}
		r.line("    - %s: %.2f units @ ₹%s/unit = ₹%s",
			l.Name, l.QtyNeeded, l.UnitPrice.StringFixed(2), l.LineCost.StringFixed(2))
	}
	r.line("  TOTAL for %s: ₹%s", item.Key, item.MaterialCost.StringFixed(2))
	r.line("")
}

func (r *reportBuilder) warning(msg string) {
	r.line("WARNING: %s", msg)
	r.line("")
}

func (r *reportBuilder) summary(grandTotal decimal.Decimal) {
	r.line(reportRule)
	r.line("             SUMMARY")
	r.line(reportRule)
	r.line("TOTAL ESTIMATED MATERIAL COST: ₹%s", grandTotal.StringFixed(2))
	r.line(reportRule)
	r.line("(Note: Excludes labor, installation, taxes, etc.)")
}

func (r *reportBuilder) line(format string, args ...interface{}) {
	fmt.Fprintf(&r.b, format, args...)
	r.b.WriteByte('\n')
}

func (r *reportBuilder) String() string {
	return r.b.String()
}
