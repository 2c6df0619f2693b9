package extract

import (
	"math"
	"regexp"
	"strconv"

	"github.com/ka7788158-png/IIT-MADRAS/catalog"
)

// Assumption constants carried over from the source report format.
const (
	// streetlightStretchM is the assumed length of the "entire stretch"
	// when a streetlight intervention gives no measurement. An assumption,
	// not a measurement.
	streetlightStretchM = 1000.0

	// studSpacingM is the spacing of road studs along one carriageway edge.
	studSpacingM = 9.0
)

var (
	meterPattern = regexp.MustCompile(`(?i)(\d+)\s*m`)
	areaPattern  = regexp.MustCompile(`(?i)area\s*([\d.]+)\s*sqm`)
	depthPattern = regexp.MustCompile(`(?i)([\d.]+)\s*mm\s*depth`)
	rangePattern = regexp.MustCompile(`(?i)(\d+)\+(\d+)\s+to\s+(\d+)\+(\d+)`)
)

// firstNumber returns the first capture group of the first match as a float.
func firstNumber(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// markingsRule reads the marked length for longitudinal markings from the
// first "<digits> m" measurement in the report.
type markingsRule struct{}

func (markingsRule) Key() string { return "longitudinal markings" }

func (markingsRule) Extract(spec catalog.InterventionSpec, lowerText string) Extraction {
	quantity := 1.0
	if n, ok := firstNumber(meterPattern, lowerText); ok {
		quantity = n
	}
	return Extraction{Quantity: quantity, Unit: "meter", Spec: spec}
}

// streetlightsRule applies the fixed whole-stretch assumption.
type streetlightsRule struct{}

func (streetlightsRule) Key() string { return "streetlights" }

func (streetlightsRule) Extract(spec catalog.InterventionSpec, lowerText string) Extraction {
	return Extraction{Quantity: streetlightStretchM, Unit: "meter", Spec: spec}
}

// roadStudsRule counts studs over a chainage range. The stretch length comes
// from the first "<km>+<m> to <km>+<m>" range in the report; studs sit every
// studSpacingM meters on both edges. The spec is normalized to a per-item
// basis either way so the aggregator multiplies per stud.
type roadStudsRule struct{}

func (roadStudsRule) Key() string { return "road studs" }

func (roadStudsRule) Extract(spec catalog.InterventionSpec, lowerText string) Extraction {
	normalized := catalog.NormalizeStudsToItem(spec)

	m := rangePattern.FindStringSubmatch(lowerText)
	if m == nil {
		return Extraction{Quantity: 1, Unit: "item", Spec: normalized}
	}

	startKM, _ := strconv.Atoi(m[1])
	startM, _ := strconv.Atoi(m[2])
	endKM, _ := strconv.Atoi(m[3])
	endM, _ := strconv.Atoi(m[4])

	lengthM := (endKM*1000 + endM) - (startKM*1000 + startM)
	if lengthM < 0 {
		lengthM = -lengthM
	}

	studsPerEdge := math.Ceil(float64(lengthM) / studSpacingM)
	return Extraction{Quantity: studsPerEdge * 2, Unit: "item", Spec: normalized}
}

// potholeRule reads patch dimensions. On a per-cubic-meter spec both the
// "area <n> sqm" and "<n> mm depth" measurements are required to compute a
// volume; missing either leaves the quantity at zero. On a per-sqm spec the
// area alone is used, defaulting to one square meter.
type potholeRule struct{}

func (potholeRule) Key() string { return "pothole" }

func (potholeRule) Extract(spec catalog.InterventionSpec, lowerText string) Extraction {
	switch spec.Basis {
	case catalog.PerCubicMeter:
		area, okArea := firstNumber(areaPattern, lowerText)
		depthMM, okDepth := firstNumber(depthPattern, lowerText)
		if okArea && okDepth {
			return Extraction{Quantity: area * depthMM / 1000, Unit: "m^3", Spec: spec}
		}
		return Extraction{Quantity: 0, Unit: "m^3", Spec: spec}
	case catalog.PerSquareMeter20mm:
		if area, ok := firstNumber(areaPattern, lowerText); ok {
			return Extraction{Quantity: area, Unit: "sqm", Spec: spec}
		}
		return Extraction{Quantity: 1, Unit: "sqm", Spec: spec}
	default:
		return defaultExtraction(spec, lowerText)
	}
}
