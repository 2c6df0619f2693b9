// Package chainage handles linear distance-along-route labels of the form
// "km+m" (e.g. 4+200 = 4200 meters) and their projection onto a fixed
// geographic reference line for map annotation.
package chainage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Parse converts a chainage label into a meter offset. Accepted forms are
// "<km>+<m>" with both parts non-negative integers, or a bare non-negative
// integer already in meters. Malformed input is a normal, expected outcome
// and is reported as an error without partial parsing.
func Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "+")
	switch len(parts) {
	case 1:
		m, err := parsePart(parts[0])
		if err != nil {
			return 0, fmt.Errorf("invalid chainage %q: %w", s, err)
		}
		return m, nil
	case 2:
		km, err := parsePart(parts[0])
		if err != nil {
			return 0, fmt.Errorf("invalid chainage %q: %w", s, err)
		}
		m, err := parsePart(parts[1])
		if err != nil {
			return 0, fmt.Errorf("invalid chainage %q: %w", s, err)
		}
		return km*1000 + m, nil
	default:
		return 0, fmt.Errorf("invalid chainage %q", s)
	}
}

func parsePart(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative component %d", n)
	}
	return n, nil
}

// Interpolate places a meter offset on the line between start and end.
// The fractional position is clamped to [0,1]: offsets outside the reference
// range saturate to an endpoint rather than extrapolating. A degenerate range
// (endM == startM) falls back to start. Degrading to an endpoint is policy,
// not an error.
func Interpolate(offsetM, startM, endM float64, start, end orb.Point) orb.Point {
	if endM == startM {
		return start
	}
	fraction := (offsetM - startM) / (endM - startM)
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return orb.Point{
		start[0] + (end[0]-start[0])*fraction,
		start[1] + (end[1]-start[1])*fraction,
	}
}

// ReferenceLine is a fixed route segment with known chainage bounds, used to
// turn chainage labels into approximate coordinates.
type ReferenceLine struct {
	StartM int
	EndM   int
	Start  orb.Point
	End    orb.Point
}

// NewReferenceLine parses the chainage bounds of a reference segment.
func NewReferenceLine(startLabel, endLabel string, start, end orb.Point) (ReferenceLine, error) {
	startM, err := Parse(startLabel)
	if err != nil {
		return ReferenceLine{}, err
	}
	endM, err := Parse(endLabel)
	if err != nil {
		return ReferenceLine{}, err
	}
	return ReferenceLine{StartM: startM, EndM: endM, Start: start, End: end}, nil
}

// Locate projects a meter offset onto the reference line.
func (l ReferenceLine) Locate(offsetM int) orb.Point {
	return Interpolate(float64(offsetM), float64(l.StartM), float64(l.EndM), l.Start, l.End)
}
