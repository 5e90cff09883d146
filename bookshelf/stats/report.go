package stats

import (
	"fmt"
	"math"

	"github.com/qplace/qplace/bookshelf"
)

// Report is the supplemented human-readable placement report
// (SPEC_FULL.md §3), grounded on
// initial_placement_fixed.py's print_placement_statistics: total
// half-perimeter wirelength and the count of movable nodes left outside
// the core. Unlike Metrics, a Report is computed at a specific pipeline
// stage (the caller decides whether to call WirelengthHPWL before or
// after clipping); qplace's orchestration computes WirelengthHPWL right
// after the quadratic solve (it is undefined before a solve has run) and
// OutOfBoundsCount after the boundary clip, so a non-zero count there
// comes from cells larger than the core in some axis, which the clipper
// pins to the core minimum with a cell-exceeds-core warning.
type Report struct {
	WirelengthTotal float64
	OutOfBounds     int
	Core            bookshelf.CoreRegion
}

// WirelengthHPWL sums the half-perimeter wirelength (GLOSSARY:
// "(max_x - min_x) + (max_y - min_y) over the pins of a net") of every
// net in design, using each pin's node-center position. Nets with fewer
// than 2 pins contribute 0, matching the clique model's treatment of
// such nets in qsolve.
func WirelengthHPWL(design *bookshelf.Design) float64 {
	var total float64
	for _, net := range design.Nets {
		if net.Degree() < 2 {
			continue
		}
		minX, maxX := math.Inf(1), math.Inf(-1)
		minY, maxY := math.Inf(1), math.Inf(-1)
		for _, p := range net.Pins {
			cx := p.Node.X + float64(p.Node.Width)/2
			cy := p.Node.Y + float64(p.Node.Height)/2
			if cx < minX {
				minX = cx
			}
			if cx > maxX {
				maxX = cx
			}
			if cy < minY {
				minY = cy
			}
			if cy > maxY {
				maxY = cy
			}
		}
		total += (maxX - minX) + (maxY - minY)
	}
	return total
}

// OutOfBoundsCount reports how many movable nodes currently have any part
// of their bounding box outside design.Core.
func OutOfBoundsCount(design *bookshelf.Design) int {
	count := 0
	for _, n := range design.Movable {
		if n.X < design.Core.MinX || n.Y < design.Core.MinY ||
			n.X+float64(n.Width) > design.Core.MaxX ||
			n.Y+float64(n.Height) > design.Core.MaxY {
			count++
		}
	}
	return count
}

// String renders the report the way
// initial_placement_fixed.py.print_placement_statistics does, minus the
// node/net counts which belong to Metrics.
func (r Report) String() string {
	return fmt.Sprintf(
		"Total wirelength: %.2f\nNodes out of bounds: %d\nCore region: (%g, %g) - (%g, %g)",
		r.WirelengthTotal, r.OutOfBounds, r.Core.MinX, r.Core.MinY, r.Core.MaxX, r.Core.MaxY)
}
