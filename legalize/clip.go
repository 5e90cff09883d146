package legalize

import (
	"fmt"

	"github.com/qplace/qplace/bookshelf"
	"github.com/qplace/qplace/qsolve"
)

// Clip writes the solved x, y coordinates from result into design's
// movable nodes, clamping each into the core region (spec §4.5):
// x is clamped to [core.MinX, core.MaxX - width] and y analogously. A
// node wider or taller than the core span in that axis is pinned to
// the minimum and a KindCellExceedsCore warning is recorded in warn
// rather than treated as fatal, since the clipper's job is to produce
// a placeable result, not to validate the floorplan.
func Clip(design *bookshelf.Design, result qsolve.Result, warn *bookshelf.WarningSink) {
	core := design.Core
	for i, n := range design.Movable {
		x, y := result.X[i], result.Y[i]

		maxX := core.MaxX - float64(n.Width)
		if maxX < core.MinX {
			x = core.MinX
			warn.Warn(bookshelf.KindCellExceedsCore, "", 0,
				fmt.Errorf("node %s width %d exceeds core width %g", n.Name, n.Width, core.Width()))
		} else if x < core.MinX {
			x = core.MinX
		} else if x > maxX {
			x = maxX
		}

		maxY := core.MaxY - float64(n.Height)
		if maxY < core.MinY {
			y = core.MinY
			warn.Warn(bookshelf.KindCellExceedsCore, "", 0,
				fmt.Errorf("node %s height %d exceeds core height %g", n.Name, n.Height, core.Height()))
		} else if y < core.MinY {
			y = core.MinY
		} else if y > maxY {
			y = maxY
		}

		n.X, n.Y = x, y
	}
}
