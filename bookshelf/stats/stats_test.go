package stats_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/qplace/qplace/bookshelf"
	"github.com/qplace/qplace/bookshelf/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDesign constructs a small design directly against the model
// types, bypassing the Reader, for tests that only care about the
// Statistics Collector's arithmetic (spec §9's "always compute
// statistics from the parsed model" guidance).
func buildDesign() *bookshelf.Design {
	d := bookshelf.NewDesign("t")
	d.Core = bookshelf.CoreRegion{MinX: 0, MinY: 0, MaxX: 9, MaxY: 9} // 10x10 core
	d.AddNode(&bookshelf.Node{Name: "m0", Width: 2, Height: 2, X: 0, Y: 0})
	d.AddNode(&bookshelf.Node{Name: "m1", Width: 2, Height: 2, X: 4, Y: 4})
	d.AddNode(&bookshelf.Node{Name: "f0", Width: 1, Height: 1, X: 5, Y: 5, IsFixed: true})
	d.AddNode(&bookshelf.Node{Name: "f1", Width: 1, Height: 1, X: -5, Y: -5, IsFixed: true}) // outside core

	mkNet := func(name string, nodes ...string) *bookshelf.Net {
		n := &bookshelf.Net{Name: name}
		for _, nm := range nodes {
			n.Pins = append(n.Pins, bookshelf.Pin{Node: d.Node(nm), Direction: bookshelf.DirIn})
		}
		return n
	}
	d.Nets = append(d.Nets,
		mkNet("n0", "m0", "m1"),
		mkNet("n1", "m0", "m1", "f0"),
	)
	return d
}

func TestCollect(t *testing.T) {
	d := buildDesign()
	m := stats.Collect(d)

	assert.Equal(t, 100.0, m.CoreArea)
	assert.Equal(t, 4+4, m.CellArea)
	assert.Equal(t, 4+4, m.MovableArea)
	assert.Equal(t, 1+1, m.FixedArea)
	assert.Equal(t, 1, m.FixedAreaInCore) // only f0 is inside the core
	assert.Equal(t, 3, m.MaxNetDegree)    // n1 has 3 pins
	assert.Equal(t, 1, m.DegreeHistogram.Two)
	assert.Equal(t, 1, m.DegreeHistogram.ThreeToTen)

	wantUtil := 8.0 / (100.0 - 1.0)
	assert.InDelta(t, wantUtil, m.PlacementUtil, 1e-12)
}

func TestCollectUndefinedUtilization(t *testing.T) {
	d := bookshelf.NewDesign("empty-core")
	// A degenerate core whose max lies below its min has zero width and
	// height, so placement_util's denominator is <= 0 and the ratio is
	// undefined.
	d.Core = bookshelf.CoreRegion{MinX: 5, MinY: 5, MaxX: 4, MaxY: 4}
	m := stats.Collect(d)
	assert.True(t, math.IsNaN(m.PlacementUtil))
	assert.Equal(t, "undefined", stats.FormatPercent(m.PlacementUtil))
}

func TestFormatArea(t *testing.T) {
	assert.Equal(t, "12345 (1.2345e+04)", stats.FormatArea(12345))
}

func TestWriteTSV(t *testing.T) {
	d := buildDesign()
	m := stats.Collect(d)
	var buf bytes.Buffer
	require.NoError(t, m.WriteTSV(&buf))
	out := buf.String()
	assert.Contains(t, out, "core_area")
	assert.Contains(t, out, "nets_degree_2")
}

func TestWirelengthHPWL(t *testing.T) {
	d := bookshelf.NewDesign("wl")
	d.AddNode(&bookshelf.Node{Name: "a", Width: 0, Height: 0, X: 0, Y: 0})
	d.AddNode(&bookshelf.Node{Name: "b", Width: 0, Height: 0, X: 10, Y: 5})
	d.Nets = append(d.Nets, &bookshelf.Net{
		Name: "n0",
		Pins: []bookshelf.Pin{
			{Node: d.Node("a"), Direction: bookshelf.DirIn},
			{Node: d.Node("b"), Direction: bookshelf.DirOut},
		},
	})
	got := stats.WirelengthHPWL(d)
	assert.InDelta(t, 15.0, got, 1e-9) // (10-0) + (5-0)
}

func TestOutOfBoundsCount(t *testing.T) {
	d := bookshelf.NewDesign("oob")
	d.Core = bookshelf.CoreRegion{MinX: 0, MinY: 0, MaxX: 9, MaxY: 9}
	d.AddNode(&bookshelf.Node{Name: "inside", Width: 1, Height: 1, X: 1, Y: 1})
	d.AddNode(&bookshelf.Node{Name: "outside", Width: 1, Height: 1, X: 20, Y: 20})
	assert.Equal(t, 1, stats.OutOfBoundsCount(d))
}
