package qsolve_test

import (
	"math"
	"testing"

	"github.com/qplace/qplace/bookshelf"
	"github.com/qplace/qplace/qsolve"
	"github.com/stretchr/testify/assert"
)

func mkNet(name string, pins ...bookshelf.Pin) *bookshelf.Net {
	return &bookshelf.Net{Name: name, Pins: pins}
}

func pin(n *bookshelf.Node) bookshelf.Pin {
	return bookshelf.Pin{Node: n, Direction: bookshelf.DirIn}
}

// scenario1 builds spec §8 boundary scenario 1: one movable cell a,
// one fixed terminal t at (10, 20), connected by a single 2-pin net of
// weight 1.
func scenario1() *bookshelf.Design {
	d := bookshelf.NewDesign("s1")
	d.Core = bookshelf.CoreRegion{MinX: 0, MinY: 0, MaxX: 99, MaxY: 99}
	d.AddNode(&bookshelf.Node{Name: "a", Width: 1, Height: 1})
	d.AddNode(&bookshelf.Node{Name: "t", Width: 1, Height: 1, X: 10, Y: 20, IsFixed: true})
	d.Nets = append(d.Nets, mkNet("n0", pin(d.Node("a")), pin(d.Node("t"))))
	return d
}

func TestBuildScenario1(t *testing.T) {
	d := scenario1()
	a, bx, by := qsolve.Build(d)
	assert.Equal(t, 1, a.N)
	assert.InDelta(t, 1.0, entryAt(a, 0, 0), 1e-12)
	assert.InDelta(t, 10.0, bx[0], 1e-12)
	assert.InDelta(t, 20.0, by[0], 1e-12)
}

// scenario2 builds spec §8 boundary scenario 2: two movable cells a, b
// each bridged to a single fixed terminal t at (0, 0).
func scenario2() *bookshelf.Design {
	d := bookshelf.NewDesign("s2")
	d.Core = bookshelf.CoreRegion{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}
	d.AddNode(&bookshelf.Node{Name: "a", Width: 1, Height: 1})
	d.AddNode(&bookshelf.Node{Name: "b", Width: 1, Height: 1})
	d.AddNode(&bookshelf.Node{Name: "t", Width: 1, Height: 1, IsFixed: true})
	d.Nets = append(d.Nets,
		mkNet("na", pin(d.Node("a")), pin(d.Node("t"))),
		mkNet("nb", pin(d.Node("b")), pin(d.Node("t"))),
	)
	return d
}

func TestBuildScenario2(t *testing.T) {
	d := scenario2()
	a, bx, by := qsolve.Build(d)
	assert.Equal(t, 2, a.N)
	assert.InDelta(t, 1.0, entryAt(a, 0, 0), 1e-12)
	assert.InDelta(t, 1.0, entryAt(a, 1, 1), 1e-12)
	assert.InDelta(t, 0.0, entryAt(a, 0, 1), 1e-12)
	for i := range bx {
		assert.InDelta(t, 0.0, bx[i], 1e-12)
		assert.InDelta(t, 0.0, by[i], 1e-12)
	}
}

// scenario3 builds spec §8 boundary scenario 3: a 4-pin star net, 3
// movable + 1 fixed at (12, 0).
func scenario3() *bookshelf.Design {
	d := bookshelf.NewDesign("s3")
	d.Core = bookshelf.CoreRegion{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}
	for _, name := range []string{"m0", "m1", "m2"} {
		d.AddNode(&bookshelf.Node{Name: name, Width: 1, Height: 1})
	}
	d.AddNode(&bookshelf.Node{Name: "f", Width: 1, Height: 1, X: 12, Y: 0, IsFixed: true})
	d.Nets = append(d.Nets, mkNet("n0",
		pin(d.Node("m0")), pin(d.Node("m1")), pin(d.Node("m2")), pin(d.Node("f"))))
	return d
}

func TestBuildScenario3(t *testing.T) {
	d := scenario3()
	a, bx, _ := qsolve.Build(d)
	assert.Equal(t, 3, a.N)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, entryAt(a, i, i), 1e-9)
		assert.InDelta(t, 4.0, bx[i], 1e-9)
		for j := 0; j < 3; j++ {
			if i == j {
				continue
			}
			assert.InDelta(t, -1.0/3.0, entryAt(a, i, j), 1e-9)
		}
	}
}

func TestMatrixSymmetryAndDiagonalDominance(t *testing.T) {
	for _, d := range []*bookshelf.Design{scenario1(), scenario2(), scenario3()} {
		a, _, _ := qsolve.Build(d)
		for i := 0; i < a.N; i++ {
			var offSum float64
			for j := 0; j < a.N; j++ {
				vij := entryAt(a, i, j)
				vji := entryAt(a, j, i)
				assert.InDelta(t, vij, vji, 1e-12)
				if i != j {
					offSum += math.Abs(vij)
				}
			}
			if entryAt(a, i, i) < offSum-1e-9 {
				t.Fatalf("row %d fails diagonal dominance: diag=%v offsum=%v", i, entryAt(a, i, i), offSum)
			}
		}
	}
}

// entryAt probes a.row(i) for column j via the package's exported row
// accessors, used only by tests.
func entryAt(a *qsolve.CSR, i, j int) float64 {
	cols, vals := a.Row(i)
	for k, c := range cols {
		if c == j {
			return vals[k]
		}
	}
	return 0
}
