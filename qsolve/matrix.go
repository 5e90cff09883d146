package qsolve

import (
	"sort"

	"github.com/qplace/qplace/bookshelf"
)

// CSR is a compressed-sparse-row matrix over the movable nodes, always
// square (N x N) and, as built by Build, always symmetric: every
// off-diagonal entry A[i][j] has a matching A[j][i].
type CSR struct {
	N      int
	RowPtr []int
	ColIdx []int
	Vals   []float64
}

// entry returns the value of A[row][col], or 0 if absent. Used only by
// the CG fallback to read the diagonal for its Jacobi preconditioner;
// the factorization itself never probes entries this way.
func (a *CSR) entry(row, col int) float64 {
	for k := a.RowPtr[row]; k < a.RowPtr[row+1]; k++ {
		if a.ColIdx[k] == col {
			return a.Vals[k]
		}
	}
	return 0
}

// row returns the (column, value) pairs of row i, in ascending column
// order.
func (a *CSR) row(i int) ([]int, []float64) {
	lo, hi := a.RowPtr[i], a.RowPtr[i+1]
	return a.ColIdx[lo:hi], a.Vals[lo:hi]
}

// Row is the exported form of row, for callers (and tests) outside the
// package that need to inspect the assembled matrix.
func (a *CSR) Row(i int) ([]int, []float64) {
	return a.row(i)
}

type triplet struct {
	r, c int
	v    float64
}

// Build assembles the clique/Bound2Bound quadratic system for design
// (spec §4.3): a single CSR matrix A shared by both axes, and two
// right-hand sides bx, by, one per axis. Every net of degree >= 2
// contributes an edge weight e = netWeight/(degree-1) to every
// unordered pair of its pins; per the pairwise contribution rule, a
// pair with one movable and one fixed endpoint adds e to the movable
// node's diagonal in addition to its RHS term, so that a movable node
// anchored only by fixed neighbors still yields a non-singular system
// (spec §8 boundary scenario 1). Nets of degree 0 or 1 contribute
// nothing.
func Build(design *bookshelf.Design) (*CSR, []float64, []float64) {
	n := design.NumMovable()
	bx := make([]float64, n)
	by := make([]float64, n)

	var triplets []triplet
	add := func(r, c int, v float64) {
		triplets = append(triplets, triplet{r, c, v})
	}

	for _, net := range design.Nets {
		d := net.Degree()
		if d <= 1 {
			continue
		}
		e := design.NetWeight(net) / float64(d-1)
		pins := net.Pins
		for i := 0; i < len(pins); i++ {
			ni := pins[i].Node
			mi, iok := design.MovableIndex(ni.Name)
			for j := i + 1; j < len(pins); j++ {
				nj := pins[j].Node
				mj, jok := design.MovableIndex(nj.Name)
				switch {
				case iok && jok:
					add(mi, mi, e)
					add(mj, mj, e)
					add(mi, mj, -e)
					add(mj, mi, -e)
				case iok && !jok:
					add(mi, mi, e)
					bx[mi] += e * nj.X
					by[mi] += e * nj.Y
				case !iok && jok:
					add(mj, mj, e)
					bx[mj] += e * ni.X
					by[mj] += e * ni.Y
				}
			}
		}
	}

	return cooToCSR(n, triplets), bx, by
}

// cooToCSR sorts triplets into row-major order, coalesces duplicate
// (row, col) entries by summation, and packs the result into CSR form.
func cooToCSR(n int, triplets []triplet) *CSR {
	sort.Slice(triplets, func(i, j int) bool {
		if triplets[i].r != triplets[j].r {
			return triplets[i].r < triplets[j].r
		}
		return triplets[i].c < triplets[j].c
	})

	a := &CSR{N: n, RowPtr: make([]int, n+1)}
	i := 0
	for i < len(triplets) {
		j := i
		r, c := triplets[i].r, triplets[i].c
		var sum float64
		for j < len(triplets) && triplets[j].r == r && triplets[j].c == c {
			sum += triplets[j].v
			j++
		}
		a.ColIdx = append(a.ColIdx, c)
		a.Vals = append(a.Vals, sum)
		a.RowPtr[r+1]++
		i = j
	}
	for r := 0; r < n; r++ {
		a.RowPtr[r+1] += a.RowPtr[r]
	}
	return a
}
