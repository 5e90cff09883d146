package qsolve

import (
	"math"
	"sort"
)

// pivotTol is the smallest diagonal pivot value factorization accepts
// before declaring the matrix non-positive-definite along the current
// ordering and handing off to the conjugate-gradient fallback (spec
// §4.4: "a non-positive pivot during Cholesky triggers the CG path").
const pivotTol = 1e-12

// sparseCol is one column of the lower-triangular factor L, stored as
// parallel (row, value) slices in ascending row order; rows[0] is
// always the diagonal entry (row == the column's own index).
type sparseCol struct {
	rows []int
	vals []float64
}

func (c *sparseCol) diag() float64 { return c.vals[0] }

// cholesky holds a completed (or attempted) factorization: L in
// permuted coordinates plus the permutation that was applied to reach
// it.
type cholesky struct {
	n       int
	perm    []int // perm[i] = original index placed at permuted position i
	invPerm []int
	cols    []*sparseCol
}

// factorize attempts a left-looking sparse Cholesky factorization of a
// under the greedy minimum-degree ordering, using the classic
// pending-column-list technique (Davis, "Direct Methods for Sparse
// Linear Systems"): column k's contributions to later columns are
// recorded against the rows they touch, so column k' only visits the
// columns that actually affect it instead of scanning every earlier
// column.
//
// It returns (nil, false) as soon as a pivot falls at or below
// pivotTol, signalling the caller to fall back to conjugate gradient.
func factorize(a *CSR) (*cholesky, bool) {
	n := a.N
	perm := minDegreeOrder(a)
	invPerm := make([]int, n)
	for i, orig := range perm {
		invPerm[orig] = i
	}

	cols := make([]*sparseCol, n)
	pending := make([][]int, n)

	for k := 0; k < n; k++ {
		orig := perm[k]
		acc := make(map[int]float64)
		origCols, origVals := a.row(orig)
		for idx, oc := range origCols {
			pc := invPerm[oc]
			if pc >= k {
				acc[pc] += origVals[idx]
			}
		}

		for _, p := range pending[k] {
			lp := cols[p]
			var lkp float64
			for idx, r := range lp.rows {
				if r == k {
					lkp = lp.vals[idx]
					break
				}
			}
			for idx, r := range lp.rows {
				if r < k {
					continue
				}
				acc[r] -= lkp * lp.vals[idx]
			}
		}

		d := acc[k]
		if d <= pivotTol || math.IsNaN(d) {
			return nil, false
		}
		lkk := math.Sqrt(d)

		rows := make([]int, 0, len(acc))
		for r := range acc {
			rows = append(rows, r)
		}
		sort.Ints(rows)

		vals := make([]float64, len(rows))
		for i, r := range rows {
			if r == k {
				vals[i] = lkk
			} else {
				vals[i] = acc[r] / lkk
			}
		}
		col := &sparseCol{rows: rows, vals: vals}
		cols[k] = col

		for _, r := range rows {
			if r > k {
				pending[r] = append(pending[r], k)
			}
		}
	}

	return &cholesky{n: n, perm: perm, invPerm: invPerm, cols: cols}, true
}

// solve computes x satisfying A x = b (in original coordinates) via
// forward/back substitution against the factor, L L^T x' = b', where
// b'[i] = b[perm[i]] and x[perm[i]] = x'[i].
func (f *cholesky) solve(b []float64) []float64 {
	n := f.n
	y := make([]float64, n)
	for i, orig := range f.perm {
		y[i] = b[orig]
	}

	for k := 0; k < n; k++ {
		col := f.cols[k]
		y[k] /= col.diag()
		for i, r := range col.rows {
			if r > k {
				y[r] -= col.vals[i] * y[k]
			}
		}
	}

	for k := n - 1; k >= 0; k-- {
		col := f.cols[k]
		for i, r := range col.rows {
			if r > k {
				y[k] -= col.vals[i] * y[r]
			}
		}
		y[k] /= col.diag()
	}

	x := make([]float64, n)
	for i, orig := range f.perm {
		x[orig] = y[i]
	}
	return x
}
