package qsolve

// minDegreeOrder computes a greedy minimum-degree elimination ordering
// over the sparsity graph of a (symmetric) CSR matrix of size n: at each
// step, eliminate the remaining vertex with the fewest remaining
// neighbors, then connect its neighbors pairwise (fill-in) before
// removing it. This is a simplified, non-quotient-graph variant of the
// approximate-minimum-degree family (spec §4.4, "approximate-minimum-
// degree reordering") — it tracks full neighbor sets per vertex rather
// than AMD's compressed quotient graph, so it costs more per step on
// large, dense fill-in graphs, but produces the same kind of ordering
// for the clique-model matrices this system assembles.
//
// perm[i] is the original row/column index eliminated at step i;
// applying perm as a permutation before factorization is what keeps
// fill-in low.
func minDegreeOrder(a *CSR) []int {
	n := a.N
	neighbors := make([]map[int]struct{}, n)
	for i := 0; i < n; i++ {
		neighbors[i] = make(map[int]struct{})
	}
	for r := 0; r < n; r++ {
		cols, _ := a.row(r)
		for _, c := range cols {
			if c != r {
				neighbors[r][c] = struct{}{}
				neighbors[c][r] = struct{}{}
			}
		}
	}

	remaining := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		remaining[i] = struct{}{}
	}

	perm := make([]int, 0, n)
	for len(remaining) > 0 {
		best, bestDeg := -1, -1
		for v := range remaining {
			deg := len(neighbors[v])
			if bestDeg < 0 || deg < bestDeg || (deg == bestDeg && v < best) {
				best, bestDeg = v, deg
			}
		}

		nbrs := make([]int, 0, len(neighbors[best]))
		for v := range neighbors[best] {
			nbrs = append(nbrs, v)
		}
		for _, u := range nbrs {
			for _, w := range nbrs {
				if u != w {
					neighbors[u][w] = struct{}{}
				}
			}
			delete(neighbors[u], best)
		}
		neighbors[best] = nil
		delete(remaining, best)
		perm = append(perm, best)
	}
	return perm
}
