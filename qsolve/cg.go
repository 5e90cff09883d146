package qsolve

import "math"

// cgTol is the relative-residual convergence tolerance (spec §4.4:
// "1e-6 relative residual").
const cgTol = 1e-6

// pcg runs Jacobi-preconditioned conjugate gradient on A x = b, up to
// maxIter = 2*A.N iterations (spec §4.4). It returns the solution and
// true on convergence; on failure to converge within the iteration
// budget it returns the last iterate and false, leaving the
// caller (solve.go) to translate that into a solver-failed error.
func pcg(a *CSR, b []float64) ([]float64, bool) {
	n := a.N
	maxIter := 2 * n
	if maxIter == 0 {
		return nil, true
	}

	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = a.entry(i, i)
		if diag[i] <= 0 {
			diag[i] = 1
		}
	}
	precond := func(v []float64) []float64 {
		z := make([]float64, n)
		for i := range v {
			z[i] = v[i] / diag[i]
		}
		return z
	}

	x := make([]float64, n)
	r := make([]float64, n)
	copy(r, b)

	// A zero right-hand side with a singular A (the orphan-component
	// case, spec §8 scenario 4: a movable-only component with no fixed
	// anchor) has no unique solution; bnorm == 0 drives every relative
	// residual check to NaN below, so the loop falls through to the
	// denom == 0 check on the very first iteration and reports failure
	// rather than silently settling at the origin.
	bnorm := norm2(b)

	z := precond(r)
	p := make([]float64, n)
	copy(p, z)
	rz := dot(r, z)

	for iter := 0; iter < maxIter; iter++ {
		if norm2(r)/bnorm <= cgTol {
			return x, true
		}
		ap := matvec(a, p)
		denom := dot(p, ap)
		if denom == 0 || math.IsNaN(denom) {
			return x, false
		}
		alpha := rz / denom
		for i := 0; i < n; i++ {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}
		if norm2(r)/bnorm <= cgTol {
			return x, true
		}
		z = precond(r)
		rzNew := dot(r, z)
		beta := rzNew / rz
		for i := 0; i < n; i++ {
			p[i] = z[i] + beta*p[i]
		}
		rz = rzNew
	}
	return x, norm2(r)/bnorm <= cgTol
}

func matvec(a *CSR, v []float64) []float64 {
	out := make([]float64, a.N)
	for r := 0; r < a.N; r++ {
		cols, vals := a.row(r)
		var sum float64
		for i, c := range cols {
			sum += vals[i] * v[c]
		}
		out[r] = sum
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm2(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
