package qsolve

import (
	"context"
	"math"

	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"
	"github.com/qplace/qplace/bookshelf"
)

// Result holds the solved x, y coordinates for every movable node, in
// the same order as design.Movable.
type Result struct {
	X, Y []float64
}

// Solve builds the quadratic system for design and solves it for both
// axes, running the x and y solves concurrently since they share only
// the read-only matrix A (spec §4.4, §5). A returns a *bookshelf.Error
// tagged KindSolverFailed if either axis's RHS is non-finite or if
// Cholesky and the CG fallback both fail to produce a usable solution.
func Solve(ctx context.Context, design *bookshelf.Design) (Result, error) {
	a, bx, by := Build(design)

	rhs := [2][]float64{bx, by}
	out := [2][]float64{}

	err := traverse.Each(2, func(i int) error {
		x, err := solveAxis(a, rhs[i])
		if err != nil {
			return err
		}
		out[i] = x
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{X: out[0], Y: out[1]}, nil
}

// solveAxis solves A x = b for one axis, preferring Cholesky and
// falling back to Jacobi-PCG on a non-positive pivot (spec §4.4).
func solveAxis(a *CSR, b []float64) ([]float64, error) {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &bookshelf.Error{
				Kind: bookshelf.KindSolverFailed,
				Err:  errors.New("non-finite right-hand side"),
			}
		}
	}

	if f, ok := factorize(a); ok {
		return f.solve(b), nil
	}

	x, ok := pcg(a, b)
	if !ok {
		return nil, &bookshelf.Error{
			Kind: bookshelf.KindSolverFailed,
			Err:  errors.New("conjugate gradient failed to converge"),
		}
	}
	return x, nil
}
