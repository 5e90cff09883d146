// Package qsolve builds and solves the two sparse symmetric
// positive-(semi)definite linear systems that the quadratic placement
// model reduces to (spec §4.3, §4.4): one clique-model CSR matrix A
// shared by both axes, and two right-hand-side vectors bx, by.
//
// Solve prefers a sparse Cholesky factorization with a greedy
// minimum-degree elimination ordering; if the factorization hits a
// non-positive pivot — the signature of a movable component with no
// fixed anchor (spec §8 boundary scenario 4, "orphan component") — it
// falls back to Jacobi-preconditioned conjugate gradient. The x and y
// systems share the same matrix A but independent right-hand sides, so
// both solves run concurrently (spec §4.4, "the two solves are
// independent... may be solved in parallel"; spec §5's concurrency
// model calls this out as the one place the core schedules work across
// threads).
package qsolve
