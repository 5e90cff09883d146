// Package bookshelf parses the Bookshelf placement format — the five
// interdependent text files (.aux, .nodes, .nets, .pl, .scl, and the
// optional .wts) used by the academic physical-design community to
// describe a standard-cell placement instance — into a single in-memory
// Design, and serializes a Design's node positions back out as a .pl
// file.
//
// The package also defines the error taxonomy shared by the reader, the
// quadratic solver, and the boundary clipper: a Kind tag distinguishing
// fatal conditions (missing-input, malformed-record, dangling-pin,
// solver-failed) from warnings (header-mismatch, cell-exceeds-core) that
// are recoverable in place.
package bookshelf
