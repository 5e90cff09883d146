package bookshelf

import (
	"fmt"

	"github.com/grailbio/base/sync/multierror"
	"github.com/pkg/errors"
)

// Kind tags the disposition of a pipeline error or warning, per the
// taxonomy in spec §7.
type Kind int

const (
	// KindMissingInput: a required Bookshelf file was not found. Fatal,
	// abort before parsing.
	KindMissingInput Kind = iota
	// KindMalformedRecord: a line could not be parsed. Fatal, abort the
	// current file.
	KindMalformedRecord
	// KindDanglingPin: a .nets pin referenced a node absent from .nodes.
	// Fatal.
	KindDanglingPin
	// KindHeaderMismatch: a .nodes header count (NumNodes, NumTerminals)
	// disagreed with the observed count, or a node's explicit "terminal"
	// tag disagreed with its header-derived fixed status. Warning;
	// parsing continues with the observed count. The .nets NumNets and
	// NumPins headers are stored on the Design but not compared with the
	// observed nets and pins.
	KindHeaderMismatch
	// KindCellExceedsCore: a movable cell is wider or taller than the
	// core span in that axis. Warning; the clipper pins it to the
	// boundary.
	KindCellExceedsCore
	// KindSolverFailed: neither Cholesky nor the CG fallback produced a
	// usable solution (non-finite RHS, or CG failed to converge). Fatal,
	// no output is written.
	KindSolverFailed
)

func (k Kind) String() string {
	switch k {
	case KindMissingInput:
		return "missing-input"
	case KindMalformedRecord:
		return "malformed-record"
	case KindDanglingPin:
		return "dangling-pin"
	case KindHeaderMismatch:
		return "header-mismatch"
	case KindCellExceedsCore:
		return "cell-exceeds-core"
	case KindSolverFailed:
		return "solver-failed"
	default:
		return "unknown"
	}
}

// Error is a tagged pipeline failure or warning, carrying the file and
// line number where meaningful (spec §7: "each surfaces with file, line
// number where meaningful").
type Error struct {
	Kind Kind
	File string
	Line int
	Err  error
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s:%d: %v", e.Kind, e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.File, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newFatal builds a fatal *Error wrapping err with file/line context via
// github.com/pkg/errors, matching the wrapping style the teacher uses in
// encoding/fasta/fasta.go.
func newFatal(kind Kind, file string, line int, err error) *Error {
	return &Error{
		Kind: kind,
		File: file,
		Line: line,
		Err:  errors.WithStack(err),
	}
}

// WarningSink accumulates non-fatal Errors (header-mismatch,
// cell-exceeds-core) across a parse or clip pass without aborting it,
// mirroring the teacher's use of multierror.MultiError in
// encoding/bampair/distant_mates.go for collecting independent failures
// from concurrent shard workers. Here the accumulation is sequential, but
// the container and its ErrorOrNil() reporting convention are the same.
type WarningSink struct {
	errs     *multierror.MultiError
	warnings []error
}

// NewWarningSink returns a ready-to-use sink.
func NewWarningSink() *WarningSink {
	return &WarningSink{errs: multierror.NewMultiError(0)}
}

// Warn records a non-fatal Error of the given kind.
func (s *WarningSink) Warn(kind Kind, file string, line int, err error) {
	w := &Error{Kind: kind, File: file, Line: line, Err: err}
	s.warnings = append(s.warnings, w)
	s.errs.Add(w)
}

// Warnings returns the accumulated warnings in the order recorded, or nil
// if there were none.
func (s *WarningSink) Warnings() []error {
	return s.warnings
}

// Aggregate returns the combined multierror.MultiError, or nil if no
// warning was recorded. Callers that want a single error value to log
// (rather than the full slice from Warnings) use this.
func (s *WarningSink) Aggregate() error {
	return s.errs.ErrorOrNil()
}
