// Package qplace orchestrates the analytic initial-placement pipeline:
// Reader -> Statistics -> Quadratic System Builder -> Sparse Solver ->
// Boundary Clipper -> Placement Writer (spec §2, §5). The core runs
// single-threaded and cooperative at the pipeline-stage level; the
// only parallelism is inside qsolve.Solve, between the independent x
// and y systems.
package qplace

import (
	"context"
	"path/filepath"
	"time"

	"github.com/qplace/qplace/bookshelf"
	"github.com/qplace/qplace/bookshelf/stats"
	"github.com/qplace/qplace/legalize"
	"github.com/qplace/qplace/qsolve"
)

// Timings records wall-clock duration per pipeline stage, surfaced
// alongside the result so the CLI can print them (SPEC_FULL.md §3,
// grounded on initial_placement_fixed.py's parse_time/qp_time/
// legalize_time instrumentation).
type Timings struct {
	Parse    time.Duration
	Solve    time.Duration
	Legalize time.Duration
	Write    time.Duration
}

// Output bundles everything a caller needs to report on one run: the
// final Design, the report (wirelength from before the clip,
// out-of-bounds count from after it), the
// aggregate Metrics, any non-fatal warnings collected along the way,
// and the per-stage Timings.
type Output struct {
	Design   *bookshelf.Design
	Report   stats.Report
	Metrics  stats.Metrics
	Warnings []error
	Timings  Timings
}

// Options configures one Run.
type Options struct {
	// StrictMode turns a header-count mismatch into a fatal error
	// instead of a warning (see bookshelf.Reader.StrictMode).
	StrictMode bool
}

// Run executes the full pipeline over the Bookshelf design directory at
// inputDir and writes the resulting placement to outputDir (or inputDir
// if outputDir is empty), using the "<design>_initial.pl" naming
// convention of spec §6.
func Run(ctx context.Context, inputDir, outputDir string, opts Options) (Output, error) {
	warnings := bookshelf.NewWarningSink()

	reader := &bookshelf.Reader{StrictMode: opts.StrictMode, Warnings: warnings}

	parseStart := time.Now()
	design, err := reader.Read(ctx, inputDir)
	if err != nil {
		return Output{}, err
	}
	parseElapsed := time.Since(parseStart)

	solveStart := time.Now()
	result, err := qsolve.Solve(ctx, design)
	if err != nil {
		return Output{}, err
	}
	solveElapsed := time.Since(solveStart)

	for i, n := range design.Movable {
		n.X, n.Y = result.X[i], result.Y[i]
	}
	report := stats.Report{
		WirelengthTotal: stats.WirelengthHPWL(design),
		Core:            design.Core,
	}

	legalizeStart := time.Now()
	legalize.Clip(design, result, warnings)
	legalizeElapsed := time.Since(legalizeStart)
	report.OutOfBounds = stats.OutOfBoundsCount(design)

	if outputDir == "" {
		outputDir = inputDir
	}
	outPath := filepath.Join(outputDir, design.Name+"_initial.pl")

	writeStart := time.Now()
	if err := bookshelf.Write(ctx, outPath, design, time.Now()); err != nil {
		return Output{}, err
	}
	writeElapsed := time.Since(writeStart)

	return Output{
		Design:   design,
		Report:   report,
		Metrics:  stats.Collect(design),
		Warnings: warnings.Warnings(),
		Timings: Timings{
			Parse:    parseElapsed,
			Solve:    solveElapsed,
			Legalize: legalizeElapsed,
			Write:    writeElapsed,
		},
	}, nil
}
