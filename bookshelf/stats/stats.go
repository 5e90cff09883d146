package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/grailbio/base/tsv"
	"github.com/qplace/qplace/bookshelf"
)

// DegreeHistogram buckets net pin-degree counts per spec §4.2.
type DegreeHistogram struct {
	Two         int // degree == 2
	ThreeToTen  int // 3 <= degree <= 10
	ElevenTo100 int // 11 <= degree <= 100
	Over100     int // degree > 100
}

// Metrics is the Statistics Collector's output: the aggregate table in
// spec §4.2, computed as pure functions over a frozen Design.
type Metrics struct {
	CoreArea        float64
	CellArea        int
	MovableArea     int
	FixedArea       int
	FixedAreaInCore int
	PlacementUtil   float64 // NaN if the denominator is <= 0 ("undefined" per spec §4.2)
	CoreDensity     float64
	MaxNetDegree    int
	DegreeHistogram DegreeHistogram
}

// Collect computes Metrics from design. design must already have its core
// region and node positions populated (i.e. be the output of
// bookshelf.Reader.Read, at any pipeline stage — these metrics don't
// depend on the quadratic solve).
func Collect(design *bookshelf.Design) Metrics {
	var m Metrics

	m.CoreArea = design.Core.Area()

	for _, n := range design.Movable {
		m.CellArea += n.Area()
	}
	m.MovableArea = m.CellArea

	for _, n := range design.Fixed {
		area := n.Area()
		m.FixedArea += area
		if design.Core.Contains(n.X, n.Y) {
			m.FixedAreaInCore += area
		}
	}

	denom := m.CoreArea - float64(m.FixedAreaInCore)
	if denom > 0 {
		m.PlacementUtil = float64(m.MovableArea) / denom
	} else {
		m.PlacementUtil = math.NaN()
	}
	if m.CoreArea > 0 {
		m.CoreDensity = float64(m.MovableArea+m.FixedAreaInCore) / m.CoreArea
	} else {
		m.CoreDensity = math.NaN()
	}

	for _, net := range design.Nets {
		d := net.Degree()
		if d > m.MaxNetDegree {
			m.MaxNetDegree = d
		}
		switch {
		case d == 2:
			m.DegreeHistogram.Two++
		case d >= 3 && d <= 10:
			m.DegreeHistogram.ThreeToTen++
		case d >= 11 && d <= 100:
			m.DegreeHistogram.ElevenTo100++
		case d > 100:
			m.DegreeHistogram.Over100++
		}
	}

	return m
}

// FormatArea renders an area as an integer with a parenthesized
// 5-significant-digit scientific notation, per spec §4.2's "areas as
// integers with an additional scientific-notation rendering (5
// significant digits)".
func FormatArea(area float64) string {
	return fmt.Sprintf("%d (%.4e)", int64(area), area)
}

// FormatPercent renders a ratio as a percentage to two decimals. NaN
// (an undefined ratio, per spec §4.2) renders as "undefined".
func FormatPercent(ratio float64) string {
	if math.IsNaN(ratio) {
		return "undefined"
	}
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// WriteTSV renders the net pin-degree histogram and the area table as a
// tab-separated table, in the style of the teacher's
// encoding/fasta/index.go GenerateIndex (tsv.Writer with
// WriteString/WriteInt64/EndLine).
func (m Metrics) WriteTSV(w io.Writer) error {
	out := tsv.NewWriter(w)

	out.WriteString("metric")
	out.WriteString("value")
	if err := out.EndLine(); err != nil {
		return err
	}

	rows := []struct {
		name  string
		value int64
	}{
		{"core_area", int64(m.CoreArea)},
		{"cell_area", int64(m.CellArea)},
		{"movable_area", int64(m.MovableArea)},
		{"fixed_area", int64(m.FixedArea)},
		{"fixed_area_in_core", int64(m.FixedAreaInCore)},
		{"max_net_degree", int64(m.MaxNetDegree)},
		{"nets_degree_2", int64(m.DegreeHistogram.Two)},
		{"nets_degree_3_10", int64(m.DegreeHistogram.ThreeToTen)},
		{"nets_degree_11_100", int64(m.DegreeHistogram.ElevenTo100)},
		{"nets_degree_over_100", int64(m.DegreeHistogram.Over100)},
	}
	for _, r := range rows {
		out.WriteString(r.name)
		out.WriteInt64(r.value)
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}
