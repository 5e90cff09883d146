package bookshelf

import (
	"fmt"
	"strconv"
	"strings"

	farm "github.com/dgryski/go-farm"
)

// Orientation is the cell/terminal orientation tag carried by a .pl
// record. Only N (the default for movable cells) and F-prefixed tags
// commonly appear in practice; F itself (rather than FN) is accepted as a
// bare fixed-marker some Bookshelf writers emit in place of "/FIXED".
type Orientation string

const (
	OrientN  Orientation = "N"
	OrientS  Orientation = "S"
	OrientE  Orientation = "E"
	OrientW  Orientation = "W"
	OrientFN Orientation = "FN"
	OrientFS Orientation = "FS"
	OrientFE Orientation = "FE"
	OrientFW Orientation = "FW"
	OrientF  Orientation = "F"
)

// Node is one physical object: a movable standard cell or a fixed
// terminal.
type Node struct {
	Name        string
	Width       int
	Height      int
	X, Y        float64
	Orientation Orientation
	IsFixed     bool
}

// Area returns Width*Height.
func (n *Node) Area() int {
	return n.Width * n.Height
}

// Direction is a pin's signal direction, as declared in a .nets pin
// record.
type Direction string

const (
	DirIn    Direction = "I"
	DirOut   Direction = "O"
	DirInOut Direction = "B"
)

// Pin is one occurrence of a node on a net. Offsets are parsed from the
// optional ": <dx> <dy>" suffix of a .nets pin record but, per the
// reference implementation this format is distilled from, are not
// otherwise consumed: the clique model in package qsolve treats every
// pin as located at its node's position.
type Pin struct {
	Node      *Node
	Direction Direction
	OffsetX   float64
	OffsetY   float64
	HasOffset bool
}

// Net is one hyperedge: an ordered list of pins sharing a signal.
type Net struct {
	Name string
	Pins []Pin
}

// Degree returns the number of pins on the net.
func (n *Net) Degree() int {
	return len(n.Pins)
}

// Row is one horizontal placement row, as declared by a CoreRow block in
// a .scl file.
type Row struct {
	Y         float64
	Height    float64
	XOrigin   float64
	NumSites  int
	SiteWidth float64
}

// MaxX returns the row's right extent: XOrigin + NumSites*SiteWidth.
func (r Row) MaxX() float64 {
	return r.XOrigin + float64(r.NumSites)*r.SiteWidth
}

// MaxY returns the row's top extent: Y + Height.
func (r Row) MaxY() float64 {
	return r.Y + r.Height
}

// CoreRegion is the axis-aligned hull of every row's extent.
type CoreRegion struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns MaxX - MinX + 1, per the Bookshelf convention of
// inclusive integer coordinates (spec §4.2's core_area definition).
func (c CoreRegion) Width() float64 {
	return c.MaxX - c.MinX + 1
}

// Height returns MaxY - MinY + 1.
func (c CoreRegion) Height() float64 {
	return c.MaxY - c.MinY + 1
}

// Area returns Width()*Height().
func (c CoreRegion) Area() float64 {
	return c.Width() * c.Height()
}

// Contains reports whether (x, y) lies within the closed core rectangle.
func (c CoreRegion) Contains(x, y float64) bool {
	return x >= c.MinX && x <= c.MaxX && y >= c.MinY && y <= c.MaxY
}

// Design is the frozen netlist model produced by Read. Node iteration
// order (NodeOrder) is always .nodes declaration order; Movable's order
// is the matrix row/column order the quadratic solver depends on for
// reproducibility (spec §5, "Ordering").
type Design struct {
	Name string

	// NodeOrder holds every node (movable and fixed) in .nodes
	// declaration order; this is also the order the Placement Writer
	// emits in.
	NodeOrder []*Node

	// Movable holds only the movable nodes, in declaration order. Its
	// index is the row/column index of that node in the quadratic
	// system's matrix.
	Movable []*Node

	// Fixed holds only the fixed nodes (terminals, or nodes promoted to
	// fixed by a /FIXED .pl record), in declaration order.
	Fixed []*Node

	// byName indexes every node by name for O(1) pin resolution.
	byName map[string]*Node

	// movableIndex maps a movable node's name to its row/column index in
	// Movable.
	movableIndex map[string]int

	Nets []*Net
	Rows []Row
	Core CoreRegion

	// DeclaredNodes and DeclaredTerminals are the .nodes header counts,
	// kept alongside the observed counts in NodeOrder/Fixed for the
	// count-consistency property (spec §8) and for header-mismatch
	// warning reporting (spec §7).
	DeclaredNodes     int
	DeclaredTerminals int
	DeclaredNets      int
	DeclaredPins      int

	// netWeights holds .wts overrides, keyed by net name. A net absent
	// here uses the default weight of 1 (spec §4.3, resolved per
	// SPEC_FULL.md §3 as an override rather than an additive term).
	netWeights Weights
}

// NetWeight returns the weight to use for net in the quadratic system
// builder: the .wts override if one was parsed, otherwise the default of
// 1.
func (d *Design) NetWeight(net *Net) float64 {
	if d.netWeights != nil {
		if w, ok := d.netWeights[net.Name]; ok {
			return w
		}
	}
	return 1
}

// NewDesign returns an empty Design ready for incremental population by a
// Reader.
func NewDesign(name string) *Design {
	return &Design{
		Name:         name,
		byName:       make(map[string]*Node),
		movableIndex: make(map[string]int),
	}
}

// Node returns the node with the given name, or nil if none exists.
func (d *Design) Node(name string) *Node {
	return d.byName[name]
}

// AddNode registers a node in declaration order and indexes it by name.
// Callers must set node.IsFixed before calling AddNode so it lands in the
// correct sublist; PromoteFixed can move it later (for /FIXED
// promotion during .pl parsing).
func (d *Design) AddNode(n *Node) {
	d.NodeOrder = append(d.NodeOrder, n)
	d.byName[n.Name] = n
	if n.IsFixed {
		d.Fixed = append(d.Fixed, n)
	} else {
		d.movableIndex[n.Name] = len(d.Movable)
		d.Movable = append(d.Movable, n)
	}
}

// PromoteFixed moves a node from Movable to Fixed in place, used when a
// .pl record's /FIXED suffix overrides the movable/terminal split derived
// from .nodes (spec §4.1 step 4). It is a no-op if the node is already
// fixed. Movable indices of nodes after the promoted one shift down by
// one; movableIndex is rebuilt to stay consistent.
func (d *Design) PromoteFixed(name string) {
	n, ok := d.byName[name]
	if !ok || n.IsFixed {
		return
	}
	n.IsFixed = true
	idx, ok := d.movableIndex[name]
	if !ok {
		return
	}
	d.Movable = append(d.Movable[:idx], d.Movable[idx+1:]...)
	delete(d.movableIndex, name)
	for i := idx; i < len(d.Movable); i++ {
		d.movableIndex[d.Movable[i].Name] = i
	}
	d.Fixed = d.Fixed[:0]
	for _, m := range d.NodeOrder {
		if m.IsFixed {
			d.Fixed = append(d.Fixed, m)
		}
	}
}

// MovableIndex returns the matrix row/column index of the named movable
// node, and whether it is currently movable.
func (d *Design) MovableIndex(name string) (int, bool) {
	i, ok := d.movableIndex[name]
	return i, ok
}

// NumMovable returns len(Movable).
func (d *Design) NumMovable() int {
	return len(d.Movable)
}

// String renders a short human-readable summary, used in log lines and
// error messages.
func (d *Design) String() string {
	return fmt.Sprintf("Design(%s: %d nodes, %d movable, %d fixed, %d nets)",
		d.Name, len(d.NodeOrder), len(d.Movable), len(d.Fixed), len(d.Nets))
}

// Fingerprint returns a FarmHash digest of every node's name, fixed
// status, and current position, in NodeOrder. It is a cheap way to
// compare two parses of the same design for the round-trip property
// (spec §8) without a full structural diff, grounded on fusion/
// kmer_index.go's use of farm.Hash64 for sequence-keyed digests.
func (d *Design) Fingerprint() uint64 {
	var b strings.Builder
	for _, n := range d.NodeOrder {
		b.WriteString(n.Name)
		b.WriteByte('\t')
		b.WriteString(strconv.FormatFloat(n.X, 'f', 6, 64))
		b.WriteByte('\t')
		b.WriteString(strconv.FormatFloat(n.Y, 'f', 6, 64))
		b.WriteByte('\t')
		if n.IsFixed {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
		b.WriteByte('\n')
	}
	return farm.Hash64([]byte(b.String()))
}
