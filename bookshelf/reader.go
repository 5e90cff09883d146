package bookshelf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Reader parses a Bookshelf design directory into a Design. The zero
// value is a lenient reader (header-count mismatches are warnings); use
// StrictMode to make them fatal instead, per the "strict mode and a
// lenient mode" collapse called for by spec §9 in place of the
// originals' several near-duplicate parser implementations.
type Reader struct {
	// StrictMode, when true, turns a header-count mismatch
	// (KindHeaderMismatch) into a fatal error instead of a warning.
	StrictMode bool

	// Warnings, if non-nil, receives every non-fatal warning raised
	// during Read. Callers that don't care can leave it nil.
	Warnings *WarningSink
}

// Read parses the five (or six, with .wts) Bookshelf files describing
// the design in directory and returns the populated Design. directory's
// base name is used both to locate <basename>.aux and as Design.Name.
func (rd *Reader) Read(ctx context.Context, directory string) (*Design, error) {
	warnings := rd.Warnings
	if warnings == nil {
		warnings = NewWarningSink()
	}
	basename := filepath.Base(strings.TrimRight(directory, string(filepath.Separator)))

	paths, err := rd.resolveFileNames(ctx, directory, basename)
	if err != nil {
		return nil, err
	}

	design := NewDesign(basename)

	if err := rd.parseNodes(ctx, paths.nodes, design, warnings); err != nil {
		return nil, err
	}
	if err := rd.parseNets(ctx, paths.nets, design); err != nil {
		return nil, err
	}
	if err := rd.parseSCL(ctx, paths.scl, design); err != nil {
		return nil, err
	}
	if err := rd.parsePL(ctx, paths.pl, design, warnings); err != nil {
		return nil, err
	}
	if paths.wts != "" {
		if err := rd.parseWTS(ctx, paths.wts, design); err != nil {
			return nil, err
		}
	}
	return design, nil
}

type filePaths struct {
	nodes, nets, wts, pl, scl string
}

// resolveFileNames implements spec §4.1 step 1: read <basename>.aux for
// the real file names, falling back to the "<basename>.<ext>" convention
// when the .aux file is missing or doesn't parse as expected.
func (rd *Reader) resolveFileNames(ctx context.Context, directory, basename string) (filePaths, error) {
	fallback := filePaths{
		nodes: filepath.Join(directory, basename+".nodes"),
		nets:  filepath.Join(directory, basename+".nets"),
		wts:   filepath.Join(directory, basename+".wts"),
		pl:    filepath.Join(directory, basename+".pl"),
		scl:   filepath.Join(directory, basename+".scl"),
	}

	auxPath := filepath.Join(directory, basename+".aux")
	r, closeFn, err := openMaybeCompressed(ctx, auxPath)
	if err != nil {
		// Missing .aux is not itself fatal: the convention fallback may
		// still produce a valid design.
		return fallback, nil
	}
	defer closeFn()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, "RowBasedPlacement") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return fallback, nil
		}
		fields := strings.Fields(parts[1])
		if len(fields) < 5 {
			return fallback, nil
		}
		return filePaths{
			nodes: filepath.Join(directory, fields[0]),
			nets:  filepath.Join(directory, fields[1]),
			wts:   filepath.Join(directory, fields[2]),
			pl:    filepath.Join(directory, fields[3]),
			scl:   filepath.Join(directory, fields[4]),
		}, nil
	}
	return fallback, nil
}

// openMaybeCompressed opens path via github.com/grailbio/base/file and
// transparently gzip-decodes it if the path ends in ".gz", matching the
// layering in the teacher's encoding/fastq/downsample.go. The returned
// close function releases both the gzip reader (if any) and the
// underlying file.File, satisfying spec §5's "guaranteed release on all
// exit paths".
func openMaybeCompressed(ctx context.Context, path string) (io.Reader, func() error, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, &Error{Kind: KindMissingInput, File: path, Err: errors.WithStack(err)}
	}
	base := f.Reader(ctx)
	if !strings.HasSuffix(path, ".gz") {
		return base, func() error { return f.Close(ctx) }, nil
	}
	gz, err := gzip.NewReader(base)
	if err != nil {
		_ = f.Close(ctx)
		return nil, nil, &Error{Kind: KindMalformedRecord, File: path, Err: errors.WithStack(err)}
	}
	return gz, func() error {
		gz.Close()
		return f.Close(ctx)
	}, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// parseIntHeader parses a "Key : <int>" style header line, returning ok
// == false if the line doesn't match key.
func parseIntHeader(line, key string) (int, bool, error) {
	if !strings.HasPrefix(line, key) {
		return 0, false, nil
	}
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return 0, true, fmt.Errorf("malformed header %q", line)
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}

// ---- .nodes -----------------------------------------------------------

func (rd *Reader) parseNodes(ctx context.Context, path string, design *Design, warnings *WarningSink) error {
	r, closeFn, err := openMaybeCompressed(ctx, path)
	if err != nil {
		return err
	}
	defer closeFn()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)

	var declaredNodes, declaredTerminals int
	haveNodes, haveTerminals := false, false
	lineNo := 0
	var movableCount int

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "UCLA nodes") {
			continue
		}
		if v, ok, perr := parseIntHeader(line, "NumNodes"); ok {
			if perr != nil {
				return newFatal(KindMalformedRecord, path, lineNo, perr)
			}
			declaredNodes, haveNodes = v, true
			continue
		}
		if v, ok, perr := parseIntHeader(line, "NumTerminals"); ok {
			if perr != nil {
				return newFatal(KindMalformedRecord, path, lineNo, perr)
			}
			declaredTerminals, haveTerminals = v, true
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return newFatal(KindMalformedRecord, path, lineNo, fmt.Errorf("expected \"<name> <width> <height>\", got %q", line))
		}
		width, err := strconv.Atoi(fields[1])
		if err != nil {
			return newFatal(KindMalformedRecord, path, lineNo, err)
		}
		height, err := strconv.Atoi(fields[2])
		if err != nil {
			return newFatal(KindMalformedRecord, path, lineNo, err)
		}
		explicitTerminal := len(fields) >= 4 && fields[3] == "terminal"

		// The first (declaredNodes - declaredTerminals) declarations are
		// movable; the remainder are fixed terminals, per spec §4.1 step
		// 2. If the header counts were never seen (malformed/absent),
		// fall back to trusting only the explicit "terminal" token.
		var isFixed bool
		if haveNodes && haveTerminals {
			isFixed = movableCount >= declaredNodes-declaredTerminals
		} else {
			isFixed = explicitTerminal
		}
		if haveNodes && haveTerminals && explicitTerminal != isFixed {
			warnings.Warn(KindHeaderMismatch, path, lineNo,
				fmt.Errorf("node %q: explicit terminal tag disagrees with position-derived fixed status", fields[0]))
		}
		if !isFixed {
			movableCount++
		}

		design.AddNode(&Node{
			Name:        fields[0],
			Width:       width,
			Height:      height,
			IsFixed:     isFixed,
			Orientation: OrientN,
		})
	}
	if err := scanner.Err(); err != nil {
		return newFatal(KindMalformedRecord, path, lineNo, err)
	}

	design.DeclaredNodes = declaredNodes
	design.DeclaredTerminals = declaredTerminals

	observedNodes := len(design.NodeOrder)
	observedTerminals := len(design.Fixed)
	if haveNodes && declaredNodes != observedNodes {
		msg := fmt.Errorf("NumNodes declared %d, observed %d", declaredNodes, observedNodes)
		if rd.StrictMode {
			return newFatal(KindHeaderMismatch, path, 0, msg)
		}
		warnings.Warn(KindHeaderMismatch, path, 0, msg)
	}
	if haveTerminals && declaredTerminals != observedTerminals {
		msg := fmt.Errorf("NumTerminals declared %d, observed %d", declaredTerminals, observedTerminals)
		if rd.StrictMode {
			return newFatal(KindHeaderMismatch, path, 0, msg)
		}
		warnings.Warn(KindHeaderMismatch, path, 0, msg)
	}
	return nil
}

// ---- .nets --------------------------------------------------------------

func (rd *Reader) parseNets(ctx context.Context, path string, design *Design) error {
	r, closeFn, err := openMaybeCompressed(ctx, path)
	if err != nil {
		return err
	}
	defer closeFn()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)

	var declaredNets, declaredPins int
	lineNo := 0

	var current *Net
	flush := func() {
		if current != nil {
			design.Nets = append(design.Nets, current)
		}
		current = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "UCLA nets") {
			continue
		}
		if v, ok, perr := parseIntHeader(line, "NumNets"); ok {
			if perr != nil {
				return newFatal(KindMalformedRecord, path, lineNo, perr)
			}
			declaredNets = v
			continue
		}
		if v, ok, perr := parseIntHeader(line, "NumPins"); ok {
			if perr != nil {
				return newFatal(KindMalformedRecord, path, lineNo, perr)
			}
			declaredPins = v
			continue
		}
		if strings.HasPrefix(line, "NetDegree") {
			flush()
			parts := strings.SplitN(line, ":", 2)
			if len(parts) != 2 {
				return newFatal(KindMalformedRecord, path, lineNo, fmt.Errorf("malformed NetDegree line %q", line))
			}
			fields := strings.Fields(parts[1])
			if len(fields) < 1 {
				return newFatal(KindMalformedRecord, path, lineNo, fmt.Errorf("malformed NetDegree line %q", line))
			}
			degree, err := strconv.Atoi(fields[0])
			if err != nil {
				return newFatal(KindMalformedRecord, path, lineNo, err)
			}
			name := fmt.Sprintf("net_%d", len(design.Nets))
			if len(fields) > 1 {
				name = fields[1]
			}
			current = &Net{Name: name, Pins: make([]Pin, 0, degree)}
			continue
		}

		// Pin record: "<nodename> <dir>[ : <dx> <dy>]".
		if current == nil {
			return newFatal(KindMalformedRecord, path, lineNo, fmt.Errorf("pin record %q outside any NetDegree block", line))
		}
		head := line
		var offX, offY float64
		hasOffset := false
		if idx := strings.Index(line, ":"); idx >= 0 {
			head = strings.TrimSpace(line[:idx])
			tail := strings.Fields(line[idx+1:])
			if len(tail) >= 2 {
				var perr error
				offX, perr = strconv.ParseFloat(tail[0], 64)
				if perr != nil {
					return newFatal(KindMalformedRecord, path, lineNo, perr)
				}
				offY, perr = strconv.ParseFloat(tail[1], 64)
				if perr != nil {
					return newFatal(KindMalformedRecord, path, lineNo, perr)
				}
				hasOffset = true
			}
		}
		fields := strings.Fields(head)
		if len(fields) < 1 {
			return newFatal(KindMalformedRecord, path, lineNo, fmt.Errorf("malformed pin record %q", line))
		}
		node := design.Node(fields[0])
		if node == nil {
			return newFatal(KindDanglingPin, path, lineNo, fmt.Errorf("pin references unknown node %q", fields[0]))
		}
		dir := DirIn
		if len(fields) > 1 {
			dir = Direction(fields[1])
		}
		current.Pins = append(current.Pins, Pin{
			Node:      node,
			Direction: dir,
			OffsetX:   offX,
			OffsetY:   offY,
			HasOffset: hasOffset,
		})
	}
	flush()
	if err := scanner.Err(); err != nil {
		return newFatal(KindMalformedRecord, path, lineNo, err)
	}

	design.DeclaredNets = declaredNets
	design.DeclaredPins = declaredPins
	return nil
}

// ---- .pl ------------------------------------------------------------------

func (rd *Reader) parsePL(ctx context.Context, path string, design *Design, warnings *WarningSink) error {
	r, closeFn, err := openMaybeCompressed(ctx, path)
	if err != nil {
		return err
	}
	defer closeFn()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	lineNo := 0
	seenBanner := false

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		if !seenBanner && strings.HasPrefix(line, "UCLA pl") {
			seenBanner = true
			continue
		}
		seenBanner = true

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return newFatal(KindMalformedRecord, path, lineNo, fmt.Errorf("expected \"<name> <x> <y> : <orient>\", got %q", line))
		}
		node := design.Node(fields[0])
		if node == nil {
			// A .pl entry for a node outside the design is a dangling
			// reference by the same rule as a dangling pin.
			return newFatal(KindDanglingPin, path, lineNo, fmt.Errorf(".pl references unknown node %q", fields[0]))
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return newFatal(KindMalformedRecord, path, lineNo, err)
		}
		y, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return newFatal(KindMalformedRecord, path, lineNo, err)
		}
		node.X, node.Y = x, y

		orient := OrientN
		fixedSuffix := false
		for _, f := range fields[3:] {
			f = strings.TrimPrefix(f, ":")
			if f == "" {
				continue
			}
			if f == "/FIXED" {
				fixedSuffix = true
				continue
			}
			orient = Orientation(f)
		}
		node.Orientation = orient
		if fixedSuffix || orient == OrientF {
			design.PromoteFixed(node.Name)
			node.IsFixed = true
		}
	}
	if err := scanner.Err(); err != nil {
		return newFatal(KindMalformedRecord, path, lineNo, err)
	}
	_ = warnings
	return nil
}

// ---- .scl -------------------------------------------------------------

func (rd *Reader) parseSCL(ctx context.Context, path string, design *Design) error {
	r, closeFn, err := openMaybeCompressed(ctx, path)
	if err != nil {
		return err
	}
	defer closeFn()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	lineNo := 0

	var cur Row
	inRow := false
	haveMin, haveMax := false, false
	var minX, minY, maxX, maxY float64

	commit := func() {
		if !inRow {
			return
		}
		design.Rows = append(design.Rows, cur)
		x0 := cur.XOrigin
		y0 := cur.Y
		x1 := cur.XOrigin + float64(cur.NumSites)*cur.SiteWidth - 1
		y1 := cur.Y + cur.Height - 1
		if !haveMin || x0 < minX {
			minX = x0
		}
		if !haveMin || y0 < minY {
			minY = y0
		}
		if !haveMax || x1 > maxX {
			maxX = x1
		}
		if !haveMax || y1 > maxY {
			maxY = y1
		}
		haveMin, haveMax = true, true
		cur = Row{}
		inRow = false
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}
		if _, ok, perr := parseIntHeader(line, "NumRows"); ok {
			if perr != nil {
				return newFatal(KindMalformedRecord, path, lineNo, perr)
			}
			continue
		}
		if strings.HasPrefix(line, "CoreRow Horizontal") {
			commit()
			inRow = true
			continue
		}
		if strings.HasPrefix(line, "End") {
			commit()
			continue
		}
		if !inRow {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Coordinate"):
			v, err := sclFloatField(line)
			if err != nil {
				return newFatal(KindMalformedRecord, path, lineNo, err)
			}
			cur.Y = v
		case strings.HasPrefix(line, "Height"):
			v, err := sclFloatField(line)
			if err != nil {
				return newFatal(KindMalformedRecord, path, lineNo, err)
			}
			cur.Height = v
		case strings.HasPrefix(line, "Sitewidth"):
			v, err := sclFloatField(line)
			if err != nil {
				return newFatal(KindMalformedRecord, path, lineNo, err)
			}
			cur.SiteWidth = v
		case strings.HasPrefix(line, "SubrowOrigin"):
			x, n, err := parseSubrowOrigin(line)
			if err != nil {
				return newFatal(KindMalformedRecord, path, lineNo, err)
			}
			cur.XOrigin = x
			cur.NumSites = n
		}
	}
	commit()
	if err := scanner.Err(); err != nil {
		return newFatal(KindMalformedRecord, path, lineNo, err)
	}

	if haveMin && haveMax {
		design.Core = CoreRegion{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	}
	return nil
}

func sclFloatField(line string) (float64, error) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed .scl field %q", line)
	}
	return strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
}

// parseSubrowOrigin parses "SubrowOrigin : <x>  NumSites : <n>".
func parseSubrowOrigin(line string) (x float64, numSites int, err error) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("malformed SubrowOrigin line %q", line)
	}
	xFields := strings.Fields(parts[1])
	if len(xFields) < 1 {
		return 0, 0, fmt.Errorf("malformed SubrowOrigin line %q", line)
	}
	x, err = strconv.ParseFloat(xFields[0], 64)
	if err != nil {
		return 0, 0, err
	}
	nFields := strings.Fields(parts[2])
	if len(nFields) < 1 {
		return 0, 0, fmt.Errorf("malformed SubrowOrigin line %q", line)
	}
	numSites, err = strconv.Atoi(nFields[0])
	if err != nil {
		return 0, 0, err
	}
	return x, numSites, nil
}

// ---- .wts -------------------------------------------------------------

// Weights holds per-net weight overrides parsed from a .wts file. A net
// absent from the map keeps the default weight of 1 (spec §4.3).
type Weights map[string]float64

// parseWTS parses "<netname> <weight>" records. Entries naming a node
// rather than a net (the format permits both, per spec §6) are ignored:
// qsolve's clique model only consumes net weights.
func (rd *Reader) parseWTS(ctx context.Context, path string, design *Design) error {
	r, closeFn, err := openMaybeCompressed(ctx, path)
	if err != nil {
		if isMissingInput(err) {
			// .wts is optional (spec §4.1 step 7).
			return nil
		}
		return err
	}
	defer closeFn()

	byName := make(map[string]*Net, len(design.Nets))
	for _, n := range design.Nets {
		byName[n.Name] = n
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	weights := make(Weights)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return newFatal(KindMalformedRecord, path, lineNo, fmt.Errorf("expected \"<name> <weight>\", got %q", line))
		}
		w, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return newFatal(KindMalformedRecord, path, lineNo, err)
		}
		if _, ok := byName[fields[0]]; ok {
			weights[fields[0]] = w
		}
	}
	if err := scanner.Err(); err != nil {
		return newFatal(KindMalformedRecord, path, lineNo, err)
	}
	design.netWeights = weights
	return nil
}

func isMissingInput(err error) bool {
	var be *Error
	if ok := errorsAsError(err, &be); ok {
		return be.Kind == KindMissingInput
	}
	return false
}

// errorsAsError is a tiny local shim over errors.As, kept in this file so
// reader.go doesn't need a second error-handling import line per call
// site.
func errorsAsError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
