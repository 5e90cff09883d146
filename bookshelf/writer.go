package bookshelf

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

// Write serializes design's current node positions to path as a
// Bookshelf .pl file (spec §4.6): the "UCLA pl 1.0" banner, a timestamped
// comment header, then one record per node in .nodes declaration order.
// Fixed nodes keep their parsed orientation and carry a "/FIXED" suffix;
// movable nodes are written with orientation N.
func Write(ctx context.Context, path string, design *Design, now time.Time) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return &Error{Kind: KindMissingInput, File: path, Err: errors.WithStack(err)}
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil && err == nil {
			err = &Error{Kind: KindMalformedRecord, File: path, Err: errors.WithStack(cerr)}
		}
	}()

	w := bufio.NewWriter(f.Writer(ctx))
	fmt.Fprintf(w, "UCLA pl 1.0\n")
	fmt.Fprintf(w, "# Generated by qplace\n")
	fmt.Fprintf(w, "# Date: %s\n\n", now.Format("2006-01-02 15:04:05"))

	for _, n := range design.NodeOrder {
		orient := n.Orientation
		suffix := ""
		if n.IsFixed {
			if orient == "" {
				orient = OrientN
			}
			suffix = " /FIXED"
		} else {
			orient = OrientN
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t: %s%s\n", n.Name, n.X, n.Y, orient, suffix)
	}
	return w.Flush()
}
