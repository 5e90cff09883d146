// Package plot draws a frozen *bookshelf.Design to a PNG: the core
// boundary, fixed nodes in red, movable nodes in blue. It is invoked
// only via the CLI's -v flag and never participates in the solver
// path (spec §9, "Visualization... never inside the solver path").
//
// No repo in the retrieved pack imports a plotting library (the
// natural ecosystem choice would be gonum.org/v1/plot), so this
// renderer is built on the standard image packages instead — see
// DESIGN.md for the justification.
package plot

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/qplace/qplace/bookshelf"
)

const (
	canvasSize = 1024
	margin     = 16
)

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorCore       = color.RGBA{200, 200, 200, 255}
	colorFixed      = color.RGBA{220, 40, 40, 255}
	colorMovable    = color.RGBA{40, 80, 220, 255}
)

// WritePNG renders design's current node positions to path.
func WritePNG(path string, design *bookshelf.Design) error {
	img := image.NewRGBA(image.Rect(0, 0, canvasSize, canvasSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colorBackground}, image.Point{}, draw.Src)

	core := design.Core
	w, h := core.Width(), core.Height()
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}

	project := func(x, y float64) (int, int) {
		px := margin + int((x-core.MinX)/w*float64(canvasSize-2*margin))
		py := margin + int((core.MaxY-y)/h*float64(canvasSize-2*margin))
		return px, py
	}

	x0, y0 := project(core.MinX, core.MinY)
	x1, y1 := project(core.MaxX, core.MaxY)
	drawRectOutline(img, x0, y1, x1, y0, colorCore)

	for _, n := range design.Fixed {
		drawNode(img, n, project, colorFixed)
	}
	for _, n := range design.Movable {
		drawNode(img, n, project, colorMovable)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func drawNode(img *image.RGBA, n *bookshelf.Node, project func(x, y float64) (int, int), c color.RGBA) {
	x0, y0 := project(n.X, n.Y)
	x1, y1 := project(n.X+float64(n.Width), n.Y+float64(n.Height))
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	if x1 == x0 {
		x1 = x0 + 1
	}
	if y1 == y0 {
		y1 = y0 + 1
	}
	rect := image.Rect(clamp(x0), clamp(y0), clamp(x1)+1, clamp(y1)+1)
	draw.Draw(img, rect.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func drawRectOutline(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.Set(clamp(x), clamp(y0), c)
		img.Set(clamp(x), clamp(y1), c)
	}
	for y := y0; y <= y1; y++ {
		img.Set(clamp(x0), clamp(y), c)
		img.Set(clamp(x1), clamp(y), c)
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v >= canvasSize {
		return canvasSize - 1
	}
	return v
}
