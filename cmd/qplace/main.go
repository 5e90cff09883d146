// qplace computes an analytic initial placement for a Bookshelf-format
// ASIC design: it reads the five (or six, with .wts) input files in a
// design directory, builds and solves the quadratic placement system,
// clips movable cells back inside the core, and writes a
// "<design>_initial.pl" placement.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/qplace/qplace"
	"github.com/qplace/qplace/bookshelf"
	"github.com/qplace/qplace/cmd/qplace/plot"
)

var (
	output     string
	visualize  bool
	strictMode = flag.Bool("strict", false, "Treat Bookshelf header-count mismatches as fatal instead of warning")
)

func init() {
	const outputUsage = "Output directory (default: the input design directory)"
	flag.StringVar(&output, "o", "", outputUsage)
	flag.StringVar(&output, "output", "", outputUsage)

	const visualizeUsage = "Write a PNG visualization of the final placement alongside the output .pl file"
	flag.BoolVar(&visualize, "v", false, visualizeUsage)
	flag.BoolVar(&visualize, "visualize", false, visualizeUsage)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <design-directory>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("exactly one positional argument (the design directory) is required")
	}
	inputDir := flag.Arg(0)

	ctx := vcontext.Background()
	out, err := qplace.Run(ctx, inputDir, output, qplace.Options{StrictMode: *strictMode})
	if err != nil {
		if be, ok := err.(*bookshelf.Error); ok {
			log.Fatalf("%s: %v", be.Kind, be)
		}
		log.Fatalf("%v", err)
	}

	for _, w := range out.Warnings {
		log.Error.Printf("%v", w)
	}

	fmt.Println(out.Report.String())
	log.Printf("parse=%s solve=%s legalize=%s write=%s",
		out.Timings.Parse, out.Timings.Solve, out.Timings.Legalize, out.Timings.Write)

	if visualize {
		outputDir := output
		if outputDir == "" {
			outputDir = inputDir
		}
		pngPath := filepath.Join(outputDir, out.Design.Name+"_initial.png")
		if err := plot.WritePNG(pngPath, out.Design); err != nil {
			log.Error.Printf("visualization failed: %v", err)
		}
	}

	log.Debug.Printf("exiting")
}
