package bookshelf_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/qplace/qplace/bookshelf"
)

// newDesignDir returns a fresh temp directory whose basename is "design",
// since Reader.Read resolves its five input files from
// filepath.Base(directory) (reader.go's aux-fallback convention): a
// directory named anything else would send Read looking for
// "<tmp-name>.nodes" and fail with missing-input.
func newDesignDir(t *testing.T) (string, func()) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	dir := filepath.Join(tmp, "design")
	assert.NoError(t, os.Mkdir(dir, 0700))
	return dir, cleanup
}

func writeDesignFiles(t *testing.T, dir, name string, files map[string]string) {
	for ext, content := range files {
		path := filepath.Join(dir, name+ext)
		assert.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
	}
}

// twoPinDesign is boundary scenario 1 from spec §8: one movable cell
// anchored by one fixed terminal.
func twoPinDesign(t *testing.T, dir string) {
	writeDesignFiles(t, dir, "design", map[string]string{
		".nodes": "UCLA nodes 1.0\nNumNodes : 2\nNumTerminals : 1\n" +
			"a 1 1\n" + "t 1 1 terminal\n",
		".nets": "UCLA nets 1.0\nNumNets : 1\nNumPins : 2\n" +
			"NetDegree : 2 n0\na I\nt O\n",
		".pl": "UCLA pl 1.0\n" +
			"a 0 0 : N\n" + "t 10 20 : N /FIXED\n",
		".scl": "UCLA scl 1.0\nNumRows : 1\n" +
			"CoreRow Horizontal\n" +
			"  Coordinate : 0\n" +
			"  Height : 100\n" +
			"  Sitewidth : 1\n" +
			"  Sitespacing : 1\n" +
			"  Siteorient : 1\n" +
			"  Sitesymmetry : 1\n" +
			"  SubrowOrigin : 0  NumSites : 100\n" +
			"End\n",
	})
}

func TestReadTwoPinDesign(t *testing.T) {
	dir, cleanup := newDesignDir(t)
	defer cleanup()
	twoPinDesign(t, dir)

	rd := &bookshelf.Reader{}
	design, err := rd.Read(context.Background(), dir)
	assert.NoError(t, err)

	assert.EQ(t, len(design.Movable), 1)
	assert.EQ(t, len(design.Fixed), 1)
	assert.EQ(t, design.Movable[0].Name, "a")
	assert.EQ(t, design.Fixed[0].Name, "t")
	assert.EQ(t, design.Fixed[0].X, 10.0)
	assert.EQ(t, design.Fixed[0].Y, 20.0)
	assert.EQ(t, len(design.Nets), 1)
	assert.EQ(t, design.Nets[0].Degree(), 2)
	assert.EQ(t, design.Core.MinX, 0.0)
	assert.EQ(t, design.Core.MaxX, 99.0)
	assert.EQ(t, design.Core.MinY, 0.0)
	assert.EQ(t, design.Core.MaxY, 99.0)
}

func TestReadDanglingPinIsFatal(t *testing.T) {
	dir, cleanup := newDesignDir(t)
	defer cleanup()
	writeDesignFiles(t, dir, "design", map[string]string{
		".nodes": "UCLA nodes 1.0\nNumNodes : 1\nNumTerminals : 0\n" + "a 1 1\n",
		".nets": "UCLA nets 1.0\nNumNets : 1\nNumPins : 2\n" +
			"NetDegree : 2 n0\na I\nghost O\n",
		".pl":  "UCLA pl 1.0\n" + "a 0 0 : N\n",
		".scl": "UCLA scl 1.0\nNumRows : 1\nCoreRow Horizontal\n  Coordinate : 0\n  Height : 10\n  Sitewidth : 1\n  SubrowOrigin : 0  NumSites : 10\nEnd\n",
	})

	rd := &bookshelf.Reader{}
	_, err := rd.Read(context.Background(), dir)
	if err == nil {
		t.Fatal("expected a dangling-pin error, got nil")
	}
	var be *bookshelf.Error
	if !asBookshelfError(err, &be) {
		t.Fatalf("expected *bookshelf.Error, got %T: %v", err, err)
	}
	assert.EQ(t, be.Kind, bookshelf.KindDanglingPin)
}

func TestReadHeaderMismatchWarnsInLenientMode(t *testing.T) {
	dir, cleanup := newDesignDir(t)
	defer cleanup()
	writeDesignFiles(t, dir, "design", map[string]string{
		".nodes": "UCLA nodes 1.0\nNumNodes : 5\nNumTerminals : 0\n" + "a 1 1\n",
		".nets":  "UCLA nets 1.0\nNumNets : 0\nNumPins : 0\n",
		".pl":    "UCLA pl 1.0\n" + "a 0 0 : N\n",
		".scl":   "UCLA scl 1.0\nNumRows : 1\nCoreRow Horizontal\n  Coordinate : 0\n  Height : 10\n  Sitewidth : 1\n  SubrowOrigin : 0  NumSites : 10\nEnd\n",
	})

	warnings := bookshelf.NewWarningSink()
	rd := &bookshelf.Reader{Warnings: warnings}
	_, err := rd.Read(context.Background(), dir)
	assert.NoError(t, err)
	if len(warnings.Warnings()) == 0 {
		t.Fatal("expected a header-mismatch warning")
	}
}

func TestReadHeaderMismatchFatalInStrictMode(t *testing.T) {
	dir, cleanup := newDesignDir(t)
	defer cleanup()
	writeDesignFiles(t, dir, "design", map[string]string{
		".nodes": "UCLA nodes 1.0\nNumNodes : 5\nNumTerminals : 0\n" + "a 1 1\n",
		".nets":  "UCLA nets 1.0\nNumNets : 0\nNumPins : 0\n",
		".pl":    "UCLA pl 1.0\n" + "a 0 0 : N\n",
		".scl":   "UCLA scl 1.0\nNumRows : 1\nCoreRow Horizontal\n  Coordinate : 0\n  Height : 10\n  Sitewidth : 1\n  SubrowOrigin : 0  NumSites : 10\nEnd\n",
	})

	rd := &bookshelf.Reader{StrictMode: true}
	_, err := rd.Read(context.Background(), dir)
	if err == nil {
		t.Fatal("expected a fatal header-mismatch error in strict mode")
	}
}

func TestAuxFileSelectsFileNames(t *testing.T) {
	dir, cleanup := newDesignDir(t)
	defer cleanup()

	writeDesignFiles(t, dir, "design", map[string]string{
		".aux": "RowBasedPlacement : custom.nodes custom.nets custom.wts custom.pl custom.scl\n",
	})
	twoPinDesign(t, dir)
	// Also write the same content under the names the .aux file declares.
	for _, ext := range []string{".nodes", ".nets", ".pl", ".scl"} {
		data, err := ioutil.ReadFile(filepath.Join(dir, "design"+ext))
		assert.NoError(t, err)
		assert.NoError(t, ioutil.WriteFile(filepath.Join(dir, "custom"+ext), data, 0600))
	}

	rd := &bookshelf.Reader{}
	design, err := rd.Read(context.Background(), dir)
	assert.NoError(t, err)
	assert.EQ(t, len(design.Movable), 1)
}

// asBookshelfError unwraps err looking for a *bookshelf.Error, mirroring
// the package's own internal errorsAsError shim (exercised here via the
// public error value reader.Read returns).
func asBookshelfError(err error, target **bookshelf.Error) bool {
	for err != nil {
		if e, ok := err.(*bookshelf.Error); ok {
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
