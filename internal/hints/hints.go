// Package hints collects per-axis finder-pattern hints from a binarized
// image by running the scanner over every row and every column.
package hints

import (
	"image"
	"runtime"
	"sync"

	"github.com/dfbb/qrscan/internal/scanner"
)

// Hint is a single candidate finder-pattern center and estimated size,
// produced by a single row or column scan.
type Hint struct {
	CenterX, CenterY float64
	Size             float64
}

// isBlack reports whether the pixel at (x, y) in a binarized (pure
// black/white) grayscale image counts as black: anything not full white.
func isBlack(img *image.Gray, x, y int) bool {
	return img.GrayAt(x, y).Y != 255
}

// Collect scans every row and every column of a binarized image and returns
// every hint found, in no particular order. Row and column scans are
// independent of one another, so they are fanned out across a worker pool
// sized to GOMAXPROCS; the scanner itself stays purely sequential per line.
func Collect(img *image.Gray) []Hint {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	type job struct {
		axis  axis
		index int
	}

	jobs := make(chan job, width+height)
	results := make(chan []Hint, width+height)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- scanLine(img, b, j.axis, j.index)
			}
		}()
	}

	for x := 0; x < width; x++ {
		jobs <- job{axis: axisColumn, index: x}
	}
	for y := 0; y < height; y++ {
		jobs <- job{axis: axisRow, index: y}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var found []Hint
	for r := range results {
		found = append(found, r...)
	}
	return found
}

type axis int

const (
	axisColumn axis = iota
	axisRow
)

// scanLine scans one row or column, fixed at index, and returns every hint
// the scanner emits along it.
func scanLine(img *image.Gray, b image.Rectangle, a axis, index int) []Hint {
	var out []Hint
	switch a {
	case axisColumn:
		x := b.Min.X + index
		scanner.Scan(b.Dy(), func(i int) bool {
			return isBlack(img, x, b.Min.Y+i)
		}, func(r scanner.ScanResult) {
			out = append(out, Hint{CenterX: float64(x), CenterY: float64(b.Min.Y) + r.Middle(), Size: r.Size()})
		})
	case axisRow:
		y := b.Min.Y + index
		scanner.Scan(b.Dx(), func(i int) bool {
			return isBlack(img, b.Min.X+i, y)
		}, func(r scanner.ScanResult) {
			out = append(out, Hint{CenterX: float64(b.Min.X) + r.Middle(), CenterY: float64(y), Size: r.Size()})
		})
	}
	return out
}
