// Package qrdetect wires the detection pipeline's stages together:
// preprocess -> hints -> cluster -> triple -> position -> modules -> format.
package qrdetect

import (
	"image"
	"log/slog"
	"math"

	"github.com/dfbb/qrscan/internal/cluster"
	"github.com/dfbb/qrscan/internal/format"
	"github.com/dfbb/qrscan/internal/hints"
	"github.com/dfbb/qrscan/internal/modules"
	"github.com/dfbb/qrscan/internal/position"
	"github.com/dfbb/qrscan/internal/preprocess"
	"github.com/dfbb/qrscan/internal/triple"
)

// Symbol is one detected QR code symbol: its sampled module grid, decoded
// format information, and estimated corner positions.
type Symbol struct {
	Modules  modules.Grid
	Format   format.Information
	Position position.Estimation
}

// Options tunes the binarization step and the orchestrator's own
// bookkeeping; the pipeline stages downstream of binarization have no
// tunable parameters.
type Options struct {
	// GaussianSigma is the standard deviation of the adaptive-threshold
	// Gaussian blur. Zero selects the reference pipeline's recommended
	// default of 20.0.
	GaussianSigma float64
	// DiffThreshold is the adaptive-threshold saturating offset.
	DiffThreshold uint8
	// Dedup, when true, drops symbols whose estimated top-left corner
	// (rounded to the nearest pixel) coincides with one already returned,
	// keeping the first-seen symbol.
	Dedup bool
}

const (
	minVersion = 1
	maxVersion = 40
)

// Detect runs the full pipeline over src and returns every symbol found.
// The core detection path never errors: an image with no finder patterns,
// or one whose triples all fail the version-range check, simply yields an
// empty slice.
func Detect(src image.Image, opts Options) []Symbol {
	sigma := opts.GaussianSigma
	if sigma == 0 {
		sigma = 20.0
	}

	gray := preprocess.Grayscale(src)
	binarized := preprocess.AdaptiveGaussianThreshold(gray, sigma, opts.DiffThreshold)

	found := hints.Collect(binarized)
	markers := cluster.FuseHints(found)
	triples := triple.Find(markers)
	estimations := position.FindAll(triples)

	var symbols []Symbol
	seen := make(map[[2]int]bool)

	for _, est := range estimations {
		v := int(est.Version)
		if v < minVersion || v > maxVersion {
			slog.Debug("skipping symbol with out-of-range version estimate", "version", v)
			continue
		}

		if opts.Dedup {
			key := [2]int{int(math.Round(est.TopLeft.X)), int(math.Round(est.TopLeft.Y))}
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		grid := modules.Sample(binarized, est)
		info := format.Decode(grid)

		symbols = append(symbols, Symbol{
			Modules:  grid,
			Format:   info,
			Position: est,
		})
	}

	return symbols
}
