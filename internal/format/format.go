// Package format decodes a QR code symbol's 15-bit format information field
// (error-correction level and data mask pattern) from its sampled module
// grid.
package format

import "github.com/dfbb/qrscan/internal/modules"

// formatMask is the fixed XOR mask applied to the raw format bits before
// they're split into error-correction-level and mask-pattern fields; it is
// baked into the QR standard so the all-zero mask pattern never produces an
// all-zero format field (which would be indistinguishable from a blank
// symbol edge).
var formatMask = [15]bool{true, false, true, false, true, false, false, false, false, false, true, false, false, true, false}

// ErrorCorrectionLevel is the symbol's error-correction strength.
type ErrorCorrectionLevel int

const (
	LevelL ErrorCorrectionLevel = iota
	LevelM
	LevelQ
	LevelH
)

// MaskPattern is one of the eight standard QR data-masking functions.
type MaskPattern int

const (
	Mask000 MaskPattern = iota
	Mask001
	Mask010
	Mask011
	Mask100
	Mask101
	Mask110
	Mask111
)

// Information is a symbol's decoded format field.
type Information struct {
	ErrorCorrectionLevel ErrorCorrectionLevel
	Mask                 MaskPattern
}

// positions returns the 15 module coordinates the format field is read from:
// the upper-right copy along row 8 reading right to left, then the
// lower-left copy along column 8 reading top to bottom.
func positions(n int) [15][2]int {
	var out [15][2]int
	for i := 0; i < 8; i++ {
		out[i] = [2]int{n - 2 - i, 8}
	}
	for i := 0; i < 7; i++ {
		out[8+i] = [2]int{8, n - 7 + i}
	}
	return out
}

// Decode reads and unmasks a symbol's format information.
func Decode(grid modules.Grid) Information {
	n := int(grid.Version.NumberOfModules())

	var bits [15]bool
	for i, p := range positions(n) {
		x, y := p[0], p[1]
		bits[i] = grid.Bits[x][y] != formatMask[i]
	}

	mask := MaskPattern(boolsToInt(bits[2], bits[3], bits[4]))

	return Information{
		ErrorCorrectionLevel: eccFromBits(bits[0], bits[1]),
		Mask:                 mask,
	}
}

func boolsToInt(bits ...bool) int {
	v := 0
	for _, b := range bits {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v
}

// eccFromBits maps the 2-bit field to the QR standard's non-sequential
// encoding: L=01, M=00, Q=11, H=10.
func eccFromBits(b0, b1 bool) ErrorCorrectionLevel {
	switch {
	case !b0 && b1:
		return LevelL
	case !b0 && !b1:
		return LevelM
	case b0 && b1:
		return LevelQ
	default:
		return LevelH
	}
}
