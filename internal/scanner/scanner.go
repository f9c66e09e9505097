// Package scanner implements the 1D finder-pattern run-length scanner: a
// tagged-union finite-state machine that walks a line of binarized pixels
// looking for a 1:1:3:1:1 black/white run-length signature, with
// backtracking when a candidate match fails validation.
package scanner

const (
	// symmetryThreshold bounds how unevenly the two border/inner-white runs on
	// either side of the center stone may differ.
	symmetryThreshold = 0.4
	// varianceThreshold bounds how far each run may deviate from its expected
	// 1:1:3:1:1 proportion of the total pattern width.
	varianceThreshold = 0.5
)

// expectedRatios is the 1:1:3:1:1 finder-pattern signature, in scan order:
// black-border-1, white-inner-1, black-inner, white-inner-2, black-border-2.
var expectedRatios = [5]float64{1, 1, 3, 1, 1}

const expectedRatioTotal = 1 + 1 + 3 + 1 + 1

// kind tags which payload a State currently carries.
type kind int

const (
	kindInWhite kind = iota
	kindInBlack
	kindBlackBorder1
	kindWhiteInner1
	kindBlackInner
	kindWhiteInner2
	kindBlackBorder2
	kindFound
)

// State is the scanner's tagged-union state. Only the fields relevant to the
// current kind are meaningful; a struct-with-tag is used instead of an
// interface-per-state so state transitions allocate nothing on the
// per-pixel hot path.
type State struct {
	kind  kind
	start uint32
	b1    uint32
	w1    uint32
	bi    uint32
	w2    uint32
	b2    uint32
	// result is populated only when kind == kindFound.
	result ScanResult
}

// ScanResult is the output of one successful 1D scan: Start is the line
// position of the pattern's first black pixel, End the position of the white
// pixel that closes it (one past its last black pixel), plus the five
// black/white run lengths.
type ScanResult struct {
	Start, End             uint32
	B1, W1, Bi, W2, B2     uint32
}

// Middle returns the pattern midpoint along the scan axis, using the inner
// stone as the stable landmark rather than (Start+End)/2.
func (r ScanResult) Middle() float64 {
	return float64(r.Start) + float64(r.B1) + float64(r.W1) + float64(r.Bi)/2
}

// Size returns the estimated outer width of the finder pattern, derived from
// the inner run scaled by the total-to-inner ratio 7/3.
func (r ScanResult) Size() float64 {
	return expectedRatioTotal * float64(r.Bi) / expectedRatios[2]
}

func isSymmetric(r ScanResult) bool {
	total := float64(r.B1) + float64(r.W1) + float64(r.B2) + float64(r.W2)
	if total == 0 {
		return false
	}
	sum := absDiff(r.B1, r.B2) + absDiff(r.W1, r.W2)
	return sum/total < symmetryThreshold
}

func absDiff(a, b uint32) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}

func ratiosMatch(r ScanResult) bool {
	widths := [5]uint32{r.B1, r.W1, r.Bi, r.W2, r.B2}
	total := float64(widths[0] + widths[1] + widths[2] + widths[3] + widths[4])
	if total == 0 {
		return false
	}
	moduleSize := total / expectedRatioTotal
	maxVariance := varianceThreshold * moduleSize
	for i, w := range widths {
		ratio := expectedRatios[i]
		if absF(ratio*moduleSize-float64(w)) >= ratio*maxVariance {
			return false
		}
	}
	return true
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func isValidMatch(r ScanResult) bool {
	return isSymmetric(r) && ratiosMatch(r)
}

// initial returns the state the scanner starts a line in: always InWhite,
// regardless of the actual color of the first pixel (see SPEC_FULL.md's
// "finder pattern at column/row 0" open-question decision).
func initial() State {
	return State{kind: kindInWhite}
}

// advance consumes one pixel and returns the position to resume scanning
// from and the new state. pos is the position of the pixel just consumed;
// nextPos is pos+1, the position the driver loop would resume at absent
// backtracking.
func advance(s State, pos, nextPos uint32, black bool) (uint32, State) {
	var next State
	switch s.kind {
	case kindFound:
		if black {
			next = State{kind: kindInBlack}
		} else {
			next = State{kind: kindInWhite}
		}
	case kindInWhite:
		if black {
			next = State{kind: kindBlackBorder1, start: pos, b1: 1}
		} else {
			next = State{kind: kindInWhite}
		}
	case kindInBlack:
		if black {
			next = State{kind: kindInBlack}
		} else {
			next = State{kind: kindInWhite}
		}
	case kindBlackBorder1:
		if black {
			next = State{kind: kindBlackBorder1, start: s.start, b1: s.b1 + 1}
		} else {
			next = State{kind: kindWhiteInner1, start: s.start, b1: s.b1, w1: 1}
		}
	case kindWhiteInner1:
		if black {
			next = State{kind: kindBlackInner, start: s.start, b1: s.b1, w1: s.w1, bi: 1}
		} else {
			next = State{kind: kindWhiteInner1, start: s.start, b1: s.b1, w1: s.w1 + 1}
		}
	case kindBlackInner:
		if black {
			next = State{kind: kindBlackInner, start: s.start, b1: s.b1, w1: s.w1, bi: s.bi + 1}
		} else {
			next = State{kind: kindWhiteInner2, start: s.start, b1: s.b1, w1: s.w1, bi: s.bi, w2: 1}
		}
	case kindWhiteInner2:
		if black {
			next = State{kind: kindBlackBorder2, start: s.start, b1: s.b1, w1: s.w1, bi: s.bi, w2: s.w2, b2: 1}
		} else {
			next = State{kind: kindWhiteInner2, start: s.start, b1: s.b1, w1: s.w1, bi: s.bi, w2: s.w2 + 1}
		}
	case kindBlackBorder2:
		if black {
			next = State{kind: kindBlackBorder2, start: s.start, b1: s.b1, w1: s.w1, bi: s.bi, w2: s.w2, b2: s.b2 + 1}
		} else {
			next = State{kind: kindFound, result: ScanResult{
				Start: s.start, End: pos,
				B1: s.b1, W1: s.w1, Bi: s.bi, W2: s.w2, B2: s.b2,
			}}
		}
	}

	if next.kind == kindFound {
		if isValidMatch(next.result) {
			return nextPos, next
		}
		// Backtrack: discard one pixel from the candidate's left edge and
		// reconsider from there in InBlack, so a longer adjacent run can be
		// reinterpreted as the start of the next candidate.
		return next.result.Start + 1, State{kind: kindInBlack}
	}
	return nextPos, next
}

// Scan walks a line of L pixels (isBlack reports the color of pixel i) and
// invokes emit for every validated ScanResult found, in scan order.
func Scan(length int, isBlack func(i int) bool, emit func(ScanResult)) {
	state := initial()
	pos := uint32(0)
	for pos < uint32(length) {
		black := isBlack(int(pos))
		newPos, newState := advance(state, pos, pos+1, black)
		pos = newPos
		state = newState
		if state.kind == kindFound {
			emit(state.result)
		}
	}
}
