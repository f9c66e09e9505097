package format

import (
	"testing"

	"github.com/dfbb/qrscan/internal/modules"
	"github.com/dfbb/qrscan/internal/position"
)

func emptyGrid(n int, version position.Version) modules.Grid {
	bits := make([][]bool, n)
	for x := range bits {
		bits[x] = make([]bool, n)
	}
	return modules.Grid{Version: version, Bits: bits}
}

func TestDecodeRecoversEccAndMask(t *testing.T) {
	const n = 21
	grid := emptyGrid(n, position.Version(1))

	// Raw (pre-unmask) bits for decoded = ECC level M (00), mask pattern 101,
	// remaining 10 bits left at 0 before masking: raw = decoded XOR mask.
	raw := [15]bool{true, false, false, false, false, false, false, false, false, false, true, false, false, true, false}
	for i, p := range positions(n) {
		grid.Bits[p[0]][p[1]] = raw[i]
	}

	info := Decode(grid)
	if info.ErrorCorrectionLevel != LevelM {
		t.Errorf("ErrorCorrectionLevel = %v, want LevelM", info.ErrorCorrectionLevel)
	}
	if info.Mask != Mask101 {
		t.Errorf("Mask = %v, want Mask101", info.Mask)
	}
}

func TestEccBitMapping(t *testing.T) {
	cases := []struct {
		b0, b1 bool
		want   ErrorCorrectionLevel
	}{
		{false, true, LevelL},
		{false, false, LevelM},
		{true, true, LevelQ},
		{true, false, LevelH},
	}
	for _, c := range cases {
		if got := eccFromBits(c.b0, c.b1); got != c.want {
			t.Errorf("eccFromBits(%v,%v) = %v, want %v", c.b0, c.b1, got, c.want)
		}
	}
}

func TestPositionsCount(t *testing.T) {
	p := positions(21)
	if len(p) != 15 {
		t.Fatalf("positions returned %d entries, want 15", len(p))
	}
	for _, xy := range p {
		if xy[0] < 0 || xy[0] >= 21 || xy[1] < 0 || xy[1] >= 21 {
			t.Errorf("position %+v out of bounds for 21 modules", xy)
		}
	}
}
