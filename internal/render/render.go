// Package render turns a detected module grid into operator-facing output:
// a terminal ASCII preview of what the detector actually sampled, and a
// scannable terminal QR code for a link.
package render

import (
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"

	"github.com/dfbb/qrscan/internal/modules"
)

// ASCII renders a sampled module grid to a half-block Unicode string, two
// module rows per terminal line, with a 4-module quiet zone border. Unlike a
// freshly-encoded QR code this reproduces exactly what the sampler read —
// including any misread modules — which is the point: it's a debugging view
// of the detector's own output, not a fresh encode.
func ASCII(grid modules.Grid) string {
	n := len(grid.Bits)
	if n == 0 {
		return ""
	}

	dark := func(x, y int) bool {
		if x < 0 || y < 0 || x >= n || y >= n {
			return false
		}
		return grid.Bits[x][y]
	}

	const quiet = 4
	totalCols := n + 2*quiet

	var out []byte
	blankRow := func() {
		for col := 0; col < totalCols; col++ {
			out = append(out, ' ', ' ')
		}
		out = append(out, '\n')
	}

	for row := 0; row < quiet; row += 2 {
		blankRow()
	}
	for y := 0; y < n; y += 2 {
		for col := 0; col < quiet; col++ {
			out = append(out, ' ', ' ')
		}
		for x := 0; x < n; x++ {
			top := dark(x, y)
			bot := dark(x, y+1)
			switch {
			case top && bot:
				out = append(out, []byte("██")...)
			case top && !bot:
				out = append(out, []byte("▀▀")...)
			case !top && bot:
				out = append(out, []byte("▄▄")...)
			default:
				out = append(out, ' ', ' ')
			}
		}
		for col := 0; col < quiet; col++ {
			out = append(out, ' ', ' ')
		}
		out = append(out, '\n')
	}
	for row := 0; row < quiet; row += 2 {
		blankRow()
	}
	return string(out)
}

// HistoryLink prints a scannable QR code encoding url to w, drawn by
// qrterminal as ANSI-coloured black and white cells, so the link can be
// opened by pointing a phone at the terminal.
func HistoryLink(w io.Writer, url string) error {
	if url == "" {
		return fmt.Errorf("render: empty history link URL")
	}
	config := qrterminal.Config{
		Level:     qrterminal.M,
		Writer:    w,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 2,
	}
	qrterminal.GenerateWithConfig(url, config)
	return nil
}
