package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dfbb/qrscan/internal/config"
	"github.com/dfbb/qrscan/internal/geom"
	"github.com/dfbb/qrscan/internal/qrdetect"
	"github.com/dfbb/qrscan/internal/render"
	"github.com/dfbb/qrscan/internal/store"
)

var (
	flagScanAscii      bool
	flagScanDebugImage string
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Scan a single image file for QR codes",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&flagScanAscii, "ascii", false, "print an ASCII preview of each sampled module grid")
	scanCmd.Flags().StringVar(&flagScanDebugImage, "debug-image", "", "write an annotated copy of the input highlighting detected corners to this PNG path")
}

func runScan(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := config.Load(configPath())
	if err != nil {
		cfg = config.Defaults()
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	opts := qrdetect.Options{
		GaussianSigma: cfg.Detect.GaussianSigma,
		DiffThreshold: uint8(cfg.Detect.DiffThreshold),
		Dedup:         cfg.Detect.Dedup,
	}
	symbols := qrdetect.Detect(img, opts)

	if len(symbols) == 0 {
		fmt.Println("No QR code found.")
	} else {
		histDB := cfg.ScanHistory
		if histDB == "" {
			if home, err := os.UserHomeDir(); err == nil {
				histDB = home + "/.qrscan/scan_history.db"
			}
		}
		var st *store.Store
		if histDB != "" {
			os.MkdirAll(filepath.Dir(histDB), 0700)
			if st, err = store.New(histDB); err == nil {
				defer st.Close()
			}
		}
		for i, sym := range symbols {
			var id int64 = -1
			if st != nil {
				id, _ = st.Record("cli", path, sym)
			}
			fmt.Printf("symbol %d:  version=%d  ecc=%s  mask=%s\n",
				i+1, sym.Modules.Version,
				store.ECCString(sym.Format.ErrorCorrectionLevel),
				store.MaskString(sym.Format.Mask))
			if id >= 0 {
				fmt.Printf("  recorded as #%d\n", id)
			}
			if flagScanAscii {
				fmt.Println(render.ASCII(sym.Modules))
			}
		}
	}

	if flagScanDebugImage != "" {
		if err := writeDebugImage(img, symbols, flagScanDebugImage); err != nil {
			return fmt.Errorf("writing debug image: %w", err)
		}
		fmt.Printf("debug image written to %s\n", flagScanDebugImage)
	}

	return nil
}

// writeDebugImage copies src into a new RGBA image and overlays each
// symbol's four estimated corners, connected into a quadrilateral, so a
// human can visually confirm the detector found the right thing.
func writeDebugImage(src image.Image, symbols []qrdetect.Symbol, outPath string) error {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)

	red := color.RGBA{R: 255, A: 255}
	for _, sym := range symbols {
		corners := []geom.Point{
			sym.Position.TopLeft, sym.Position.TopRight,
			sym.Position.BottomRight, sym.Position.BottomLeft,
		}
		for i := range corners {
			drawLine(dst, corners[i], corners[(i+1)%len(corners)], red)
			drawCross(dst, corners[i], red)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil && filepath.Dir(outPath) != "." {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, dst)
}

func drawLine(dst *image.RGBA, a, b geom.Point, c color.RGBA) {
	steps := int(math.Hypot(b.X-a.X, b.Y-a.Y))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(a.X + t*(b.X-a.X))
		y := int(a.Y + t*(b.Y-a.Y))
		if (image.Point{X: x, Y: y}).In(dst.Bounds()) {
			dst.SetRGBA(x, y, c)
		}
	}
}

func drawCross(dst *image.RGBA, p geom.Point, c color.RGBA) {
	const r = 4
	x, y := int(p.X), int(p.Y)
	for d := -r; d <= r; d++ {
		if (image.Point{X: x + d, Y: y}).In(dst.Bounds()) {
			dst.SetRGBA(x+d, y, c)
		}
		if (image.Point{X: x, Y: y + d}).In(dst.Bounds()) {
			dst.SetRGBA(x, y+d, c)
		}
	}
}
