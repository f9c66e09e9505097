package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dfbb/qrscan/internal/config"
	"github.com/dfbb/qrscan/internal/qrdetect"
	"github.com/dfbb/qrscan/internal/render"
	"github.com/dfbb/qrscan/internal/store"
	dirwatch "github.com/dfbb/qrscan/internal/watch"
)

var flagWatchAscii bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory for dropped image files and scan each one",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&flagWatchAscii, "ascii", false, "print an ASCII preview of each sampled module grid")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg, err := config.Load(configPath())
	if err != nil {
		cfg = config.Defaults()
	}

	pollEvery, err := time.ParseDuration(cfg.Watch.PollEvery)
	if err != nil || pollEvery <= 0 {
		pollEvery = 2 * time.Second
	}
	settleTime, err := time.ParseDuration(cfg.Watch.SettleTime)
	if err != nil || settleTime <= 0 {
		settleTime = 1 * time.Second
	}

	opts := qrdetect.Options{
		GaussianSigma: cfg.Detect.GaussianSigma,
		DiffThreshold: uint8(cfg.Detect.DiffThreshold),
		Dedup:         cfg.Detect.Dedup,
	}

	home, _ := os.UserHomeDir()
	histDB := cfg.ScanHistory
	if histDB == "" {
		histDB = home + "/.qrscan/scan_history.db"
	}
	os.MkdirAll(filepath.Dir(histDB), 0700)
	st, err := store.New(histDB)
	if err != nil {
		return fmt.Errorf("opening scan history db: %w", err)
	}
	defer st.Close()

	onReady := func(path string) {
		f, err := os.Open(path)
		if err != nil {
			slog.Warn("watch: opening file", "path", path, "err", err)
			return
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			slog.Warn("watch: decoding file", "path", path, "err", err)
			return
		}

		symbols := qrdetect.Detect(img, opts)
		if len(symbols) == 0 {
			fmt.Printf("%s: no QR code found\n", path)
			return
		}
		for i, sym := range symbols {
			id, err := st.Record("watch", path, sym)
			if err != nil {
				slog.Error("watch: recording scan", "err", err)
			}
			fmt.Printf("%s: symbol %d (#%d)  version=%d  ecc=%s  mask=%s\n",
				path, i+1, id, sym.Modules.Version,
				store.ECCString(sym.Format.ErrorCorrectionLevel),
				store.MaskString(sym.Format.Mask))
			if flagWatchAscii {
				fmt.Println(render.ASCII(sym.Modules))
			}
		}
	}

	w := dirwatch.New(dir, pollEvery, settleTime, onReady)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s (poll=%s, settle=%s). Press Ctrl-C to stop.\n", dir, pollEvery, settleTime)
	w.Run(ctx)
	return nil
}
