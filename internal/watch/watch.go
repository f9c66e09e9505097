// Package watch polls a directory for newly-dropped image files and hands
// each one to a callback once its size has settled (so a file still being
// copied in isn't read half-written).
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

// fileState tracks the last observed size of a candidate file and how long
// it has held steady, mirroring the lineage's idle-detection shape: poll,
// compare to the last observation, and fire once things stop changing.
type fileState struct {
	size        int64
	lastChanged time.Time
	fired       bool
}

// Watcher polls dir for new image files and invokes onReady once each one's
// size has been stable for settleTime.
type Watcher struct {
	dir        string
	pollEvery  time.Duration
	settleTime time.Duration
	onReady    func(path string)
	seen       map[string]*fileState
}

func New(dir string, pollEvery, settleTime time.Duration, onReady func(path string)) *Watcher {
	return &Watcher{
		dir:        dir,
		pollEvery:  pollEvery,
		settleTime: settleTime,
		onReady:    onReady,
		seen:       make(map[string]*fileState),
	}
}

// Run polls the watch directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	// Sorted for deterministic processing order across polls; not otherwise
	// significant since the detection pipeline itself is permutation-invariant.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, ent := range entries {
		if ent.IsDir() || !imageExts[filepath.Ext(ent.Name())] {
			continue
		}
		path := filepath.Join(w.dir, ent.Name())
		info, err := ent.Info()
		if err != nil {
			continue
		}

		st, ok := w.seen[path]
		if !ok {
			st = &fileState{size: info.Size(), lastChanged: time.Now()}
			w.seen[path] = st
			continue
		}
		if st.fired {
			continue
		}
		if info.Size() != st.size {
			st.size = info.Size()
			st.lastChanged = time.Now()
			continue
		}
		if time.Since(st.lastChanged) >= w.settleTime {
			st.fired = true
			w.onReady(path)
		}
	}
}
