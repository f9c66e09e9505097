package store

import (
	"path/filepath"
	"testing"

	"github.com/dfbb/qrscan/internal/format"
	"github.com/dfbb/qrscan/internal/geom"
	"github.com/dfbb/qrscan/internal/modules"
	"github.com/dfbb/qrscan/internal/position"
	"github.com/dfbb/qrscan/internal/qrdetect"
)

func testSymbol() qrdetect.Symbol {
	bits := make([][]bool, 21)
	for x := range bits {
		bits[x] = make([]bool, 21)
	}
	bits[0][0] = true
	return qrdetect.Symbol{
		Modules: modules.Grid{Version: position.Version(1), Bits: bits},
		Format:  format.Information{ErrorCorrectionLevel: format.LevelM, Mask: format.Mask000},
		Position: position.Estimation{
			TopLeft:     geom.Point{X: 1, Y: 1},
			TopRight:    geom.Point{X: 10, Y: 1},
			BottomLeft:  geom.Point{X: 1, Y: 10},
			BottomRight: geom.Point{X: 10, Y: 10},
			Version:     1,
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scan_history.db")
	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer st.Close()

	sym := testSymbol()
	id, err := st.Record("cli", "/tmp/photo.png", sym)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == 0 {
		t.Fatal("Record returned zero ID")
	}

	e, err := st.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Version != 1 || e.ECCLevel != "M" || e.Mask != "M000" {
		t.Fatalf("Get returned %+v, want version=1 ecc=M mask=M000", e)
	}
	if e.Source != "/tmp/photo.png" || e.Channel != "cli" {
		t.Fatalf("Get returned wrong source/channel: %+v", e)
	}

	grid := e.Grid()
	if len(grid) != 21 || !grid[0][0] {
		t.Fatalf("Grid() round-trip lost bit [0][0]: %v", grid[0][0])
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scan_history.db")
	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer st.Close()

	sym := testSymbol()
	id1, _ := st.Record("cli", "a.png", sym)
	id2, _ := st.Record("cli", "b.png", sym)

	entries, err := st.List("", "", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != id2 || entries[1].ID != id1 {
		t.Fatalf("List order = %+v, want newest (%d) first", entries, id2)
	}
}
