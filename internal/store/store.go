// Package store persists detected QR symbols to a SQLite database, the
// "scan history" analogue of the lineage's command-history table.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dfbb/qrscan/internal/format"
	"github.com/dfbb/qrscan/internal/geom"
	"github.com/dfbb/qrscan/internal/qrdetect"
)

// Store records every detected symbol to a SQLite database.
type Store struct {
	db *sql.DB
}

// Entry is one detected symbol as persisted: a flattened Symbol plus the
// delivery context (which channel/chat it arrived through, or a file path
// for CLI/watch-directory scans).
type Entry struct {
	ID        int64
	Timestamp time.Time
	Channel   string // "cli", "watch", or an IM channel name
	Source    string // file path or chat ID
	Version   int
	ECCLevel  string
	Mask      string
	TopLeft   geom.Point
	TopRight  geom.Point
	BotLeft   geom.Point
	BotRight  geom.Point
	Bits      string // row-major, one '0'/'1' char per module, Bits[x*n+y]
}

// New opens (or creates) the SQLite database at dbPath and ensures the
// scan_history table exists.
func New(dbPath string) (*Store, error) {
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS scan_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		ts         TEXT    NOT NULL,
		channel    TEXT    NOT NULL,
		source     TEXT    NOT NULL,
		version    INTEGER NOT NULL,
		ecc_level  TEXT    NOT NULL,
		mask       TEXT    NOT NULL,
		top_left_x     REAL NOT NULL, top_left_y     REAL NOT NULL,
		top_right_x    REAL NOT NULL, top_right_y    REAL NOT NULL,
		bottom_left_x  REAL NOT NULL, bottom_left_y  REAL NOT NULL,
		bottom_right_x REAL NOT NULL, bottom_right_y REAL NOT NULL,
		bits       TEXT    NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one row for a detected Symbol and returns its row ID.
func (s *Store) Record(channel, source string, sym qrdetect.Symbol) (int64, error) {
	e := EntryFromSymbol(channel, source, sym)
	ts := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO scan_history (
			ts, channel, source, version, ecc_level, mask,
			top_left_x, top_left_y, top_right_x, top_right_y,
			bottom_left_x, bottom_left_y, bottom_right_x, bottom_right_y,
			bits
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts, e.Channel, e.Source, e.Version, e.ECCLevel, e.Mask,
		e.TopLeft.X, e.TopLeft.Y, e.TopRight.X, e.TopRight.Y,
		e.BotLeft.X, e.BotLeft.Y, e.BotRight.X, e.BotRight.Y,
		e.Bits,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert: %w", err)
	}
	return res.LastInsertId()
}

// EntryFromSymbol flattens a qrdetect.Symbol into the row shape Record persists.
func EntryFromSymbol(channel, source string, sym qrdetect.Symbol) Entry {
	n := len(sym.Modules.Bits)
	var b strings.Builder
	b.Grow(n * n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			if sym.Modules.Bits[x][y] {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	return Entry{
		Channel:   channel,
		Source:    source,
		Version:   int(sym.Modules.Version),
		ECCLevel:  ECCString(sym.Format.ErrorCorrectionLevel),
		Mask:      MaskString(sym.Format.Mask),
		TopLeft:   sym.Position.TopLeft,
		TopRight:  sym.Position.TopRight,
		BotLeft:   sym.Position.BottomLeft,
		BotRight:  sym.Position.BottomRight,
		Bits:      b.String(),
	}
}

// List returns the most recent limit entries for the given channel and
// source, newest first. Unless both channel and source are non-empty it
// returns the most recent entries across all channels and sources.
func (s *Store) List(channel, source string, limit int) ([]Entry, error) {
	var rows *sql.Rows
	var err error
	switch {
	case channel != "" && source != "":
		rows, err = s.db.Query(`SELECT id, ts, channel, source, version, ecc_level, mask,
			top_left_x, top_left_y, top_right_x, top_right_y,
			bottom_left_x, bottom_left_y, bottom_right_x, bottom_right_y, bits
			FROM scan_history WHERE channel = ? AND source = ? ORDER BY id DESC LIMIT ?`,
			channel, source, limit)
	default:
		rows, err = s.db.Query(`SELECT id, ts, channel, source, version, ecc_level, mask,
			top_left_x, top_left_y, top_right_x, top_right_y,
			bottom_left_x, bottom_left_y, bottom_right_x, bottom_right_y, bits
			FROM scan_history ORDER BY id DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Channel, &e.Source, &e.Version, &e.ECCLevel, &e.Mask,
			&e.TopLeft.X, &e.TopLeft.Y, &e.TopRight.X, &e.TopRight.Y,
			&e.BotLeft.X, &e.BotLeft.Y, &e.BotRight.X, &e.BotRight.Y, &e.Bits); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get fetches a single entry by row ID.
func (s *Store) Get(id int64) (Entry, error) {
	var e Entry
	var ts string
	err := s.db.QueryRow(`SELECT id, ts, channel, source, version, ecc_level, mask,
		top_left_x, top_left_y, top_right_x, top_right_y,
		bottom_left_x, bottom_left_y, bottom_right_x, bottom_right_y, bits
		FROM scan_history WHERE id = ?`, id).
		Scan(&e.ID, &ts, &e.Channel, &e.Source, &e.Version, &e.ECCLevel, &e.Mask,
			&e.TopLeft.X, &e.TopLeft.Y, &e.TopRight.X, &e.TopRight.Y,
			&e.BotLeft.X, &e.BotLeft.Y, &e.BotRight.X, &e.BotRight.Y, &e.Bits)
	if err != nil {
		return Entry{}, fmt.Errorf("store: get %d: %w", id, err)
	}
	e.Timestamp, _ = time.Parse(time.RFC3339, ts)
	return e, nil
}

// Grid reconstructs the module bits (indexed [x][y], as in modules.Grid.Bits)
// sampled at record time, e.g. to re-render an ASCII preview without
// re-running detection.
func (e Entry) Grid() [][]bool {
	n := 4*e.Version + 17
	bits := make([][]bool, n)
	for x := 0; x < n; x++ {
		bits[x] = make([]bool, n)
		for y := 0; y < n; y++ {
			if idx := x*n + y; idx < len(e.Bits) {
				bits[x][y] = e.Bits[idx] == '1'
			}
		}
	}
	return bits
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ECCString renders a decoded error-correction level the way the store
// persists it ("L", "M", "Q", "H").
func ECCString(l format.ErrorCorrectionLevel) string {
	switch l {
	case format.LevelL:
		return "L"
	case format.LevelM:
		return "M"
	case format.LevelQ:
		return "Q"
	case format.LevelH:
		return "H"
	default:
		return "?"
	}
}

// MaskString renders a decoded mask pattern the way the store persists it
// ("M000".."M111").
func MaskString(m format.MaskPattern) string {
	return fmt.Sprintf("M%03b", int(m))
}
