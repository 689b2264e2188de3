package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"AtlasStatus/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists events to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chart_loads (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			page_id   TEXT NOT NULL,
			chart     TEXT NOT NULL,
			source    TEXT,
			state     TEXT,
			points    INTEGER,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_ts ON chart_loads(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_chart ON chart_loads(chart, timestamp)`,

		`CREATE TABLE IF NOT EXISTS view_changes (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			page_id      TEXT NOT NULL,
			chart        TEXT NOT NULL,
			action       TEXT,
			window_start INTEGER,
			window_end   INTEGER,
			roll_period  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_views_ts ON view_changes(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordLoad(evt *model.LoadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO chart_loads
		(timestamp, page_id, chart, source, state, points, error)
		VALUES (?,?,?,?,?,?,?)`,
		evt.At.Unix(), evt.PageID, evt.Chart, evt.Source, evt.State, evt.Points, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordView(evt *model.ViewEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO view_changes
		(timestamp, page_id, chart, action, window_start, window_end, roll_period)
		VALUES (?,?,?,?,?,?,?)`,
		evt.At.Unix(), evt.PageID, evt.Chart, evt.Action,
		evt.Window.Start.Unix(), evt.Window.End.Unix(), evt.RollPeriod,
	)
	return err
}

// LastWindow returns the most recent window recorded for chart.
func (r *SQLiteRecorder) LastWindow(chart string) (model.Window, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var start, end int64
	err := r.db.QueryRow(`SELECT window_start, window_end FROM view_changes
		WHERE chart = ? ORDER BY id DESC LIMIT 1`, chart).Scan(&start, &end)
	if err == sql.ErrNoRows {
		return model.Window{}, false, nil
	}
	if err != nil {
		return model.Window{}, false, err
	}
	return model.Window{Start: time.Unix(start, 0).UTC(), End: time.Unix(end, 0).UTC()}, true, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
