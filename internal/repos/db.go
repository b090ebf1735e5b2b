package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// OpenDB opens the SQLite store and makes sure the schema exists.
// File databases run in WAL mode so readers keep seeing the last committed batch
// while a refresh is writing.
func OpenDB(dsn string) (*sqlx.DB, error) {
	memory := strings.Contains(dsn, ":memory:")
	if !memory && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		// every new connection to :memory: is a fresh empty database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS courts(
  composite_key TEXT PRIMARY KEY,
  venue_slug    TEXT NOT NULL,
  category_slug TEXT NOT NULL,
  name          TEXT NOT NULL,
  date          TEXT NOT NULL,  -- YYYY-MM-DD
  starts_at     TEXT NOT NULL,  -- HH:MM
  ends_at       TEXT NOT NULL,  -- HH:MM
  duration      TEXT NOT NULL,
  price         TEXT NOT NULL,
  spaces        INTEGER NOT NULL DEFAULT 0 CHECK (spaces >= 0)
);
CREATE INDEX IF NOT EXISTS idx_courts_date_start ON courts(date, starts_at);
CREATE INDEX IF NOT EXISTS idx_courts_spaces     ON courts(spaces);
`
	_, err := db.Exec(schema)
	return err
}
