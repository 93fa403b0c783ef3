package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection; a single connection keeps them applied.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS searches (
	id        TEXT PRIMARY KEY,
	keywords  TEXT NOT NULL,
	country   TEXT NOT NULL DEFAULT '',
	page      INTEGER NOT NULL,
	results   TEXT NOT NULL,
	timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_searches_timestamp ON searches(timestamp);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSearch(ctx context.Context, id string) (*SearchRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, keywords, country, page, results, timestamp FROM searches WHERE id = ?`,
		id,
	)

	var rec SearchRecord
	var results, ts string
	err := row.Scan(&rec.ID, &rec.Keywords, &rec.Country, &rec.Page, &results, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get search")
	}

	rec.Results = []byte(results)
	if rec.Timestamp, err = parseTimestamp(ts); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse timestamp for %s", id)
	}
	return &rec, nil
}

func (s *SQLiteStore) PutSearch(ctx context.Context, rec SearchRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO searches (id, keywords, country, page, results, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Keywords, rec.Country, rec.Page, string(rec.Results), formatTimestamp(rec.Timestamp),
	)
	return eris.Wrap(err, "sqlite: put search")
}

func (s *SQLiteStore) ListSearches(ctx context.Context, filter SearchFilter) ([]model.CachedSearch, error) {
	query, args, err := buildListQuery(filter, "json_array_length(results)", sq.Question)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list searches")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.CachedSearch
	for rows.Next() {
		cs, err := scanCachedSearch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search")
		}
		out = append(out, cs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list searches iterate")
}

func (s *SQLiteStore) DeleteSearchesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM searches WHERE timestamp < ?`,
		formatTimestamp(cutoff),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired searches")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCachedSearch(row scannable) (model.CachedSearch, error) {
	var cs model.CachedSearch
	var ts string
	if err := row.Scan(&cs.Fingerprint, &cs.Keywords, &cs.Country, &cs.Page, &cs.Results, &ts); err != nil {
		return cs, err
	}
	t, err := parseTimestamp(ts)
	if err != nil {
		return cs, err
	}
	cs.Timestamp = t
	return cs, nil
}
