package store

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/db"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var preparedStatements = map[string]string{
	"get_search": `SELECT id, keywords, country, page, results, timestamp FROM searches WHERE id = $1`,
	"put_search": `INSERT INTO searches (id, keywords, country, page, results, timestamp) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET keywords = $2, country = $3, page = $4, results = $5, timestamp = $6`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS searches (
	id        TEXT PRIMARY KEY,
	keywords  TEXT NOT NULL,
	country   TEXT NOT NULL DEFAULT '',
	page      INTEGER NOT NULL,
	results   JSONB NOT NULL,
	timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_searches_timestamp ON searches(timestamp);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetSearch(ctx context.Context, id string) (*SearchRecord, error) {
	var rec SearchRecord
	var results []byte
	var ts string

	err := s.pool.QueryRow(ctx,
		`SELECT id, keywords, country, page, results, timestamp FROM searches WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Keywords, &rec.Country, &rec.Page, &results, &ts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get search")
	}

	rec.Results = results
	if rec.Timestamp, err = parseTimestamp(ts); err != nil {
		return nil, eris.Wrapf(err, "postgres: parse timestamp for %s", id)
	}
	return &rec, nil
}

func (s *PostgresStore) PutSearch(ctx context.Context, rec SearchRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO searches (id, keywords, country, page, results, timestamp) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET keywords = $2, country = $3, page = $4, results = $5, timestamp = $6`,
		rec.ID, rec.Keywords, rec.Country, rec.Page, []byte(rec.Results), formatTimestamp(rec.Timestamp),
	)
	return eris.Wrap(err, "postgres: put search")
}

func (s *PostgresStore) ListSearches(ctx context.Context, filter SearchFilter) ([]model.CachedSearch, error) {
	query, args, err := buildListQuery(filter, "jsonb_array_length(results)", sq.Dollar)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list searches")
	}
	defer rows.Close()

	var out []model.CachedSearch
	for rows.Next() {
		cs, err := scanCachedSearch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan search")
		}
		out = append(out, cs)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list searches iterate")
}

func (s *PostgresStore) DeleteSearchesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM searches WHERE timestamp < $1`,
		formatTimestamp(cutoff),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired searches")
	}
	return int(tag.RowsAffected()), nil
}
