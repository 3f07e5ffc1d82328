// Package store is the PostgreSQL sample source: named series of
// {date, value} samples that chart documents reference by name.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgdash/canvaschart/internal/document"
	"github.com/pgdash/canvaschart/internal/timeseries"
)

var (
	ErrUnknownSeries = errors.New("store: unknown series")
	ErrInvalidSample = errors.New("store: invalid sample")
)

const schema = `
CREATE TABLE IF NOT EXISTS chart_samples (
	series TEXT NOT NULL,
	ts     TIMESTAMPTZ NOT NULL,
	value  DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS chart_samples_series_ts ON chart_samples (series, ts);
`

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

type Store struct {
	db         DB
	maxSamples int
	log        *slog.Logger
}

func New(db DB, maxSamples int, log *slog.Logger) *Store {
	if maxSamples <= 0 {
		maxSamples = timeseries.DefaultMaxSamples
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, maxSamples: maxSamples, log: log}
}

// NewPool connects to PostgreSQL and checks the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 8
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the sample table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Series lists the stored series names.
func (s *Store) Series(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT series FROM chart_samples ORDER BY series`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return names, nil
}

// Append inserts samples for a series. Samples with unparseable dates are
// rejected before anything is written.
func (s *Store) Append(ctx context.Context, series string, samples []timeseries.RawSample) (int64, error) {
	if series == "" {
		return 0, fmt.Errorf("%w: empty name", ErrUnknownSeries)
	}
	rows := make([][]any, len(samples))
	for i, r := range samples {
		ms, ok := r.Date.Parse()
		if !ok {
			return 0, fmt.Errorf("%w: sample %d: unparseable date %q", ErrInvalidSample, i, r.Date.Text)
		}
		rows[i] = []any{series, time.UnixMilli(ms).UTC(), r.Value}
	}
	n, err := s.db.CopyFrom(ctx, pgx.Identifier{"chart_samples"}, []string{"series", "ts", "value"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("append %q: %w", series, err)
	}
	return n, nil
}

// Load reads a series as a layer, oldest first, bounded by ref.From and
// ref.To when set.
func (s *Store) Load(ctx context.Context, ref document.SeriesRef) (*timeseries.Layer, error) {
	from, to := time.UnixMilli(ref.From).UTC(), time.UnixMilli(ref.To).UTC()
	if ref.To == 0 {
		to = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	rows, err := s.db.Query(ctx,
		`SELECT ts, value FROM chart_samples WHERE series = $1 AND ts >= $2 AND ts <= $3 ORDER BY ts LIMIT $4`,
		ref.Name, from, to, s.maxSamples)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", ref.Name, err)
	}
	samples, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (timeseries.RawSample, error) {
		var ts time.Time
		var v float64
		if err := row.Scan(&ts, &v); err != nil {
			return timeseries.RawSample{}, err
		}
		return timeseries.RawSample{Date: timeseries.DateMillis(ts.UnixMilli()), Value: v}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", ref.Name, err)
	}

	if len(samples) == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chart_samples WHERE series = $1)`, ref.Name).Scan(&exists); err != nil {
			return nil, fmt.Errorf("load %q: %w", ref.Name, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSeries, ref.Name)
		}
	}
	if len(samples) == s.maxSamples {
		s.log.Warn("series truncated", "series", ref.Name, "cap", s.maxSamples)
	}

	label := ref.Label
	if label == "" {
		label = ref.Name
	}
	return &timeseries.Layer{
		Label:        label,
		Color:        ref.Color,
		RawData:      samples,
		Cols:         []string{ref.Name},
		GroupByValue: ref.Name,
	}, nil
}
