// Package warehouse bulk-loads a finished dataset into a SQL database so it
// can be queried downstream. Each stream becomes one table; nested objects
// are stored as canonical JSON.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pharmassist/synthdata/internal/platform/sink"
)

var ErrUnknownDialect = errors.New("unknown warehouse driver")

// BatchSize bounds the rows sent per insert round trip.
const BatchSize = 1000

// Loader writes rows into one backend.
type Loader interface {
	Dialect() Dialect
	// Reset drops and recreates every table.
	Reset(ctx context.Context) error
	Insert(ctx context.Context, t Table, rows [][]any) (int64, error)
	Close() error
}

// Options configure Open.
type Options struct {
	Driver   Dialect
	DSN      string
	MaxConns int32
	MinConns int32
}

// ParseDialect accepts postgres (or postgresql), sqlite and mysql (or mariadb).
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql", "mariadb":
		return MySQL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, s)
}

// Open connects the loader for opts.Driver.
func Open(ctx context.Context, opts Options) (Loader, error) {
	switch opts.Driver {
	case Postgres:
		pool, err := NewPool(ctx, opts.DSN, opts.MaxConns, opts.MinConns)
		if err != nil {
			return nil, err
		}
		return NewPostgresLoader(pool), nil
	case SQLite:
		return OpenSQLite(ctx, opts.DSN)
	case MySQL:
		return OpenMySQL(ctx, opts.DSN, int(opts.MaxConns))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, opts.Driver)
}

// Result reports rows loaded per table.
type Result struct {
	Tables map[string]int64 `json:"tables"`
}

// Load resets the schema and loads every stream of the dataset in dir.
func Load(ctx context.Context, l Loader, dir string, log zerolog.Logger) (Result, error) {
	res := Result{Tables: make(map[string]int64, len(Tables))}
	if err := l.Reset(ctx); err != nil {
		return res, fmt.Errorf("reset schema: %w", err)
	}

	for _, t := range Tables {
		path := sink.Path(dir, t.Stream)
		if _, err := os.Stat(path); err != nil {
			return res, fmt.Errorf("stream %s: %w", t.Stream, err)
		}

		var total int64
		batch := make([][]any, 0, BatchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			n, err := l.Insert(ctx, t, batch)
			if err != nil {
				return fmt.Errorf("insert %s: %w", t.Name, err)
			}
			total += n
			batch = batch[:0]
			return nil
		}

		err := sink.ScanRecords(path, func(rec map[string]any) error {
			row, err := t.Row(rec, l.Dialect())
			if err != nil {
				return err
			}
			batch = append(batch, row)
			if len(batch) == BatchSize {
				return flush()
			}
			return nil
		})
		if err == nil {
			err = flush()
		}
		if err != nil {
			return res, err
		}

		res.Tables[t.Name] = total
		log.Info().Str("table", t.Name).Int64("rows", total).Str("driver", string(l.Dialect())).Msg("table loaded")
	}
	return res, nil
}
