package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PostgresLoader loads rows with COPY FROM.
type PostgresLoader struct {
	pool *pgxpool.Pool
}

func NewPostgresLoader(pool *pgxpool.Pool) *PostgresLoader {
	return &PostgresLoader{pool: pool}
}

func (l *PostgresLoader) Dialect() Dialect { return Postgres }

func (l *PostgresLoader) Reset(ctx context.Context) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+Tables[i].Name); err != nil {
			return fmt.Errorf("drop %s: %w", Tables[i].Name, err)
		}
	}
	for _, t := range Tables {
		if _, err := tx.Exec(ctx, t.CreateStatement(Postgres)); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
	}
	return tx.Commit(ctx)
}

func (l *PostgresLoader) Insert(ctx context.Context, t Table, rows [][]any) (int64, error) {
	return l.pool.CopyFrom(ctx, pgx.Identifier{t.Name}, t.ColumnNames(), pgx.CopyFromRows(rows))
}

// Close releases the pool.
func (l *PostgresLoader) Close() error {
	l.pool.Close()
	return nil
}
