package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLLoader loads rows through database/sql with batched multi-row inserts.
// It serves the SQLite and MySQL backends.
type SQLLoader struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLLoader, error) {
	if path == "" {
		path = "synthdata.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLLoader{db: db, dialect: SQLite}, nil
}

// OpenMySQL accepts a native driver DSN or a mysql:// / mariadb:// URL.
func OpenMySQL(ctx context.Context, dsn string, maxConns int) (*SQLLoader, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return &SQLLoader{db: db, dialect: MySQL}, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (need user, host and database)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

func (l *SQLLoader) Dialect() Dialect { return l.dialect }

// DB exposes the handle for queries after loading.
func (l *SQLLoader) DB() *sql.DB { return l.db }

func (l *SQLLoader) Reset(ctx context.Context) (retErr error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+Tables[i].Name); err != nil {
			return fmt.Errorf("drop %s: %w", Tables[i].Name, err)
		}
	}
	for _, t := range Tables {
		if _, err := tx.ExecContext(ctx, t.CreateStatement(l.dialect)); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
	}
	return tx.Commit()
}

// maxParams stays under SQLite's default bound-parameter limit.
const maxParams = 32766

func (l *SQLLoader) Insert(ctx context.Context, t Table, rows [][]any) (n int64, retErr error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	width := len(t.Columns)
	per := maxParams / width
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		chunk := rows[start:end]
		args := make([]any, 0, len(chunk)*width)
		for _, r := range chunk {
			args = append(args, r...)
		}
		res, err := tx.ExecContext(ctx, insertStatement(t, len(chunk)), args...)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		n += affected
	}
	return n, tx.Commit()
}

func insertStatement(t Table, rows int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ") + ")"
	values := make([]string, rows)
	for i := range values {
		values[i] = tuple
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		t.Name, strings.Join(t.ColumnNames(), ", "), strings.Join(values, ", "))
}

func (l *SQLLoader) Close() error { return l.db.Close() }
