package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	// Driver selects the source backend: "postgres" (current OpenProject)
	// or "mysql" (legacy installations).
	Driver string

	DSN string

	MaxConns int32

	MinConns int32
}

// Rows is the cursor returned by Query. pgx.Rows satisfies it directly.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier runs read-only statements written with "?" placeholders.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// DB is a source database connection.
type DB interface {
	Querier
	// Snapshot runs fn inside a read-only repeatable-read transaction so
	// that every query of one extraction sees the same data.
	Snapshot(ctx context.Context, fn func(q Querier) error) error
	Close()
}

// New opens the source database selected by cfg.Driver and pings it.
func New(ctx context.Context, cfg Config) (DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return newPostgres(ctx, cfg)
	case DriverMySQL, "":
		return newMySQL(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported source driver %q", cfg.Driver)
	}
}

type postgresDB struct {
	pool *pgxpool.Pool
}

func newPostgres(ctx context.Context, cfg Config) (*postgresDB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 4
	}

	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	} else {
		poolCfg.MinConns = 1
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &postgresDB{pool: pool}, nil
}

func (db *postgresDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return db.pool.Query(ctx, Rebind(query), args...)
}

func (db *postgresDB) Close() {
	db.pool.Close()
}

func (db *postgresDB) Snapshot(ctx context.Context, fn func(q Querier) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	// Always attempt rollback on defer - nothing is written anyway
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(pgxTx{tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return t.tx.Query(ctx, Rebind(query), args...)
}

// Rebind rewrites "?" placeholders into PostgreSQL's "$1, $2, ..." form.
// Question marks inside single-quoted literals are left alone.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
