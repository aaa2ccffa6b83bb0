// Package database runs validated read-only statements against the
// business database and returns ordered rows.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"sqlchat/internal/config"
	"sqlchat/internal/logger"
	"sqlchat/internal/resultset"
)

// Result is what one statement produced. Truncated is set when rows beyond
// the configured cap were discarded.
type Result struct {
	Columns   []string
	Rows      []resultset.Row
	Truncated bool
	Elapsed   time.Duration
}

type Executor interface {
	Query(ctx context.Context, stmt string) (*Result, error)
	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Timeout    time.Duration
	MaxRows    int
	ReadOnlyTx bool
}

// SQLExecutor runs statements through database/sql. Postgres goes through
// the pgx stdlib driver, sqlite through modernc.
type SQLExecutor struct {
	db     *sql.DB
	driver string
	opts   Options
}

// Open connects using the configured driver and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*SQLExecutor, error) {
	driverName, dsn, err := driverDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	exec := NewSQLExecutor(db, cfg.Driver, Options{
		Timeout:    cfg.QueryTimeout(),
		MaxRows:    cfg.MaxRows,
		ReadOnlyTx: cfg.ReadOnlyTx,
	})
	if err := exec.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return exec, nil
}

func driverDSN(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case "pgx":
		return "pgx", cfg.DSN, nil
	case "sqlite":
		dsn := cfg.DSN
		if cfg.ReadOnlyTx && !strings.Contains(dsn, "query_only") {
			dsn = appendQuery(dsn, "_pragma=query_only(1)")
		}
		return "sqlite", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func appendQuery(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

func NewSQLExecutor(db *sql.DB, driver string, opts Options) *SQLExecutor {
	return &SQLExecutor{db: db, driver: driver, opts: opts}
}

func (e *SQLExecutor) Ping(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (e *SQLExecutor) Close() error {
	return e.db.Close()
}

// Query runs stmt. The caller is expected to have validated it already;
// on Postgres it additionally runs inside a READ ONLY transaction.
func (e *SQLExecutor) Query(ctx context.Context, stmt string) (*Result, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	start := time.Now()

	var (
		rows *sql.Rows
		err  error
	)
	if e.opts.ReadOnlyTx && e.driver == "pgx" {
		tx, txErr := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		if txErr != nil {
			return nil, fmt.Errorf("begin read-only tx: %w", txErr)
		}
		defer func() {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Warnf("database: rollback read-only tx: %v", rbErr)
			}
		}()
		rows, err = tx.QueryContext(ctx, stmt)
	} else {
		rows, err = e.db.QueryContext(ctx, stmt)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	res, err := scanRows(rows, e.opts.MaxRows)
	if err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	if res.Truncated {
		logger.Warnf("database: result truncated at %d rows", e.opts.MaxRows)
	}
	return res, nil
}

func scanRows(rows *sql.Rows, maxRows int) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	res := &Result{Columns: columns, Rows: make([]resultset.Row, 0)}
	for rows.Next() {
		if maxRows > 0 && len(res.Rows) >= maxRows {
			res.Truncated = true
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, resultset.NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return res, nil
}
