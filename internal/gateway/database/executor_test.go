package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlchat/internal/config"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ventas.db")
	exec, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + path})
	require.NoError(t, err)
	defer exec.Close()
	for _, stmt := range []string{
		`CREATE TABLE products (product_id INTEGER PRIMARY KEY, name TEXT, price REAL)`,
		`INSERT INTO products (name, price) VALUES ('Laptop', 1500.5), ('Mouse', 25), ('Monitor', 300)`,
	} {
		_, err := exec.db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestSQLiteQuery(t *testing.T) {
	path := seedSQLite(t)
	exec, err := Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite", DSN: "file:" + path, ReadOnlyTx: true, QueryTimeoutSeconds: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close() })

	res, err := exec.Query(context.Background(), "SELECT name AS label, price AS value FROM products ORDER BY price DESC;")
	require.NoError(t, err)
	assert.Equal(t, []string{"label", "value"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "Laptop", res.Rows[0].At(0))
	assert.Equal(t, 1500.5, res.Rows[0].At(1))
	assert.False(t, res.Truncated)

	t.Run("read only connection rejects writes", func(t *testing.T) {
		_, err := exec.Query(context.Background(), "DELETE FROM products")
		assert.Error(t, err)
	})

	t.Run("bad sql", func(t *testing.T) {
		_, err := exec.Query(context.Background(), "SELECT nope FROM missing")
		assert.ErrorContains(t, err, "query failed")
	})

	t.Run("empty result keeps non-nil rows", func(t *testing.T) {
		res, err := exec.Query(context.Background(), "SELECT name FROM products WHERE price < 0")
		require.NoError(t, err)
		assert.NotNil(t, res.Rows)
		assert.Empty(t, res.Rows)
	})
}

func TestQueryTruncates(t *testing.T) {
	path := seedSQLite(t)
	exec, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + path, MaxRows: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close() })

	res, err := exec.Query(context.Background(), "SELECT name FROM products")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.True(t, res.Truncated)
}

func TestQueryTimeout(t *testing.T) {
	path := seedSQLite(t)
	exec, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	_, err = exec.Query(ctx, "SELECT 1")
	assert.Error(t, err)
}

func TestDriverDSN(t *testing.T) {
	cases := []struct {
		cfg        config.DatabaseConfig
		wantDriver string
		wantDSN    string
	}{
		{config.DatabaseConfig{Driver: "pgx", DSN: "postgres://x"}, "pgx", "postgres://x"},
		{config.DatabaseConfig{Driver: "sqlite", DSN: "file:a.db"}, "sqlite", "file:a.db"},
		{config.DatabaseConfig{Driver: "sqlite", DSN: "file:a.db", ReadOnlyTx: true}, "sqlite", "file:a.db?_pragma=query_only(1)"},
		{config.DatabaseConfig{Driver: "sqlite", DSN: "file:a.db?cache=shared", ReadOnlyTx: true}, "sqlite", "file:a.db?cache=shared&_pragma=query_only(1)"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			d, dsn, err := driverDSN(tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDriver, d)
			assert.Equal(t, tc.wantDSN, dsn)
		})
	}
	_, _, err := driverDSN(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}
