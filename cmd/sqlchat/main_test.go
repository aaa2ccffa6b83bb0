package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SQLCHAT_CONFIG", "")
	var out, errOut bytes.Buffer
	c := newCLI(&out, &errOut)
	c.root.SetIn(strings.NewReader(stdin))
	c.root.SetArgs(args)
	err := c.root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		out, err := run(t, "", "check", "```sql\nSELECT name FROM products\n```")
		require.NoError(t, err)
		assert.Contains(t, out, "SQL: SELECT name FROM products;")
		assert.Contains(t, out, "accepted")
	})
	t.Run("stdin", func(t *testing.T) {
		out, err := run(t, "select 1", "check")
		require.NoError(t, err)
		assert.Contains(t, out, "SQL: select 1;")
	})
	t.Run("rejected", func(t *testing.T) {
		out, err := run(t, "", "check", "DELETE FROM sales")
		require.Error(t, err)
		assert.Contains(t, out, "rejected")
	})
	t.Run("extra keyword", func(t *testing.T) {
		_, err := run(t, "", "check", "--forbid", "pg_sleep", "SELECT pg_sleep(10)")
		require.Error(t, err)
	})
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(in, []byte(`[{"region":"north","total":10},{"region":"south","total":"n/a"}]`), 0o644))
	outPath := filepath.Join(dir, "chart.png")

	out, err := run(t, "", "render", "-i", in, "-o", outPath, "-t", "pie")
	require.NoError(t, err)
	assert.Contains(t, out, "pie chart written to")

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(in, []byte(`[]`), 0o644))

	_, err := run(t, "", "render", "-i", in, "-t", "radar")
	require.Error(t, err)

	_, err = run(t, "", "render", "-i", in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")

	_, err = run(t, "", "render")
	require.Error(t, err)
}
