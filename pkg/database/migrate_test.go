package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFileToRedis(t *testing.T) {
	dir := t.TempDir()
	src, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte(`[{"username":"alice"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deposits.json"), []byte(`{broken`), 0o644))

	mr := miniredis.RunT(t)
	dst, err := NewRedisBackend("redis://"+mr.Addr(), "copy:")
	require.NoError(t, err)
	defer dst.Close()

	seen := []string{}
	report, err := Copy(context.Background(), src, dst, []string{Users, Deposits, Banners}, func(name string, data []byte) ([]byte, error) {
		seen = append(seen, name)
		return data, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{Users}, report.Copied)
	assert.Equal(t, []string{Deposits}, report.Invalid)
	assert.Equal(t, []string{Banners}, report.Missing)
	assert.Equal(t, []string{Users}, seen)

	value, err := mr.Get("copy:users")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"username":"alice"}]`, value)
}
