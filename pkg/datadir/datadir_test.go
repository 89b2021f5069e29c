package datadir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "catalogd-data")

	dir, err := Resolve(root)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir.Root))
	assert.DirExists(t, dir.LogosDir())
}

func TestResolveIsIdempotent(t *testing.T) {
	root := t.TempDir()

	_, err := Resolve(root)
	require.NoError(t, err)
	_, err = Resolve(root)
	assert.NoError(t, err)
}

func TestEnsureSiteLogo(t *testing.T) {
	dir, err := Resolve(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, dir.EnsureSiteLogo("site-uuid"))
	assert.FileExists(t, dir.LogoPath("site-uuid"))

	// An operator-provided logo must survive restarts.
	custom := []byte("custom logo bytes")
	require.NoError(t, os.WriteFile(dir.LogoPath("site-uuid"), custom, 0644))
	require.NoError(t, dir.EnsureSiteLogo("site-uuid"))

	data, err := os.ReadFile(dir.LogoPath("site-uuid"))
	require.NoError(t, err)
	assert.Equal(t, custom, data)
}

func TestDiskUsage(t *testing.T) {
	dir, err := Resolve(t.TempDir())
	require.NoError(t, err)

	usage, err := dir.DiskUsage()
	require.NoError(t, err)
	assert.Positive(t, usage.Total)
}
