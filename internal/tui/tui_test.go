package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectLogs_SortedByName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_ch-05_gcc.sh.log"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0000_ch-05_binutils.sh.log"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	entries, err := CollectLogs(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "0000_ch-05_binutils.sh.log", entries[0].Name)
	assert.Equal(t, "0001_ch-05_gcc.sh.log", entries[1].Name)
}

func TestCollectLogs_EmptyDir(t *testing.T) {
	entries, err := CollectLogs(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
