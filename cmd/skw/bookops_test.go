package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scratchkit/skw/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder(t *testing.T) *config.Builder {
	dir := t.TempDir()
	profiles := filepath.Join(dir, "profiles")
	skel := filepath.Join(dir, "skel")
	require.NoError(t, os.MkdirAll(profiles, 0o755))
	require.NoError(t, os.MkdirAll(skel, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skel, "book.toml.skel"), []byte("x=1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(skel, "parser.toml"), []byte("[main]"), 0o644))
	return &config.Builder{BuildDir: dir, PackageDir: dir, ProfilesDir: profiles, SkelDir: skel}
}

func TestAddBook_CopiesSkeleton(t *testing.T) {
	b := testBuilder(t)
	require.NoError(t, addBook(b, "lfs"))
	assert.FileExists(t, filepath.Join(b.ProfilesDir, "lfs", "book.toml"))
}

func TestAddProfile_CopiesAllSkelFiles(t *testing.T) {
	b := testBuilder(t)
	require.NoError(t, addProfile(b, "lfs", "systemd"))
	assert.FileExists(t, filepath.Join(b.ProfilesDir, "lfs", "systemd", "parser.toml"))
	assert.FileExists(t, filepath.Join(b.ProfilesDir, "lfs", "systemd", "book.toml.skel"))
}

func TestListBooks_ListsDirectoriesOnly(t *testing.T) {
	b := testBuilder(t)
	require.NoError(t, os.MkdirAll(filepath.Join(b.ProfilesDir, "lfs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(b.ProfilesDir, "notabook.txt"), []byte(""), 0o644))
	require.NoError(t, listBooks(b))
}
